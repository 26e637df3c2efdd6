package media

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/swapfeed/swapfeed/pkg/reddit"
)

// Qualifies reports whether a target post is displayable and therefore
// eligible for pairing. The check is deliberately lenient: any hint that the
// post once carried media is enough, since its own media gets replaced
// anyway.
func Qualifies(item reddit.RawItem) bool {
	switch item.PostHint {
	case "image", "hosted:video", "rich:video":
		return true
	}
	if item.IsVideo || item.IsGallery {
		return true
	}
	if gjson.Get(item.JSON, "preview.images.#").Int() > 0 {
		return true
	}
	if item.URL != "" {
		if reddit.IsRasterImageURL(item.URL) {
			return true
		}
		if strings.Contains(item.URL, "imgur.com") {
			return true
		}
	}
	return reddit.IsImageHostDomain(item.Domain)
}
