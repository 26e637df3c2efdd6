package media

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/swapfeed/swapfeed/pkg/reddit"
)

// extractEmbed pulls the iframe src out of a rich:video post's oembed HTML.
// This only runs for posts no other rule matched.
func extractEmbed(item reddit.RawItem) (Reference, bool) {
	embedHTML := gjson.Get(item.JSON, "media.oembed.html").String()
	if embedHTML == "" {
		return Reference{}, false
	}

	node, err := html.Parse(strings.NewReader(embedHTML))
	if err != nil {
		return Reference{}, false
	}
	doc := goquery.NewDocumentFromNode(node)

	src, ok := doc.Find("iframe").First().Attr("src")
	if !ok || src == "" {
		return Reference{}, false
	}
	// Protocol-relative srcs are common in oembed payloads.
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return Reference{Kind: Video, URL: unescapeAmp(src), Source: item}, true
}
