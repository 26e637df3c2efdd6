// Package media derives displayable media references from reddit posts.
package media

import (
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/swapfeed/swapfeed/pkg/reddit"
)

// Kind distinguishes image and video references.
type Kind string

const (
	Image Kind = "image"
	Video Kind = "video"
)

// Reference is one extracted, displayable media asset. A post yields at most
// one reference.
type Reference struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url"`

	// Source is the post the media was extracted from.
	Source reddit.RawItem `json:"-"`
}

// Extract derives references from a batch of posts, in order. Posts that
// match no extraction rule are skipped, as are posts whose metadata is
// malformed enough to panic the extraction; a bad post never aborts the
// batch.
func Extract(items []reddit.RawItem) []Reference {
	var refs []Reference
	for _, item := range items {
		if ref, ok := extractOne(item); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func extractOne(item reddit.RawItem) (ref Reference, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	switch item.Shape {
	case reddit.ShapeGallery:
		return extractGallery(item)
	case reddit.ShapeVideo:
		u := gjson.Get(item.JSON, "media.reddit_video.fallback_url").String()
		if u == "" {
			return Reference{}, false
		}
		// The fallback URL carries DASH parameters after the query string.
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
		return Reference{Kind: Video, URL: u, Source: item}, true
	case reddit.ShapeDirectImage:
		return Reference{Kind: Image, URL: item.URL, Source: item}, true
	case reddit.ShapeGifv:
		u := item.URL[:len(item.URL)-len(".gifv")] + ".mp4"
		return Reference{Kind: Video, URL: u, Source: item}, true
	case reddit.ShapePreview:
		return extractPreview(item)
	case reddit.ShapeEmbed:
		return extractEmbed(item)
	}
	return Reference{}, false
}

// extractGallery walks the gallery's image ids in order and returns the first
// usable URL: the full-size source if present, else the widest processed
// preview.
func extractGallery(item reddit.RawItem) (Reference, bool) {
	for _, id := range galleryImageIDs(item) {
		meta := gjson.Get(item.JSON, "media_metadata."+id)
		if u := meta.Get("s.u").String(); u != "" {
			return Reference{Kind: Image, URL: unescapeAmp(u), Source: item}, true
		}
		previews := meta.Get("p").Array()
		if len(previews) == 0 {
			continue
		}
		sort.Slice(previews, func(i, j int) bool {
			return previews[i].Get("x").Int() > previews[j].Get("x").Int()
		})
		if u := previews[0].Get("u").String(); u != "" {
			return Reference{Kind: Image, URL: unescapeAmp(u), Source: item}, true
		}
	}
	return Reference{}, false
}

// galleryImageIDs returns the gallery's image ids in display order when
// gallery_data is present, else in media_metadata document order.
func galleryImageIDs(item reddit.RawItem) []string {
	var ids []string
	for _, entry := range gjson.Get(item.JSON, "gallery_data.items").Array() {
		if id := entry.Get("media_id").String(); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		return ids
	}
	gjson.Get(item.JSON, "media_metadata").ForEach(func(key, _ gjson.Result) bool {
		ids = append(ids, key.String())
		return true
	})
	return ids
}

// extractPreview takes the first preview image's source URL, falling back to
// the highest-resolution entry of its resolution list.
func extractPreview(item reddit.RawItem) (Reference, bool) {
	first := gjson.Get(item.JSON, "preview.images.0")
	if u := first.Get("source.url").String(); u != "" {
		return Reference{Kind: Image, URL: unescapeAmp(u), Source: item}, true
	}

	resolutions := first.Get("resolutions").Array()
	best := ""
	bestWidth := int64(-1)
	for _, res := range resolutions {
		if w := res.Get("width").Int(); w > bestWidth && res.Get("url").String() != "" {
			bestWidth = w
			best = res.Get("url").String()
		}
	}
	if best == "" {
		return Reference{}, false
	}
	return Reference{Kind: Image, URL: unescapeAmp(best), Source: item}, true
}

// unescapeAmp undoes the HTML escaping reddit applies to query strings in
// gallery and preview payloads.
func unescapeAmp(u string) string {
	return strings.ReplaceAll(u, "&amp;", "&")
}
