package reddit

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

var rasterExtRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// Exact hosts that always serve a displayable image directly. Sibling
// subdomains like v.redd.it serve video pages, not images.
var directImageHosts = map[string]bool{
	"i.redd.it":   true,
	"i.imgur.com": true,
}

// Registrable domains of known image-hosting sites, used by the looser
// qualification check.
var imageHostDomains = map[string]bool{
	"redd.it":   true,
	"imgur.com": true,
}

// IsRasterImageURL reports whether a URL ends in a raster image extension.
func IsRasterImageURL(u string) bool {
	return rasterExtRe.MatchString(u)
}

// IsDirectImageHost reports whether a post's domain is one of the exact
// hosts whose URLs can be displayed as an image verbatim.
func IsDirectImageHost(domain string) bool {
	return directImageHosts[strings.ToLower(domain)]
}

// IsImageHostDomain reports whether a post's domain belongs to a known
// image-hosting site, compared on the registrable domain so any subdomain
// matches.
func IsImageHostDomain(domain string) bool {
	if domain == "" {
		return false
	}
	reg, err := publicsuffix.Domain(domain)
	if err != nil {
		return false
	}
	return imageHostDomains[strings.ToLower(reg)]
}

func isGifvURL(u string) bool {
	return strings.HasSuffix(strings.ToLower(u), ".gifv")
}

// ParseListing decodes one page of the listing endpoint's JSON envelope.
func ParseListing(body []byte) (*Listing, error) {
	root := gjson.ParseBytes(body)
	children := root.Get("data.children")
	if !children.IsArray() {
		return nil, errors.New("invalid listing payload")
	}

	listing := &Listing{After: root.Get("data.after").String()}
	children.ForEach(func(_, child gjson.Result) bool {
		data := child.Get("data")
		if !data.Exists() {
			return true
		}
		listing.Items = append(listing.Items, parseItem(data))
		return true
	})
	return listing, nil
}

func parseItem(data gjson.Result) RawItem {
	item := RawItem{
		Title:     data.Get("title").String(),
		Author:    data.Get("author").String(),
		Subreddit: data.Get("subreddit").String(),
		Permalink: data.Get("permalink").String(),
		Score:     data.Get("score").Int(),
		Domain:    data.Get("domain").String(),
		PostHint:  data.Get("post_hint").String(),
		IsVideo:   data.Get("is_video").Bool(),
		IsGallery: data.Get("is_gallery").Bool(),
		JSON:      data.Raw,
	}
	item.URL = data.Get("url_overridden_by_dest").String()
	if item.URL == "" {
		item.URL = data.Get("url").String()
	}
	item.Shape = classifyShape(&item, data)
	return item
}

// classifyShape tags a post with the first content shape it matches, checked
// in the extractor's priority order.
func classifyShape(item *RawItem, data gjson.Result) Shape {
	switch {
	case item.IsGallery && data.Get("media_metadata").Exists():
		return ShapeGallery
	case item.IsVideo && data.Get("media.reddit_video.fallback_url").String() != "":
		return ShapeVideo
	case item.URL != "" && !isGifvURL(item.URL) &&
		(IsRasterImageURL(item.URL) || IsDirectImageHost(item.Domain) || item.PostHint == "image"):
		return ShapeDirectImage
	case isGifvURL(item.URL):
		return ShapeGifv
	case data.Get("preview.images.#").Int() > 0:
		return ShapePreview
	case item.PostHint == "rich:video" && data.Get("media.oembed.html").String() != "":
		return ShapeEmbed
	}
	return ShapeLink
}
