package reddit

// Sort is a reddit listing sort mode.
type Sort string

const (
	SortHot Sort = "hot"
	SortNew Sort = "new"
	SortTop Sort = "top"
)

// TimeFilter narrows a "top" listing. It is ignored for other sorts.
type TimeFilter string

const (
	TimeDay   TimeFilter = "day"
	TimeWeek  TimeFilter = "week"
	TimeMonth TimeFilter = "month"
	TimeYear  TimeFilter = "year"
	TimeAll   TimeFilter = "all"
	TimeNone  TimeFilter = ""
)

// Shape classifies a post's content once at parse time, in the same priority
// order the media extractor applies. A post gets exactly one shape.
type Shape int

const (
	// ShapeLink is the catch-all: nothing displayable detected.
	ShapeLink Shape = iota
	// ShapeGallery is a reddit gallery with media metadata.
	ShapeGallery
	// ShapeVideo is a reddit-hosted video with a fallback URL.
	ShapeVideo
	// ShapeDirectImage is a direct link to a raster image.
	ShapeDirectImage
	// ShapeGifv is an imgur-style .gifv link.
	ShapeGifv
	// ShapePreview only carries a generic preview image set.
	ShapePreview
	// ShapeEmbed is a rich:video post whose oembed payload has embed HTML.
	ShapeEmbed
)

func (s Shape) String() string {
	switch s {
	case ShapeGallery:
		return "gallery"
	case ShapeVideo:
		return "video"
	case ShapeDirectImage:
		return "image"
	case ShapeGifv:
		return "gifv"
	case ShapePreview:
		return "preview"
	case ShapeEmbed:
		return "embed"
	}
	return "link"
}

// RawItem is one post as returned by the listing endpoint. The common fields
// are decoded eagerly; the full "data" object is kept as raw JSON so the
// extractor can pick shape-specific fields with gjson.
type RawItem struct {
	Title     string
	Author    string
	Subreddit string
	Permalink string
	Score     int64

	Domain    string
	PostHint  string
	URL       string // url_overridden_by_dest, falling back to url
	IsVideo   bool
	IsGallery bool
	Shape     Shape

	// JSON holds the post's raw "data" object.
	JSON string
}

// Listing is one page of posts plus the continuation cursor. After is empty
// when the feed is exhausted.
type Listing struct {
	Items []RawItem
	After string
}

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}
