package pairing

import (
	"context"

	"github.com/swapfeed/swapfeed/pkg/media"
	"github.com/swapfeed/swapfeed/pkg/reddit"
)

// TargetMeta is the metadata kept from a target post.
type TargetMeta struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Subreddit string `json:"subreddit"`
	Permalink string `json:"permalink"`
	Score     int64  `json:"score"`
}

// PairedPost combines a target post's metadata with the randomly assigned
// replacement media. Media is always populated: a qualifying target that
// cannot be paired is dropped, never surfaced with a placeholder.
type PairedPost struct {
	Target TargetMeta      `json:"target"`
	Media  media.Reference `json:"media"`
}

// MessageKind classifies the single user-visible message slot.
type MessageKind string

const (
	KindError MessageKind = "error"
	KindInfo  MessageKind = "info"
)

// Message is the one human-readable notice shown at a time.
type Message struct {
	Text string      `json:"text"`
	Kind MessageKind `json:"kind"`
}

// SubmitRequest starts a fresh session. Targets and Sources accept raw user
// input; entries may contain commas, r/ prefixes and stray slashes.
type SubmitRequest struct {
	Targets    []string
	Sources    []string
	Sort       reddit.Sort
	TimeFilter reddit.TimeFilter
}

// Snapshot is the engine state handed to the rendering layer.
type Snapshot struct {
	Posts            []PairedPost `json:"posts"`
	IsLoadingInitial bool         `json:"is_loading_initial"`
	IsLoadingMore    bool         `json:"is_loading_more"`
	MediaReady       bool         `json:"media_ready"`
	Exhausted        bool         `json:"exhausted"`
	PoolSize         int          `json:"pool_size"`
	Message          *Message     `json:"message,omitempty"`
}

// Fetcher is the slice of the reddit client the engine needs. Tests provide
// fakes; production passes *reddit.Client.
type Fetcher interface {
	Fetch(ctx context.Context, subreddit string, sort reddit.Sort, timeFilter reddit.TimeFilter, limit int, cursor string) (*reddit.Listing, error)
	FetchMultiple(ctx context.Context, subreddits []string, sort reddit.Sort, timeFilter reddit.TimeFilter, limit int, cursor string) (*reddit.Listing, error)
}

func metaOf(item reddit.RawItem) TargetMeta {
	return TargetMeta{
		Title:     item.Title,
		Author:    item.Author,
		Subreddit: item.Subreddit,
		Permalink: item.Permalink,
		Score:     item.Score,
	}
}
