package reddit

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream failure classes. Callers match with errors.Is.
var (
	// ErrNotFound means the subreddit does not exist (HTTP 404).
	ErrNotFound = errors.New("subreddit not found")

	// ErrRestricted means the subreddit is private, quarantined or otherwise
	// gated (HTTP 403).
	ErrRestricted = errors.New("subreddit is private or restricted")

	// ErrRateLimited means the upstream kept returning 429 after all retries.
	ErrRateLimited = errors.New("rate limited by reddit")

	// ErrNoItems means every sub-fetch of a multi-subreddit request failed or
	// returned zero posts.
	ErrNoItems = errors.New("no posts available")
)

// StatusError is returned for non-2xx statuses that don't map to a sentinel.
type StatusError struct {
	Subreddit  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch r/%s: HTTP %d", e.Subreddit, e.StatusCode)
}
