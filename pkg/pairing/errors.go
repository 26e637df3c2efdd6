package pairing

import "errors"

// Validation and terminal aggregate errors. Per-subreddit fetch failures stay
// internal; only these surface to the caller.
var (
	ErrEmptyTargets = errors.New("no valid target subreddits")
	ErrEmptySources = errors.New("no valid source subreddits")

	// ErrNoTargetPosts means every sort mode was tried and none yielded posts.
	ErrNoTargetPosts = errors.New("no target posts found")

	// ErrNoQualifyingPosts means target posts exist but none passed the
	// media qualification rule.
	ErrNoQualifyingPosts = errors.New("no target posts with replaceable media")

	// ErrSuperseded means a newer submission started while this operation was
	// in flight; its results were discarded.
	ErrSuperseded = errors.New("superseded by a newer submission")
)

// NoSourceMediaError means source acquisition finished with an empty media
// pool. AllFailed distinguishes "no source could be reached at all" from
// "sources returned posts but none had usable media"; the two get different
// user-facing wording.
type NoSourceMediaError struct {
	AllFailed bool
}

func (e *NoSourceMediaError) Error() string {
	if e.AllFailed {
		return "failed to load any source subreddit"
	}
	return "source subreddits yielded no usable media"
}
