package pairing

import (
	"github.com/swapfeed/swapfeed/pkg/media"
	"github.com/swapfeed/swapfeed/pkg/reddit"
)

// session holds all per-submission state. A new Submit replaces it wholesale,
// so stale completions from the previous session have nothing to mutate.
type session struct {
	targets []string
	sources []string

	cursor    string
	exhausted bool

	// mediaPool is keyed by media URL; duplicates collapse regardless of
	// which source fetch completed first.
	mediaPool  map[string]media.Reference
	mediaReady bool

	// pending holds target posts that arrived while the pool was empty.
	pending []reddit.RawItem

	posts []PairedPost
}

func newSession(targets, sources []string) *session {
	return &session{
		targets:   targets,
		sources:   sources,
		mediaPool: make(map[string]media.Reference),
	}
}

// addMedia unions references into the pool, deduplicating by URL, and keeps
// mediaReady consistent with pool non-emptiness.
func (s *session) addMedia(refs []media.Reference) {
	for _, ref := range refs {
		if _, ok := s.mediaPool[ref.URL]; !ok {
			s.mediaPool[ref.URL] = ref
		}
	}
	s.mediaReady = len(s.mediaPool) > 0
}

// poolKeys returns the pool's URLs for uniform random selection.
func (s *session) poolKeys() []string {
	keys := make([]string, 0, len(s.mediaPool))
	for k := range s.mediaPool {
		keys = append(keys, k)
	}
	return keys
}
