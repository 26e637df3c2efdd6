// Package pairing orchestrates the feed: source media is acquired first,
// target posts are fetched page by page, and every qualifying target post is
// paired with a random media reference drawn from the source pool.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/swapfeed/swapfeed/internal/utils"
	"github.com/swapfeed/swapfeed/pkg/media"
	"github.com/swapfeed/swapfeed/pkg/reddit"
)

const (
	defaultSourceLimit    = 75
	defaultInitialLimit   = 25
	defaultMoreLimit      = 15
	defaultReplenishLimit = 50
	defaultPoolFloor      = 3
)

// Config holds everything New needs for a single engine. Fetcher is
// required; everything else defaults.
type Config struct {
	Fetcher Fetcher
	Log     reddit.Logger

	// SourceLimit is the page size for source media acquisition.
	SourceLimit int
	// InitialLimit is the target page size on Submit.
	InitialLimit int
	// MoreLimit is the smaller target page size on LoadMore.
	MoreLimit int
	// ReplenishLimit is the page size for background pool refills.
	ReplenishLimit int
	// PoolFloor triggers a replenish when the pool shrinks below it.
	PoolFloor int
}

// Engine is the pairing state machine. All state mutation happens under one
// mutex; fetches run unlocked and re-validate the session generation before
// touching state, so completions from a superseded submission are discarded.
type Engine struct {
	fetcher Fetcher
	log     reddit.Logger

	sourceLimit    int
	initialLimit   int
	moreLimit      int
	replenishLimit int
	poolFloor      int

	mu             sync.Mutex
	sess           *session
	generation     uint64
	loadingInitial bool
	loadingMore    bool
	replenishing   bool
	message        *Message
}

func New(cfg Config) *Engine {
	if cfg.Log == nil {
		cfg.Log = nopEngineLogger{}
	}
	e := &Engine{
		fetcher:        cfg.Fetcher,
		log:            cfg.Log,
		sourceLimit:    cfg.SourceLimit,
		initialLimit:   cfg.InitialLimit,
		moreLimit:      cfg.MoreLimit,
		replenishLimit: cfg.ReplenishLimit,
		poolFloor:      cfg.PoolFloor,
	}
	if e.sourceLimit <= 0 {
		e.sourceLimit = defaultSourceLimit
	}
	if e.initialLimit <= 0 {
		e.initialLimit = defaultInitialLimit
	}
	if e.moreLimit <= 0 {
		e.moreLimit = defaultMoreLimit
	}
	if e.replenishLimit <= 0 {
		e.replenishLimit = defaultReplenishLimit
	}
	if e.poolFloor <= 0 {
		e.poolFloor = defaultPoolFloor
	}
	return e
}

type nopEngineLogger struct{}

func (nopEngineLogger) Infof(string, ...interface{})  {}
func (nopEngineLogger) Warnf(string, ...interface{})  {}
func (nopEngineLogger) Errorf(string, ...interface{}) {}
func (nopEngineLogger) Debugf(string, ...interface{}) {}

// Submit starts a fresh session: prior results, cursor, pool and queue are
// discarded, source media is acquired, then the first target page is fetched
// and paired. Any still-in-flight work from a previous submission is
// invalidated by the generation bump.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) error {
	targets := normalize(req.Targets)
	sources := normalize(req.Sources)

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.sess = newSession(targets, sources)
	e.message = nil
	e.loadingInitial = true

	if len(targets) == 0 {
		e.failLocked("Please enter valid, comma-separated target subreddits.")
		e.mu.Unlock()
		return ErrEmptyTargets
	}
	if len(sources) == 0 {
		e.failLocked("Please enter valid, comma-separated source subreddits.")
		e.mu.Unlock()
		return ErrEmptySources
	}
	e.mu.Unlock()

	// Phase 1: source media. Must finish, success or not, before any target
	// post is paired.
	refs, sawPosts := e.acquireSourceMedia(ctx, sources)

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return ErrSuperseded
	}
	e.sess.addMedia(refs)
	if !e.sess.mediaReady {
		err := &NoSourceMediaError{AllFailed: !sawPosts}
		if err.AllFailed {
			e.failLocked("Failed to load source subreddits. Check your connection or try different subreddits.")
		} else {
			e.failLocked("No media content found in the source subreddits. Try different sources.")
		}
		e.mu.Unlock()
		return err
	}
	e.log.Infof("media pool ready: %d unique references", len(e.sess.mediaPool))
	e.mu.Unlock()

	// Phase 2: target posts, falling back through sort modes if the
	// requested one yields nothing.
	listing, usedSort, err := e.acquireTargets(ctx, targets, req.Sort, req.TimeFilter)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen {
		return ErrSuperseded
	}
	if err != nil {
		e.failLocked(fmt.Sprintf("No posts found in r/%s.", strings.Join(targets, ", ")))
		return err
	}

	added := e.pairLocked(listing.Items)
	e.sess.cursor = listing.After
	if listing.After == "" {
		e.sess.exhausted = true
	}
	e.loadingInitial = false

	if added == 0 {
		e.message = &Message{
			Text: fmt.Sprintf("Found posts in r/%s, but none had replaceable media.", strings.Join(targets, ", ")),
			Kind: KindError,
		}
		return ErrNoQualifyingPosts
	}
	if usedSort != req.Sort {
		e.message = &Message{
			Text: fmt.Sprintf("Using %q sorting: %q returned no posts for r/%s.", usedSort, req.Sort, strings.Join(targets, ", ")),
			Kind: KindInfo,
		}
	} else {
		e.message = nil
	}
	return nil
}

// LoadMore fetches the next target page and pairs it. It is a no-op while a
// submit or another load is in flight, when the feed is exhausted, when no
// session exists yet, or before source media is ready.
func (e *Engine) LoadMore(ctx context.Context, sort reddit.Sort, timeFilter reddit.TimeFilter) error {
	e.mu.Lock()
	if e.sess == nil || len(e.sess.targets) == 0 ||
		e.loadingInitial || e.loadingMore ||
		e.sess.exhausted || !e.sess.mediaReady || e.sess.cursor == "" {
		e.mu.Unlock()
		return nil
	}
	e.loadingMore = true
	gen := e.generation
	targets := e.sess.targets
	cursor := e.sess.cursor
	poolSize := len(e.sess.mediaPool)
	e.mu.Unlock()

	if poolSize < e.poolFloor {
		if err := e.Replenish(ctx); err != nil {
			e.log.Warnf("pool replenish failed: %v", err)
		}
	}

	listing, err := e.fetcher.FetchMultiple(ctx, targets, sort, timeFilter, e.moreLimit, cursor)

	e.mu.Lock()
	defer e.mu.Unlock()
	// The flag must drop even for a superseded completion, or the new
	// session could never load again.
	e.loadingMore = false
	if e.generation != gen {
		return ErrSuperseded
	}

	if err != nil {
		if errors.Is(err, reddit.ErrNoItems) {
			e.sess.exhausted = true
			return nil
		}
		e.message = &Message{Text: "Error loading more: " + err.Error(), Kind: KindError}
		return err
	}

	e.pairLocked(listing.Items)
	e.sess.cursor = listing.After
	if listing.After == "" {
		e.sess.exhausted = true
	}
	e.message = nil
	return nil
}

// Replenish refetches every source subreddit at "hot" and unions any new
// references into the pool. Queued target posts are flushed if the pool goes
// from empty to non-empty.
func (e *Engine) Replenish(ctx context.Context) error {
	e.mu.Lock()
	if e.sess == nil || len(e.sess.sources) == 0 || e.replenishing || e.loadingInitial {
		e.mu.Unlock()
		return nil
	}
	e.replenishing = true
	gen := e.generation
	sources := e.sess.sources
	e.mu.Unlock()

	var (
		wg   sync.WaitGroup
		rmu  sync.Mutex
		refs []media.Reference
	)
	for _, name := range sources {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			listing, err := e.fetcher.Fetch(ctx, name, reddit.SortHot, reddit.TimeNone, e.replenishLimit, "")
			if err != nil {
				e.log.Debugf("replenish r/%s failed: %v", name, err)
				return
			}
			extracted := media.Extract(listing.Items)
			rmu.Lock()
			refs = append(refs, extracted...)
			rmu.Unlock()
		}(name)
	}
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.replenishing = false
	if e.generation != gen {
		return ErrSuperseded
	}
	wasReady := e.sess.mediaReady
	e.sess.addMedia(refs)
	e.log.Debugf("media pool replenished: %d unique references", len(e.sess.mediaPool))
	if !wasReady && e.sess.mediaReady {
		e.flushQueueLocked()
	}
	return nil
}

// Suggest proxies subreddit name autocomplete when the fetcher supports it.
func (e *Engine) Suggest(ctx context.Context, query string) []string {
	if s, ok := e.fetcher.(interface {
		SearchNames(ctx context.Context, query string) []string
	}); ok {
		return s.SearchNames(ctx, query)
	}
	return nil
}

// Snapshot returns a copy of the state the rendering layer consumes.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		IsLoadingInitial: e.loadingInitial,
		IsLoadingMore:    e.loadingMore,
	}
	if e.message != nil {
		m := *e.message
		snap.Message = &m
	}
	if e.sess != nil {
		snap.Posts = append(snap.Posts, e.sess.posts...)
		snap.MediaReady = e.sess.mediaReady
		snap.Exhausted = e.sess.exhausted
		snap.PoolSize = len(e.sess.mediaPool)
	}
	return snap
}

// Posts returns the session's paired posts in arrival order.
func (e *Engine) Posts() []PairedPost {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return append([]PairedPost(nil), e.sess.posts...)
}

func (e *Engine) Message() *Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.message == nil {
		return nil
	}
	m := *e.message
	return &m
}

func (e *Engine) SourceMediaReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil && e.sess.mediaReady
}

func (e *Engine) Exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil && e.sess.exhausted
}

// acquireSourceMedia fans out across source subreddits. Each source tries
// hot, then new, then top(month), stopping at the first sort that yields at
// least one extractable reference. sawPosts reports whether any source fetch
// returned posts at all, which decides the NoSourceMedia wording.
func (e *Engine) acquireSourceMedia(ctx context.Context, sources []string) (refs []media.Reference, sawPosts bool) {
	sortAttempts := []struct {
		sort reddit.Sort
		tf   reddit.TimeFilter
	}{
		{reddit.SortHot, reddit.TimeNone},
		{reddit.SortNew, reddit.TimeNone},
		{reddit.SortTop, reddit.TimeMonth},
	}

	var (
		wg  sync.WaitGroup
		rmu sync.Mutex
	)
	for _, name := range sources {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for _, attempt := range sortAttempts {
				listing, err := e.fetcher.Fetch(ctx, name, attempt.sort, attempt.tf, e.sourceLimit, "")
				if err != nil {
					e.log.Debugf("source r/%s (%s) failed: %v", name, attempt.sort, err)
					continue
				}
				if len(listing.Items) == 0 {
					continue
				}
				rmu.Lock()
				sawPosts = true
				rmu.Unlock()

				extracted := media.Extract(listing.Items)
				if len(extracted) == 0 {
					e.log.Debugf("source r/%s (%s): %d posts, no media", name, attempt.sort, len(listing.Items))
					continue
				}
				e.log.Infof("source r/%s: %d references via %s", name, len(extracted), attempt.sort)
				rmu.Lock()
				refs = append(refs, extracted...)
				rmu.Unlock()
				return
			}
		}(name)
	}
	wg.Wait()

	// Shuffling is cosmetic here since the pool dedups by URL, but it keeps
	// duplicate survival independent of source order.
	rand.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	return refs, sawPosts
}

// acquireTargets tries the requested sort first, then falls back through
// hot, new, top until one yields posts.
func (e *Engine) acquireTargets(ctx context.Context, targets []string, requested reddit.Sort, timeFilter reddit.TimeFilter) (*reddit.Listing, reddit.Sort, error) {
	order := []reddit.Sort{requested}
	for _, s := range []reddit.Sort{reddit.SortHot, reddit.SortNew, reddit.SortTop} {
		if s != requested {
			order = append(order, s)
		}
	}

	for _, sort := range order {
		tf := reddit.TimeNone
		if sort == reddit.SortTop {
			tf = timeFilter
		}
		listing, err := e.fetcher.FetchMultiple(ctx, targets, sort, tf, e.initialLimit, "")
		if err != nil {
			e.log.Debugf("target fetch (%s) failed: %v", sort, err)
			continue
		}
		if len(listing.Items) > 0 {
			return listing, sort, nil
		}
	}
	return nil, requested, ErrNoTargetPosts
}

// pairLocked runs the pairing step over a batch of target posts. Qualifying
// posts each get one reference drawn uniformly (with replacement) from the
// current pool; non-qualifying posts are dropped. If the pool is empty the
// whole batch is queued instead and zero posts are produced.
func (e *Engine) pairLocked(items []reddit.RawItem) int {
	if len(e.sess.mediaPool) == 0 {
		e.sess.pending = append(e.sess.pending, items...)
		e.log.Warnf("no source media available, queuing %d target posts", len(items))
		return 0
	}

	keys := e.sess.poolKeys()
	added := 0
	for _, item := range items {
		if !media.Qualifies(item) {
			continue
		}
		ref := e.sess.mediaPool[keys[rand.IntN(len(keys))]]
		e.sess.posts = append(e.sess.posts, PairedPost{Target: metaOf(item), Media: ref})
		added++
	}
	return added
}

// flushQueueLocked converts everything queued while the pool was empty.
// Runs exactly once per false→true mediaReady transition.
func (e *Engine) flushQueueLocked() {
	if len(e.sess.pending) == 0 {
		return
	}
	queued := e.sess.pending
	e.sess.pending = nil
	added := e.pairLocked(queued)
	e.log.Infof("flushed %d queued posts, %d paired", len(queued), added)
}

func (e *Engine) failLocked(text string) {
	e.message = &Message{Text: text, Kind: KindError}
	e.loadingInitial = false
}

// normalize flattens raw user input into clean subreddit names.
func normalize(raw []string) []string {
	var out []string
	for _, entry := range raw {
		out = append(out, utils.SplitCollections(entry)...)
	}
	return out
}
