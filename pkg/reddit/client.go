package reddit

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://www.reddit.com"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	defaultTimeout  = 12 * time.Second
	defaultRetryMax = 2

	searchTimeout = 3 * time.Second
)

// Config holds everything NewClient needs. The zero value works; every field
// has a sensible default.
type Config struct {
	BaseURL   string
	UserAgent string
	Proxy     string

	// Timeout bounds each individual request, including retries' bodies.
	Timeout time.Duration
	// RetryMax is the number of retries after the first attempt.
	RetryMax int
	// RequestsPerSecond paces all outgoing requests through one limiter.
	RequestsPerSecond float64

	Log Logger
}

// Client talks to the public reddit JSON endpoints. All requests funnel
// through a single rate limiter, and transient failures (transport errors,
// 429, 5xx) are retried with linear backoff.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	log       Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = defaultRetryMax
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}

	inner := &http.Client{Timeout: cfg.Timeout}
	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil {
			inner.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = inner
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 5 * time.Second
	rc.Backoff = retryablehttp.LinearJitterBackoff
	rc.CheckRetry = checkRetry
	// Keep the final response around so status codes can be mapped to the
	// error taxonomy even after retries are exhausted.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil

	return &Client{
		http:      rc,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 4),
		log:       cfg.Log,
	}
}

// checkRetry marks transport errors, 429 and 5xx as retryable. 404/403 are
// final: retrying a missing or gated subreddit never helps.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, nil
	}
	return false, nil
}

// Fetch retrieves one page of a subreddit listing. The time filter only
// applies when sort is "top". An empty cursor fetches the first page.
func (c *Client) Fetch(ctx context.Context, subreddit string, sort Sort, timeFilter TimeFilter, limit int, cursor string) (*Listing, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	if sort == SortTop && timeFilter != TimeNone {
		q.Set("t", string(timeFilter))
	}
	if cursor != "" {
		q.Set("after", cursor)
	}
	reqURL := fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, url.PathEscape(subreddit), sort, q.Encode())

	body, err := c.get(ctx, subreddit, reqURL)
	if err != nil {
		return nil, err
	}

	listing, err := ParseListing(body)
	if err != nil {
		return nil, fmt.Errorf("r/%s: %w", subreddit, err)
	}
	c.log.Debugf("fetched %d posts from r/%s (%s), after=%q", len(listing.Items), subreddit, sort, listing.After)
	return listing, nil
}

// FetchMultiple fans out one Fetch per subreddit concurrently and merges the
// results. Individual failures are logged and contribute zero posts; the
// merged set is shuffled. Cursors are not comparable across subreddits, so
// the returned cursor is an arbitrary successful sub-response's cursor.
// If every sub-fetch fails or returns nothing, ErrNoItems is returned.
func (c *Client) FetchMultiple(ctx context.Context, subreddits []string, sort Sort, timeFilter TimeFilter, limit int, cursor string) (*Listing, error) {
	type result struct {
		listing *Listing
		err     error
	}
	results := make([]result, len(subreddits))

	var wg sync.WaitGroup
	for i, name := range subreddits {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			listing, err := c.Fetch(ctx, name, sort, timeFilter, limit, cursor)
			results[i] = result{listing: listing, err: err}
		}(i, name)
	}
	wg.Wait()

	merged := &Listing{}
	for i, r := range results {
		if r.err != nil {
			c.log.Warnf("fetch r/%s failed: %v", subreddits[i], r.err)
			continue
		}
		merged.Items = append(merged.Items, r.listing.Items...)
		if merged.After == "" {
			merged.After = r.listing.After
		}
	}
	if len(merged.Items) == 0 {
		return nil, ErrNoItems
	}

	rand.Shuffle(len(merged.Items), func(i, j int) {
		merged.Items[i], merged.Items[j] = merged.Items[j], merged.Items[i]
	})
	return merged, nil
}

// SearchNames queries the subreddit name autocomplete endpoint. It degrades
// to an empty result on any failure; autocomplete is never worth surfacing
// an error for.
func (c *Client) SearchNames(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("query", query)
	q.Set("exact", "false")
	q.Set("include_over_18", "true")
	reqURL := c.baseURL + "/api/search_reddit_names.json?" + q.Encode()

	body, err := c.get(ctx, "", reqURL)
	if err != nil {
		c.log.Debugf("name search for %q failed: %v", query, err)
		return nil
	}

	var names []string
	for _, name := range gjson.GetBytes(body, "names").Array() {
		names = append(names, name.String())
	}
	return names
}

// get performs one rate-limited GET and maps non-2xx statuses onto the error
// taxonomy. The subreddit name is only used for error wrapping.
func (c *Client) get(ctx context.Context, subreddit, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("r/%s: %w", subreddit, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("r/%s: %w", subreddit, ErrNotFound)
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("r/%s: %w", subreddit, ErrRestricted)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("r/%s: %w", subreddit, ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Subreddit: subreddit, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}
