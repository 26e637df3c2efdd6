package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
	})
	return c, srv
}

func listingBody(after string, urls ...string) string {
	children := ""
	for i, u := range urls {
		if i > 0 {
			children += ","
		}
		children += fmt.Sprintf(`{"data": {"title": "post %d", "url_overridden_by_dest": %q, "post_hint": "image"}}`, i, u)
	}
	afterJSON := "null"
	if after != "" {
		afterJSON = fmt.Sprintf("%q", after)
	}
	return fmt.Sprintf(`{"data": {"after": %s, "children": [%s]}}`, afterJSON, children)
}

func TestFetchBuildsListingURL(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, listingBody("t3_next", "https://i.redd.it/a.jpg"))
	}))

	listing, err := c.Fetch(context.Background(), "pics", SortTop, TimeWeek, 25, "t3_prev")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/r/pics/top.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	for _, want := range []string{"limit=25", "raw_json=1", "t=week", "after=t3_prev"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
	if listing.After != "t3_next" || len(listing.Items) != 1 {
		t.Fatalf("unexpected listing: %+v", listing)
	}
}

func TestFetchIgnoresTimeFilterForNonTop(t *testing.T) {
	var gotQuery string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, listingBody(""))
	}))

	if _, err := c.Fetch(context.Background(), "pics", SortHot, TimeWeek, 25, ""); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if strings.Contains(gotQuery, "t=week") {
		t.Fatalf("time filter should be ignored for hot, query: %q", gotQuery)
	}
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrRestricted},
	}
	for _, tc := range tests {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := c.Fetch(context.Background(), "ghost", SortHot, TimeNone, 10, "")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestFetchOtherStatusError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	_, err := c.Fetch(context.Background(), "pics", SortHot, TimeNone, 10, "")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTeapot {
		t.Fatalf("expected StatusError with 418, got %v", err)
	}
}

func TestFetchRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, listingBody("", "https://i.redd.it/a.jpg"))
	}))

	listing, err := c.Fetch(context.Background(), "pics", SortHot, TimeNone, 10, "")
	if err != nil {
		t.Fatalf("expected retry to recover from 429, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
	if len(listing.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(listing.Items))
	}
}

func TestFetchRateLimitExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Fetch(context.Background(), "pics", SortHot, TimeNone, 10, "")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// 1 attempt + 2 retries
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchMultipleToleratesPartialFailure(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r/pics/hot.json":
			fmt.Fprint(w, listingBody("t3_pics", "https://i.redd.it/a.jpg", "https://i.redd.it/b.jpg"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	listing, err := c.FetchMultiple(context.Background(), []string{"pics", "gone"}, SortHot, TimeNone, 10, "")
	if err != nil {
		t.Fatalf("FetchMultiple failed: %v", err)
	}
	if len(listing.Items) != 2 {
		t.Fatalf("expected 2 items from the surviving subreddit, got %d", len(listing.Items))
	}
	if listing.After != "t3_pics" {
		t.Fatalf("expected cursor from the successful sub-response, got %q", listing.After)
	}
}

func TestFetchMultipleAllFailed(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FetchMultiple(context.Background(), []string{"a", "b"}, SortHot, TimeNone, 10, "")
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems, got %v", err)
	}
}

func TestFetchMultipleAllEmpty(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingBody(""))
	}))

	_, err := c.FetchMultiple(context.Background(), []string{"a", "b"}, SortHot, TimeNone, 10, "")
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems for empty listings, got %v", err)
	}
}

func TestSearchNames(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search_reddit_names.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"names": ["pics", "picrequests"]}`)
	}))

	names := c.SearchNames(context.Background(), "pic")
	if len(names) != 2 || names[0] != "pics" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestSearchNamesDegradesQuietly(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if names := c.SearchNames(context.Background(), "pic"); names != nil {
		t.Fatalf("expected no names on failure, got %v", names)
	}
	if names := c.SearchNames(context.Background(), "p"); names != nil {
		t.Fatalf("expected no lookup for single-letter query, got %v", names)
	}
}
