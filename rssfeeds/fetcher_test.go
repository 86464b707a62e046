package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"newsbrief/shared/logger"
	"newsbrief/shared/rss"
	"newsbrief/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssFixture(items ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Fixture</title>`
	for _, it := range items {
		body += it
	}
	return body + `</channel></rss>`
}

func rssItem(title, link string, published time.Time) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description>&lt;p&gt;About %s&lt;/p&gt;</description><pubDate>%s</pubDate></item>`,
		title, link, title, published.Format(time.RFC1123Z))
}

func serveFeed(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func failing(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_SingleAddress(t *testing.T) {
	now := time.Now()
	srv := serveFeed(t, rssFixture(
		rssItem("First", "https://example.com/1", now.Add(-time.Hour)),
		rssItem("Second", "https://example.com/2", now.Add(-2*time.Hour)),
	), nil)

	reg := rss.NewRegistry(nil, nil)
	f := NewFetcher(reg, time.Second, logger.NewNop())

	items, err := f.Fetch(context.Background(), types.Source{Name: "plain", URL: srv.URL + "/feed"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "https://example.com/1", items[0].Link)
	require.NotNil(t, items[0].PublishedAt)
	assert.Contains(t, items[0].Snippet, "About First")
}

func TestFetcher_FailsOverToMirror(t *testing.T) {
	var primaryHits, mirrorHits int32
	primary := failing(t, &primaryHits)
	mirror := serveFeed(t, rssFixture(rssItem("Mirrored", "https://example.com/m", time.Now())), &mirrorHits)

	reg := rss.NewRegistry(nil, []rss.MirrorGroup{{Name: "hub", Bases: []string{primary.URL, mirror.URL}}})
	f := NewFetcher(reg, time.Second, logger.NewNop())

	items, err := f.Fetch(context.Background(), types.Source{Name: "routed", URL: primary.URL + "/vendor/news", MirrorGroup: "hub"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mirrored", items[0].Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&primaryHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&mirrorHits))
}

func TestFetcher_TimeoutMovesToNextCandidate(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	fast := serveFeed(t, rssFixture(rssItem("Fast", "https://example.com/f", time.Now())), nil)

	reg := rss.NewRegistry(nil, []rss.MirrorGroup{{Name: "hub", Bases: []string{slow.URL, fast.URL}}})
	f := NewFetcher(reg, 100*time.Millisecond, logger.NewNop())

	items, err := f.Fetch(context.Background(), types.Source{Name: "slow", URL: slow.URL + "/x", MirrorGroup: "hub"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fast", items[0].Title)
}

func TestFetcher_AllCandidatesFail(t *testing.T) {
	var hits int32
	a := failing(t, &hits)
	b := failing(t, &hits)
	empty := serveFeed(t, rssFixture(), &hits)

	reg := rss.NewRegistry(nil, []rss.MirrorGroup{{Name: "hub", Bases: []string{a.URL, b.URL, empty.URL}}})
	f := NewFetcher(reg, time.Second, logger.NewNop())

	_, err := f.Fetch(context.Background(), types.Source{Name: "down", URL: a.URL + "/x", MirrorGroup: "hub"})
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "down", fetchErr.Source)
	assert.Len(t, fetchErr.Attempts, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.ErrorIs(t, err, errEmptyFeed)
}
