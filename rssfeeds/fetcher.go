package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"newsbrief/shared/logger"
	"newsbrief/shared/rss"
	"newsbrief/types"

	"github.com/mmcdole/gofeed"
)

// DefaultAttemptTimeout bounds a single candidate fetch+parse.
const DefaultAttemptTimeout = 10 * time.Second

var errEmptyFeed = errors.New("feed has no items")

// FetchError reports that every candidate address of a source failed.
type FetchError struct {
	Source   string
	Attempts []string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %d candidate(s) failed: %v", e.Source, len(e.Attempts), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher parses feeds with mirror failover.
type Fetcher struct {
	registry *rss.Registry
	client   *http.Client
	timeout  time.Duration
	log      logger.Logger
}

// NewFetcher creates a fetcher. A zero timeout uses DefaultAttemptTimeout.
func NewFetcher(reg *rss.Registry, timeout time.Duration, log logger.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &Fetcher{
		registry: reg,
		client:   &http.Client{},
		timeout:  timeout,
		log:      log,
	}
}

// Fetch returns the items of the first candidate address that parses with
// at least one item.
func (f *Fetcher) Fetch(ctx context.Context, src types.Source) ([]types.FeedItem, error) {
	candidates := Candidates(f.registry, src)
	var lastErr error

	for i, addr := range candidates {
		items, err := f.attempt(ctx, addr)
		if err == nil {
			if i > 0 {
				f.log.Info("Fetched source from mirror",
					logger.String("source", src.Name), logger.String("address", addr))
			}
			return items, nil
		}
		lastErr = err
		f.log.Debug("Feed candidate failed",
			logger.String("source", src.Name),
			logger.String("address", addr),
			logger.Err(err))
	}

	return nil, &FetchError{Source: src.Name, Attempts: candidates, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, addr string) ([]types.FeedItem, error) {
	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = "newsbrief/1.0 (+feed aggregator)"

	feed, err := parser.ParseURLWithContext(addr, actx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, errEmptyFeed
	}

	items := make([]types.FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		// Parse published date
		var publishedAt *time.Time
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = item.UpdatedParsed
		}

		snippet := item.Description
		if snippet == "" {
			snippet = item.Content
		}

		items = append(items, types.FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: publishedAt,
			Snippet:     snippet,
		})
	}
	return items, nil
}
