package rssfeeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"newsbrief/shared/logger"
	"newsbrief/types"

	readability "github.com/go-shiori/go-readability"
)

const (
	WorkerCount      = 5
	extractorTimeout = 30 * time.Second
	maxPageBytes     = 4 << 20
)

// ReadabilityEnricher fills empty feed snippets from the article page.
type ReadabilityEnricher struct {
	log     logger.Logger
	client  *http.Client
	extract func(ctx context.Context, link string) (string, error)
}

// NewReadabilityEnricher creates an enricher backed by go-readability.
func NewReadabilityEnricher(log logger.Logger) *ReadabilityEnricher {
	e := &ReadabilityEnricher{log: log, client: &http.Client{Timeout: extractorTimeout}}
	e.extract = e.extractExcerpt
	return e
}

// Enrich fetches missing snippets using a worker pool. Items are updated in
// place; failures leave the snippet empty.
func (e *ReadabilityEnricher) Enrich(ctx context.Context, items []types.FeedItem) {
	var wg sync.WaitGroup
	jobs := make(chan int, len(items))

	// Start worker pool
	for w := 0; w < WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				text, err := e.extract(ctx, items[i].Link)
				if err != nil {
					e.log.Debug("Snippet extraction failed",
						logger.String("link", items[i].Link), logger.Err(err))
					continue
				}
				items[i].Snippet = text
			}
		}()
	}

	// Queue only the items that need it
	for i := range items {
		if items[i].Snippet == "" && items[i].Link != "" {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()
}

// extractExcerpt fetches a page and returns its excerpt or leading text.
func (e *ReadabilityEnricher) extractExcerpt(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid link: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}
	if article.Excerpt != "" {
		return Truncate(article.Excerpt, MaxSnippetRunes), nil
	}
	return Truncate(article.TextContent, MaxSnippetRunes), nil
}
