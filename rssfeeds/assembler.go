package rssfeeds

import (
	"context"
	"strings"
	"sync"
	"time"

	"newsbrief/deduplication"
	"newsbrief/shared/logger"
	"newsbrief/types"
)

const (
	// RecencyWindow is how far back an item may be published to be kept.
	RecencyWindow = 24 * time.Hour
	// MaxItemsPerSource caps one source's contribution to a context.
	MaxItemsPerSource = 15
	// MaxSnippetRunes caps the rendered snippet length.
	MaxSnippetRunes = 300
	// FetchWorkers bounds concurrent source fetches.
	FetchWorkers = 4

	// ContextBanner opens every rendered context.
	ContextBanner = "LATEST AI NEWS FEED DATA (items published within the last 24 hours):"
)

// SourceFetcher fetches the items of one source.
type SourceFetcher interface {
	Fetch(ctx context.Context, src types.Source) ([]types.FeedItem, error)
}

// SnippetEnricher fills empty snippets in place. Failures are absorbed.
type SnippetEnricher interface {
	Enrich(ctx context.Context, items []types.FeedItem)
}

// SourceReport summarizes one source's contribution.
type SourceReport struct {
	Name       string
	Fetched    int
	Kept       int
	Duplicates int
	Err        error
}

// Result is an assembled context plus per-source bookkeeping.
type Result struct {
	Context string
	Sources []SourceReport
}

// Failed returns the names of sources whose fetch failed.
func (r Result) Failed() []string {
	var out []string
	for _, s := range r.Sources {
		if s.Err != nil {
			out = append(out, s.Name)
		}
	}
	return out
}

// TotalKept is the number of items rendered into the context.
func (r Result) TotalKept() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Kept
	}
	return n
}

// Assembler turns sources into a single prompt context.
type Assembler struct {
	fetcher  SourceFetcher
	enricher SnippetEnricher
	log      logger.Logger
	now      func() time.Time
}

// NewAssembler creates an assembler. enricher may be nil.
func NewAssembler(fetcher SourceFetcher, enricher SnippetEnricher, log logger.Logger) *Assembler {
	return &Assembler{fetcher: fetcher, enricher: enricher, log: log, now: time.Now}
}

// Assemble fetches every source and renders the recent items. It never
// fails: a source that cannot be fetched is logged and skipped.
func (a *Assembler) Assemble(ctx context.Context, sources []types.Source) Result {
	cutoff := a.now().Add(-RecencyWindow)
	fetched := a.fetchAll(ctx, sources)

	result := Result{Sources: make([]SourceReport, len(sources))}
	kept := make([][]types.FeedItem, len(sources))
	seen := deduplication.NewSet()

	for i, src := range sources {
		report := SourceReport{Name: src.Name, Err: fetched[i].err}
		if fetched[i].err != nil {
			a.log.Warn("Skipping source", logger.String("source", src.Name), logger.Err(fetched[i].err))
			result.Sources[i] = report
			continue
		}

		items, dups := dropSeen(FilterRecent(fetched[i].items, cutoff), seen)
		if a.enricher != nil && len(items) > 0 {
			a.enricher.Enrich(ctx, items)
		}

		report.Fetched = len(fetched[i].items)
		report.Kept = len(items)
		report.Duplicates = dups
		result.Sources[i] = report
		kept[i] = items
	}

	result.Context = Render(sources, kept)
	return result
}

// dropSeen removes items already syndicated by an earlier source.
func dropSeen(items []types.FeedItem, seen *deduplication.Set) ([]types.FeedItem, int) {
	out := items[:0]
	for _, it := range items {
		if seen.Add(it.Link, it.Title) {
			out = append(out, it)
		}
	}
	return out, len(items) - len(out)
}

type fetchOutcome struct {
	items []types.FeedItem
	err   error
}

// fetchAll runs source fetches through a small worker pool; outcomes keep
// registry order.
func (a *Assembler) fetchAll(ctx context.Context, sources []types.Source) []fetchOutcome {
	out := make([]fetchOutcome, len(sources))
	jobs := make(chan int, len(sources))

	var wg sync.WaitGroup
	workers := min(FetchWorkers, len(sources))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items, err := a.fetcher.Fetch(ctx, sources[i])
				out[i] = fetchOutcome{items: items, err: err}
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

// FilterRecent keeps dated items published at or after cutoff, in feed
// order, capped at MaxItemsPerSource. Undated items are dropped.
func FilterRecent(items []types.FeedItem, cutoff time.Time) []types.FeedItem {
	kept := make([]types.FeedItem, 0, min(len(items), MaxItemsPerSource))
	for _, item := range items {
		if len(kept) >= MaxItemsPerSource {
			break
		}
		if item.PublishedAt == nil || item.PublishedAt.IsZero() {
			continue
		}
		if item.PublishedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// Render formats kept items grouped by source, in source order. Sources
// with nothing kept are omitted.
func Render(sources []types.Source, kept [][]types.FeedItem) string {
	var b strings.Builder
	b.WriteString(ContextBanner)
	b.WriteString("\n\n")

	for i, src := range sources {
		if i >= len(kept) || len(kept[i]) == 0 {
			continue
		}
		b.WriteString("=== Source: ")
		b.WriteString(src.Name)
		b.WriteString(" ===\n")
		for _, item := range kept[i] {
			b.WriteString("Title: ")
			b.WriteString(strings.TrimSpace(item.Title))
			b.WriteString("\nDate: ")
			b.WriteString(item.PublishedAt.UTC().Format(time.RFC3339))
			b.WriteString("\nLink: ")
			b.WriteString(item.Link)
			b.WriteString("\nSnippet: ")
			b.WriteString(Truncate(StripHTML(item.Snippet), MaxSnippetRunes))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
