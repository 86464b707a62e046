// Package storage implements the two-tier briefing store: an always-writable
// in-memory cache and an optional Postgres table, plus best-effort replicas.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsbrief/deduplication"
	"newsbrief/shared/logger"
	"newsbrief/shared/metrics"
	"newsbrief/types"
)

// Replica receives a copy of every persisted record.
type Replica interface {
	Name() string
	Put(ctx context.Context, rec types.BriefingRecord) error
}

// SnapshotSource can hand back the most recent record after a restart.
type SnapshotSource interface {
	Name() string
	Latest(ctx context.Context) (*types.BriefingRecord, error)
}

// PersistenceError collects write failures of the non-cache tiers.
type PersistenceError struct {
	Tier string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist to %s: %v", e.Tier, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store resolves reads and writes across the cache and the durable tier.
type Store struct {
	cache    *Cache
	durable  Durable
	replicas []Replica
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithDurable attaches the relational tier. A nil Durable is ignored.
func WithDurable(d Durable) Option {
	return func(s *Store) {
		if d != nil {
			s.durable = d
		}
	}
}

// WithReplica adds a best-effort write replica.
func WithReplica(r Replica) Option {
	return func(s *Store) {
		if r != nil {
			s.replicas = append(s.replicas, r)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(cache *Cache, log logger.Logger, opts ...Option) *Store {
	if cache == nil {
		cache = NewCache()
	}
	s := &Store{cache: cache, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasDurable reports whether a durable handle is configured.
func (s *Store) HasDurable() bool { return s.durable != nil }

// Cache exposes the memory tier.
func (s *Store) Cache() *Cache { return s.cache }

// healing runs fn and, when the table is missing, creates the schema and
// runs fn exactly once more.
func (s *Store) healing(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if !errors.Is(err, ErrRelationNotFound) {
		return err
	}
	s.log.Warn("Briefings table missing, creating schema", logger.String("op", op))
	if schemaErr := s.durable.EnsureSchema(ctx); schemaErr != nil {
		return errors.Join(err, schemaErr)
	}
	return fn()
}

// Upsert writes the cache first and then the durable tier and replicas.
// The cache write cannot fail. A non-nil error is always a
// *PersistenceError (or a join of them) and means only the secondary tiers
// were affected.
func (s *Store) Upsert(ctx context.Context, dateKey string, displayDate time.Time, items []types.BriefingItem) error {
	if items == nil {
		items = []types.BriefingItem{}
	}
	s.cache.Set(items)

	var errs []error
	if s.durable != nil {
		err := s.healing(ctx, "upsert", func() error {
			return s.durable.Upsert(ctx, dateKey, displayDate, items)
		})
		if err != nil {
			s.metrics.PersistFailed("postgres")
			s.log.Error("Durable upsert failed", logger.String("date_key", dateKey), logger.Err(err))
			errs = append(errs, &PersistenceError{Tier: "postgres", Err: err})
		}
	}

	rec := types.BriefingRecord{
		DateKey:     dateKey,
		DisplayDate: displayDate,
		Content:     items,
		CreatedAt:   s.now().UTC(),
	}
	for _, r := range s.replicas {
		if err := r.Put(ctx, rec); err != nil {
			s.metrics.PersistFailed(r.Name())
			s.log.Warn("Replica write failed", logger.String("replica", r.Name()), logger.Err(err))
			errs = append(errs, &PersistenceError{Tier: r.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// ReadLatest never fails. It prefers the newest durable record and falls back
// to the cache slot, which holds the placeholder when nothing was generated.
func (s *Store) ReadLatest(ctx context.Context) []types.BriefingItem {
	if s.durable == nil {
		return s.cache.Get()
	}

	var rec *types.BriefingRecord
	err := s.healing(ctx, "latest", func() error {
		var err error
		rec, err = s.durable.Latest(ctx)
		return err
	})
	switch {
	case err != nil:
		s.metrics.ReadFallback("error")
		s.log.Warn("Durable read failed, serving cache", logger.Err(err))
		return s.cache.Get()
	case rec == nil:
		s.metrics.ReadFallback("empty")
		return s.cache.Get()
	}
	if rec.Content == nil {
		return []types.BriefingItem{}
	}
	return rec.Content
}

// ReadArchive merges every record of one display date, newest first, and
// drops repeats of the same (url, english title).
func (s *Store) ReadArchive(ctx context.Context, displayDate time.Time) []types.BriefingItem {
	out := []types.BriefingItem{}
	if s.durable == nil {
		return out
	}

	var recs []types.BriefingRecord
	err := s.healing(ctx, "archive", func() error {
		var err error
		recs, err = s.durable.ByDisplayDate(ctx, displayDate)
		return err
	})
	if err != nil {
		s.log.Warn("Archive read failed",
			logger.String("date", displayDate.Format(types.DisplayDateLayout)), logger.Err(err))
		return out
	}
	return MergeRecords(recs)
}

// MergeRecords concatenates record contents in the given order and keeps the
// first item for each normalized (url, title.en) pair.
func MergeRecords(recs []types.BriefingRecord) []types.BriefingItem {
	out := []types.BriefingItem{}
	seen := deduplication.NewSet()
	for _, rec := range recs {
		for _, it := range rec.Content {
			if !seen.Add(it.URL, it.Title.EN) {
				continue
			}
			out = append(out, it)
		}
	}
	return out
}

// ListAvailableDates returns up to 30 distinct display dates, newest first.
func (s *Store) ListAvailableDates(ctx context.Context) []string {
	out := []string{}
	if s.durable == nil {
		return out
	}

	var dates []time.Time
	err := s.healing(ctx, "dates", func() error {
		var err error
		dates, err = s.durable.DisplayDates(ctx, MaxListedDates)
		return err
	})
	if err != nil {
		s.log.Warn("Listing dates failed", logger.Err(err))
		return out
	}
	for _, d := range dates {
		out = append(out, d.Format(types.DisplayDateLayout))
	}
	return out
}

// Warm fills an empty cache from the first source that has a snapshot.
func (s *Store) Warm(ctx context.Context, sources ...SnapshotSource) bool {
	if s.cache.Populated() {
		return false
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		rec, err := src.Latest(ctx)
		if err != nil {
			s.log.Warn("Snapshot read failed", logger.String("source", src.Name()), logger.Err(err))
			continue
		}
		if rec == nil {
			continue
		}
		s.cache.Set(rec.Content)
		s.log.Info("Cache warmed from snapshot",
			logger.String("source", src.Name()),
			logger.String("date_key", rec.DateKey),
			logger.Int("items", len(rec.Content)),
		)
		return true
	}
	return false
}
