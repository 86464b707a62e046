package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"newsbrief/shared/logger"
	"newsbrief/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDurable is an in-memory Durable that can simulate a missing table.
type fakeDurable struct {
	tableExists bool
	failWith    error
	rows        map[string]types.BriefingRecord
	clock       time.Time
	schemaCalls int
	latestCalls int
}

func newFakeDurable(exists bool) *fakeDurable {
	return &fakeDurable{
		tableExists: exists,
		rows:        map[string]types.BriefingRecord{},
		clock:       time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeDurable) check() error {
	if f.failWith != nil {
		return f.failWith
	}
	if !f.tableExists {
		return fmt.Errorf("query: %w", ErrRelationNotFound)
	}
	return nil
}

func (f *fakeDurable) EnsureSchema(context.Context) error {
	f.schemaCalls++
	f.tableExists = true
	return nil
}

func (f *fakeDurable) Upsert(_ context.Context, key string, day time.Time, items []types.BriefingItem) error {
	if err := f.check(); err != nil {
		return err
	}
	f.clock = f.clock.Add(time.Minute)
	f.rows[key] = types.BriefingRecord{DateKey: key, DisplayDate: day, Content: items, CreatedAt: f.clock}
	return nil
}

func (f *fakeDurable) Latest(context.Context) (*types.BriefingRecord, error) {
	f.latestCalls++
	if err := f.check(); err != nil {
		return nil, err
	}
	var best *types.BriefingRecord
	for _, r := range f.rows {
		r := r
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = &r
		}
	}
	return best, nil
}

func (f *fakeDurable) ByDisplayDate(_ context.Context, day time.Time) ([]types.BriefingRecord, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []types.BriefingRecord
	for _, r := range f.rows {
		if r.DisplayDate.Equal(day) {
			out = append(out, r)
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeDurable) DisplayDates(_ context.Context, limit int) ([]time.Time, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, r := range f.rows {
		if !seen[r.DisplayDate] {
			seen[r.DisplayDate] = true
			out = append(out, r.DisplayDate)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].After(out[i]) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeReplica struct {
	name string
	err  error
	got  []types.BriefingRecord
}

func (r *fakeReplica) Name() string { return r.name }
func (r *fakeReplica) Put(_ context.Context, rec types.BriefingRecord) error {
	r.got = append(r.got, rec)
	return r.err
}

func (r *fakeReplica) Latest(context.Context) (*types.BriefingRecord, error) {
	if len(r.got) == 0 {
		return nil, r.err
	}
	rec := r.got[len(r.got)-1]
	return &rec, nil
}

var day = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func item(id, url, title string) types.BriefingItem {
	return types.BriefingItem{ID: id, URL: url, Title: types.Bilingual{EN: title, ZH: title}}
}

func TestReadLatest_PlaceholderWithoutAnyTier(t *testing.T) {
	s := NewStore(nil, logger.NewNop())

	items := s.ReadLatest(context.Background())

	require.Len(t, items, 1)
	assert.Equal(t, PlaceholderID, items[0].ID)
	assert.Equal(t, types.CategorySystem, items[0].Category)
	assert.Empty(t, s.ReadArchive(context.Background(), day))
	assert.Empty(t, s.ListAvailableDates(context.Background()))
}

func TestReadLatest_SelfHealsMissingTable(t *testing.T) {
	d := newFakeDurable(false)
	s := NewStore(nil, logger.NewNop(), WithDurable(d))

	items := s.ReadLatest(context.Background())

	assert.Equal(t, 1, d.schemaCalls)
	assert.Equal(t, 2, d.latestCalls)
	require.Len(t, items, 1)
	assert.Equal(t, PlaceholderID, items[0].ID, "empty table falls back to cache")
}

func TestReadLatest_OtherErrorFallsBackToCache(t *testing.T) {
	d := newFakeDurable(true)
	d.failWith = errors.New("connection refused")
	cache := NewCache()
	cache.Set([]types.BriefingItem{item("c", "https://c", "cached")})
	s := NewStore(cache, logger.NewNop(), WithDurable(d))

	items := s.ReadLatest(context.Background())

	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, 0, d.schemaCalls)
}

func TestUpsert_WritesCacheFirstAndIsIdempotent(t *testing.T) {
	d := newFakeDurable(false)
	rep := &fakeReplica{name: "redis"}
	s := NewStore(nil, logger.NewNop(), WithDurable(d), WithReplica(rep))
	first := []types.BriefingItem{item("1", "https://a", "A")}
	second := []types.BriefingItem{item("2", "https://b", "B")}

	require.NoError(t, s.Upsert(context.Background(), "2026-10-17-AM", day, first))
	require.NoError(t, s.Upsert(context.Background(), "2026-10-17-AM", day, second))

	assert.Equal(t, 1, d.schemaCalls)
	assert.Len(t, d.rows, 1)
	assert.Equal(t, second, d.rows["2026-10-17-AM"].Content)
	assert.Equal(t, second, s.Cache().Get())
	assert.Len(t, rep.got, 2)
	assert.Equal(t, second, s.ReadLatest(context.Background()))
}

func TestUpsert_DurableFailureStillUpdatesCache(t *testing.T) {
	d := newFakeDurable(true)
	d.failWith = errors.New("disk full")
	rep := &fakeReplica{name: "s3", err: errors.New("denied")}
	s := NewStore(nil, logger.NewNop(), WithDurable(d), WithReplica(rep))
	items := []types.BriefingItem{item("1", "https://a", "A")}

	err := s.Upsert(context.Background(), "2026-10-17-PM", day, items)

	var pErr *PersistenceError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, items, s.Cache().Get())
}

func TestReadArchive_MergesNewestFirstAndDedupes(t *testing.T) {
	d := newFakeDurable(true)
	s := NewStore(nil, logger.NewNop(), WithDurable(d))
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "2026-10-17-AM", day, []types.BriefingItem{
		item("am-1", "https://same", "Same story"),
		item("am-2", "https://only-am", "Morning only"),
	}))
	require.NoError(t, s.Upsert(ctx, "2026-10-17-PM", day, []types.BriefingItem{
		item("pm-1", "https://same", "Same story"),
		item("pm-2", "https://only-pm", "Evening only"),
	}))
	require.NoError(t, s.Upsert(ctx, "2026-10-16-PM", day.AddDate(0, 0, -1), []types.BriefingItem{
		item("old", "https://old", "Yesterday"),
	}))

	got := s.ReadArchive(ctx, day)

	ids := make([]string, 0, len(got))
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"pm-1", "pm-2", "am-2"}, ids)
	assert.Equal(t, []string{"2026-10-17", "2026-10-16"}, s.ListAvailableDates(ctx))
}

func TestMergeRecords_SameURLDifferentTitleKept(t *testing.T) {
	got := MergeRecords([]types.BriefingRecord{
		{Content: []types.BriefingItem{item("1", "https://a", "One")}},
		{Content: []types.BriefingItem{item("2", "https://a", "Two"), item("3", "https://a", "One")}},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestWarm(t *testing.T) {
	snap := &fakeReplica{name: "redis"}
	snap.got = []types.BriefingRecord{{DateKey: "2026-10-16-PM", Content: []types.BriefingItem{item("w", "https://w", "W")}}}
	empty := &fakeReplica{name: "s3"}

	s := NewStore(nil, logger.NewNop())
	assert.True(t, s.Warm(context.Background(), empty, snap))
	assert.Equal(t, "w", s.ReadLatest(context.Background())[0].ID)

	assert.False(t, s.Warm(context.Background(), snap), "populated cache is not overwritten")
}
