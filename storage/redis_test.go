package storage

import (
	"context"
	"testing"
	"time"

	"newsbrief/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshot(t *testing.T, ttl time.Duration) (*Snapshot, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotFromClient(client, "", ttl), mr
}

func TestSnapshot_RoundTrip(t *testing.T) {
	snap, mr := newTestSnapshot(t, 0)
	ctx := context.Background()

	rec, err := snap.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	in := types.BriefingRecord{
		DateKey: "2026-10-17-AM",
		Content: []types.BriefingItem{{ID: "a", Title: types.Bilingual{EN: "A", ZH: "甲"}, ImpactScore: 7}},
	}
	require.NoError(t, snap.Put(ctx, in))
	assert.True(t, mr.Exists(DefaultSnapshotKey))

	rec, err = snap.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2026-10-17-AM", rec.DateKey)
	assert.Equal(t, in.Content, rec.Content)
}

func TestSnapshot_TTL(t *testing.T) {
	snap, mr := newTestSnapshot(t, time.Hour)
	require.NoError(t, snap.Put(context.Background(), types.BriefingRecord{DateKey: "k"}))

	assert.Equal(t, time.Hour, mr.TTL(DefaultSnapshotKey))
	mr.FastForward(2 * time.Hour)

	rec, err := snap.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSnapshot_CorruptValue(t *testing.T) {
	snap, mr := newTestSnapshot(t, 0)
	require.NoError(t, mr.Set(DefaultSnapshotKey, "not json"))

	_, err := snap.Latest(context.Background())
	assert.Error(t, err)
}
