package scheduler

import (
	"context"
	"testing"
	"time"

	"newsbrief/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct{ calls chan bool }

func (r *recordingRunner) Run(_ context.Context, morning bool) error {
	r.calls <- morning
	return nil
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New(Config{Morning: "not a cron"}, &recordingRunner{}, logger.NewNop())
	assert.Error(t, err)
}

func TestNew_EmptyScheduleDisablesSession(t *testing.T) {
	s, err := New(Config{Morning: DefaultMorningSchedule}, &recordingRunner{}, logger.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.entries, 1)
	assert.Contains(t, s.entries, "morning")
}

func TestNext_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	s, err := New(Config{Morning: DefaultMorningSchedule, Evening: DefaultEveningSchedule, Location: loc},
		&recordingRunner{}, logger.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	next := s.Next()
	require.Len(t, next, 2)
	assert.Equal(t, 8, next["morning"].In(loc).Hour())
	assert.Equal(t, 20, next["evening"].In(loc).Hour())
}

func TestFire_PassesSession(t *testing.T) {
	r := &recordingRunner{calls: make(chan bool, 2)}
	s, err := New(Config{}, r, logger.NewNop())
	require.NoError(t, err)

	s.fire("morning", true)
	s.fire("evening", false)

	assert.True(t, <-r.calls)
	assert.False(t, <-r.calls)
}
