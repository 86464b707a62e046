package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsbrief/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTriggerer struct {
	secret  string
	busy    bool
	calls   int
	morning []bool
}

func (f *fakeTriggerer) Trigger(credential string, morning bool) (bool, error) {
	if credential != f.secret {
		return false, errors.New("unauthorized")
	}
	f.calls++
	f.morning = append(f.morning, morning)
	return !f.busy, nil
}

func (f *fakeTriggerer) Location() *time.Location { return time.UTC }

func TestTriggerHandler(t *testing.T) {
	tr := &fakeTriggerer{secret: "s"}
	h := NewTriggerHandler(tr, logger.NewNop())
	ctx := context.Background()

	mark, err := h.HandleMessage(ctx, []byte(`{"session":"am","credential":"s"}`))
	require.NoError(t, err)
	assert.True(t, mark)

	mark, err = h.HandleMessage(ctx, []byte(`{"session":"PM","credential":"s"}`))
	require.NoError(t, err)
	assert.True(t, mark)
	assert.Equal(t, []bool{true, false}, tr.morning)

	mark, err = h.HandleMessage(ctx, []byte(`{"session":"am","credential":"nope"}`))
	require.NoError(t, err)
	assert.True(t, mark, "rejected credentials are skipped, not retried")

	mark, _ = h.HandleMessage(ctx, []byte(`not json`))
	assert.True(t, mark)

	mark, err = h.HandleMessage(ctx, []byte(`{"session":"noon","credential":"s"}`))
	require.NoError(t, err)
	assert.True(t, mark)

	assert.Equal(t, 2, tr.calls)
}
