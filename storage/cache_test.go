package storage

import (
	"testing"

	"newsbrief/types"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetReplacesWholesale(t *testing.T) {
	c := NewCache()
	assert.False(t, c.Populated())
	assert.Equal(t, PlaceholderID, c.Get()[0].ID)

	c.Set([]types.BriefingItem{{ID: "a"}, {ID: "b"}})
	c.Set([]types.BriefingItem{{ID: "c"}})

	got := c.Get()
	assert.True(t, c.Populated())
	assert.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	got[0].ID = "mutated"
	assert.Equal(t, "c", c.Get()[0].ID)
}

func TestCache_EmptyResultIsNotPlaceholder(t *testing.T) {
	c := NewCache()
	c.Set(nil)
	assert.Empty(t, c.Get())
}
