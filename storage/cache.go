package storage

import (
	"sync"
	"time"

	"newsbrief/types"
)

// PlaceholderID identifies the operator-facing item served before any job succeeds.
const PlaceholderID = "system-placeholder"

// Placeholder returns the single item served when nothing has been generated yet.
func Placeholder(now time.Time) []types.BriefingItem {
	return []types.BriefingItem{{
		ID: PlaceholderID,
		Title: types.Bilingual{
			EN: "Briefing not yet generated",
			ZH: "简报尚未生成",
		},
		Summary: types.Bilingual{
			EN: "No briefing job has completed yet. Trigger a job or wait for the next scheduled session.",
			ZH: "尚无简报任务完成。请手动触发任务或等待下一次定时运行。",
		},
		Category:    types.CategorySystem,
		Source:      "system",
		ImpactScore: 1,
		Tags:        []string{},
		Date:        now,
	}}
}

// Cache is the process-local tier. It is replaced wholesale on every write.
type Cache struct {
	mu    sync.RWMutex
	items []types.BriefingItem
	set   bool
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// Set overwrites the slot.
func (c *Cache) Set(items []types.BriefingItem) {
	cp := make([]types.BriefingItem, len(items))
	copy(cp, items)

	c.mu.Lock()
	c.items = cp
	c.set = true
	c.mu.Unlock()
}

// Get returns a copy of the slot, or the placeholder when it was never set.
func (c *Cache) Get() []types.BriefingItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return Placeholder(c.now())
	}
	cp := make([]types.BriefingItem, len(c.items))
	copy(cp, c.items)
	return cp
}

// Populated reports whether a real result has been stored.
func (c *Cache) Populated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set
}
