package tui

import (
	"time"

	"newsbrief/types"
)

// SnapshotMsg carries one poll of the server.
type SnapshotMsg struct {
	Items []types.BriefingItem
	Debug *DebugSnapshot
	Err   error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// TriggerMsg reports the result of a trigger request.
type TriggerMsg struct {
	Status string
	Err    error
}
