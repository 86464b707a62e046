package types

import "time"

// State is a step of the briefing pipeline state machine.
type State string

const (
	StateIdle       State = "IDLE"
	StateStarted    State = "STARTED"
	StateFetching   State = "FETCHING"
	StateGenerating State = "GENERATING"
	StateValidating State = "VALIDATING"
	StatePersisting State = "PERSISTING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// PipelineStatus is the orchestrator's view for the debug endpoint.
type PipelineStatus struct {
	State       State      `json:"state"`
	Running     bool       `json:"running"`
	SessionKey  string     `json:"session_key,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastItems   int        `json:"last_items"`
	FailedFeeds []string   `json:"failed_feeds,omitempty"`
}
