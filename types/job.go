package types

import "time"

// JobRun records one pipeline execution for operational visibility.
type JobRun struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Started  time.Time `json:"started"`
	Logs     []string  `json:"logs"`
	Finished bool      `json:"finished"`
	Success  *bool     `json:"success,omitempty"`
	Error    string    `json:"error,omitempty"`
}
