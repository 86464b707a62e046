// Package jobs keeps a short history of pipeline runs for the debug endpoint.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"newsbrief/types"

	"github.com/google/uuid"
)

// DefaultCapacity is how many runs the tracker retains.
const DefaultCapacity = 5

// implicitLabel names runs started by a Log call with no open run.
const implicitLabel = "implicit"

// Tracker is a bounded, newest-first history of job runs.
type Tracker struct {
	mu       sync.RWMutex
	runs     []*types.JobRun
	capacity int
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{capacity: DefaultCapacity, now: time.Now}
}

// Begin opens a new run at the front and returns its id. The oldest runs
// beyond capacity are dropped.
func (t *Tracker) Begin(label string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.beginLocked(label).ID
}

func (t *Tracker) beginLocked(label string) *types.JobRun {
	run := &types.JobRun{
		ID:      uuid.NewString(),
		Label:   label,
		Started: t.now().UTC(),
		Logs:    []string{},
	}
	t.runs = append([]*types.JobRun{run}, t.runs...)
	if len(t.runs) > t.capacity {
		t.runs = t.runs[:t.capacity]
	}
	return run
}

// Log appends a timestamped line to the newest run. When that run is
// finished, or none exists, an implicit run is opened first.
func (t *Tracker) Log(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var run *types.JobRun
	if len(t.runs) > 0 && !t.runs[0].Finished {
		run = t.runs[0]
	} else {
		run = t.beginLocked(implicitLabel)
	}
	run.Logs = append(run.Logs, fmt.Sprintf("[%s] %s", t.now().UTC().Format(time.RFC3339), msg))
}

// Finish seals the newest run. Runs are sealed only once; later calls are
// ignored.
func (t *Tracker) Finish(success bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.runs) == 0 || t.runs[0].Finished {
		return
	}
	run := t.runs[0]
	run.Finished = true
	run.Success = &success
	if err != nil {
		run.Error = err.Error()
	}
}

// History returns a deep copy of the retained runs, newest first.
func (t *Tracker) History() []types.JobRun {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.JobRun, 0, len(t.runs))
	for _, r := range t.runs {
		cp := *r
		cp.Logs = append([]string{}, r.Logs...)
		if r.Success != nil {
			s := *r.Success
			cp.Success = &s
		}
		out = append(out, cp)
	}
	return out
}
