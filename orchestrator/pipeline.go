// Package orchestrator drives one briefing job through fetch, generate,
// validate and persist, and guards against overlapping runs.
package orchestrator

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"newsbrief/jobs"
	"newsbrief/rssfeeds"
	"newsbrief/sanitizer"
	"newsbrief/shared/logger"
	"newsbrief/shared/metrics"
	stypes "newsbrief/shared/types"
	"newsbrief/types"
)

var (
	// ErrJobInProgress is returned when a run is requested while another is active.
	ErrJobInProgress = errors.New("a briefing job is already running")
	// ErrUnauthorized is returned by Trigger for a missing or wrong credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// Assembler builds the model context from the configured sources.
type Assembler interface {
	Assemble(ctx context.Context, sources []types.Source) rssfeeds.Result
}

// Generator turns the context into raw model output.
type Generator interface {
	Generate(ctx context.Context, feedContext string) (string, error)
}

// Store persists a sanitized briefing. A returned error never fails the job.
type Store interface {
	Upsert(ctx context.Context, dateKey string, displayDate time.Time, items []types.BriefingItem) error
}

// SourceLister supplies the sources for each run.
type SourceLister interface {
	Sources() []types.Source
}

// Config holds the pipeline's non-collaborator settings.
type Config struct {
	// Secret is the shared credential for on-demand triggers. Empty disables Trigger.
	Secret   string
	Location *time.Location
}

// Pipeline runs briefing jobs.
type Pipeline struct {
	sources   SourceLister
	assembler Assembler
	generator Generator
	store     Store
	tracker   *jobs.Tracker
	log       logger.Logger
	metrics   *metrics.Metrics

	secret   string
	loc      *time.Location
	now      func() time.Time
	sanitize func(raw string, now time.Time) ([]types.BriefingItem, error)

	baseCtx context.Context
	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.RWMutex
	status stypes.PipelineStatus
}

// Deps groups the pipeline's collaborators.
type Deps struct {
	Sources   SourceLister
	Assembler Assembler
	Generator Generator
	Store     Store
	Tracker   *jobs.Tracker
	Logger    logger.Logger
	Metrics   *metrics.Metrics
}

func NewPipeline(cfg Config, deps Deps) *Pipeline {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = jobs.NewTracker()
	}
	return &Pipeline{
		sources:   deps.Sources,
		assembler: deps.Assembler,
		generator: deps.Generator,
		store:     deps.Store,
		tracker:   tracker,
		log:       deps.Logger,
		metrics:   deps.Metrics,
		secret:    cfg.Secret,
		loc:       loc,
		now:       time.Now,
		sanitize:  sanitizer.Sanitize,
		baseCtx:   context.Background(),
		status:    stypes.PipelineStatus{State: stypes.StateIdle},
	}
}

// WithBaseContext sets the context used by background runs started from Trigger.
func (p *Pipeline) WithBaseContext(ctx context.Context) *Pipeline {
	p.baseCtx = ctx
	return p
}

// Tracker exposes the job tracker.
func (p *Pipeline) Tracker() *jobs.Tracker { return p.tracker }

// History returns the retained job runs, newest first.
func (p *Pipeline) History() []types.JobRun { return p.tracker.History() }

// Location is the timezone session keys are computed in.
func (p *Pipeline) Location() *time.Location { return p.loc }

// Running reports whether a job is in progress.
func (p *Pipeline) Running() bool { return p.running.Load() }

// Status returns a snapshot for the debug endpoint.
func (p *Pipeline) Status() stypes.PipelineStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := p.status
	st.Running = p.running.Load()
	st.FailedFeeds = append([]string(nil), p.status.FailedFeeds...)
	return st
}

// Wait blocks until background runs started by Trigger have returned.
func (p *Pipeline) Wait() { p.wg.Wait() }

// Run executes one job synchronously. It returns ErrJobInProgress without
// doing anything when another job is active.
func (p *Pipeline) Run(ctx context.Context, morning bool) error {
	if !p.acquire() {
		return ErrJobInProgress
	}
	defer p.release()
	return p.execute(ctx, morning)
}

// Trigger authorizes an on-demand run and starts it in the background. It
// returns false when a job is already running.
func (p *Pipeline) Trigger(credential string, morning bool) (bool, error) {
	if p.secret == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(p.secret)) != 1 {
		return false, ErrUnauthorized
	}
	if !p.acquire() {
		return false, nil
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release()
		if err := p.execute(p.baseCtx, morning); err != nil {
			p.log.Warn("Triggered job failed", logger.Err(err))
		}
	}()
	return true, nil
}

func (p *Pipeline) acquire() bool {
	if !p.running.CompareAndSwap(false, true) {
		p.log.Warn("Refusing overlapping job run")
		p.tracker.Log("Refused overlapping trigger: a job is already running")
		return false
	}
	p.metrics.SetRunning(true)
	return true
}

func (p *Pipeline) release() {
	p.metrics.SetRunning(false)
	p.running.Store(false)
}

// SessionKey formats the date-and-half-day key for now in its own location.
func SessionKey(now time.Time, morning bool) string {
	half := "PM"
	if morning {
		half = "AM"
	}
	return now.Format(types.DisplayDateLayout) + "-" + half
}

// IsMorning picks the default session for an unspecified trigger.
func IsMorning(now time.Time) bool { return now.Hour() < 12 }

// ParseSession maps "am"/"pm" (any case) to the morning flag. An empty value
// picks by the hour of now; anything else is rejected.
func ParseSession(s string, now time.Time) (morning bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "am", "morning":
		return true, true
	case "pm", "evening":
		return false, true
	case "":
		return IsMorning(now), true
	default:
		return false, false
	}
}

// displayDate is the calendar day of now, as a UTC midnight.
func displayDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// run is the per-job context passed between steps.
type run struct {
	id      string
	key     string
	started time.Time
	log     logger.Logger
}

func (p *Pipeline) execute(ctx context.Context, morning bool) error {
	now := p.now().In(p.loc)
	key := SessionKey(now, morning)
	r := &run{key: key, started: time.Now()}
	r.id = p.tracker.Begin(key)
	r.log = p.log.With(logger.String("job_id", r.id), logger.String("session", key))

	p.mu.Lock()
	p.status.SessionKey = key
	p.status.LastError = ""
	p.status.FailedFeeds = nil
	p.mu.Unlock()

	p.transition(r, stypes.StateStarted, "Job started for session "+key)

	p.transition(r, stypes.StateFetching, "Fetching feeds")
	res := p.assembler.Assemble(ctx, p.sources.Sources())
	for _, s := range res.Sources {
		if s.Err != nil {
			p.metrics.FetchFailed(s.Name)
			p.tracker.Log(fmt.Sprintf("Source %s unavailable: %v", s.Name, s.Err))
			continue
		}
		if s.Duplicates > 0 {
			p.tracker.Log(fmt.Sprintf("Source %s: %d fetched, %d recent, %d already seen", s.Name, s.Fetched, s.Kept, s.Duplicates))
			continue
		}
		p.tracker.Log(fmt.Sprintf("Source %s: %d fetched, %d recent", s.Name, s.Fetched, s.Kept))
	}
	p.mu.Lock()
	p.status.FailedFeeds = res.Failed()
	p.mu.Unlock()
	p.tracker.Log(fmt.Sprintf("Context assembled: %d items from %d sources (%d failed)",
		res.TotalKept(), len(res.Sources), len(res.Failed())))

	p.transition(r, stypes.StateGenerating, "Calling model")
	raw, err := p.generator.Generate(ctx, res.Context)
	if err != nil {
		return p.fail(r, fmt.Errorf("generate: %w", err))
	}
	p.tracker.Log(fmt.Sprintf("Model returned %d characters", len(raw)))

	p.transition(r, stypes.StateValidating, "Validating model output")
	items, err := p.sanitize(raw, now)
	if err != nil {
		return p.fail(r, fmt.Errorf("validate: %w", err))
	}
	p.tracker.Log(fmt.Sprintf("Validated %d briefing items", len(items)))

	p.transition(r, stypes.StatePersisting, "Persisting briefing")
	if err := p.store.Upsert(ctx, key, displayDate(now), items); err != nil {
		// cache already holds the result
		p.tracker.Log(fmt.Sprintf("Persistence degraded: %v", err))
		r.log.Warn("Briefing cached but not fully persisted", logger.Err(err))
	}

	p.mu.Lock()
	p.status.LastItems = len(items)
	p.mu.Unlock()
	p.metrics.Generated(len(items))

	p.transition(r, stypes.StateSucceeded, fmt.Sprintf("Job succeeded with %d items", len(items)))
	p.tracker.Finish(true, nil)
	p.finishStatus(nil)
	p.metrics.ObserveJob("succeeded", time.Since(r.started).Seconds())
	return nil
}

func (p *Pipeline) transition(r *run, state stypes.State, msg string) {
	p.mu.Lock()
	p.status.State = state
	p.mu.Unlock()

	p.tracker.Log(fmt.Sprintf("%s: %s", state, msg))
	r.log.Info(msg, logger.String("state", string(state)))
}

func (p *Pipeline) fail(r *run, err error) error {
	p.mu.Lock()
	p.status.State = stypes.StateFailed
	p.mu.Unlock()

	p.tracker.Log(fmt.Sprintf("%s: %v", stypes.StateFailed, err))
	p.tracker.Finish(false, err)
	r.log.Error("Job failed", logger.String("state", string(stypes.StateFailed)), logger.Err(err))
	p.finishStatus(err)
	p.metrics.ObserveJob("failed", time.Since(r.started).Seconds())
	return err
}

func (p *Pipeline) finishStatus(err error) {
	t := p.now().UTC()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastRun = &t
	if err != nil {
		p.status.LastError = err.Error()
	}
}
