// Package scheduler runs the morning and evening briefing sessions on cron
// schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"newsbrief/shared/logger"

	"github.com/robfig/cron/v3"
)

const (
	DefaultMorningSchedule = "0 8 * * *"
	DefaultEveningSchedule = "0 20 * * *"
)

// Runner is the job entry point the schedule fires.
type Runner interface {
	Run(ctx context.Context, morning bool) error
}

// Config holds the two cron expressions and their timezone.
type Config struct {
	Morning  string
	Evening  string
	Location *time.Location
}

// Scheduler fires the two daily sessions.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    logger.Logger
	ctx    context.Context

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New parses both schedules. An empty expression disables that session.
func New(cfg Config, runner Runner, log logger.Logger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		log:     log,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID, 2),
	}

	for _, sess := range []struct {
		label    string
		schedule string
		morning  bool
	}{
		{"morning", cfg.Morning, true},
		{"evening", cfg.Evening, false},
	} {
		if sess.schedule == "" {
			continue
		}
		if err := s.add(sess.label, sess.schedule, sess.morning); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(label, schedule string, morning bool) error {
	id, err := s.cron.AddFunc(schedule, func() { s.fire(label, morning) })
	if err != nil {
		return fmt.Errorf("failed to add %s cron job %q: %w", label, schedule, err)
	}
	s.mu.Lock()
	s.entries[label] = id
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) fire(label string, morning bool) {
	s.log.Info("Cron triggered", logger.String("session", label))
	err := s.runner.Run(s.ctx, morning)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.log.Info("Scheduled run canceled", logger.String("session", label))
	default:
		// overlap refusals land here too
		s.log.Warn("Scheduled run did not complete", logger.String("session", label), logger.Err(err))
	}
}

// Start begins firing. Runs use ctx so shutdown can cancel an active job.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	for label, next := range s.Next() {
		s.log.Info("Cron job scheduled", logger.String("session", label), logger.String("next", next.Format(time.RFC3339)))
	}
}

// Stop halts the schedule and returns a context that is done once any
// running job returns.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next reports the next fire time of each session.
func (s *Scheduler) Next() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.entries))
	for label, id := range s.entries {
		out[label] = s.cron.Entry(id).Next
	}
	return out
}
