package kafka

import (
	"context"
	"time"

	"newsbrief/orchestrator"
	"newsbrief/shared/logger"
)

// TriggerMessage asks for an on-demand briefing run.
type TriggerMessage struct {
	// Session is "am" or "pm"; empty picks by the current hour.
	Session    string `json:"session"`
	Credential string `json:"credential"`
}

// Triggerer starts a job if the credential is valid.
type Triggerer interface {
	Trigger(credential string, morning bool) (bool, error)
	Location() *time.Location
}

// NewTriggerHandler builds the handler for the trigger topic. Malformed
// messages and rejected credentials are marked and skipped; nothing is
// retried.
func NewTriggerHandler(t Triggerer, log logger.Logger) *TypedMessageHandler[TriggerMessage] {
	return &TypedMessageHandler[TriggerMessage]{
		AlwaysMark: true,
		Validate: func(msg *TriggerMessage) bool {
			if _, ok := orchestrator.ParseSession(msg.Session, time.Now()); !ok {
				log.Warn("Ignoring trigger with unknown session", logger.String("session", msg.Session))
				return false
			}
			return true
		},
		Process: func(_ context.Context, msg *TriggerMessage) error {
			morning, _ := orchestrator.ParseSession(msg.Session, time.Now().In(t.Location()))
			started, err := t.Trigger(msg.Credential, morning)
			if err != nil {
				log.Warn("Trigger message rejected", logger.Err(err))
				return nil
			}
			if !started {
				log.Info("Trigger message skipped: job already running")
				return nil
			}
			log.Info("Job triggered from Kafka", logger.Bool("morning", morning))
			return nil
		},
	}
}
