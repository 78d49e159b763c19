package kafka

import (
	"context"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

// Invalidator drops cached upstream data for a project.
type Invalidator interface {
	Invalidate(ctx context.Context, projectID string) error
}

// NewMetricsUpdatedHandler returns the handler for TopicMetricsUpdated.
// Undecodable messages and other event types are dropped.  Invalidation
// failures are returned so the consumer retries them.
func NewMetricsUpdatedHandler(inv Invalidator, log logging.Logger) MessageHandler {
	return func(ctx context.Context, msg *Message) error {
		env, err := MessageToEventEnvelope(msg)
		if err != nil {
			log.Warn("Dropping undecodable metrics event", logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		if env.EventType != EventTypeMetricsUpdated {
			return nil
		}
		var payload MetricsUpdatedPayload
		if err := env.DecodePayload(&payload); err != nil {
			log.Warn("Dropping metrics event with bad payload", logging.String("event_id", env.EventID), logging.Err(err))
			return nil
		}
		if payload.ProjectID == "" {
			log.Warn("Dropping metrics event without project id", logging.String("event_id", env.EventID))
			return nil
		}
		if err := inv.Invalidate(ctx, payload.ProjectID); err != nil {
			return err
		}
		log.Debug("Invalidated metrics cache", logging.String("project_id", payload.ProjectID))
		return nil
	}
}

//Personal.AI order the ending
