package kafka

import (
	"context"

	"github.com/turtacn/ExpTrack/internal/domain/savedview"
)

// envelopePublisher is satisfied by *Producer.
type envelopePublisher interface {
	PublishEnvelope(ctx context.Context, topic, eventType string, key []byte, payload interface{}) error
}

// ViewEventPublisher sends saved-view lifecycle events keyed by project so a
// project's events stay ordered on one partition.
type ViewEventPublisher struct {
	producer envelopePublisher
	topic    string
}

func NewViewEventPublisher(producer envelopePublisher, topic string) *ViewEventPublisher {
	if topic == "" {
		topic = TopicViewEvents
	}
	return &ViewEventPublisher{producer: producer, topic: topic}
}

var _ savedview.EventPublisher = (*ViewEventPublisher)(nil)

func (p *ViewEventPublisher) PublishViewEvent(ctx context.Context, event savedview.Event) error {
	return p.producer.PublishEnvelope(ctx, p.topic, string(event.Type), []byte(event.ProjectID), event)
}

//Personal.AI order the ending
