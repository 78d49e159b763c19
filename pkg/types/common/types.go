// Package common holds the identifier and event primitives shared by the
// domain packages.
package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// ProjectID identifies the project a saved view belongs to.  Project ids are
// supplied by the surrounding tracker and are opaque here.
type ProjectID string

// Timestamp is a UTC time.Time.
type Timestamp time.Time

// BaseEvent provides common fields for domain events.
type BaseEvent struct {
	ID        string    `json:"event_id"`
	Timestamp time.Time `json:"occurred_at"`
	AggID     string    `json:"aggregate_id"`
}

// NewBaseEvent stamps a new event id and time for the aggregate.
func NewBaseEvent(aggID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		AggID:     aggID,
	}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggID }

// Validate checks if the ID is a valid UUID v4.
func (id ID) Validate() error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	_, err := uuid.Parse(string(id))
	if err != nil {
		return fmt.Errorf("invalid ID format: %w", err)
	}
	return nil
}

// Validate rejects empty project ids.
func (p ProjectID) Validate() error {
	if p == "" {
		return fmt.Errorf("project ID cannot be empty")
	}
	return nil
}

// NewID generates a new UUID v4.
func NewID() ID {
	return ID(uuid.New().String())
}

// NewTimestamp returns the current UTC time as a Timestamp.
func NewTimestamp() Timestamp {
	return Timestamp(time.Now().UTC())
}

//Personal.AI order the ending
