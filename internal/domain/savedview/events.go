package savedview

import (
	"context"

	"github.com/turtacn/ExpTrack/pkg/types/common"
)

// EventType names a saved-view lifecycle change.
type EventType string

const (
	EventCreated  EventType = "view.created"
	EventRenamed  EventType = "view.renamed"
	EventDeleted  EventType = "view.deleted"
	EventRestored EventType = "view.restored"
)

// Event is published after a successful registry mutation or restore.
type Event struct {
	common.BaseEvent
	Type      EventType        `json:"type"`
	ProjectID common.ProjectID `json:"project_id"`
	ViewID    string           `json:"view_id"`
	Name      string           `json:"name,omitempty"`
}

// NewEvent stamps an event for view.
func NewEvent(typ EventType, view *SavedView) Event {
	return Event{
		BaseEvent: common.NewBaseEvent(view.ID),
		Type:      typ,
		ProjectID: view.ProjectID,
		ViewID:    view.ID,
		Name:      view.Name,
	}
}

// EventPublisher delivers view events.  Publishing is best effort.
type EventPublisher interface {
	PublishViewEvent(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishViewEvent(context.Context, Event) error { return nil }
