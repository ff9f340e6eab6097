// Package notify delivers fire-and-forget notifications about event and
// participant mutations. Sinks never propagate failure back to the caller:
// a lost notification must not roll back or block the mutation it describes.
package notify

import (
	"context"
	"time"

	"github.com/eventplan/eventplan/internal/model"
)

// EventType tags the kind of mutation a payload describes.
type EventType string

const (
	EventCreated   EventType = "event.created"
	EventUpdated   EventType = "event.updated"
	EventCancelled EventType = "event.cancelled"
	EventPublished EventType = "event.published"
	EventCompleted EventType = "event.completed"

	ParticipantJoined        EventType = "participant.joined"
	ParticipantStatusChanged EventType = "participant.status_changed"
	ParticipantRemoved       EventType = "participant.removed"
	ParticipantCheckedIn     EventType = "participant.checked_in"
)

// Payload is the envelope delivered to every sink.
type Payload struct {
	Event     EventType `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"client_id"`
	Data      any       `json:"data"`
}

// Notifier delivers a notification. Implementations must not return errors
// into the caller; delivery failures are logged and absorbed.
type Notifier interface {
	Notify(ctx context.Context, client model.Client, typ EventType, data any)
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, client model.Client, typ EventType, data any) {
	for _, n := range m {
		n.Notify(ctx, client, typ, data)
	}
}
