// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer: the event lifecycle state
// machine, one-time recurrence materialization, capacity-controlled joins and
// FIFO waitlist promotion.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/notify"
)

// EventStore is the persistence contract for events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, clientID, id string) (*model.Event, error)
	List(ctx context.Context, clientID string, f model.EventFilter) ([]model.Event, error)
	ListChildren(ctx context.Context, parentID string) ([]model.Event, error)
	Update(ctx context.Context, clientID, id string, upd model.UpdateEventRequest) (*model.Event, error)
	SetStatus(ctx context.Context, clientID, id string, status model.EventStatus) (*model.Event, error)
	DeletePastChildren(ctx context.Context, now time.Time) (int64, error)
}

// ParticipantStore is the persistence contract for participants. Join and
// PromoteOldest must serialize their read-count-then-write sequence per event.
type ParticipantStore interface {
	Join(ctx context.Context, clientID, eventID string, req model.AddParticipantRequest) (*model.Participant, error)
	PromoteOldest(ctx context.Context, eventID string) (*model.Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Participant, error)
	UpdateStatus(ctx context.Context, clientID, eventID, participantID string, status model.ParticipantStatus) (*model.Participant, error)
	CancelByUser(ctx context.Context, clientID, eventID, userID string) (int64, error)
	CheckIn(ctx context.Context, clientID, eventID, participantID string) (*model.Participant, error)
}

// ClientStore resolves tenant records for notification delivery.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (*model.Client, error)
}

// EventService orchestrates all event and participant operations.
type EventService struct {
	events       EventStore
	participants ParticipantStore
	clients      ClientStore
	notifier     notify.Notifier
	now          func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
// notifier may be nil, in which case notifications are skipped.
func NewEventService(
	events EventStore,
	participants ParticipantStore,
	clients ClientStore,
	notifier notify.Notifier,
) *EventService {
	return &EventService{
		events:       events,
		participants: participants,
		clients:      clients,
		notifier:     notifier,
		now:          time.Now,
	}
}

// notify looks up the tenant and hands the payload to the notifier. Sinks are
// non-blocking and absorb their own failures, so this never affects the
// outcome of the mutation that triggered it.
func (s *EventService) notify(ctx context.Context, clientID string, typ notify.EventType, data any) {
	if s.notifier == nil {
		return
	}
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		slog.Warn("notify: failed to load client", "client_id", clientID, "event", typ, "error", err)
		return
	}
	s.notifier.Notify(ctx, *client, typ, data)
}
