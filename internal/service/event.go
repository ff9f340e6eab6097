package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/notify"
)

// CreateEventResult is the outcome of CreateEvent. Warning is set when the
// recurrence rule could not be parsed: the event itself was still created,
// expansion was simply skipped.
type CreateEventResult struct {
	Event       *model.Event `json:"event"`
	Occurrences int          `json:"occurrences_created"`
	Warning     string       `json:"warning,omitempty"`
}

// EventDetail is an event together with its roster and generated occurrences.
type EventDetail struct {
	Event        *model.Event        `json:"event"`
	Participants []model.Participant `json:"participants"`
	ChildEvents  []model.Event       `json:"child_events,omitempty"`
}

// EventStatsResult pairs an event with its registration statistics.
type EventStatsResult struct {
	Event *model.Event     `json:"event"`
	Stats model.EventStats `json:"stats"`
}

// CreateEvent validates the request, persists the event and, when a
// recurrence rule is present, synchronously materializes its future
// occurrences before returning.
func (s *EventService) CreateEvent(ctx context.Context, clientID string, req model.CreateEventRequest) (*CreateEventResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if req.AuthorID == "" || req.AuthorName == "" {
		return nil, fmt.Errorf("author_id and author_name are required")
	}
	if req.StartTime.IsZero() {
		return nil, fmt.Errorf("start_time is required")
	}
	if req.EndTime != nil && req.EndTime.Before(req.StartTime) {
		return nil, fmt.Errorf("end_time cannot be before start_time")
	}
	if req.MaxParticipants != nil && *req.MaxParticipants < 0 {
		return nil, fmt.Errorf("max_participants cannot be negative")
	}
	status := req.Status
	if status == "" {
		status = model.EventDraft
	}
	if !model.ValidEventStatus(status) {
		return nil, fmt.Errorf("invalid event status %q", status)
	}

	now := s.now().UTC()
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	event := &model.Event{
		ID:                uuid.New().String(),
		ClientID:          clientID,
		Title:             req.Title,
		Description:       req.Description,
		AuthorID:          req.AuthorID,
		AuthorName:        req.AuthorName,
		AuthorEmail:       req.AuthorEmail,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Timezone:          req.Timezone,
		Status:            status,
		Type:              req.Type,
		CoverImageURL:     req.CoverImageURL,
		Tags:              req.Tags,
		CategoryID:        req.CategoryID,
		LocationName:      req.LocationName,
		LocationAddress:   req.LocationAddress,
		LocationURL:       req.LocationURL,
		IsOnline:          req.IsOnline,
		MaxParticipants:   req.MaxParticipants,
		IsPublic:          isPublic,
		Price:             req.Price,
		Currency:          req.Currency,
		RecurrenceRule:    req.RecurrenceRule,
		RecurrenceEndDate: req.RecurrenceEndDate,
		RecurrenceCount:   req.RecurrenceCount,
		IsRecurring:       req.RecurrenceRule != "",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	result := &CreateEventResult{Event: event}
	if event.RecurrenceRule != "" {
		created, err := s.materializeOccurrences(ctx, event)
		result.Occurrences = created
		if err != nil {
			result.Warning = err.Error()
		}
	}

	s.notify(ctx, clientID, notify.EventCreated, event)
	return result, nil
}

// GetEvent returns an event with its participants (in waitlist FIFO order)
// and, for templates, its generated occurrences.
func (s *EventService) GetEvent(ctx context.Context, clientID, eventID string) (*EventDetail, error) {
	event, err := s.events.GetByID(ctx, clientID, eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	detail := &EventDetail{Event: event, Participants: participants}
	if event.IsRecurring {
		children, err := s.events.ListChildren(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("list child events: %w", err)
		}
		detail.ChildEvents = children
	}
	if detail.Participants == nil {
		detail.Participants = []model.Participant{}
	}
	return detail, nil
}

// ListEvents returns the tenant's events matching the filter.
func (s *EventService) ListEvents(ctx context.Context, clientID string, f model.EventFilter) ([]model.Event, error) {
	if f.Status != "" && !model.ValidEventStatus(f.Status) {
		return nil, fmt.Errorf("invalid event status %q", f.Status)
	}
	return s.events.List(ctx, clientID, f)
}

// UpdateEvent applies a partial update and emits the notification matching
// the resulting lifecycle transition.
func (s *EventService) UpdateEvent(ctx context.Context, clientID, eventID string, upd model.UpdateEventRequest) (*model.Event, error) {
	if upd.Status != nil && !model.ValidEventStatus(*upd.Status) {
		return nil, fmt.Errorf("invalid event status %q", *upd.Status)
	}
	event, err := s.events.Update(ctx, clientID, eventID, upd)
	if err != nil {
		return nil, err
	}

	typ := notify.EventUpdated
	if upd.Status != nil {
		switch *upd.Status {
		case model.EventPublished:
			typ = notify.EventPublished
		case model.EventCancelled:
			typ = notify.EventCancelled
		}
	}
	s.notify(ctx, clientID, typ, event)
	return event, nil
}

// CompleteEvent transitions the event to COMPLETED. The transition is
// unconditional and idempotent: completing an already-completed (or even
// cancelled) event succeeds and leaves it COMPLETED.
func (s *EventService) CompleteEvent(ctx context.Context, clientID, eventID string) (*model.Event, error) {
	event, err := s.events.SetStatus(ctx, clientID, eventID, model.EventCompleted)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, clientID, notify.EventCompleted, event)
	return event, nil
}

// EventStats computes registration statistics for an event.
func (s *EventService) EventStats(ctx context.Context, clientID, eventID string) (*EventStatsResult, error) {
	event, err := s.events.GetByID(ctx, clientID, eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return &EventStatsResult{
		Event: event,
		Stats: model.ComputeStats(event, participants),
	}, nil
}
