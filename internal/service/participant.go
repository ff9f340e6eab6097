package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/notify"
)

// AddParticipant registers a user for an event. The capacity decision
// (REGISTERED vs WAITLIST) happens inside the store's per-event critical
// section; see ParticipantStore.Join.
func (s *EventService) AddParticipant(ctx context.Context, clientID, eventID string, req model.AddParticipantRequest) (*model.Participant, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserID == "" || req.UserName == "" {
		return nil, fmt.Errorf("user_id and user_name are required")
	}
	if req.Role != "" && !model.ValidParticipantRole(req.Role) {
		return nil, fmt.Errorf("invalid participant role %q", req.Role)
	}

	p, err := s.participants.Join(ctx, clientID, eventID, req)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, clientID, notify.ParticipantJoined, p)
	return p, nil
}

// UpdateParticipantStatus applies an explicit status transition. A transition
// to CANCELLED frees a seat, so it triggers one waitlist promotion.
func (s *EventService) UpdateParticipantStatus(ctx context.Context, clientID, eventID, participantID string, status model.ParticipantStatus) (*model.Participant, error) {
	if !model.ValidParticipantStatus(status) {
		return nil, fmt.Errorf("invalid participant status %q", status)
	}
	p, err := s.participants.UpdateStatus(ctx, clientID, eventID, participantID, status)
	if err != nil {
		return nil, err
	}

	if status == model.ParticipantCancelled {
		s.promoteFromWaitlist(ctx, clientID, eventID)
	}
	s.notify(ctx, clientID, notify.ParticipantStatusChanged, p)
	return p, nil
}

// RemoveParticipant cancels every registration of the user on the event.
// Rows are kept for history; the departure triggers exactly one waitlist
// promotion even when several rows were cancelled.
func (s *EventService) RemoveParticipant(ctx context.Context, clientID, eventID, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}
	cancelled, err := s.participants.CancelByUser(ctx, clientID, eventID, userID)
	if err != nil {
		return 0, err
	}

	s.promoteFromWaitlist(ctx, clientID, eventID)
	s.notify(ctx, clientID, notify.ParticipantRemoved, map[string]string{
		"event_id": eventID,
		"user_id":  userID,
	})
	return cancelled, nil
}

// CheckInParticipant flags attendance: checked-in plus an ATTENDED status.
func (s *EventService) CheckInParticipant(ctx context.Context, clientID, eventID, participantID string) (*model.Participant, error) {
	p, err := s.participants.CheckIn(ctx, clientID, eventID, participantID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, clientID, notify.ParticipantCheckedIn, p)
	return p, nil
}

// promoteFromWaitlist advances at most one waitlisted participant after a
// departure. Only capacity-limited events maintain a waitlist; promotion
// failures are logged, not propagated, since the triggering mutation already
// succeeded.
func (s *EventService) promoteFromWaitlist(ctx context.Context, clientID, eventID string) {
	event, err := s.events.GetByID(ctx, clientID, eventID)
	if err != nil {
		slog.Warn("waitlist promotion skipped: event lookup failed", "event_id", eventID, "error", err)
		return
	}
	if event.MaxParticipants == nil {
		return
	}

	promoted, err := s.participants.PromoteOldest(ctx, eventID)
	if err != nil {
		slog.Warn("waitlist promotion failed", "event_id", eventID, "error", err)
		return
	}
	if promoted != nil {
		s.notify(ctx, clientID, notify.ParticipantStatusChanged, promoted)
	}
}
