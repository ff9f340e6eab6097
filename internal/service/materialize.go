package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/recurrence"
)

// materializeOccurrences expands the template's recurrence rule and persists
// one child event per future occurrence. This runs exactly once, at creation
// time; it is never retried or re-run by a background job.
//
// Occurrence writes are independent: when one fails to persist, it is logged
// and skipped without rolling back occurrences already written. The returned
// count is the number actually created. A parse failure of the rule text is
// returned to the caller so it can be surfaced as a warning; the template
// itself is unaffected.
func (s *EventService) materializeOccurrences(ctx context.Context, parent *model.Event) (int, error) {
	bounds := recurrence.Bounds{Until: parent.RecurrenceEndDate}
	if parent.RecurrenceCount != nil {
		bounds.Count = *parent.RecurrenceCount
	}

	occurrences, err := recurrence.Expand(parent.StartTime, parent.RecurrenceRule, bounds, s.now())
	if err != nil {
		slog.Warn("recurrence expansion skipped",
			"event_id", parent.ID, "rule", parent.RecurrenceRule, "error", err)
		return 0, err
	}

	var duration time.Duration
	hasEnd := parent.EndTime != nil
	if hasEnd {
		duration = parent.EndTime.Sub(parent.StartTime)
	}

	created := 0
	for _, start := range occurrences {
		child := occurrenceOf(parent, start, duration, hasEnd, s.now().UTC())
		if err := s.events.Create(ctx, child); err != nil {
			slog.Warn("failed to persist occurrence",
				"parent_id", parent.ID, "start", start, "error", err)
			continue
		}
		created++
	}
	return created, nil
}

// occurrenceOf clones the template for a single occurrence: same descriptive
// fields, fresh identity, computed start/end, no recurrence of its own.
func occurrenceOf(parent *model.Event, start time.Time, duration time.Duration, hasEnd bool, now time.Time) *model.Event {
	child := &model.Event{
		ID:              uuid.New().String(),
		ClientID:        parent.ClientID,
		Title:           parent.Title,
		Description:     parent.Description,
		AuthorID:        parent.AuthorID,
		AuthorName:      parent.AuthorName,
		AuthorEmail:     parent.AuthorEmail,
		StartTime:       start,
		Timezone:        parent.Timezone,
		Status:          parent.Status,
		Type:            parent.Type,
		CoverImageURL:   parent.CoverImageURL,
		Tags:            parent.Tags,
		CategoryID:      parent.CategoryID,
		LocationName:    parent.LocationName,
		LocationAddress: parent.LocationAddress,
		LocationURL:     parent.LocationURL,
		IsOnline:        parent.IsOnline,
		MaxParticipants: parent.MaxParticipants,
		IsPublic:        parent.IsPublic,
		Price:           parent.Price,
		Currency:        parent.Currency,
		ParentEventID:   &parent.ID,
		IsRecurring:     false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if hasEnd {
		end := start.Add(duration)
		child.EndTime = &end
	}
	return child
}
