package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventplan/eventplan/internal/model"
)

const eventColumns = `id, client_id, title, description, author_id, author_name, author_email,
	start_time, end_time, timezone, status, type, cover_image_url, tags, category_id,
	location_name, location_address, location_url, is_online, max_participants, is_public,
	price, currency, recurrence_rule, recurrence_end_date, recurrence_count,
	parent_event_id, is_recurring, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.ClientID, &e.Title, &e.Description, &e.AuthorID, &e.AuthorName, &e.AuthorEmail,
		&e.StartTime, &e.EndTime, &e.Timezone, &e.Status, &e.Type, &e.CoverImageURL, &e.Tags, &e.CategoryID,
		&e.LocationName, &e.LocationAddress, &e.LocationURL, &e.IsOnline, &e.MaxParticipants, &e.IsPublic,
		&e.Price, &e.Currency, &e.RecurrenceRule, &e.RecurrenceEndDate, &e.RecurrenceCount,
		&e.ParentEventID, &e.IsRecurring, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a fully-populated event record.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		         $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`,
		e.ID, e.ClientID, e.Title, e.Description, e.AuthorID, e.AuthorName, e.AuthorEmail,
		e.StartTime, e.EndTime, e.Timezone, e.Status, e.Type, e.CoverImageURL, e.Tags, e.CategoryID,
		e.LocationName, e.LocationAddress, e.LocationURL, e.IsOnline, e.MaxParticipants, e.IsPublic,
		e.Price, e.Currency, e.RecurrenceRule, e.RecurrenceEndDate, e.RecurrenceCount,
		e.ParentEventID, e.IsRecurring, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single tenant-owned event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, clientID, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND client_id = $2`,
		id, clientID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// List returns the tenant's events matching the filter, ordered by start time.
func (r *EventRepository) List(ctx context.Context, clientID string, f model.EventFilter) ([]model.Event, error) {
	conds := []string{"client_id = $1"}
	args := []any{clientID}
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.CategoryID != "" {
		add("category_id = $%d", f.CategoryID)
	}
	if f.IsOnline != nil {
		add("is_online = $%d", *f.IsOnline)
	}
	if f.From != nil {
		add("start_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("start_time <= $%d", *f.To)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE `+strings.Join(conds, " AND ")+` ORDER BY start_time ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListChildren returns the generated occurrences of a template event, ordered
// by start time.
func (r *EventRepository) ListChildren(ctx context.Context, parentID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE parent_event_id = $1 ORDER BY start_time ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list child events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update applies a partial update and returns the new row, or ErrNotFound
// when the event is absent or owned by another tenant.
func (r *EventRepository) Update(ctx context.Context, clientID, id string, upd model.UpdateEventRequest) (*model.Event, error) {
	sets := []string{"updated_at = now()"}
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.StartTime != nil {
		set("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		set("end_time", *upd.EndTime)
	}
	if upd.Timezone != nil {
		set("timezone", *upd.Timezone)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.Type != nil {
		set("type", *upd.Type)
	}
	if upd.CoverImageURL != nil {
		set("cover_image_url", *upd.CoverImageURL)
	}
	if upd.Tags != nil {
		set("tags", upd.Tags)
	}
	if upd.CategoryID != nil {
		set("category_id", *upd.CategoryID)
	}
	if upd.LocationName != nil {
		set("location_name", *upd.LocationName)
	}
	if upd.LocationAddress != nil {
		set("location_address", *upd.LocationAddress)
	}
	if upd.LocationURL != nil {
		set("location_url", *upd.LocationURL)
	}
	if upd.IsOnline != nil {
		set("is_online", *upd.IsOnline)
	}
	if upd.MaxParticipants != nil {
		set("max_participants", *upd.MaxParticipants)
	}
	if upd.IsPublic != nil {
		set("is_public", *upd.IsPublic)
	}
	if upd.Price != nil {
		set("price", *upd.Price)
	}
	if upd.Currency != nil {
		set("currency", *upd.Currency)
	}

	args = append(args, id, clientID)
	query := fmt.Sprintf(
		`UPDATE events SET %s WHERE id = $%d AND client_id = $%d RETURNING `+eventColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)
	e, err := scanEvent(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// SetStatus unconditionally sets the lifecycle status and returns the new row.
// Setting a status the event already has is a no-op that still succeeds.
func (r *EventRepository) SetStatus(ctx context.Context, clientID, id string, status model.EventStatus) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`UPDATE events SET status = $1, updated_at = now()
		 WHERE id = $2 AND client_id = $3
		 RETURNING `+eventColumns,
		status, id, clientID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set event status: %w", err)
	}
	return e, nil
}

// DeletePastChildren removes generated occurrences whose start time has
// passed. Template events (no parent) are never touched.
func (r *EventRepository) DeletePastChildren(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM events WHERE parent_event_id IS NOT NULL AND start_time < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete past occurrences: %w", err)
	}
	return tag.RowsAffected(), nil
}
