package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventplan/eventplan/internal/model"
)

const participantColumns = `id, event_id, user_id, user_name, email, status, role, notes,
	checked_in, checked_in_at, created_at`

// ParticipantRepository handles persistence for participants, including the
// capacity-controlled join and the FIFO waitlist promotion.
type ParticipantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository constructs a ParticipantRepository.
func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func scanParticipant(row pgx.Row) (*model.Participant, error) {
	var p model.Participant
	err := row.Scan(
		&p.ID, &p.EventID, &p.UserID, &p.UserName, &p.Email, &p.Status, &p.Role, &p.Notes,
		&p.CheckedIn, &p.CheckedInAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Join registers a participant for an event, assigning REGISTERED while the
// active roster is below capacity and WAITLIST once it is full.
//
// The read-count-then-insert sequence must be serialized per event: without
// it, two concurrent joins can both observe the last free seat and overbook.
// SELECT ... FOR UPDATE takes a row-level exclusive lock on the event inside
// the transaction, so concurrent joins for the same event queue up behind one
// another while different events proceed in parallel.
func (r *ParticipantRepository) Join(ctx context.Context, clientID, eventID string, req model.AddParticipantRequest) (*model.Participant, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var limit *int
	err = tx.QueryRow(ctx,
		`SELECT max_participants FROM events WHERE id = $1 AND client_id = $2 FOR UPDATE`,
		eventID, clientID,
	).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var active int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants
		 WHERE event_id = $1 AND status IN ('REGISTERED', 'CONFIRMED')`,
		eventID,
	).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("count active roster: %w", err)
	}

	p := &model.Participant{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Email:     req.Email,
		Status:    model.RosterStatus(active, limit),
		Role:      req.Role,
		Notes:     req.Notes,
		CreatedAt: time.Now().UTC(),
	}
	if p.Role == "" {
		p.Role = model.RoleAttendee
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO participants (`+participantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.EventID, p.UserID, p.UserName, p.Email, p.Status, p.Role, p.Notes,
		p.CheckedIn, p.CheckedInAt, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// PromoteOldest advances the earliest-created WAITLIST participant of the
// event to REGISTERED. It holds the same event row lock as Join so a
// concurrent join cannot take the freed seat mid-promotion, and it re-checks
// capacity so a seat already refilled is not overbooked. Returns nil when
// there is nothing to promote.
func (r *ParticipantRepository) PromoteOldest(ctx context.Context, eventID string) (*model.Participant, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var limit *int
	err = tx.QueryRow(ctx,
		`SELECT max_participants FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	if limit != nil {
		var active int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM participants
			 WHERE event_id = $1 AND status IN ('REGISTERED', 'CONFIRMED')`,
			eventID,
		).Scan(&active)
		if err != nil {
			return nil, fmt.Errorf("count active roster: %w", err)
		}
		if active >= *limit {
			err = tx.Commit(ctx)
			return nil, err
		}
	}

	p, err := scanParticipant(tx.QueryRow(ctx,
		`UPDATE participants SET status = 'REGISTERED'
		 WHERE id = (
		     SELECT id FROM participants
		     WHERE event_id = $1 AND status = 'WAITLIST'
		     ORDER BY created_at ASC
		     LIMIT 1
		 )
		 RETURNING `+participantColumns,
		eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.Commit(ctx)
			return nil, err
		}
		return nil, fmt.Errorf("promote from waitlist: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// ListByEvent returns all participants for an event ordered by creation time,
// which is also the waitlist's FIFO order.
func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+participantColumns+` FROM participants
		 WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var ps []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ps = append(ps, *p)
	}
	return ps, rows.Err()
}

func (r *ParticipantRepository) verifyEvent(ctx context.Context, clientID, eventID string) error {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1 AND client_id = $2)`,
		eventID, clientID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("verify event: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets an explicit registration status on a participant.
func (r *ParticipantRepository) UpdateStatus(ctx context.Context, clientID, eventID, participantID string, status model.ParticipantStatus) (*model.Participant, error) {
	if err := r.verifyEvent(ctx, clientID, eventID); err != nil {
		return nil, err
	}
	p, err := scanParticipant(r.db.QueryRow(ctx,
		`UPDATE participants SET status = $1
		 WHERE id = $2 AND event_id = $3
		 RETURNING `+participantColumns,
		status, participantID, eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update participant status: %w", err)
	}
	return p, nil
}

// CancelByUser marks every registration of the user on the event as
// CANCELLED, preserving the rows for history. Returns the number of rows
// transitioned.
func (r *ParticipantRepository) CancelByUser(ctx context.Context, clientID, eventID, userID string) (int64, error) {
	if err := r.verifyEvent(ctx, clientID, eventID); err != nil {
		return 0, err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE participants SET status = 'CANCELLED' WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel participant: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CheckIn flags a participant as checked in and transitions it to ATTENDED.
func (r *ParticipantRepository) CheckIn(ctx context.Context, clientID, eventID, participantID string) (*model.Participant, error) {
	if err := r.verifyEvent(ctx, clientID, eventID); err != nil {
		return nil, err
	}
	p, err := scanParticipant(r.db.QueryRow(ctx,
		`UPDATE participants SET checked_in = true, checked_in_at = now(), status = 'ATTENDED'
		 WHERE id = $1 AND event_id = $2
		 RETURNING `+participantColumns,
		participantID, eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("check in participant: %w", err)
	}
	return p, nil
}
