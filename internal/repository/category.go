package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventplan/eventplan/internal/model"
)

const uniqueViolation = "23505"

// CategoryRepository handles persistence for event categories.
type CategoryRepository struct {
	db *pgxpool.Pool
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a category; a duplicate name within the tenant yields
// ErrConflict.
func (r *CategoryRepository) Create(ctx context.Context, clientID string, req model.CreateCategoryRequest) (*model.Category, error) {
	c := &model.Category{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_categories (id, client_id, name, description, color, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ClientID, c.Name, c.Description, c.Color, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

const categorySelect = `SELECT c.id, c.client_id, c.name, c.description, c.color, c.created_at,
	(SELECT COUNT(*) FROM events e WHERE e.category_id = c.id) AS event_count
	FROM event_categories c`

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.EventCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the tenant's categories with event counts, ordered by name.
func (r *CategoryRepository) List(ctx context.Context, clientID string) ([]model.Category, error) {
	rows, err := r.db.Query(ctx, categorySelect+` WHERE c.client_id = $1 ORDER BY c.name ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// GetByID returns a single tenant-owned category or ErrNotFound.
func (r *CategoryRepository) GetByID(ctx context.Context, clientID, id string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx,
		categorySelect+` WHERE c.id = $1 AND c.client_id = $2`, id, clientID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Update applies a partial update; duplicate names yield ErrConflict.
func (r *CategoryRepository) Update(ctx context.Context, clientID, id string, req model.UpdateCategoryRequest) (*model.Category, error) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Color != nil {
		set("color", *req.Color)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, clientID, id)
	}

	args = append(args, id, clientID)
	query := fmt.Sprintf(
		`UPDATE event_categories SET %s WHERE id = $%d AND client_id = $%d RETURNING id`,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)
	var updated string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return r.GetByID(ctx, clientID, id)
}

// Delete removes a category. Events referencing it keep existing with a
// cleared reference.
func (r *CategoryRepository) Delete(ctx context.Context, clientID, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM event_categories WHERE id = $1 AND client_id = $2`,
		id, clientID,
	)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
