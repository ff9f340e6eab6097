package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventplan/eventplan/internal/model"
)

// ClientRepository handles persistence for tenants.
type ClientRepository struct {
	db *pgxpool.Pool
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{db: db}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create registers a new tenant with a freshly generated bearer token.
func (r *ClientRepository) Create(ctx context.Context, req model.CreateClientRequest) (*model.Client, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	c := &model.Client{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Token:      token,
		WebhookURL: req.WebhookURL,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO clients (id, name, token, webhook_url, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Token, c.WebhookURL, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return c, nil
}

// GetByToken resolves a bearer token to a tenant, or ErrNotFound.
func (r *ClientRepository) GetByToken(ctx context.Context, token string) (*model.Client, error) {
	var c model.Client
	err := r.db.QueryRow(ctx,
		`SELECT id, name, token, webhook_url, created_at FROM clients WHERE token = $1`,
		token,
	).Scan(&c.ID, &c.Name, &c.Token, &c.WebhookURL, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client by token: %w", err)
	}
	return &c, nil
}

// GetByID returns a tenant by id, or ErrNotFound.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := r.db.QueryRow(ctx,
		`SELECT id, name, token, webhook_url, created_at FROM clients WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Token, &c.WebhookURL, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// List returns all tenants ordered by creation time.
func (r *ClientRepository) List(ctx context.Context) ([]model.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, token, webhook_url, created_at FROM clients ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Token, &c.WebhookURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
