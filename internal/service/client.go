package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventplan/eventplan/internal/model"
)

// ClientAdminStore is the persistence contract for tenant management.
type ClientAdminStore interface {
	Create(ctx context.Context, req model.CreateClientRequest) (*model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
}

// ClientService handles tenant registration and listing.
type ClientService struct {
	clients ClientAdminStore
}

// NewClientService constructs a ClientService.
func NewClientService(clients ClientAdminStore) *ClientService {
	return &ClientService{clients: clients}
}

// CreateClient registers a tenant and returns it with a freshly issued token.
func (s *ClientService) CreateClient(ctx context.Context, req model.CreateClientRequest) (*model.Client, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("client name is required")
	}
	return s.clients.Create(ctx, req)
}

// ListClients returns all tenants.
func (s *ClientService) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.clients.List(ctx)
}
