package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventplan/eventplan/internal/model"
)

// CategoryStore is the persistence contract for event categories.
type CategoryStore interface {
	Create(ctx context.Context, clientID string, req model.CreateCategoryRequest) (*model.Category, error)
	List(ctx context.Context, clientID string) ([]model.Category, error)
	GetByID(ctx context.Context, clientID, id string) (*model.Category, error)
	Update(ctx context.Context, clientID, id string, req model.UpdateCategoryRequest) (*model.Category, error)
	Delete(ctx context.Context, clientID, id string) error
}

// CategoryService handles tenant-scoped category CRUD.
type CategoryService struct {
	categories CategoryStore
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

// CreateCategory validates and creates a category. Duplicate names within the
// tenant surface as repository.ErrConflict.
func (s *CategoryService) CreateCategory(ctx context.Context, clientID string, req model.CreateCategoryRequest) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	return s.categories.Create(ctx, clientID, req)
}

// ListCategories returns the tenant's categories.
func (s *CategoryService) ListCategories(ctx context.Context, clientID string) ([]model.Category, error) {
	return s.categories.List(ctx, clientID)
}

// GetCategory returns a single category.
func (s *CategoryService) GetCategory(ctx context.Context, clientID, id string) (*model.Category, error) {
	return s.categories.GetByID(ctx, clientID, id)
}

// UpdateCategory applies a partial update.
func (s *CategoryService) UpdateCategory(ctx context.Context, clientID, id string, req model.UpdateCategoryRequest) (*model.Category, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("category name cannot be empty")
		}
		req.Name = &trimmed
	}
	return s.categories.Update(ctx, clientID, id, req)
}

// DeleteCategory removes a category.
func (s *CategoryService) DeleteCategory(ctx context.Context, clientID, id string) error {
	return s.categories.Delete(ctx, clientID, id)
}
