package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/service"
)

// CategoryHandler holds HTTP handlers for event categories.
type CategoryHandler struct {
	svc *service.CategoryService
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// CreateCategory handles POST /categories.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req model.CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cat, err := h.svc.CreateCategory(r.Context(), client.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// ListCategories handles GET /categories.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	cats, err := h.svc.ListCategories(r.Context(), client.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// GetCategory handles GET /categories/{categoryID}.
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	cat, err := h.svc.GetCategory(r.Context(), client.ID, chi.URLParam(r, "categoryID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// UpdateCategory handles PATCH /categories/{categoryID}.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req model.UpdateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cat, err := h.svc.UpdateCategory(r.Context(), client.ID, chi.URLParam(r, "categoryID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /categories/{categoryID}.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	if err := h.svc.DeleteCategory(r.Context(), client.ID, chi.URLParam(r, "categoryID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
