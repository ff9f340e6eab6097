package handler

import (
	"net/http"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/service"
)

// ClientHandler holds HTTP handlers for tenant management. These routes are
// unauthenticated bootstrap endpoints; deployments front them with their own
// admin access control.
type ClientHandler struct {
	svc *service.ClientService
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// CreateClient handles POST /clients.
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	client, err := h.svc.CreateClient(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// ListClients handles GET /clients.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}
