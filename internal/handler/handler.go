// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/repository"
	"github.com/eventplan/eventplan/internal/service"
)

// EventHandler holds all HTTP handlers for the event API.
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// CreateEvent handles POST /events.
// Returns 201 with the created event, the number of generated occurrences,
// and a warning when the recurrence rule could not be parsed.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.CreateEvent(r.Context(), client.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListEvents handles GET /events with optional query filters.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.svc.ListEvents(r.Context(), client.ID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func filterFromQuery(r *http.Request) (model.EventFilter, error) {
	q := r.URL.Query()
	f := model.EventFilter{
		Status:     model.EventStatus(q.Get("status")),
		Type:       q.Get("type"),
		CategoryID: q.Get("categoryId"),
	}
	switch q.Get("isOnline") {
	case "true":
		v := true
		f.IsOnline = &v
	case "false":
		v := false
		f.IsOnline = &v
	}
	if s := q.Get("fromDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, errors.New("fromDate must be RFC 3339")
		}
		f.From = &t
	}
	if s := q.Get("toDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, errors.New("toDate must be RFC 3339")
		}
		f.To = &t
	}
	return f, nil
}

// GetEvent handles GET /events/{eventID}.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	detail, err := h.svc.GetEvent(r.Context(), client.ID, chi.URLParam(r, "eventID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetEventStats handles GET /events/{eventID}/stats.
func (h *EventHandler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	stats, err := h.svc.EventStats(r.Context(), client.ID, chi.URLParam(r, "eventID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UpdateEvent handles PATCH /events/{eventID}.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), client.ID, chi.URLParam(r, "eventID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CompleteEvent handles PUT /events/{eventID}/complete.
func (h *EventHandler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	event, err := h.svc.CompleteEvent(r.Context(), client.ID, chi.URLParam(r, "eventID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ─── Participant handlers ─────────────────────────────────────────────────────

// AddParticipant handles POST /events/{eventID}/participants.
// The assigned status in the response tells the caller whether the user was
// registered or waitlisted.
func (h *EventHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req model.AddParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.AddParticipant(r.Context(), client.ID, chi.URLParam(r, "eventID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateParticipantStatus handles PATCH /events/{eventID}/participants/{participantID}/status.
func (h *EventHandler) UpdateParticipantStatus(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req model.UpdateParticipantStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.UpdateParticipantStatus(
		r.Context(), client.ID,
		chi.URLParam(r, "eventID"), chi.URLParam(r, "participantID"),
		req.Status,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CheckInParticipant handles PUT /events/{eventID}/participants/{participantID}/checkin.
func (h *EventHandler) CheckInParticipant(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	p, err := h.svc.CheckInParticipant(
		r.Context(), client.ID,
		chi.URLParam(r, "eventID"), chi.URLParam(r, "participantID"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RemoveParticipant handles DELETE /events/{eventID}/participants/{userID}.
func (h *EventHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	cancelled, err := h.svc.RemoveParticipant(
		r.Context(), client.ID,
		chi.URLParam(r, "eventID"), chi.URLParam(r, "userID"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cancelled": cancelled})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Status handles GET /status.
func Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
