package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/repository"
	"github.com/eventplan/eventplan/internal/service"
)

const (
	testToken    = "test-token"
	testClientID = "22222222-2222-2222-2222-222222222222"
)

// fakeStore backs the service layer with maps for route-level tests.
type fakeStore struct {
	mu           sync.Mutex
	events       map[string]*model.Event
	participants map[string][]model.Participant
	seq          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[string]*model.Event),
		participants: make(map[string][]model.Participant),
	}
}

func (f *fakeStore) Create(_ context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, clientID, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, clientID string, _ model.EventFilter) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if e.ClientID == clientID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeStore) ListChildren(_ context.Context, parentID string) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if e.ParentEventID != nil && *e.ParentEventID == parentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, clientID, id string, upd model.UpdateEventRequest) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) SetStatus(_ context.Context, clientID, id string, status model.EventStatus) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

func (f *fakeStore) DeletePastChildren(_ context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Join(_ context.Context, clientID, eventID string, req model.AddParticipantRequest) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	active := 0
	for _, p := range f.participants[eventID] {
		if p.Status.Active() {
			active++
		}
	}
	role := req.Role
	if role == "" {
		role = model.RoleAttendee
	}
	f.seq++
	p := model.Participant{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Status:    model.RosterStatus(active, e.MaxParticipants),
		Role:      role,
		CreatedAt: time.Unix(int64(f.seq), 0),
	}
	f.participants[eventID] = append(f.participants[eventID], p)
	return &p, nil
}

func (f *fakeStore) PromoteOldest(_ context.Context, eventID string) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.MaxParticipants != nil {
		active := 0
		for _, p := range f.participants[eventID] {
			if p.Status.Active() {
				active++
			}
		}
		if active >= *e.MaxParticipants {
			return nil, nil
		}
	}
	oldest := model.EarliestWaitlisted(f.participants[eventID])
	if oldest == nil {
		return nil, nil
	}
	for i := range f.participants[eventID] {
		if f.participants[eventID][i].ID == oldest.ID {
			f.participants[eventID][i].Status = model.ParticipantRegistered
			cp := f.participants[eventID][i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByEvent(_ context.Context, eventID string) ([]model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Participant(nil), f.participants[eventID]...), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, clientID, eventID, participantID string, status model.ParticipantStatus) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	for i := range f.participants[eventID] {
		if f.participants[eventID][i].ID == participantID {
			f.participants[eventID][i].Status = status
			cp := f.participants[eventID][i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) CancelByUser(_ context.Context, clientID, eventID, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok || e.ClientID != clientID {
		return 0, repository.ErrNotFound
	}
	var n int64
	for i := range f.participants[eventID] {
		if f.participants[eventID][i].UserID == userID {
			f.participants[eventID][i].Status = model.ParticipantCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CheckIn(_ context.Context, clientID, eventID, participantID string) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	for i := range f.participants[eventID] {
		if f.participants[eventID][i].ID == participantID {
			now := time.Now()
			f.participants[eventID][i].CheckedIn = true
			f.participants[eventID][i].CheckedInAt = &now
			f.participants[eventID][i].Status = model.ParticipantAttended
			cp := f.participants[eventID][i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeClients resolves both tokens (for the auth middleware) and ids (for the
// notification path).
type fakeClients struct {
	byToken map[string]*model.Client
}

func (f *fakeClients) GetByToken(_ context.Context, token string) (*model.Client, error) {
	c, ok := f.byToken[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClients) GetByID(_ context.Context, id string) (*model.Client, error) {
	for _, c := range f.byToken {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	clients := &fakeClients{byToken: map[string]*model.Client{
		testToken: {ID: testClientID, Name: "acme", Token: testToken},
	}}

	svc := service.NewEventService(store, store, clients, nil)
	h := NewEventHandler(svc)

	r := chi.NewRouter()
	r.Get("/status", Status)
	r.Group(func(r chi.Router) {
		r.Use(ClientAuth(clients))
		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListEvents)
			r.Get("/{eventID}", h.GetEvent)
			r.Get("/{eventID}/stats", h.GetEventStats)
			r.Patch("/{eventID}", h.UpdateEvent)
			r.Put("/{eventID}/complete", h.CompleteEvent)
			r.Post("/{eventID}/participants", h.AddParticipant)
			r.Delete("/{eventID}/participants/{userID}", h.RemoveParticipant)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func doRequest(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("X-Client-Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createEventHTTP(t *testing.T, srv *httptest.Server, maxParticipants *int) string {
	t.Helper()
	resp := doRequest(t, http.MethodPost, srv.URL+"/events", model.CreateEventRequest{
		Title:           "Go Meetup",
		AuthorID:        "user-1",
		AuthorName:      "Ada",
		StartTime:       time.Date(2030, 7, 1, 10, 0, 0, 0, time.UTC),
		MaxParticipants: maxParticipants,
	}, testToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: status = %d, want 201", resp.StatusCode)
	}
	var result struct {
		Event model.Event `json:"event"`
	}
	decodeBody(t, resp, &result)
	return result.Event.ID
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/status", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf(`body = %v, want {"status":"ok"}`, body)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/events", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/events", nil, "wrong-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/events", nil, testToken)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateEventEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/events", model.CreateEventRequest{
		Title:      "Launch",
		AuthorID:   "user-1",
		AuthorName: "Ada",
		StartTime:  time.Date(2030, 7, 1, 10, 0, 0, 0, time.UTC),
	}, testToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var result struct {
		Event       model.Event `json:"event"`
		Occurrences int         `json:"occurrences_created"`
	}
	decodeBody(t, resp, &result)
	if result.Event.Title != "Launch" {
		t.Errorf("title = %q, want Launch", result.Event.Title)
	}
	if result.Event.ClientID != testClientID {
		t.Errorf("client_id = %q, want the authenticated tenant", result.Event.ClientID)
	}
	if _, ok := store.events[result.Event.ID]; !ok {
		t.Error("event was not persisted")
	}
}

func TestCreateEventRejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/events", map[string]any{
		"title":       "x",
		"author_id":   "u",
		"author_name": "u",
		"start_time":  "2030-07-01T10:00:00Z",
		"bogus_field": true,
	}, testToken)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetEventNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/events/"+uuid.New().String(), nil, testToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body model.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Error == "" {
		t.Error("expected an error envelope")
	}
}

func TestListEventsRejectsBadDateFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/events?fromDate=yesterday", nil, testToken)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAddParticipantReportsWaitlist(t *testing.T) {
	srv, _ := newTestServer(t)

	capacity := 1
	eventID := createEventHTTP(t, srv, &capacity)

	first := doRequest(t, http.MethodPost, srv.URL+"/events/"+eventID+"/participants", model.AddParticipantRequest{
		UserID: "u1", UserName: "u1",
	}, testToken)
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first join: status = %d, want 201", first.StatusCode)
	}
	var p1 model.Participant
	decodeBody(t, first, &p1)
	if p1.Status != model.ParticipantRegistered {
		t.Errorf("first join: status = %q, want REGISTERED", p1.Status)
	}

	second := doRequest(t, http.MethodPost, srv.URL+"/events/"+eventID+"/participants", model.AddParticipantRequest{
		UserID: "u2", UserName: "u2",
	}, testToken)
	if second.StatusCode != http.StatusCreated {
		t.Fatalf("second join: status = %d, want 201", second.StatusCode)
	}
	var p2 model.Participant
	decodeBody(t, second, &p2)
	if p2.Status != model.ParticipantWaitlist {
		t.Errorf("second join: status = %q, want WAITLIST", p2.Status)
	}
}

func TestRemoveParticipantReturnsCancelledCount(t *testing.T) {
	srv, _ := newTestServer(t)

	eventID := createEventHTTP(t, srv, nil)
	doRequest(t, http.MethodPost, srv.URL+"/events/"+eventID+"/participants", model.AddParticipantRequest{
		UserID: "u1", UserName: "u1",
	}, testToken)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/events/"+eventID+"/participants/u1", nil, testToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]int64
	decodeBody(t, resp, &body)
	if body["cancelled"] != 1 {
		t.Errorf("cancelled = %d, want 1", body["cancelled"])
	}
}

func TestCompleteEventEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEventHTTP(t, srv, nil)

	for i := 0; i < 2; i++ {
		resp := doRequest(t, http.MethodPut, srv.URL+"/events/"+eventID+"/complete", nil, testToken)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("call %d: status = %d, want 200", i+1, resp.StatusCode)
		}
		var event model.Event
		decodeBody(t, resp, &event)
		if event.Status != model.EventCompleted {
			t.Fatalf("call %d: status = %q, want COMPLETED", i+1, event.Status)
		}
	}
}

func TestEventStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	capacity := 2
	eventID := createEventHTTP(t, srv, &capacity)
	for i := 0; i < 3; i++ {
		uid := fmt.Sprintf("u%d", i)
		doRequest(t, http.MethodPost, srv.URL+"/events/"+eventID+"/participants", model.AddParticipantRequest{
			UserID: uid, UserName: uid,
		}, testToken)
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/events/"+eventID+"/stats", nil, testToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result struct {
		Stats model.EventStats `json:"stats"`
	}
	decodeBody(t, resp, &result)
	if result.Stats.Registered != 2 || result.Stats.Waitlist != 1 {
		t.Errorf("registered=%d waitlist=%d, want 2 and 1", result.Stats.Registered, result.Stats.Waitlist)
	}
}
