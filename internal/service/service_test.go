package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/notify"
	"github.com/eventplan/eventplan/internal/repository"
)

// memStore is an in-memory stand-in for the pgx repositories. Join and
// PromoteOldest take the store lock around their read-count-then-write
// sequence, mirroring the row lock the real store holds per event.
type memStore struct {
	mu           sync.Mutex
	events       map[string]*model.Event
	participants map[string][]model.Participant
	clients      map[string]*model.Client
	clock        time.Time
}

func newMemStore() *memStore {
	return &memStore{
		events:       make(map[string]*model.Event),
		participants: make(map[string][]model.Participant),
		clients:      make(map[string]*model.Client),
		clock:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so creation order is a total
// order, as it is in the database.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// ─── EventStore ───────────────────────────────────────────────────────────────

func (m *memStore) Create(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, clientID, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) List(_ context.Context, clientID string, f model.EventFilter) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		if e.ClientID != clientID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ListChildren(_ context.Context, parentID string) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		if e.ParentEventID != nil && *e.ParentEventID == parentID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) Update(_ context.Context, clientID, id string, upd model.UpdateEventRequest) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	if upd.MaxParticipants != nil {
		e.MaxParticipants = upd.MaxParticipants
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) SetStatus(_ context.Context, clientID, id string, status model.EventStatus) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

func (m *memStore) DeletePastChildren(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, e := range m.events {
		if e.ParentEventID != nil && e.StartTime.Before(now) {
			delete(m.events, id)
			deleted++
		}
	}
	return deleted, nil
}

// ─── ParticipantStore ─────────────────────────────────────────────────────────

func (m *memStore) Join(_ context.Context, clientID, eventID string, req model.AddParticipantRequest) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}

	active := 0
	for _, p := range m.participants[eventID] {
		if p.Status.Active() {
			active++
		}
	}

	role := req.Role
	if role == "" {
		role = model.RoleAttendee
	}
	p := model.Participant{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Email:     req.Email,
		Status:    model.RosterStatus(active, e.MaxParticipants),
		Role:      role,
		Notes:     req.Notes,
		CreatedAt: m.tick(),
	}
	m.participants[eventID] = append(m.participants[eventID], p)
	return &p, nil
}

func (m *memStore) PromoteOldest(_ context.Context, eventID string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if e.MaxParticipants != nil {
		active := 0
		for _, p := range m.participants[eventID] {
			if p.Status.Active() {
				active++
			}
		}
		if active >= *e.MaxParticipants {
			return nil, nil
		}
	}

	oldest := model.EarliestWaitlisted(m.participants[eventID])
	if oldest == nil {
		return nil, nil
	}
	for i := range m.participants[eventID] {
		if m.participants[eventID][i].ID == oldest.ID {
			m.participants[eventID][i].Status = model.ParticipantRegistered
			cp := m.participants[eventID][i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByEvent(_ context.Context, eventID string) ([]model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.Participant(nil), m.participants[eventID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, clientID, eventID, participantID string, status model.ParticipantStatus) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	for i := range m.participants[eventID] {
		if m.participants[eventID][i].ID == participantID {
			m.participants[eventID][i].Status = status
			cp := m.participants[eventID][i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CancelByUser(_ context.Context, clientID, eventID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.ClientID != clientID {
		return 0, repository.ErrNotFound
	}
	var n int64
	for i := range m.participants[eventID] {
		if m.participants[eventID][i].UserID == userID {
			m.participants[eventID][i].Status = model.ParticipantCancelled
			n++
		}
	}
	return n, nil
}

func (m *memStore) CheckIn(_ context.Context, clientID, eventID, participantID string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	for i := range m.participants[eventID] {
		if m.participants[eventID][i].ID == participantID {
			now := m.tick()
			m.participants[eventID][i].CheckedIn = true
			m.participants[eventID][i].CheckedInAt = &now
			m.participants[eventID][i].Status = model.ParticipantAttended
			cp := m.participants[eventID][i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ─── ClientStore ──────────────────────────────────────────────────────────────

func (m *memStore) GetByIDClient(_ context.Context, id string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// clientStoreAdapter exposes the client lookup under the ClientStore method
// name, which collides with the event GetByID on memStore.
type clientStoreAdapter struct{ m *memStore }

func (a clientStoreAdapter) GetByID(ctx context.Context, id string) (*model.Client, error) {
	return a.m.GetByIDClient(ctx, id)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.EventType
}

func (r *recordingNotifier) Notify(_ context.Context, _ model.Client, typ notify.EventType, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, typ)
}

func (r *recordingNotifier) has(typ notify.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.sent {
		if t == typ {
			return true
		}
	}
	return false
}

const testClientID = "11111111-1111-1111-1111-111111111111"

func newTestService(now time.Time) (*EventService, *memStore, *recordingNotifier) {
	store := newMemStore()
	store.clients[testClientID] = &model.Client{ID: testClientID, Name: "acme"}
	rec := &recordingNotifier{}
	svc := NewEventService(store, store, clientStoreAdapter{store}, rec)
	svc.now = func() time.Time { return now }
	return svc, store, rec
}

func intPtr(v int) *int { return &v }

func statusCounts(ps []model.Participant) map[model.ParticipantStatus]int {
	counts := make(map[model.ParticipantStatus]int)
	for _, p := range ps {
		counts[p.Status]++
	}
	return counts
}

func containsWarning(w, substr string) bool {
	return strings.Contains(strings.ToLower(w), strings.ToLower(substr))
}
