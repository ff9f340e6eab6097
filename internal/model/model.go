// Package model defines the core domain types for the event planning service.
package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

// ValidEventStatus reports whether s is one of the known lifecycle states.
func ValidEventStatus(s EventStatus) bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// ParticipantStatus is the registration state of a participant.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "REGISTERED"
	ParticipantWaitlist   ParticipantStatus = "WAITLIST"
	ParticipantConfirmed  ParticipantStatus = "CONFIRMED"
	ParticipantCancelled  ParticipantStatus = "CANCELLED"
	ParticipantAttended   ParticipantStatus = "ATTENDED"
)

// ValidParticipantStatus reports whether s is one of the known registration states.
func ValidParticipantStatus(s ParticipantStatus) bool {
	switch s {
	case ParticipantRegistered, ParticipantWaitlist, ParticipantConfirmed,
		ParticipantCancelled, ParticipantAttended:
		return true
	}
	return false
}

// Active reports whether the status counts against event capacity.
func (s ParticipantStatus) Active() bool {
	return s == ParticipantRegistered || s == ParticipantConfirmed
}

// ParticipantRole describes what a participant does at an event.
type ParticipantRole string

const (
	RoleAttendee  ParticipantRole = "ATTENDEE"
	RoleSpeaker   ParticipantRole = "SPEAKER"
	RoleOrganizer ParticipantRole = "ORGANIZER"
	RoleHost      ParticipantRole = "HOST"
)

// ValidParticipantRole reports whether r is one of the known roles.
func ValidParticipantRole(r ParticipantRole) bool {
	switch r {
	case RoleAttendee, RoleSpeaker, RoleOrganizer, RoleHost:
		return true
	}
	return false
}

// Event represents a tenant-owned event. An event carrying a recurrence rule
// is a template; its generated occurrences reference it via ParentEventID and
// are never themselves recurring.
type Event struct {
	ID                string      `json:"id"`
	ClientID          string      `json:"client_id"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	AuthorID          string      `json:"author_id"`
	AuthorName        string      `json:"author_name"`
	AuthorEmail       string      `json:"author_email,omitempty"`
	StartTime         time.Time   `json:"start_time"`
	EndTime           *time.Time  `json:"end_time,omitempty"`
	Timezone          string      `json:"timezone,omitempty"`
	Status            EventStatus `json:"status"`
	Type              string      `json:"type,omitempty"`
	CoverImageURL     string      `json:"cover_image_url,omitempty"`
	Tags              []string    `json:"tags,omitempty"`
	CategoryID        *string     `json:"category_id,omitempty"`
	LocationName      string      `json:"location_name,omitempty"`
	LocationAddress   string      `json:"location_address,omitempty"`
	LocationURL       string      `json:"location_url,omitempty"`
	IsOnline          bool        `json:"is_online"`
	MaxParticipants   *int        `json:"max_participants,omitempty"`
	IsPublic          bool        `json:"is_public"`
	Price             *float64    `json:"price,omitempty"`
	Currency          string      `json:"currency,omitempty"`
	RecurrenceRule    string      `json:"recurrence_rule,omitempty"`
	RecurrenceEndDate *time.Time  `json:"recurrence_end_date,omitempty"`
	RecurrenceCount   *int        `json:"recurrence_count,omitempty"`
	ParentEventID     *string     `json:"parent_event_id,omitempty"`
	IsRecurring       bool        `json:"is_recurring"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Participant represents a user registered (or waiting) for an event.
// Participants are never deleted; removal is a CANCELLED transition.
type Participant struct {
	ID          string            `json:"id"`
	EventID     string            `json:"event_id"`
	UserID      string            `json:"user_id"`
	UserName    string            `json:"user_name"`
	Email       string            `json:"email,omitempty"`
	Status      ParticipantStatus `json:"status"`
	Role        ParticipantRole   `json:"role"`
	Notes       string            `json:"notes,omitempty"`
	CheckedIn   bool              `json:"checked_in"`
	CheckedInAt *time.Time        `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Category is a tenant-scoped event category. Names are unique per tenant.
type Category struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	EventCount  int       `json:"event_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Client is a tenant. Its token authenticates API calls and its webhook URL,
// when set, receives notification payloads.
type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Token      string    `json:"token"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RosterStatus decides the status assigned to a join request given the
// current active roster size and the event's capacity limit (nil = unlimited).
// Callers must invoke it under the event's serialization point so two
// concurrent joins cannot both observe the last free seat.
func RosterStatus(active int, limit *int) ParticipantStatus {
	if limit != nil && active >= *limit {
		return ParticipantWaitlist
	}
	return ParticipantRegistered
}

// EarliestWaitlisted returns the waitlisted participant with the earliest
// creation time, or nil when the waitlist is empty.
func EarliestWaitlisted(ps []Participant) *Participant {
	var oldest *Participant
	for i := range ps {
		p := &ps[i]
		if p.Status != ParticipantWaitlist {
			continue
		}
		if oldest == nil || p.CreatedAt.Before(oldest.CreatedAt) {
			oldest = p
		}
	}
	return oldest
}

// EventStats summarises the registration state of a single event.
type EventStats struct {
	TotalParticipants int  `json:"total_participants"`
	Registered        int  `json:"registered"`
	Confirmed         int  `json:"confirmed"`
	Waitlist          int  `json:"waitlist"`
	Cancelled         int  `json:"cancelled"`
	Attended          int  `json:"attended"`
	CheckedIn         int  `json:"checked_in"`
	AvailableSpots    *int `json:"available_spots"`
}

// ComputeStats derives EventStats from an event and its full participant list.
func ComputeStats(event *Event, ps []Participant) EventStats {
	stats := EventStats{TotalParticipants: len(ps)}
	active := 0
	for _, p := range ps {
		switch p.Status {
		case ParticipantRegistered:
			stats.Registered++
		case ParticipantConfirmed:
			stats.Confirmed++
		case ParticipantWaitlist:
			stats.Waitlist++
		case ParticipantCancelled:
			stats.Cancelled++
		case ParticipantAttended:
			stats.Attended++
		}
		if p.Status.Active() {
			active++
		}
		if p.CheckedIn {
			stats.CheckedIn++
		}
	}
	if event.MaxParticipants != nil {
		spots := *event.MaxParticipants - active
		if spots < 0 {
			spots = 0
		}
		stats.AvailableSpots = &spots
	}
	return stats
}
