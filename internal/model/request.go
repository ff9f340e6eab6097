package model

import "time"

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	AuthorID          string      `json:"author_id"`
	AuthorName        string      `json:"author_name"`
	AuthorEmail       string      `json:"author_email"`
	StartTime         time.Time   `json:"start_time"`
	EndTime           *time.Time  `json:"end_time"`
	Timezone          string      `json:"timezone"`
	Status            EventStatus `json:"status"`
	Type              string      `json:"type"`
	CoverImageURL     string      `json:"cover_image_url"`
	Tags              []string    `json:"tags"`
	CategoryID        *string     `json:"category_id"`
	LocationName      string      `json:"location_name"`
	LocationAddress   string      `json:"location_address"`
	LocationURL       string      `json:"location_url"`
	IsOnline          bool        `json:"is_online"`
	MaxParticipants   *int        `json:"max_participants"`
	IsPublic          *bool       `json:"is_public"`
	Price             *float64    `json:"price"`
	Currency          string      `json:"currency"`
	RecurrenceRule    string      `json:"recurrence_rule"`
	RecurrenceEndDate *time.Time  `json:"recurrence_end_date"`
	RecurrenceCount   *int        `json:"recurrence_count"`
}

// UpdateEventRequest is a partial update; nil fields are left unchanged.
type UpdateEventRequest struct {
	Title           *string      `json:"title"`
	Description     *string      `json:"description"`
	StartTime       *time.Time   `json:"start_time"`
	EndTime         *time.Time   `json:"end_time"`
	Timezone        *string      `json:"timezone"`
	Status          *EventStatus `json:"status"`
	Type            *string      `json:"type"`
	CoverImageURL   *string      `json:"cover_image_url"`
	Tags            []string     `json:"tags"`
	CategoryID      *string      `json:"category_id"`
	LocationName    *string      `json:"location_name"`
	LocationAddress *string      `json:"location_address"`
	LocationURL     *string      `json:"location_url"`
	IsOnline        *bool        `json:"is_online"`
	MaxParticipants *int         `json:"max_participants"`
	IsPublic        *bool        `json:"is_public"`
	Price           *float64     `json:"price"`
	Currency        *string      `json:"currency"`
}

// AddParticipantRequest is the payload for joining an event.
type AddParticipantRequest struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Email    string          `json:"email"`
	Role     ParticipantRole `json:"role"`
	Notes    string          `json:"notes"`
}

// UpdateParticipantStatusRequest carries an explicit status transition.
type UpdateParticipantStatusRequest struct {
	Status ParticipantStatus `json:"status"`
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// UpdateCategoryRequest is a partial category update.
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// CreateClientRequest is the payload for registering a tenant.
type CreateClientRequest struct {
	Name       string `json:"name"`
	WebhookURL string `json:"webhook_url"`
}

// EventFilter narrows event listings. Zero values mean "no filter".
type EventFilter struct {
	Status     EventStatus
	Type       string
	CategoryID string
	IsOnline   *bool
	From       *time.Time
	To         *time.Time
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
