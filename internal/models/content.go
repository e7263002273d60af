package models

import "time"

// Event is a school event shown on the public site.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	Location    string    `db:"location" json:"location"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Notice is a short announcement shown on the public site.
type Notice struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateEventRequest is the admin payload for a new event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Location    string `json:"location,omitempty"`
}

// UpdateEventRequest carries partial event edits.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Location    *string `json:"location,omitempty"`
}

// CreateNoticeRequest is the admin payload for a new notice.
type CreateNoticeRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// Resource is a downloadable document or link shown on the portal
// dashboards, optionally categorised by type.
type Resource struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	URL         string    `db:"url" json:"url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateResourceRequest is the admin payload for a new resource.
type CreateResourceRequest struct {
	Title       string `json:"title" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
}
