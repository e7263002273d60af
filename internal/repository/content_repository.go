package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sunrise-academy/portal-api/internal/models"
)

// ContentRepository persists the presentation-layer collections: events,
// notices and resources shown on the public site and dashboards.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs the repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// CreateEvent persists a new event.
func (r *ContentRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, title, description, date, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Date, event.Location, event.CreatedAt, event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// ListEvents returns all events, most recent date first.
func (r *ContentRepository) ListEvents(ctx context.Context) ([]models.Event, error) {
	const query = `SELECT id, title, description, date, location, created_at, updated_at
		FROM events ORDER BY date DESC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListUpcomingEvents returns events from today onward, soonest first.
func (r *ContentRepository) ListUpcomingEvents(ctx context.Context) ([]models.Event, error) {
	const query = `SELECT id, title, description, date, location, created_at, updated_at
		FROM events WHERE date >= CURRENT_DATE ORDER BY date ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies partial edits to an event.
func (r *ContentRepository) UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest) error {
	sets := "updated_at = NOW()"
	var args []interface{}
	args = append(args, id)

	if req.Title != nil {
		args = append(args, *req.Title)
		sets += fmt.Sprintf(", title = $%d", len(args))
	}
	if req.Description != nil {
		args = append(args, *req.Description)
		sets += fmt.Sprintf(", description = $%d", len(args))
	}
	if req.Date != nil {
		args = append(args, *req.Date)
		sets += fmt.Sprintf(", date = $%d::date", len(args))
	}
	if req.Location != nil {
		args = append(args, *req.Location)
		sets += fmt.Sprintf(", location = $%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $1`, sets)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteEvent removes an event.
func (r *ContentRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateNotice persists a new notice.
func (r *ContentRepository) CreateNotice(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO notices (id, title, body, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, notice.ID, notice.Title, notice.Body, notice.CreatedAt); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// ListNotices returns all notices, newest first.
func (r *ContentRepository) ListNotices(ctx context.Context) ([]models.Notice, error) {
	const query = `SELECT id, title, body, created_at FROM notices ORDER BY created_at DESC`
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, query); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// DeleteNotice removes a notice.
func (r *ContentRepository) DeleteNotice(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateResource persists a new resource.
func (r *ContentRepository) CreateResource(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO resources (id, title, type, description, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		resource.ID, resource.Title, resource.Type, resource.Description, resource.URL, resource.CreatedAt,
	); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// ListResources returns resources newest first, optionally filtered by type.
func (r *ContentRepository) ListResources(ctx context.Context, resourceType string) ([]models.Resource, error) {
	query := `SELECT id, title, type, description, url, created_at FROM resources`
	var args []interface{}
	if resourceType != "" {
		query += ` WHERE type = $1`
		args = append(args, resourceType)
	}
	query += ` ORDER BY created_at DESC`

	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, args...); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

// DeleteResource removes a resource.
func (r *ContentRepository) DeleteResource(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
