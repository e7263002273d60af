package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/export"
)

// Actor identifies who performed a privileged mutation.
type Actor struct {
	ID   string
	Name string
}

// SystemActor is used for mutations the system performs on its own, such as
// auto-linking at approval time.
var SystemActor = Actor{ID: models.SystemActorID, Name: models.SystemActorName}

type auditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// auditRecorder is the narrow dependency other services use to append audit
// entries.
type auditRecorder interface {
	Record(ctx context.Context, action, targetType, targetID string, actor Actor, details map[string]interface{}) error
}

// AuditService appends and reads the immutable audit trail.
type AuditService struct {
	repo   auditLogRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditLogRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record appends one entry. The detail map is stored as JSON.
func (s *AuditService) Record(ctx context.Context, action, targetType, targetID string, actor Actor, details map[string]interface{}) error {
	var payload []byte
	if len(details) > 0 {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode audit details")
		}
	}

	entry := &models.AuditLog{
		Action:     action,
		TargetType: targetType,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Details:    payload,
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return nil
}

// List returns entries newest-first, capped at limit (default 50).
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	entries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}

// ExportCSV renders the newest entries as a CSV document.
func (s *AuditService) ExportCSV(ctx context.Context, limit int) ([]byte, error) {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"timestamp", "action", "target_type", "target_id", "actor_id", "actor_name", "details"},
	}
	for _, entry := range entries {
		targetID := ""
		if entry.TargetID != nil {
			targetID = *entry.TargetID
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"timestamp":   entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			"action":      entry.Action,
			"target_type": entry.TargetType,
			"target_id":   targetID,
			"actor_id":    entry.ActorID,
			"actor_name":  entry.ActorName,
			"details":     string(entry.Details),
		})
	}

	payload, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit export")
	}
	return payload, nil
}
