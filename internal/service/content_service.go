package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
)

const (
	cacheKeyEvents         = "content:events"
	cacheKeyUpcomingEvents = "content:events:upcoming"
	cacheKeyNotices        = "content:notices"
	cacheKeyResources      = "content:resources"
	cacheKeyContentPattern = "content:*"
)

type contentRepository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListUpcomingEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest) error
	DeleteEvent(ctx context.Context, id string) error
	CreateNotice(ctx context.Context, notice *models.Notice) error
	ListNotices(ctx context.Context) ([]models.Notice, error)
	DeleteNotice(ctx context.Context, id string) error
	CreateResource(ctx context.Context, resource *models.Resource) error
	ListResources(ctx context.Context, resourceType string) ([]models.Resource, error)
	DeleteResource(ctx context.Context, id string) error
}

type contentCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ContentService manages the public-site collections with read-through
// caching on the list endpoints.
type ContentService struct {
	repo      contentRepository
	cache     contentCache
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewContentService constructs a ContentService.
func NewContentService(repo contentRepository, cache contentCache, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ContentService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// CreateEvent adds an event and invalidates the cached lists.
func (s *ContentService) CreateEvent(ctx context.Context, req models.CreateEventRequest, actor Actor) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid event date")
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionEventCreated, "event", event.ID, actor, map[string]interface{}{"title": event.Title})
	return event, nil
}

// ListEvents returns all events newest date first, served from cache when warm.
func (s *ContentService) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.cache.Get(ctx, cacheKeyEvents, &events); err == nil {
		return events, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("event cache read failed", zap.Error(err))
	}

	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	if err := s.cache.Set(ctx, cacheKeyEvents, events, s.cacheTTL); err != nil {
		s.logger.Warn("event cache write failed", zap.Error(err))
	}
	return events, nil
}

// ListUpcomingEvents returns events from today onward, soonest first.
func (s *ContentService) ListUpcomingEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.cache.Get(ctx, cacheKeyUpcomingEvents, &events); err == nil {
		return events, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("event cache read failed", zap.Error(err))
	}

	events, err := s.repo.ListUpcomingEvents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming events")
	}

	if err := s.cache.Set(ctx, cacheKeyUpcomingEvents, events, s.cacheTTL); err != nil {
		s.logger.Warn("event cache write failed", zap.Error(err))
	}
	return events, nil
}

// UpdateEvent applies partial edits and invalidates the cached lists.
func (s *ContentService) UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest, actor Actor) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	if err := s.repo.UpdateEvent(ctx, id, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionEventUpdated, "event", id, actor, nil)
	return nil
}

// DeleteEvent removes an event and invalidates the cached lists.
func (s *ContentService) DeleteEvent(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionEventDeleted, "event", id, actor, nil)
	return nil
}

// CreateNotice adds a notice and invalidates the cached list.
func (s *ContentService) CreateNotice(ctx context.Context, req models.CreateNoticeRequest, actor Actor) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	notice := &models.Notice{Title: req.Title, Body: req.Body}
	if err := s.repo.CreateNotice(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionNoticeCreated, "notice", notice.ID, actor, map[string]interface{}{"title": notice.Title})
	return notice, nil
}

// ListNotices returns all notices newest first, served from cache when warm.
func (s *ContentService) ListNotices(ctx context.Context) ([]models.Notice, error) {
	var notices []models.Notice
	if err := s.cache.Get(ctx, cacheKeyNotices, &notices); err == nil {
		return notices, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("notice cache read failed", zap.Error(err))
	}

	notices, err := s.repo.ListNotices(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}

	if err := s.cache.Set(ctx, cacheKeyNotices, notices, s.cacheTTL); err != nil {
		s.logger.Warn("notice cache write failed", zap.Error(err))
	}
	return notices, nil
}

// DeleteNotice removes a notice and invalidates the cached list.
func (s *ContentService) DeleteNotice(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.DeleteNotice(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionNoticeDeleted, "notice", id, actor, nil)
	return nil
}

// CreateResource adds a resource and invalidates the cached lists.
func (s *ContentService) CreateResource(ctx context.Context, req models.CreateResourceRequest, actor Actor) (*models.Resource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}

	resource := &models.Resource{
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
		URL:         req.URL,
	}
	if err := s.repo.CreateResource(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionResourceCreated, "resource", resource.ID, actor, map[string]interface{}{
		"title": resource.Title,
		"type":  resource.Type,
	})
	return resource, nil
}

// ListResources returns resources newest first, optionally filtered by type,
// served from cache when warm.
func (s *ContentService) ListResources(ctx context.Context, resourceType string) ([]models.Resource, error) {
	key := cacheKeyResources
	if resourceType != "" {
		key += ":" + resourceType
	}

	var resources []models.Resource
	if err := s.cache.Get(ctx, key, &resources); err == nil {
		return resources, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("resource cache read failed", zap.Error(err))
	}

	resources, err := s.repo.ListResources(ctx, resourceType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}

	if err := s.cache.Set(ctx, key, resources, s.cacheTTL); err != nil {
		s.logger.Warn("resource cache write failed", zap.Error(err))
	}
	return resources, nil
}

// DeleteResource removes a resource and invalidates the cached lists.
func (s *ContentService) DeleteResource(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.DeleteResource(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}

	s.invalidate(ctx)
	s.recordContentAudit(ctx, models.AuditActionResourceDeleted, "resource", id, actor, nil)
	return nil
}

func (s *ContentService) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, cacheKeyContentPattern); err != nil {
		s.logger.Warn("content cache invalidation failed", zap.Error(err))
	}
}

func (s *ContentService) recordContentAudit(ctx context.Context, action, targetType, targetID string, actor Actor, details map[string]interface{}) {
	if err := s.audit.Record(ctx, action, targetType, targetID, actor, details); err != nil {
		s.logger.Warn("failed to record content audit entry", zap.Error(err))
	}
}
