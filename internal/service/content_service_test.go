package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
)

type mockContentRepo struct {
	events        map[string]*models.Event
	notices       map[string]*models.Notice
	resources     map[string]*models.Resource
	eventLists    int
	resourceLists int
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{
		events:    make(map[string]*models.Event),
		notices:   make(map[string]*models.Notice),
		resources: make(map[string]*models.Resource),
	}
}

func (m *mockContentRepo) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = "evt-new"
	}
	m.events[event.ID] = event
	return nil
}

func (m *mockContentRepo) ListEvents(ctx context.Context) ([]models.Event, error) {
	m.eventLists++
	var out []models.Event
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockContentRepo) ListUpcomingEvents(ctx context.Context) ([]models.Event, error) {
	return m.ListEvents(ctx)
}

func (m *mockContentRepo) UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest) error {
	if _, ok := m.events[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockContentRepo) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.events, id)
	return nil
}

func (m *mockContentRepo) CreateNotice(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = "not-new"
	}
	m.notices[notice.ID] = notice
	return nil
}

func (m *mockContentRepo) ListNotices(ctx context.Context) ([]models.Notice, error) {
	var out []models.Notice
	for _, n := range m.notices {
		out = append(out, *n)
	}
	return out, nil
}

func (m *mockContentRepo) DeleteNotice(ctx context.Context, id string) error {
	if _, ok := m.notices[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.notices, id)
	return nil
}

func (m *mockContentRepo) CreateResource(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = "res-new"
	}
	m.resources[resource.ID] = resource
	return nil
}

func (m *mockContentRepo) ListResources(ctx context.Context, resourceType string) ([]models.Resource, error) {
	m.resourceLists++
	var out []models.Resource
	for _, r := range m.resources {
		if resourceType != "" && r.Type != resourceType {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockContentRepo) DeleteResource(ctx context.Context, id string) error {
	if _, ok := m.resources[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.resources, id)
	return nil
}

type mockCache struct {
	values      map[string][]byte
	invalidated int
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated++
	m.values = make(map[string][]byte)
	return nil
}

func newContentService(repo *mockContentRepo, cache *mockCache, audit *mockAuditRecorder) *ContentService {
	return NewContentService(repo, cache, audit, nil, nil, time.Minute)
}

func TestListEventsPopulatesCache(t *testing.T) {
	repo := newMockContentRepo()
	repo.events["evt-1"] = &models.Event{ID: "evt-1", Title: "Sports Day"}
	cache := newMockCache()
	svc := newContentService(repo, cache, &mockAuditRecorder{})

	events, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, repo.eventLists)

	// second read is served from cache
	events, err = svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, repo.eventLists)
}

func TestCreateEventInvalidatesCacheAndAudits(t *testing.T) {
	repo := newMockContentRepo()
	cache := newMockCache()
	audit := &mockAuditRecorder{}
	svc := newContentService(repo, cache, audit)

	_, err := svc.ListEvents(context.Background())
	require.NoError(t, err)

	event, err := svc.CreateEvent(context.Background(), models.CreateEventRequest{
		Title: "Annual Day",
		Date:  "2026-10-12",
	}, Actor{ID: "admin-1", Name: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "Annual Day", event.Title)
	assert.Equal(t, 1, cache.invalidated)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionEventCreated, audit.entries[0].action)

	events, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCreateEventRejectsBadDate(t *testing.T) {
	svc := newContentService(newMockContentRepo(), newMockCache(), &mockAuditRecorder{})

	_, err := svc.CreateEvent(context.Background(), models.CreateEventRequest{
		Title: "Annual Day",
		Date:  "12/10/2026",
	}, Actor{ID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteNoticeMissingReturnsNotFound(t *testing.T) {
	svc := newContentService(newMockContentRepo(), newMockCache(), &mockAuditRecorder{})

	err := svc.DeleteNotice(context.Background(), "ghost", Actor{ID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListResourcesCachesPerTypeFilter(t *testing.T) {
	repo := newMockContentRepo()
	repo.resources["res-1"] = &models.Resource{ID: "res-1", Title: "Fee Schedule", Type: "document"}
	repo.resources["res-2"] = &models.Resource{ID: "res-2", Title: "Library Portal", Type: "link"}
	cache := newMockCache()
	svc := newContentService(repo, cache, &mockAuditRecorder{})

	all, err := svc.ListResources(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	links, err := svc.ListResources(context.Background(), "link")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "res-2", links[0].ID)
	assert.Equal(t, 2, repo.resourceLists)

	// both lists now served from their own cache keys
	_, err = svc.ListResources(context.Background(), "")
	require.NoError(t, err)
	_, err = svc.ListResources(context.Background(), "link")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.resourceLists)
}

func TestCreateResourceInvalidatesCacheAndAudits(t *testing.T) {
	repo := newMockContentRepo()
	cache := newMockCache()
	audit := &mockAuditRecorder{}
	svc := newContentService(repo, cache, audit)

	_, err := svc.ListResources(context.Background(), "")
	require.NoError(t, err)

	resource, err := svc.CreateResource(context.Background(), models.CreateResourceRequest{
		Title: "Exam Timetable",
		Type:  "document",
		URL:   "https://example.com/timetable.pdf",
	}, Actor{ID: "admin-1", Name: "Admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, resource.ID)
	assert.Equal(t, 1, cache.invalidated)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionResourceCreated, audit.entries[0].action)
	assert.Equal(t, "document", audit.entries[0].details["type"])

	resources, err := svc.ListResources(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, resources, 1)
}

func TestDeleteResourceMissingReturnsNotFound(t *testing.T) {
	svc := newContentService(newMockContentRepo(), newMockCache(), &mockAuditRecorder{})

	err := svc.DeleteResource(context.Background(), "ghost", Actor{ID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateNoticeAudits(t *testing.T) {
	repo := newMockContentRepo()
	audit := &mockAuditRecorder{}
	svc := newContentService(repo, newMockCache(), audit)

	notice, err := svc.CreateNotice(context.Background(), models.CreateNoticeRequest{
		Title: "Holiday",
		Body:  "School closed on Friday.",
	}, Actor{ID: "admin-1", Name: "Admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, notice.ID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionNoticeCreated, audit.entries[0].action)
}
