package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrise-academy/portal-api/internal/models"
)

type mockAuditRepo struct {
	entries []models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func TestAuditRecordMarshalsDetails(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil)

	err := svc.Record(context.Background(), models.AuditActionParentLinked, "parent", "par-1",
		Actor{ID: "admin-1", Name: "Admin"}, map[string]interface{}{"student_id": "stu-1"})
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, models.AuditActionParentLinked, entry.Action)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "par-1", *entry.TargetID)

	var details map[string]string
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Equal(t, "stu-1", details["student_id"])
}

func TestAuditRecordOmitsEmptyTarget(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil)

	require.NoError(t, svc.Record(context.Background(), models.AuditActionLogin, "auth", "", SystemActor, nil))
	require.Len(t, repo.entries, 1)
	assert.Nil(t, repo.entries[0].TargetID)
	assert.Nil(t, repo.entries[0].Details)
}

func TestAuditExportCSV(t *testing.T) {
	repo := &mockAuditRepo{entries: []models.AuditLog{
		{Action: models.AuditActionAdmissionApproved, TargetType: "admission",
			ActorID: "admin-1", ActorName: "Admin", CreatedAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)},
	}}
	svc := NewAuditService(repo, nil)

	payload, err := svc.ExportCSV(context.Background(), 50)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "action")
	assert.Contains(t, lines[1], models.AuditActionAdmissionApproved)
	assert.Contains(t, lines[1], "2026-09-01T10:00:00Z")
}
