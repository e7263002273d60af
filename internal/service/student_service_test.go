package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]*models.Student
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByApplicantUID(ctx context.Context, uid string) (*models.Student, error) {
	for _, s := range m.students {
		if s.ApplicantUID != nil && *s.ApplicantUID == uid {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ListByParentID(ctx context.Context, parentID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		for _, pid := range s.ParentIDs {
			if pid == parentID {
				out = append(out, *s)
			}
		}
	}
	return out, nil
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id string, update models.StudentUpdate) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	if update.Section != nil {
		s.Section = *update.Section
	}
	if update.RollNumber != nil {
		s.RollNumber = *update.RollNumber
	}
	return nil
}

func studentFixture() *mockStudentRepo {
	uid := "user-1"
	return &mockStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", FullName: "Asha Rao", ApplicantUID: &uid, ParentIDs: []string{"par-1"}},
		"stu-2": {ID: "stu-2", FullName: "Bilal Khan"},
	}}
}

func TestStudentGetScoping(t *testing.T) {
	svc := NewStudentService(studentFixture(), nil)
	ctx := context.Background()
	ownID := "stu-1"

	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}
	owner := &models.User{ID: "user-1", Role: models.RoleStudent, StudentID: &ownID}
	linkedParent := &models.User{ID: "par-1", Role: models.RoleParent, LinkedStudentIDs: []string{"stu-1"}}
	strangerParent := &models.User{ID: "par-2", Role: models.RoleParent, LinkedStudentIDs: []string{"stu-2"}}

	_, err := svc.Get(ctx, "stu-1", admin)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "stu-1", owner)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "stu-2", owner)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(ctx, "stu-1", linkedParent)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "stu-1", strangerParent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentGetOwnFallsBackToApplicantBinding(t *testing.T) {
	svc := NewStudentService(studentFixture(), nil)

	// account promoted before student_id was stored
	viewer := &models.User{ID: "user-1", Role: models.RoleStudent}
	student, err := svc.GetOwn(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", student.ID)
}

func TestStudentGetOwnMissingRecord(t *testing.T) {
	svc := NewStudentService(studentFixture(), nil)

	viewer := &models.User{ID: "user-ghost", Role: models.RoleStudent}
	_, err := svc.GetOwn(context.Background(), viewer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentListForParentEmptyIsNotNil(t *testing.T) {
	svc := NewStudentService(studentFixture(), nil)

	students, err := svc.ListForParent(context.Background(), "par-none")
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestStudentUpdateMissingReturnsNotFound(t *testing.T) {
	svc := NewStudentService(studentFixture(), nil)

	section := "B"
	_, err := svc.Update(context.Background(), "ghost", models.StudentUpdate{Section: &section})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
