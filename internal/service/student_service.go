package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
)

type studentRepositoryAPI interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByApplicantUID(ctx context.Context, uid string) (*models.Student, error)
	ListByParentID(ctx context.Context, parentID string) ([]models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Update(ctx context.Context, id string, update models.StudentUpdate) error
}

// StudentService exposes the records area: the admin roster plus the scoped
// views for students and linked parents.
type StudentService struct {
	repo   studentRepositoryAPI
	logger *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepositoryAPI, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// List returns the roster with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one record, enforcing per-record access: admins see everything,
// a student sees their own record, a parent sees linked records only.
func (s *StudentService) Get(ctx context.Context, id string, viewer *models.User) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if !canViewStudent(viewer, student) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student record")
	}
	return student, nil
}

func canViewStudent(viewer *models.User, student *models.Student) bool {
	if viewer == nil {
		return false
	}
	switch viewer.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent, models.RolePendingStudent:
		if viewer.StudentID != nil && *viewer.StudentID == student.ID {
			return true
		}
		return student.ApplicantUID != nil && *student.ApplicantUID == viewer.ID
	case models.RoleParent, models.RolePendingParent:
		for _, id := range viewer.LinkedStudentIDs {
			if id == student.ID {
				return true
			}
		}
	}
	return false
}

// GetOwn resolves the record belonging to a student account, by stored
// student id first and applicant binding as fallback.
func (s *StudentService) GetOwn(ctx context.Context, viewer *models.User) (*models.Student, error) {
	if viewer.StudentID != nil && *viewer.StudentID != "" {
		student, err := s.repo.FindByID(ctx, *viewer.StudentID)
		if err == nil {
			return student, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
	}

	student, err := s.repo.FindByApplicantUID(ctx, viewer.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// ListForParent returns the records linked to a parent account.
func (s *StudentService) ListForParent(ctx context.Context, parentID string) ([]models.Student, error) {
	students, err := s.repo.ListByParentID(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list linked students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Update applies the admin-editable fields of a record.
func (s *StudentService) Update(ctx context.Context, id string, update models.StudentUpdate) (*models.Student, error) {
	if err := s.repo.Update(ctx, id, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student")
	}
	return student, nil
}
