package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
)

type linkingStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
}

type linkingUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type linkRepository interface {
	Link(ctx context.Context, parentID, studentID string, auto bool) error
	Unlink(ctx context.Context, parentID, studentID string) error
	LinkedStudentIDs(ctx context.Context, parentID string) ([]string, error)
	FindInconsistencies(ctx context.Context) ([]models.LinkInconsistency, error)
	Repair(ctx context.Context, inc models.LinkInconsistency) error
}

// LinkingService maintains the bidirectional parent↔student relation:
// manual search and link/unlink by an admin, plus the auto-link pass the
// admission approval triggers.
type LinkingService struct {
	links    linkRepository
	students linkingStudentRepository
	users    linkingUserRepository
	audit    auditRecorder
	logger   *zap.Logger
}

// NewLinkingService constructs a LinkingService.
func NewLinkingService(links linkRepository, students linkingStudentRepository, users linkingUserRepository, audit auditRecorder, logger *zap.Logger) *LinkingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkingService{links: links, students: students, users: users, audit: audit, logger: logger}
}

// normalizeName lowercases, trims and collapses internal whitespace runs.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// roleAfterUnlink is the role an account holds once its linked set has the
// given size. An empty set reverts the account to pending_parent.
func roleAfterUnlink(remaining int) models.UserRole {
	if remaining == 0 {
		return models.RolePendingParent
	}
	return models.RoleParent
}

// SearchStudent finds a student whose normalized name matches and whose
// student email or application parent email matches. Linear scan; the first
// match wins and ties among duplicate names are arbitrary.
func (s *LinkingService) SearchStudent(ctx context.Context, name, email string) (*models.Student, error) {
	wantName := normalizeName(name)
	wantEmail := normalizeEmail(email)
	if wantName == "" || wantEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student name and email are required")
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan student records")
	}

	for i := range students {
		candidate := &students[i]
		if normalizeName(candidate.FullName) != wantName {
			continue
		}
		if normalizeEmail(candidate.Email) == wantEmail || normalizeEmail(candidate.ParentEmail) == wantEmail {
			return candidate, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no matching student record")
}

// Link binds a parent account to a student record, upgrading the account to
// role parent regardless of its previous pending state.
func (s *LinkingService) Link(ctx context.Context, parentID, studentID string, actor Actor) error {
	parent, err := s.users.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent account")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	if err := s.links.Link(ctx, parentID, studentID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent or student no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link parent to student")
	}

	if err := s.audit.Record(ctx, models.AuditActionParentLinked, "parent", parentID, actor, map[string]interface{}{
		"parent_name":  parent.FullName,
		"parent_email": parent.Email,
		"student_id":   studentID,
		"student_name": student.FullName,
	}); err != nil {
		s.logger.Warn("failed to record link audit entry", zap.Error(err))
	}
	return nil
}

// Unlink removes the relation; the account reverts to pending_parent when
// its linked set becomes empty.
func (s *LinkingService) Unlink(ctx context.Context, parentID, studentID string, actor Actor) error {
	parent, err := s.users.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent account")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	if err := s.links.Unlink(ctx, parentID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent or student no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink parent from student")
	}

	details := map[string]interface{}{
		"parent_name":  parent.FullName,
		"parent_email": parent.Email,
		"student_id":   studentID,
		"student_name": student.FullName,
	}
	if remaining, err := s.links.LinkedStudentIDs(ctx, parentID); err != nil {
		s.logger.Warn("failed to load remaining linked set", zap.String("parent_id", parentID), zap.Error(err))
	} else {
		details["remaining_links"] = len(remaining)
		details["resulting_role"] = string(roleAfterUnlink(len(remaining)))
	}

	if err := s.audit.Record(ctx, models.AuditActionParentUnlinked, "parent", parentID, actor, details); err != nil {
		s.logger.Warn("failed to record unlink audit entry", zap.Error(err))
	}
	return nil
}

// AutoLink links every pending parent whose requested child matches the
// student. Both sides of the comparison are normalized; there is no
// first-match cutoff. Returns the number of parents linked.
func (s *LinkingService) AutoLink(ctx context.Context, studentID, studentName, studentEmail string) (int, error) {
	wantName := normalizeName(studentName)
	wantEmail := normalizeEmail(studentEmail)

	pending, err := s.users.ListByRole(ctx, models.RolePendingParent)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enumerate pending parents")
	}

	linked := 0
	for i := range pending {
		parent := &pending[i]
		if parent.RequestedChildName == nil || parent.RequestedChildEmail == nil {
			continue
		}
		if normalizeName(*parent.RequestedChildName) != wantName || normalizeEmail(*parent.RequestedChildEmail) != wantEmail {
			continue
		}

		if err := s.links.Link(ctx, parent.ID, studentID, true); err != nil {
			s.logger.Warn("auto-link failed for pending parent",
				zap.String("parent_id", parent.ID), zap.String("student_id", studentID), zap.Error(err))
			continue
		}
		linked++

		if err := s.audit.Record(ctx, models.AuditActionParentAutoLinked, "parent", parent.ID, SystemActor, map[string]interface{}{
			"parent_name":  parent.FullName,
			"parent_email": parent.Email,
			"student_id":   studentID,
			"student_name": studentName,
		}); err != nil {
			s.logger.Warn("failed to record auto-link audit entry", zap.Error(err))
		}
	}
	return linked, nil
}

// Verify reports every relation recorded on one side only.
func (s *LinkingService) Verify(ctx context.Context) ([]models.LinkInconsistency, error) {
	inconsistencies, err := s.links.FindInconsistencies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify links")
	}
	return inconsistencies, nil
}

// Repair restores bidirectional consistency for every reported pair and
// returns how many were repaired.
func (s *LinkingService) Repair(ctx context.Context, actor Actor) (int, error) {
	inconsistencies, err := s.Verify(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, inc := range inconsistencies {
		if err := s.links.Repair(ctx, inc); err != nil {
			s.logger.Warn("failed to repair link",
				zap.String("parent_id", inc.ParentID), zap.String("student_id", inc.StudentID), zap.Error(err))
			continue
		}
		repaired++

		if err := s.audit.Record(ctx, models.AuditActionLinkRepaired, "parent", inc.ParentID, actor, map[string]interface{}{
			"student_id":   inc.StudentID,
			"missing_side": inc.MissingSide,
		}); err != nil {
			s.logger.Warn("failed to record link repair audit entry", zap.Error(err))
		}
	}
	return repaired, nil
}
