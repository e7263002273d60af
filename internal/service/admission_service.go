package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/repository"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/export"
	"github.com/sunrise-academy/portal-api/pkg/mailer"
)

// admissionEmailPattern is the format applicants must satisfy.
var admissionEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type admissionRepositoryAPI interface {
	Create(ctx context.Context, admission *models.Admission) error
	FindByID(ctx context.Context, id string) (*models.Admission, error)
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
	UpdateNotes(ctx context.Context, id, notes string) error
	Approve(ctx context.Context, params repository.ApproveParams) (*models.Student, error)
	Reject(ctx context.Context, params repository.RejectParams) (*models.Admission, error)
}

// autoLinker runs the pending-parent matching pass for a freshly approved
// student.
type autoLinker interface {
	AutoLink(ctx context.Context, studentID, studentName, studentEmail string) (int, error)
}

// sessionRevoker kills the live refresh tokens of a demoted account so it
// cannot keep minting pending_student claims after a rejection.
type sessionRevoker interface {
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// Applicant identifies a logged-in submitter so the application can be tied
// back to the account.
type Applicant struct {
	UID   string
	Name  string
	Email string
}

// AdmissionService orchestrates the admission workflow: submission and the
// approve/reject transition including student provisioning.
type AdmissionService struct {
	repo      admissionRepositoryAPI
	linker    autoLinker
	audit     auditRecorder
	mail      mailer.Mailer
	sessions  sessionRevoker
	validator *validator.Validate
	logger    *zap.Logger
	school    string
}

// NewAdmissionService constructs an AdmissionService.
func NewAdmissionService(repo admissionRepositoryAPI, linker autoLinker, audit auditRecorder, mail mailer.Mailer, sessions sessionRevoker, validate *validator.Validate, logger *zap.Logger, schoolName string) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{repo: repo, linker: linker, audit: audit, mail: mail, sessions: sessions, validator: validate, logger: logger, school: schoolName}
}

// Submit creates a pending application. A non-nil applicant ties the
// application back to a registered account.
func (s *AdmissionService) Submit(ctx context.Context, req models.SubmitAdmissionRequest, applicant *Applicant) (*models.Admission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}
	if !admissionEmailPattern.MatchString(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid email address")
	}
	if req.ParentEmail != "" && !admissionEmailPattern.MatchString(req.ParentEmail) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid parent email address")
	}

	admission := &models.Admission{
		StudentName: req.StudentName,
		ParentName:  req.ParentName,
		Email:       req.Email,
		Phone:       req.Phone,
		Grade:       req.Grade,
	}
	if req.ParentEmail != "" {
		admission.ParentEmail = &req.ParentEmail
	}
	if req.GradeApplyingFor != "" {
		admission.GradeApplyingFor = &req.GradeApplyingFor
	}
	if req.Message != "" {
		admission.Message = &req.Message
	}
	if applicant != nil {
		admission.ApplicantUID = &applicant.UID
		admission.ApplicantName = &applicant.Name
		admission.ApplicantEmail = &applicant.Email
	}

	if err := s.repo.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admission")
	}
	return admission, nil
}

// Get returns one application. A nil viewer is a trusted internal caller;
// otherwise admins see every application and everyone else only the one
// bound to their own account.
func (s *AdmissionService) Get(ctx context.Context, id string, viewer *models.JWTClaims) (*models.Admission, error) {
	admission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}
	if viewer != nil && viewer.Role != models.RoleAdmin {
		if admission.ApplicantUID == nil || *admission.ApplicantUID != viewer.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not your application")
		}
	}
	return admission, nil
}

// List returns applications newest-first with pagination metadata.
func (s *AdmissionService) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, *models.Pagination, error) {
	admissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return admissions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve transitions a pending application to approved, provisions the
// student record, promotes the applicant account, audits, runs the
// auto-link pass for the new student, and notifies the applicant. Approving
// a resolved application fails with INVALID_STATE and creates nothing.
func (s *AdmissionService) Approve(ctx context.Context, admissionID string, actor Actor) (*models.Student, error) {
	student, err := s.repo.Approve(ctx, repository.ApproveParams{
		AdmissionID:  admissionID,
		ApproverID:   actor.ID,
		ApproverName: actor.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		case errors.Is(err, repository.ErrAdmissionResolved):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "admission already resolved")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve admission")
		}
	}

	if err := s.audit.Record(ctx, models.AuditActionAdmissionApproved, "admission", admissionID, actor, map[string]interface{}{
		"student_name": student.FullName,
		"student_id":   student.ID,
	}); err != nil {
		s.logger.Warn("failed to record approval audit entry", zap.Error(err))
	}

	if _, err := s.linker.AutoLink(ctx, student.ID, student.FullName, student.Email); err != nil {
		s.logger.Warn("auto-link pass failed after approval",
			zap.String("student_id", student.ID), zap.Error(err))
	}

	s.notify(ctx, student.ParentName, student.ParentEmail, "Admission approved",
		fmt.Sprintf("The application for %s has been approved. %s has been enrolled in %s, section %s.",
			student.FullName, student.FullName, student.Class, student.Section))

	return student, nil
}

// Reject transitions a pending application to rejected under the same
// pending-only guard. No student record is created.
func (s *AdmissionService) Reject(ctx context.Context, admissionID string, actor Actor, reason string) (*models.Admission, error) {
	admission, err := s.repo.Reject(ctx, repository.RejectParams{
		AdmissionID:  admissionID,
		RejecterID:   actor.ID,
		RejecterName: actor.Name,
		Reason:       reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		case errors.Is(err, repository.ErrAdmissionResolved):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "admission already resolved")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject admission")
		}
	}

	if err := s.audit.Record(ctx, models.AuditActionAdmissionRejected, "admission", admissionID, actor, map[string]interface{}{
		"student_name": admission.StudentName,
		"reason":       reason,
	}); err != nil {
		s.logger.Warn("failed to record rejection audit entry", zap.Error(err))
	}

	if s.sessions != nil && admission.ApplicantUID != nil {
		if err := s.sessions.RevokeUserRefreshTokens(ctx, *admission.ApplicantUID); err != nil {
			s.logger.Warn("failed to revoke sessions of rejected applicant",
				zap.String("user_id", *admission.ApplicantUID), zap.Error(err))
		}
	}

	body := fmt.Sprintf("The application for %s was not approved.", admission.StudentName)
	if reason != "" {
		body += " Reason: " + reason
	}
	s.notify(ctx, admission.ParentName, admission.ContactEmail(), "Admission decision", body)

	return admission, nil
}

// UpdateNotes attaches administrative notes to an application without
// touching its status.
func (s *AdmissionService) UpdateNotes(ctx context.Context, id, notes string) error {
	if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admission notes")
	}
	return nil
}

// OfferLetter renders the admission letter PDF for an approved application.
func (s *AdmissionService) OfferLetter(ctx context.Context, id string) ([]byte, error) {
	admission, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if admission.Status != models.AdmissionStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "admission is not approved")
	}

	letter := export.Letter{
		SchoolName: s.school,
		Title:      "Admission Offer Letter",
		Recipient:  admission.ParentName,
		Paragraphs: []string{
			fmt.Sprintf("We are pleased to confirm that the application for %s has been approved.", admission.StudentName),
			"Please contact the school office to complete the enrollment formalities.",
		},
		Fields: [][2]string{
			{"Student", admission.StudentName},
			{"Grade", admission.TargetGrade()},
			{"Application ID", admission.ID},
		},
	}
	if admission.ApprovedByName != nil {
		letter.IssuedBy = *admission.ApprovedByName
	}
	if admission.ApprovedAt != nil {
		letter.IssuedAt = admission.ApprovedAt.Format("2 January 2006")
	}

	payload, err := export.NewLetterExporter().Render(letter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render offer letter")
	}
	return payload, nil
}

func (s *AdmissionService) notify(ctx context.Context, name, email, subject, body string) {
	if s.mail == nil || email == "" {
		return
	}
	if err := s.mail.Send(ctx, mailer.Message{ToName: name, ToEmail: email, Subject: subject, Body: body}); err != nil {
		s.logger.Warn("failed to send admission notification", zap.String("to", email), zap.Error(err))
	}
}
