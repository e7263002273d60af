package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/repository"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
	"github.com/sunrise-academy/portal-api/pkg/mailer"
)

type mockAdmissionRepo struct {
	admissions map[string]*models.Admission
	created    *models.Admission
	approved   []string
	rejected   []string
}

func (m *mockAdmissionRepo) Create(ctx context.Context, admission *models.Admission) error {
	if m.admissions == nil {
		m.admissions = make(map[string]*models.Admission)
	}
	if admission.ID == "" {
		admission.ID = "adm-new"
	}
	m.admissions[admission.ID] = admission
	m.created = admission
	return nil
}

func (m *mockAdmissionRepo) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	if a, ok := m.admissions[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdmissionRepo) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	var out []models.Admission
	for _, a := range m.admissions {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAdmissionRepo) UpdateNotes(ctx context.Context, id, notes string) error {
	a, ok := m.admissions[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.AdminNotes = &notes
	return nil
}

func (m *mockAdmissionRepo) Approve(ctx context.Context, params repository.ApproveParams) (*models.Student, error) {
	a, ok := m.admissions[params.AdmissionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if a.Status != models.AdmissionStatusPending {
		return nil, repository.ErrAdmissionResolved
	}
	a.Status = models.AdmissionStatusApproved
	m.approved = append(m.approved, params.AdmissionID)
	return &models.Student{
		ID:          "stu-1",
		FullName:    a.StudentName,
		Email:       a.Email,
		AdmissionID: a.ID,
		Class:       a.TargetGrade(),
		Section:     models.DefaultSection,
		ParentName:  a.ParentName,
		ParentEmail: a.ContactEmail(),
	}, nil
}

func (m *mockAdmissionRepo) Reject(ctx context.Context, params repository.RejectParams) (*models.Admission, error) {
	a, ok := m.admissions[params.AdmissionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if a.Status != models.AdmissionStatusPending {
		return nil, repository.ErrAdmissionResolved
	}
	a.Status = models.AdmissionStatusRejected
	if params.Reason != "" {
		a.RejectionReason = &params.Reason
	}
	m.rejected = append(m.rejected, params.AdmissionID)
	return a, nil
}

type mockAutoLinker struct {
	calls []string
}

func (m *mockAutoLinker) AutoLink(ctx context.Context, studentID, studentName, studentEmail string) (int, error) {
	m.calls = append(m.calls, studentID)
	return 0, nil
}

type mockSessionRevoker struct {
	revoked []string
}

func (m *mockSessionRevoker) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

type recordedAudit struct {
	action   string
	targetID string
	actor    Actor
	details  map[string]interface{}
}

type mockAuditRecorder struct {
	entries []recordedAudit
}

func (m *mockAuditRecorder) Record(ctx context.Context, action, targetType, targetID string, actor Actor, details map[string]interface{}) error {
	m.entries = append(m.entries, recordedAudit{action: action, targetID: targetID, actor: actor, details: details})
	return nil
}

type mockMailer struct {
	sent []mailer.Message
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newAdmissionService(repo *mockAdmissionRepo, linker *mockAutoLinker, audit *mockAuditRecorder, mail *mockMailer) *AdmissionService {
	return NewAdmissionService(repo, linker, audit, mail, nil, nil, nil, "Sunrise Academy")
}

func pendingAdmission(id string) *models.Admission {
	grade := "Grade 5"
	return &models.Admission{
		ID:               id,
		StudentName:      "Asha Rao",
		ParentName:       "Meera Rao",
		Email:            "asha@example.com",
		Phone:            "5550001",
		Grade:            "Grade 4",
		GradeApplyingFor: &grade,
		Status:           models.AdmissionStatusPending,
	}
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	repo := &mockAdmissionRepo{}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	admission, err := svc.Submit(context.Background(), models.SubmitAdmissionRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "asha@example.com",
		Phone:       "5550001",
		Grade:       "Grade 4",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusPending, repo.created.Status)
	assert.Nil(t, admission.ApplicantUID)
}

func TestSubmitBindsApplicant(t *testing.T) {
	repo := &mockAdmissionRepo{}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	admission, err := svc.Submit(context.Background(), models.SubmitAdmissionRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "asha@example.com",
		Phone:       "5550001",
		Grade:       "Grade 4",
	}, &Applicant{UID: "user-1", Name: "Asha Rao", Email: "asha@example.com"})
	require.NoError(t, err)
	require.NotNil(t, admission.ApplicantUID)
	assert.Equal(t, "user-1", *admission.ApplicantUID)
}

func TestSubmitRejectsMalformedEmail(t *testing.T) {
	svc := newAdmissionService(&mockAdmissionRepo{}, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	_, err := svc.Submit(context.Background(), models.SubmitAdmissionRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "not-an-email",
		Phone:       "5550001",
		Grade:       "Grade 4",
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestApproveProvisionsStudentAndRunsAutoLink(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": pendingAdmission("adm-1")}}
	linker := &mockAutoLinker{}
	audit := &mockAuditRecorder{}
	mail := &mockMailer{}
	svc := newAdmissionService(repo, linker, audit, mail)

	student, err := svc.Approve(context.Background(), "adm-1", Actor{ID: "admin-1", Name: "Admin"})
	require.NoError(t, err)

	// grade_applying_for wins over grade
	assert.Equal(t, "Grade 5", student.Class)
	assert.Equal(t, models.DefaultSection, student.Section)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAdmissionApproved, audit.entries[0].action)
	assert.Equal(t, "admin-1", audit.entries[0].actor.ID)

	require.Len(t, linker.calls, 1)
	assert.Equal(t, student.ID, linker.calls[0])

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "asha@example.com", mail.sent[0].ToEmail)
}

func TestApproveResolvedAdmissionFailsWithInvalidState(t *testing.T) {
	adm := pendingAdmission("adm-1")
	adm.Status = models.AdmissionStatusApproved
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": adm}}
	linker := &mockAutoLinker{}
	svc := newAdmissionService(repo, linker, &mockAuditRecorder{}, &mockMailer{})

	_, err := svc.Approve(context.Background(), "adm-1", Actor{ID: "admin-1", Name: "Admin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Empty(t, linker.calls)
}

func TestApproveMissingAdmissionReturnsNotFound(t *testing.T) {
	svc := newAdmissionService(&mockAdmissionRepo{}, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	_, err := svc.Approve(context.Background(), "nope", Actor{ID: "admin-1", Name: "Admin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRejectRecordsReasonAndAudits(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": pendingAdmission("adm-1")}}
	audit := &mockAuditRecorder{}
	mail := &mockMailer{}
	svc := newAdmissionService(repo, &mockAutoLinker{}, audit, mail)

	admission, err := svc.Reject(context.Background(), "adm-1", Actor{ID: "admin-1", Name: "Admin"}, "incomplete records")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusRejected, admission.Status)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAdmissionRejected, audit.entries[0].action)
	assert.Equal(t, "incomplete records", audit.entries[0].details["reason"])
	require.Len(t, mail.sent, 1)
}

func TestGetScopesNonAdminsToOwnApplication(t *testing.T) {
	adm := pendingAdmission("adm-1")
	adm.ApplicantUID = strptr("user-1")
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": adm}}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})
	ctx := context.Background()

	_, err := svc.Get(ctx, "adm-1", &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "adm-1", &models.JWTClaims{UserID: "user-1", Role: models.RolePendingStudent})
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "adm-1", &models.JWTClaims{UserID: "user-2", Role: models.RolePendingStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// internal callers pass no viewer
	_, err = svc.Get(ctx, "adm-1", nil)
	assert.NoError(t, err)
}

func TestGetUnboundApplicationIsAdminOnly(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": pendingAdmission("adm-1")}}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	_, err := svc.Get(context.Background(), "adm-1", &models.JWTClaims{UserID: "user-1", Role: models.RolePendingStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRejectRevokesApplicantSessions(t *testing.T) {
	adm := pendingAdmission("adm-1")
	adm.ApplicantUID = strptr("user-1")
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": adm}}
	sessions := &mockSessionRevoker{}
	svc := NewAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{}, sessions, nil, nil, "Sunrise Academy")

	_, err := svc.Reject(context.Background(), "adm-1", Actor{ID: "admin-1", Name: "Admin"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, sessions.revoked)
}

func TestRejectWithoutApplicantRevokesNothing(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": pendingAdmission("adm-1")}}
	sessions := &mockSessionRevoker{}
	svc := NewAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{}, sessions, nil, nil, "Sunrise Academy")

	_, err := svc.Reject(context.Background(), "adm-1", Actor{ID: "admin-1", Name: "Admin"}, "")
	require.NoError(t, err)
	assert.Empty(t, sessions.revoked)
}

func TestRejectResolvedAdmissionFailsWithInvalidState(t *testing.T) {
	adm := pendingAdmission("adm-1")
	adm.Status = models.AdmissionStatusRejected
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": adm}}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	_, err := svc.Reject(context.Background(), "adm-1", Actor{ID: "admin-1", Name: "Admin"}, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestOfferLetterRequiresApprovedAdmission(t *testing.T) {
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": pendingAdmission("adm-1")}}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	_, err := svc.OfferLetter(context.Background(), "adm-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestOfferLetterRendersPDF(t *testing.T) {
	adm := pendingAdmission("adm-1")
	adm.Status = models.AdmissionStatusApproved
	repo := &mockAdmissionRepo{admissions: map[string]*models.Admission{"adm-1": adm}}
	svc := newAdmissionService(repo, &mockAutoLinker{}, &mockAuditRecorder{}, &mockMailer{})

	payload, err := svc.OfferLetter(context.Background(), "adm-1")
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
