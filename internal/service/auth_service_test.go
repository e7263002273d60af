package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sunrise-academy/portal-api/internal/models"
	appErrors "github.com/sunrise-academy/portal-api/pkg/errors"
)

type mockUserRepo struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User), tokens: make(map[string]*models.RefreshToken)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

type mockAdmissionSubmitter struct {
	submitted  []models.SubmitAdmissionRequest
	applicants []*Applicant
}

func (m *mockAdmissionSubmitter) Submit(ctx context.Context, req models.SubmitAdmissionRequest, applicant *Applicant) (*models.Admission, error) {
	m.submitted = append(m.submitted, req)
	m.applicants = append(m.applicants, applicant)
	return &models.Admission{ID: "adm-1", Status: models.AdmissionStatusPending}, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "portal-api-test",
	}
}

func newAuthService(repo *mockUserRepo, admissions *mockAdmissionSubmitter) *AuthService {
	return NewAuthService(repo, admissions, &mockAuditRecorder{}, nil, nil, testAuthConfig())
}

func registerStudentRequest() models.RegisterStudentRequest {
	return models.RegisterStudentRequest{
		Email:    "asha@example.com",
		Password: "secret123",
		FullName: "Asha Rao",
		Admission: models.SubmitAdmissionRequest{
			StudentName: "Asha Rao",
			ParentName:  "Meera Rao",
			Email:       "asha@example.com",
			Phone:       "5550001",
			Grade:       "Grade 4",
		},
	}
}

func TestRegisterStudentCreatesPendingAccountAndApplication(t *testing.T) {
	repo := newMockUserRepo()
	admissions := &mockAdmissionSubmitter{}
	svc := newAuthService(repo, admissions)

	res, err := svc.RegisterStudent(context.Background(), registerStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "adm-1", res.AdmissionID)
	assert.Equal(t, models.RolePendingStudent, res.Auth.User.Role)

	user, err := repo.FindByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RolePendingStudent, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	require.Len(t, admissions.applicants, 1)
	require.NotNil(t, admissions.applicants[0])
	assert.Equal(t, user.ID, admissions.applicants[0].UID)
}

func TestRegisterStudentRejectsTakenEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "asha@example.com", Role: models.RoleStudent}
	svc := newAuthService(repo, &mockAdmissionSubmitter{})

	_, err := svc.RegisterStudent(context.Background(), registerStudentRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestRegisterParentPersistsRequestedChild(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo, &mockAdmissionSubmitter{})

	res, err := svc.RegisterParent(context.Background(), models.RegisterParentRequest{
		Email:               "meera@example.com",
		Password:            "secret123",
		FullName:            "Meera Rao",
		RequestedChildName:  "Asha Rao",
		RequestedChildEmail: "asha@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RolePendingParent, res.User.Role)

	user, err := repo.FindByEmail(context.Background(), "meera@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.RequestedChildName)
	assert.Equal(t, "Asha Rao", *user.RequestedChildName)
	assert.NotNil(t, user.LinkedStudentIDs)
	assert.Empty(t, user.LinkedStudentIDs)
}

func TestLoginIssuesTokens(t *testing.T) {
	repo := newMockUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["u1"] = &models.User{ID: "u1", Email: "asha@example.com", PasswordHash: string(hash), FullName: "Asha Rao", Role: models.RoleStudent}
	svc := newAuthService(repo, &mockAdmissionSubmitter{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["u1"] = &models.User{ID: "u1", Email: "asha@example.com", PasswordHash: string(hash), Role: models.RoleStudent}
	svc := newAuthService(repo, &mockAdmissionSubmitter{})

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	repo := newMockUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["u1"] = &models.User{ID: "u1", Email: "asha@example.com", PasswordHash: string(hash), Role: models.RoleStudent}
	svc := newAuthService(repo, &mockAdmissionSubmitter{})

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the used token is revoked and cannot be replayed
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestSessionMissingAccountResolvesUnauthorized(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &mockAdmissionSubmitter{})

	_, err := svc.Session(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &mockAdmissionSubmitter{})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestListUsersFiltersByRole(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "asha@example.com", Role: models.RolePendingStudent}
	repo.users["u2"] = &models.User{ID: "u2", Email: "meera@example.com", Role: models.RolePendingParent}
	svc := newAuthService(repo, &mockAdmissionSubmitter{})

	role := models.RolePendingParent
	users, pagination, err := svc.ListUsers(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestListUsersRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &mockAdmissionSubmitter{})

	role := models.UserRole("superuser")
	_, _, err := svc.ListUsers(context.Background(), models.UserFilter{Role: &role})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
