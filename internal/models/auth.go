package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RegisterStudentRequest creates a pending_student account together with its
// admission application.
type RegisterStudentRequest struct {
	Email     string                 `json:"email" validate:"required,email"`
	Password  string                 `json:"password" validate:"required,min=6"`
	FullName  string                 `json:"full_name" validate:"required"`
	Admission SubmitAdmissionRequest `json:"admission" validate:"required"`
	IP        string                 `json:"-"`
	UserAgent string                 `json:"-"`
}

// RegisterParentRequest creates a pending_parent account capturing the child
// the parent wants linked.
type RegisterParentRequest struct {
	Email               string `json:"email" validate:"required,email"`
	Password            string `json:"password" validate:"required,min=6"`
	FullName            string `json:"full_name" validate:"required"`
	RequestedChildName  string `json:"requested_child_name" validate:"required"`
	RequestedChildEmail string `json:"requested_child_email" validate:"required,email"`
	IP                  string `json:"-"`
	UserAgent           string `json:"-"`
}

// SubmitAdmissionRequest is the application payload. The email format is
// checked against the admission regex in the service on top of the struct
// tags.
type SubmitAdmissionRequest struct {
	StudentName      string `json:"student_name" validate:"required"`
	ParentName       string `json:"parent_name" validate:"required"`
	Email            string `json:"email" validate:"required"`
	ParentEmail      string `json:"parent_email,omitempty"`
	Phone            string `json:"phone" validate:"required"`
	Grade            string `json:"grade" validate:"required"`
	GradeApplyingFor string `json:"grade_applying_for,omitempty"`
	Message          string `json:"message,omitempty"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// SessionInfo is the resolved session returned by /auth/me: the account
// document plus its role, or nothing when the account document is missing.
type SessionInfo struct {
	User *User    `json:"user"`
	Role UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
