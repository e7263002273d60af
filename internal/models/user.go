package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole is the closed set of portal roles. Pending variants mark accounts
// whose approved counterpart has not been granted yet.
type UserRole string

const (
	RoleAdmin           UserRole = "admin"
	RoleStudent         UserRole = "student"
	RolePendingStudent  UserRole = "pending_student"
	RoleRejectedStudent UserRole = "rejected_student"
	RoleParent          UserRole = "parent"
	RolePendingParent   UserRole = "pending_parent"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RolePendingStudent, RoleRejectedStudent, RoleParent, RolePendingParent:
		return true
	}
	return false
}

// Provisional reports whether the role is a pending variant.
func (r UserRole) Provisional() bool {
	return r == RolePendingStudent || r == RolePendingParent
}

// Audience returns the approved role whose route audience this role belongs
// to. A pending_student may view student routes, a pending_parent parent
// routes; every other role maps to itself.
func (r UserRole) Audience() UserRole {
	switch r {
	case RolePendingStudent:
		return RoleStudent
	case RolePendingParent:
		return RoleParent
	}
	return r
}

// User is an account document: portal identity plus role state. Parent
// accounts carry the linked student set and the child details requested at
// registration; student accounts gain StudentID once their application is
// approved.
type User struct {
	ID                  string         `db:"id" json:"id"`
	Email               string         `db:"email" json:"email"`
	PasswordHash        string         `db:"password_hash" json:"-"`
	FullName            string         `db:"full_name" json:"full_name"`
	Role                UserRole       `db:"role" json:"role"`
	StudentID           *string        `db:"student_id" json:"student_id,omitempty"`
	LinkedStudentIDs    pq.StringArray `db:"linked_student_ids" json:"linked_student_ids,omitempty"`
	RequestedChildName  *string        `db:"requested_child_name" json:"requested_child_name,omitempty"`
	RequestedChildEmail *string        `db:"requested_child_email" json:"requested_child_email,omitempty"`
	AutoLinked          bool           `db:"auto_linked" json:"auto_linked"`
	AutoLinkedAt        *time.Time     `db:"auto_linked_at" json:"auto_linked_at,omitempty"`
	LastLogin           *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
