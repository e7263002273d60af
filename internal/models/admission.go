package models

import "time"

// AdmissionStatus tracks the lifecycle of an application. The transition is
// monotonic: pending moves to approved or rejected exactly once.
type AdmissionStatus string

const (
	AdmissionStatusPending  AdmissionStatus = "pending"
	AdmissionStatusApproved AdmissionStatus = "approved"
	AdmissionStatusRejected AdmissionStatus = "rejected"
)

// Admission is an application to enroll a student.
type Admission struct {
	ID               string          `db:"id" json:"id"`
	StudentName      string          `db:"student_name" json:"student_name"`
	ParentName       string          `db:"parent_name" json:"parent_name"`
	Email            string          `db:"email" json:"email"`
	ParentEmail      *string         `db:"parent_email" json:"parent_email,omitempty"`
	Phone            string          `db:"phone" json:"phone"`
	Grade            string          `db:"grade" json:"grade"`
	GradeApplyingFor *string         `db:"grade_applying_for" json:"grade_applying_for,omitempty"`
	Message          *string         `db:"message" json:"message,omitempty"`
	Status           AdmissionStatus `db:"status" json:"status"`
	ApplicantUID     *string         `db:"applicant_uid" json:"applicant_uid,omitempty"`
	ApplicantName    *string         `db:"applicant_name" json:"applicant_name,omitempty"`
	ApplicantEmail   *string         `db:"applicant_email" json:"applicant_email,omitempty"`
	AdminNotes       *string         `db:"admin_notes" json:"admin_notes,omitempty"`
	ApprovedBy       *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedByName   *string         `db:"approved_by_name" json:"approved_by_name,omitempty"`
	ApprovedAt       *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedBy       *string         `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedByName   *string         `db:"rejected_by_name" json:"rejected_by_name,omitempty"`
	RejectedAt       *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason  *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// TargetGrade returns the class the student enters on approval.
func (a Admission) TargetGrade() string {
	if a.GradeApplyingFor != nil && *a.GradeApplyingFor != "" {
		return *a.GradeApplyingFor
	}
	return a.Grade
}

// ContactEmail returns the parent email when given, otherwise the contact
// email from the application.
func (a Admission) ContactEmail() string {
	if a.ParentEmail != nil && *a.ParentEmail != "" {
		return *a.ParentEmail
	}
	return a.Email
}

// AdmissionFilter captures list criteria for the admin view.
type AdmissionFilter struct {
	Status   AdmissionStatus
	Page     int
	PageSize int
}
