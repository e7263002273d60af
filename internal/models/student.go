package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// DefaultSection is assigned to every freshly approved student until an admin
// moves them.
const DefaultSection = "A"

// Student is the canonical enrolled-student record, created exactly once per
// approved application and never deleted. ParentIDs must always agree with
// the LinkedStudentIDs sets of the referenced parent accounts.
type Student struct {
	ID           string          `db:"id" json:"id"`
	FullName     string          `db:"full_name" json:"full_name"`
	Email        string          `db:"email" json:"email"`
	ApplicantUID *string         `db:"applicant_uid" json:"applicant_uid,omitempty"`
	AdmissionID  string          `db:"admission_id" json:"admission_id"`
	Class        string          `db:"class" json:"class"`
	Section      string          `db:"section" json:"section"`
	RollNumber   string          `db:"roll_number" json:"roll_number"`
	ParentIDs    pq.StringArray  `db:"parent_ids" json:"parent_ids"`
	ParentName   string          `db:"parent_name" json:"parent_name"`
	ParentEmail  string          `db:"parent_email" json:"parent_email"`
	Phone        string          `db:"phone" json:"phone"`
	Timetable    json.RawMessage `db:"timetable" json:"timetable,omitempty"`
	Scorecards   json.RawMessage `db:"scorecards" json:"scorecards,omitempty"`
	Attendance   json.RawMessage `db:"attendance" json:"attendance,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures list criteria for the admin roster.
type StudentFilter struct {
	Search   string
	Class    string
	Page     int
	PageSize int
}

// StudentUpdate carries the admin-editable fields.
type StudentUpdate struct {
	Section    *string `json:"section,omitempty"`
	RollNumber *string `json:"roll_number,omitempty"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty"`
}
