package models

// LinkRequest binds a parent account to a student record.
type LinkRequest struct {
	ParentID  string `json:"parent_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// LinkSearchRequest is the manual search payload used before linking.
type LinkSearchRequest struct {
	StudentName  string `json:"student_name" validate:"required"`
	StudentEmail string `json:"student_email" validate:"required"`
}

// LinkInconsistency reports one half of a parent/student relation whose other
// half is missing.
type LinkInconsistency struct {
	ParentID    string `json:"parent_id"`
	StudentID   string `json:"student_id"`
	MissingSide string `json:"missing_side"` // "parent" or "student"
}
