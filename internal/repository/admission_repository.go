package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sunrise-academy/portal-api/internal/models"
)

// ErrAdmissionResolved is returned when an approve/reject transition targets
// an application that is no longer pending.
var ErrAdmissionResolved = errors.New("admission already resolved")

const admissionColumns = `id, student_name, parent_name, email, parent_email, phone, grade, grade_applying_for,
	message, status, applicant_uid, applicant_name, applicant_email, admin_notes,
	approved_by, approved_by_name, approved_at, rejected_by, rejected_by_name, rejected_at, rejection_reason,
	created_at, updated_at`

// AdmissionRepository handles persistence of admission applications and the
// transactional approve/reject transitions.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// Create persists a new application with status pending.
func (r *AdmissionRepository) Create(ctx context.Context, admission *models.Admission) error {
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	admission.Status = models.AdmissionStatusPending
	admission.CreatedAt = now
	admission.UpdatedAt = now

	const query = `INSERT INTO admissions (id, student_name, parent_name, email, parent_email, phone, grade,
		grade_applying_for, message, status, applicant_uid, applicant_name, applicant_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := r.db.ExecContext(ctx, query,
		admission.ID, admission.StudentName, admission.ParentName, admission.Email, admission.ParentEmail,
		admission.Phone, admission.Grade, admission.GradeApplyingFor, admission.Message, admission.Status,
		admission.ApplicantUID, admission.ApplicantName, admission.ApplicantEmail,
		admission.CreatedAt, admission.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create admission: %w", err)
	}
	return nil
}

// FindByID returns an application by id.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1 LIMIT 1`
	var admission models.Admission
	if err := r.db.GetContext(ctx, &admission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admission by id: %w", err)
	}
	return &admission, nil
}

// List returns applications newest-first with total count.
func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	base := `FROM admissions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		admissionColumns, base+clause, size, offset)
	var admissions []models.Admission
	if err := r.db.SelectContext(ctx, &admissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admissions: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admissions: %w", err)
	}
	return admissions, total, nil
}

// UpdateNotes sets the administrative notes on an application. Status is not
// touched: resolved applications stay resolved.
func (r *AdmissionRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	const query = `UPDATE admissions SET admin_notes = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, notes)
	if err != nil {
		return fmt.Errorf("update admission notes: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApproveParams identifies the application and the approving admin.
type ApproveParams struct {
	AdmissionID  string
	ApproverID   string
	ApproverName string
}

// Approve runs the approval transition in one transaction: the conditional
// pending→approved update, the student insert, and the applicant role change.
// Returns ErrAdmissionResolved when the application is not pending, so a
// concurrent double-approval can commit at most one student record.
func (r *AdmissionRepository) Approve(ctx context.Context, params ApproveParams) (*models.Student, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var admission models.Admission
	lockQuery := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &admission, lockQuery, params.AdmissionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock admission: %w", err)
	}

	now := time.Now().UTC()
	const transition = `UPDATE admissions SET status = $2, approved_by = $3, approved_by_name = $4,
		approved_at = $5, updated_at = $5 WHERE id = $1 AND status = $6`
	res, err := tx.ExecContext(ctx, transition,
		params.AdmissionID, models.AdmissionStatusApproved, params.ApproverID, params.ApproverName,
		now, models.AdmissionStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("approve admission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrAdmissionResolved
	}

	student := &models.Student{
		ID:           uuid.NewString(),
		FullName:     admission.StudentName,
		Email:        admission.Email,
		ApplicantUID: admission.ApplicantUID,
		AdmissionID:  admission.ID,
		Class:        admission.TargetGrade(),
		Section:      models.DefaultSection,
		RollNumber:   "",
		ParentIDs:    nil,
		ParentName:   admission.ParentName,
		ParentEmail:  admission.ContactEmail(),
		Phone:        admission.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	const insertStudent = `INSERT INTO students (id, full_name, email, applicant_uid, admission_id, class, section,
		roll_number, parent_ids, parent_name, parent_email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}', $9, $10, $11, $12, $13)`
	if _, err := tx.ExecContext(ctx, insertStudent,
		student.ID, student.FullName, student.Email, student.ApplicantUID, student.AdmissionID,
		student.Class, student.Section, student.RollNumber,
		student.ParentName, student.ParentEmail, student.Phone, student.CreatedAt, student.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("create student record: %w", err)
	}

	if admission.ApplicantUID != nil && *admission.ApplicantUID != "" {
		const promote = `UPDATE users SET role = $2, student_id = $3, updated_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, promote, *admission.ApplicantUID, models.RoleStudent, student.ID, now); err != nil {
			return nil, fmt.Errorf("promote applicant account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve tx: %w", err)
	}
	return student, nil
}

// RejectParams identifies the application and the rejecting admin.
type RejectParams struct {
	AdmissionID  string
	RejecterID   string
	RejecterName string
	Reason       string
}

// Reject runs the rejection transition in one transaction under the same
// pending-only guard as Approve. No student record is created.
func (r *AdmissionRepository) Reject(ctx context.Context, params RejectParams) (*models.Admission, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reject tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var admission models.Admission
	lockQuery := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &admission, lockQuery, params.AdmissionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock admission: %w", err)
	}

	now := time.Now().UTC()
	const transition = `UPDATE admissions SET status = $2, rejected_by = $3, rejected_by_name = $4,
		rejected_at = $5, rejection_reason = $6, updated_at = $5 WHERE id = $1 AND status = $7`
	res, err := tx.ExecContext(ctx, transition,
		params.AdmissionID, models.AdmissionStatusRejected, params.RejecterID, params.RejecterName,
		now, params.Reason, models.AdmissionStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("reject admission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrAdmissionResolved
	}

	if admission.ApplicantUID != nil && *admission.ApplicantUID != "" {
		const demote = `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, demote, *admission.ApplicantUID, models.RoleRejectedStudent, now); err != nil {
			return nil, fmt.Errorf("mark applicant rejected: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reject tx: %w", err)
	}

	admission.Status = models.AdmissionStatusRejected
	admission.RejectedBy = &params.RejecterID
	admission.RejectedByName = &params.RejecterName
	admission.RejectedAt = &now
	if params.Reason != "" {
		admission.RejectionReason = &params.Reason
	}
	admission.UpdatedAt = now
	return &admission, nil
}
