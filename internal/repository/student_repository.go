package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sunrise-academy/portal-api/internal/models"
)

const studentColumns = `id, full_name, email, applicant_uid, admission_id, class, section, roll_number,
	parent_ids, parent_name, parent_email, phone, timetable, scorecards, attendance, created_at, updated_at`

// StudentRepository handles persistence of student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student record by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByApplicantUID returns the record created from the given applicant's
// approved application, if any.
func (r *StudentRepository) FindByApplicantUID(ctx context.Context, uid string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE applicant_uid = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, uid); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by applicant: %w", err)
	}
	return &student, nil
}

// ListAll returns every student record. The linking search scans this list
// in memory; enrollment stays small enough for a single school.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// ListByParentID returns the records linked to a parent account.
func (r *StudentRepository) ListByParentID(ctx context.Context, parentID string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE parent_ids @> ARRAY[$1]::text[] ORDER BY full_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, parentID); err != nil {
		return nil, fmt.Errorf("list students by parent: %w", err)
	}
	return students, nil
}

// List returns students for the admin roster with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := `FROM students WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Class != "" {
		conditions = append(conditions, fmt.Sprintf("class = $%d", len(args)+1))
		args = append(args, filter.Class)
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY full_name LIMIT %d OFFSET %d`, studentColumns, base+clause, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Update applies the admin-editable fields.
func (r *StudentRepository) Update(ctx context.Context, id string, update models.StudentUpdate) error {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}
	args = append(args, id)

	if update.Section != nil {
		sets = append(sets, fmt.Sprintf("section = $%d", len(args)+1))
		args = append(args, *update.Section)
	}
	if update.RollNumber != nil {
		sets = append(sets, fmt.Sprintf("roll_number = $%d", len(args)+1))
		args = append(args, *update.RollNumber)
	}
	if update.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)+1))
		args = append(args, *update.Email)
	}
	if update.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = $%d", len(args)+1))
		args = append(args, *update.Phone)
	}

	query := fmt.Sprintf(`UPDATE students SET %s WHERE id = $1`, strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
