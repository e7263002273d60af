package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sunrise-academy/portal-api/internal/models"
)

// LinkRepository owns the bidirectional parent↔student relation. Both sides
// of every link and unlink are written in one transaction so the invariant
// "parent lists student iff student lists parent" holds after each call.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository constructs the repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Link adds the relation and upgrades the parent to role parent. Idempotent:
// linking an already-linked pair changes nothing. When auto is set the
// account is stamped as auto-linked.
func (r *LinkRepository) Link(ctx context.Context, parentID, studentID string, auto bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin link tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockRow(ctx, tx, "students", studentID); err != nil {
		return err
	}
	if err := lockRow(ctx, tx, "users", parentID); err != nil {
		return err
	}

	now := time.Now().UTC()
	const studentSide = `UPDATE students SET parent_ids = array_append(parent_ids, $2), updated_at = $3
		WHERE id = $1 AND NOT (parent_ids @> ARRAY[$2]::text[])`
	if _, err := tx.ExecContext(ctx, studentSide, studentID, parentID, now); err != nil {
		return fmt.Errorf("link student side: %w", err)
	}

	parentSide := `UPDATE users SET
		linked_student_ids = CASE WHEN linked_student_ids @> ARRAY[$2]::text[]
			THEN linked_student_ids ELSE array_append(linked_student_ids, $2) END,
		role = $3, updated_at = $4`
	args := []interface{}{parentID, studentID, models.RoleParent, now}
	if auto {
		parentSide += `, auto_linked = TRUE, auto_linked_at = $5`
		args = append(args, now)
	}
	parentSide += ` WHERE id = $1`
	if _, err := tx.ExecContext(ctx, parentSide, args...); err != nil {
		return fmt.Errorf("link parent side: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit link tx: %w", err)
	}
	return nil
}

// Unlink removes the relation from both sides. The parent's role falls back
// to pending_parent when no linked students remain.
func (r *LinkRepository) Unlink(ctx context.Context, parentID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unlink tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockRow(ctx, tx, "students", studentID); err != nil {
		return err
	}
	if err := lockRow(ctx, tx, "users", parentID); err != nil {
		return err
	}

	now := time.Now().UTC()
	const studentSide = `UPDATE students SET parent_ids = array_remove(parent_ids, $2), updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, studentSide, studentID, parentID, now); err != nil {
		return fmt.Errorf("unlink student side: %w", err)
	}

	const parentSide = `UPDATE users SET
		linked_student_ids = array_remove(linked_student_ids, $2),
		role = CASE WHEN COALESCE(array_length(array_remove(linked_student_ids, $2), 1), 0) = 0
			THEN $3::text ELSE $4::text END,
		updated_at = $5
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, parentSide, parentID, studentID, models.RolePendingParent, models.RoleParent, now); err != nil {
		return fmt.Errorf("unlink parent side: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unlink tx: %w", err)
	}
	return nil
}

// FindInconsistencies reports relations recorded on one side only.
func (r *LinkRepository) FindInconsistencies(ctx context.Context) ([]models.LinkInconsistency, error) {
	const query = `
		SELECT u.id AS parent_id, ls.student_id AS student_id, 'student' AS missing_side
		FROM users u
		JOIN LATERAL unnest(u.linked_student_ids) AS ls(student_id) ON TRUE
		JOIN students s ON s.id = ls.student_id
		WHERE NOT (s.parent_ids @> ARRAY[u.id]::text[])
		UNION ALL
		SELECT ps.parent_id AS parent_id, s.id AS student_id, 'parent' AS missing_side
		FROM students s
		JOIN LATERAL unnest(s.parent_ids) AS ps(parent_id) ON TRUE
		JOIN users u ON u.id = ps.parent_id
		WHERE NOT (u.linked_student_ids @> ARRAY[s.id]::text[])`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find link inconsistencies: %w", err)
	}
	defer rows.Close()

	var out []models.LinkInconsistency
	for rows.Next() {
		var inc models.LinkInconsistency
		if err := rows.Scan(&inc.ParentID, &inc.StudentID, &inc.MissingSide); err != nil {
			return nil, fmt.Errorf("scan link inconsistency: %w", err)
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link inconsistencies: %w", err)
	}
	return out, nil
}

// Repair restores bidirectional consistency for one reported pair by
// re-adding the missing side.
func (r *LinkRepository) Repair(ctx context.Context, inc models.LinkInconsistency) error {
	// Re-linking writes both sides; the present side is untouched by the
	// idempotent guards.
	return r.Link(ctx, inc.ParentID, inc.StudentID, false)
}

// LinkedStudentIDs returns the parent's current linked set.
func (r *LinkRepository) LinkedStudentIDs(ctx context.Context, parentID string) ([]string, error) {
	const query = `SELECT linked_student_ids FROM users WHERE id = $1`
	var ids pq.StringArray
	if err := r.db.GetContext(ctx, &ids, query, parentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load linked student ids: %w", err)
	}
	return ids, nil
}

func lockRow(ctx context.Context, tx *sqlx.Tx, table, id string) error {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, table)
	var found string
	if err := tx.GetContext(ctx, &found, query, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock %s row: %w", table, err)
	}
	return nil
}
