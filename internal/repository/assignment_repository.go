package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentRepository handles the exam-to-student assignment table.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// IsAssigned reports whether the student is assigned to the exam.
func (r *AssignmentRepository) IsAssigned(ctx context.Context, examID, studentID uuid.UUID) (bool, error) {
	var assigned bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM exam_assignments WHERE exam_id = $1 AND student_id = $2)`,
		examID, studentID,
	).Scan(&assigned)
	return assigned, err
}

// Assign adds students to an exam, skipping already-assigned pairs.
// Returns the number of newly created assignments.
func (r *AssignmentRepository) Assign(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO exam_assignments (exam_id, student_id)
		 SELECT $1, id FROM users WHERE id = ANY($2) AND role = 'STUDENT'
		 ON CONFLICT (exam_id, student_id) DO NOTHING`,
		examID, studentIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Unassign removes a student from an exam.
func (r *AssignmentRepository) Unassign(ctx context.Context, examID, studentID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_assignments WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
