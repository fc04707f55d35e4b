package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/provexa/exam-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, academic_year, duration_minutes, is_active,
	        results_published, max_questions, total_marks, password_hash,
	        created_at, updated_at`

func scanExam(row interface{ Scan(...interface{}) error }, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.AcademicYear, &e.DurationMinutes, &e.IsActive,
		&e.ResultsPublished, &e.MaxQuestions, &e.TotalMarks, &e.PasswordHash,
		&e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	row := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListPaginated retrieves exams ordered by creation time, newest first.
func (r *ExamRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// ListAssignedActive returns the active exams assigned to a student.
func (r *ExamRepository) ListAssignedActive(ctx context.Context, studentID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.academic_year, e.duration_minutes, e.is_active,
		        e.results_published, e.max_questions, e.total_marks, e.password_hash,
		        e.created_at, e.updated_at
		 FROM exams e
		 JOIN exam_assignments a ON a.exam_id = e.id
		 WHERE a.student_id = $1 AND e.is_active
		 ORDER BY e.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, academic_year, duration_minutes, is_active,
		                    results_published, max_questions, total_marks, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.AcademicYear, e.DurationMinutes, e.IsActive,
		e.ResultsPublished, e.MaxQuestions, e.TotalMarks, e.PasswordHash,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update persists the mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, academic_year = $2, duration_minutes = $3, is_active = $4,
		     max_questions = $5, total_marks = $6, password_hash = $7, updated_at = NOW()
		 WHERE id = $8`,
		e.Title, e.AcademicYear, e.DurationMinutes, e.IsActive,
		e.MaxQuestions, e.TotalMarks, e.PasswordHash, e.ID)
	return err
}

// SetResultsPublished flips the results visibility flag.
func (r *ExamRepository) SetResultsPublished(ctx context.Context, id uuid.UUID, published bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET results_published = $1, updated_at = NOW() WHERE id = $2`,
		published, id)
	return err
}

// Delete removes an exam and, through cascades, its questions, assignments,
// attempts, answers and results.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
