package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/provexa/exam-backend/internal/grading"
	"github.com/provexa/exam-backend/internal/model"
)

// ResultRepository handles graded result data access. Breakdown entries are
// stored as a JSONB array on the result row.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetByAttempt retrieves the result for an attempt.
func (r *ResultRepository) GetByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	var breakdown []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, attempt_id, score, max_score, breakdown, updated_at
		 FROM results WHERE attempt_id = $1`, attemptID,
	).Scan(&res.ID, &res.AttemptID, &res.Score, &res.MaxScore, &breakdown, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &res.Breakdown); err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert writes the result for an attempt, replacing any previous grading.
func (r *ResultRepository) Upsert(ctx context.Context, attemptID uuid.UUID, score, maxScore int, breakdown []grading.BreakdownItem) (*model.Result, error) {
	raw, err := json.Marshal(breakdown)
	if err != nil {
		return nil, err
	}

	res := &model.Result{AttemptID: attemptID, Score: score, MaxScore: maxScore, Breakdown: breakdown}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO results (attempt_id, score, max_score, breakdown, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (attempt_id)
		 DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score,
		               breakdown = EXCLUDED.breakdown, updated_at = NOW()
		 RETURNING id, updated_at`,
		attemptID, score, maxScore, raw,
	).Scan(&res.ID, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByExam returns one row per attempt of the exam with result fields when
// grading has run, ordered by student.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, e.title, u.id, u.username, u.first_name, u.last_name,
		        u.student_number, a.status, a.submitted_at, a.time_taken_seconds,
		        r.score, r.max_score, r.updated_at
		 FROM attempts a
		 JOIN exams e ON e.id = a.exam_id
		 JOIN users u ON u.id = a.student_id
		 LEFT JOIN results r ON r.attempt_id = a.id
		 WHERE a.exam_id = $1
		 ORDER BY u.username`,
		examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResultRows(rows)
}

// ListPublishedForStudent returns the student's graded results for exams
// whose results are published.
func (r *ResultRepository) ListPublishedForStudent(ctx context.Context, studentID uuid.UUID) ([]model.ResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, e.title, u.id, u.username, u.first_name, u.last_name,
		        u.student_number, a.status, a.submitted_at, a.time_taken_seconds,
		        r.score, r.max_score, r.updated_at
		 FROM attempts a
		 JOIN exams e ON e.id = a.exam_id AND e.results_published
		 JOIN users u ON u.id = a.student_id
		 JOIN results r ON r.attempt_id = a.id
		 WHERE a.student_id = $1 AND a.status = 'SUBMITTED'
		 ORDER BY a.submitted_at DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResultRows(rows)
}

func scanResultRows(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]model.ResultRow, error) {
	var out []model.ResultRow
	for rows.Next() {
		var row model.ResultRow
		if err := rows.Scan(&row.AttemptID, &row.ExamID, &row.ExamTitle, &row.StudentID,
			&row.Username, &row.FirstName, &row.LastName, &row.StudentNumber,
			&row.Status, &row.SubmittedAt, &row.TimeTaken,
			&row.Score, &row.MaxScore, &row.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
