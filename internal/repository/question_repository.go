package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/provexa/exam-backend/internal/model"
)

// ErrReorderMismatch is returned when a reorder request does not list every
// question of the exam exactly once.
var ErrReorderMismatch = errors.New("reorder must include every question of the exam exactly once")

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, exam_id, type, prompt, image_url, options, correct,
	        marks, order_num, created_at, updated_at`

func scanQuestion(row interface{ Scan(...interface{}) error }, q *model.Question) error {
	return row.Scan(&q.ID, &q.ExamID, &q.Type, &q.Prompt, &q.ImageURL, &q.Options,
		&q.Correct, &q.Marks, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a question by its UUID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	row := r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	if err := scanQuestion(row, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByExam retrieves all questions for an exam in display order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE exam_id = $1 ORDER BY order_num`,
		examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountByExam returns the number of questions in an exam.
func (r *QuestionRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&count)
	return count, err
}

// PromptExists reports whether another question in the exam carries the same
// prompt. excludeID skips the question being updated; pass uuid.Nil on create.
func (r *QuestionRepository) PromptExists(ctx context.Context, examID uuid.UUID, prompt string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM questions
		   WHERE exam_id = $1 AND lower(trim(prompt)) = lower(trim($2)) AND id <> $3
		 )`, examID, prompt, excludeID,
	).Scan(&exists)
	return exists, err
}

// Create inserts a question at the end of the exam's display order.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, type, prompt, image_url, options, correct, marks, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7,
		         (SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE exam_id = $1))
		 RETURNING id, order_num, created_at, updated_at`,
		q.ExamID, q.Type, q.Prompt, q.ImageURL, q.Options, q.Correct, q.Marks,
	).Scan(&q.ID, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt)
}

// CreateBatch inserts several questions in one transaction, appended to the
// exam's display order in the given sequence.
func (r *QuestionRepository) CreateBatch(ctx context.Context, examID uuid.UUID, questions []model.Question) ([]model.Question, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE exam_id = $1`,
			examID,
		).Scan(&next); err != nil {
			return err
		}

		for i := range questions {
			q := &questions[i]
			q.ExamID = examID
			q.OrderNum = next
			next++
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (exam_id, type, prompt, image_url, options, correct, marks, order_num)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING id, created_at, updated_at`,
				q.ExamID, q.Type, q.Prompt, q.ImageURL, q.Options, q.Correct, q.Marks, q.OrderNum,
			).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Update persists the mutable question fields.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET type = $1, prompt = $2, image_url = $3, options = $4, correct = $5,
		     marks = $6, updated_at = NOW()
		 WHERE id = $7`,
		q.Type, q.Prompt, q.ImageURL, q.Options, q.Correct, q.Marks, q.ID)
	return err
}

// Delete removes a question and, through cascades, its stored answers.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reorder rewrites the display order of an exam's questions. ids must list
// every question of the exam exactly once; the unique order constraint is
// deferred until commit.
func (r *QuestionRepository) Reorder(ctx context.Context, examID uuid.UUID, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ErrReorderMismatch
		}
		seen[id] = struct{}{}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID,
		).Scan(&count); err != nil {
			return err
		}
		if count != len(ids) {
			return ErrReorderMismatch
		}

		for i, id := range ids {
			tag, err := tx.Exec(ctx,
				`UPDATE questions SET order_num = $1, updated_at = NOW()
				 WHERE id = $2 AND exam_id = $3`,
				i+1, id, examID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrReorderMismatch
			}
		}
		return nil
	})
}
