package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/provexa/exam-backend/internal/model"
)

// AnswerRepository handles stored answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert writes one answer, replacing any previous value for the same
// question. Last write wins.
func (r *AnswerRepository) Upsert(ctx context.Context, attemptID, questionID uuid.UUID, value json.RawMessage, flagged bool) (*model.Answer, error) {
	a := &model.Answer{AttemptID: attemptID, QuestionID: questionID, Value: value, Flagged: flagged}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO answers (attempt_id, question_id, value, flagged, answered_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (attempt_id, question_id)
		 DO UPDATE SET value = EXCLUDED.value, flagged = EXCLUDED.flagged, answered_at = NOW()
		 RETURNING answered_at`,
		attemptID, questionID, value, flagged,
	).Scan(&a.AnsweredAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByAttempt retrieves every stored answer for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, question_id, value, flagged, answered_at
		 FROM answers WHERE attempt_id = $1`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.Value, &a.Flagged, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
