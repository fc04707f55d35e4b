package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/provexa/exam-backend/internal/model"
)

// AttemptRepository handles attempt data access. Lifecycle transitions are
// single conditional UPDATEs so that concurrent requests race on the row,
// not in application code: exactly one writer wins, the rest observe the
// final state.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, exam_id, student_id, status, started_at, submitted_at,
	        time_taken_seconds, locked_at, locked_reason, lock_token_hash,
	        lock_updated_at, created_at, updated_at`

func scanAttempt(row interface{ Scan(...interface{}) error }, a *model.Attempt) error {
	return row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.StartedAt, &a.SubmittedAt,
		&a.TimeTakenSeconds, &a.LockedAt, &a.LockedReason, &a.LockTokenHash,
		&a.LockUpdatedAt, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id)
	if err := scanAttempt(row, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByExamAndStudent retrieves the student's attempt for an exam.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID)
	if err := scanAttempt(row, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateInProgress inserts a fresh running attempt holding the given lock
// token hash. The unique (exam_id, student_id) index makes concurrent first
// entries race on the insert: the loser gets created=false and must reload
// the winner's row.
func (r *AttemptRepository) CreateInProgress(ctx context.Context, examID, studentID uuid.UUID, tokenHash string) (*model.Attempt, bool, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_id, status, started_at, lock_token_hash, lock_updated_at)
		 VALUES ($1, $2, 'IN_PROGRESS', NOW(), $3, NOW())
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING `+attemptColumns,
		examID, studentID, tokenHash)
	err := scanAttempt(row, a)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Resume moves a NOT_STARTED or IN_PROGRESS attempt to IN_PROGRESS, installs
// the lock token hash and refreshes the lock heartbeat. The started instant
// is kept when already set so re-entry never extends the deadline.
func (r *AttemptRepository) Resume(ctx context.Context, id uuid.UUID, tokenHash string) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx,
		`UPDATE attempts
		 SET status = 'IN_PROGRESS',
		     started_at = COALESCE(started_at, NOW()),
		     lock_token_hash = $2,
		     lock_updated_at = NOW(),
		     updated_at = NOW()
		 WHERE id = $1 AND status IN ('NOT_STARTED', 'IN_PROGRESS')
		 RETURNING `+attemptColumns,
		id, tokenHash)
	if err := scanAttempt(row, a); err != nil {
		return nil, err
	}
	return a, nil
}

// TouchLock refreshes the lock heartbeat for a running attempt.
func (r *AttemptRepository) TouchLock(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET lock_updated_at = NOW() WHERE id = $1 AND status = 'IN_PROGRESS'`, id)
	return err
}

// MarkSubmitted finalizes a running attempt. Returns false when the attempt
// was not IN_PROGRESS, meaning a concurrent transition won.
func (r *AttemptRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, submittedAt time.Time, timeTakenSeconds int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'SUBMITTED', submitted_at = $2, time_taken_seconds = $3,
		     lock_token_hash = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		id, submittedAt, timeTakenSeconds)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkLocked locks a running attempt with the given reason. Returns false
// when the attempt was not IN_PROGRESS.
func (r *AttemptRepository) MarkLocked(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'LOCKED', locked_at = NOW(), locked_reason = $2,
		     lock_token_hash = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Unlock clears the session-lock bookkeeping on any attempt and returns a
// LOCKED one to IN_PROGRESS. The token hash is wiped and the heartbeat reset
// regardless of status, so the student's next entry mints a fresh session.
// Returns false when the attempt does not exist.
func (r *AttemptRepository) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = CASE WHEN status = 'LOCKED' THEN 'IN_PROGRESS' ELSE status END,
		     locked_at = CASE WHEN status = 'LOCKED' THEN NULL ELSE locked_at END,
		     locked_reason = CASE WHEN status = 'LOCKED' THEN NULL ELSE locked_reason END,
		     lock_token_hash = NULL, lock_updated_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reset wipes an attempt back to NOT_STARTED, deleting its answers and
// result. The attempt row is locked for the duration of the transaction;
// the reset guard runs against that locked row.
func (r *AttemptRepository) Reset(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		a := &model.Attempt{}
		row := tx.QueryRow(ctx,
			`SELECT `+attemptColumns+` FROM attempts WHERE id = $1 FOR UPDATE`, id)
		if err := scanAttempt(row, a); err != nil {
			return err
		}

		var answerCount int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM answers WHERE attempt_id = $1`, id,
		).Scan(&answerCount); err != nil {
			return err
		}

		if err := a.Resettable(answerCount); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE attempt_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM results WHERE attempt_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`UPDATE attempts
			 SET status = 'NOT_STARTED', started_at = NULL, submitted_at = NULL,
			     time_taken_seconds = NULL, locked_at = NULL, locked_reason = NULL,
			     lock_token_hash = NULL, lock_updated_at = NULL, updated_at = NOW()
			 WHERE id = $1`, id)
		return err
	})
}

// AutoSubmitExpired finalizes every running attempt of the exam whose
// deadline has passed, pinning the submission instant to the deadline.
// Returns the number of attempts finalized.
func (r *AttemptRepository) AutoSubmitExpired(ctx context.Context, examID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts a
		 SET status = 'SUBMITTED',
		     submitted_at = a.started_at + e.duration_minutes * interval '1 minute',
		     time_taken_seconds = e.duration_minutes * 60,
		     lock_token_hash = NULL,
		     updated_at = NOW()
		 FROM exams e
		 WHERE e.id = a.exam_id
		   AND a.exam_id = $1
		   AND a.status = 'IN_PROGRESS'
		   AND a.started_at + e.duration_minutes * interval '1 minute' <= NOW()`,
		examID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListSubmittedIDs returns the IDs of every submitted attempt for an exam.
func (r *AttemptRepository) ListSubmittedIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM attempts WHERE exam_id = $1 AND status = 'SUBMITTED'`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListExamSessions returns one row per assigned student with their attempt
// state and answered-question count, for the proctoring view.
func (r *AttemptRepository) ListExamSessions(ctx context.Context, examID uuid.UUID) ([]model.ExamSessionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.first_name, u.last_name, u.student_number,
		        a.id, a.status, a.started_at, a.submitted_at, a.locked_at, a.locked_reason,
		        COALESCE(ac.answered, 0)
		 FROM exam_assignments ea
		 JOIN users u ON u.id = ea.student_id
		 LEFT JOIN attempts a ON a.exam_id = ea.exam_id AND a.student_id = ea.student_id
		 LEFT JOIN (
		   SELECT attempt_id, COUNT(*) AS answered FROM answers GROUP BY attempt_id
		 ) ac ON ac.attempt_id = a.id
		 WHERE ea.exam_id = $1
		 ORDER BY u.username`,
		examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSessionRow
	for rows.Next() {
		var s model.ExamSessionRow
		if err := rows.Scan(&s.StudentID, &s.Username, &s.FirstName, &s.LastName, &s.StudentNumber,
			&s.AttemptID, &s.Status, &s.StartedAt, &s.SubmittedAt, &s.LockedAt, &s.LockedReason,
			&s.AnsweredCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
