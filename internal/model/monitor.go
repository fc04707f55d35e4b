package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSessionRow is one per-student row in the proctoring view: the
// assigned student joined with their attempt, if any.
type ExamSessionRow struct {
	StudentID     uuid.UUID      `json:"student_id"`
	Username      string         `json:"username"`
	FirstName     *string        `json:"first_name,omitempty"`
	LastName      *string        `json:"last_name,omitempty"`
	StudentNumber *string        `json:"student_number,omitempty"`
	AttemptID     *uuid.UUID     `json:"attempt_id,omitempty"`
	Status        *AttemptStatus `json:"status,omitempty"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	LockedAt      *time.Time     `json:"locked_at,omitempty"`
	LockedReason  *string        `json:"locked_reason,omitempty"`
	AnsweredCount int            `json:"answered_count"`

	// Filled in by the monitor service, not the query.
	RemainingSeconds int   `json:"remaining_seconds"`
	ViolationCount   int64 `json:"violation_count"`
}

// ExamSessionsSnapshot is the full proctoring view for one exam.
type ExamSessionsSnapshot struct {
	Exam          *Exam            `json:"exam"`
	QuestionCount int              `json:"question_count"`
	AutoSubmitted int64            `json:"auto_submitted"`
	Sessions      []ExamSessionRow `json:"sessions"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// ResultRow is one graded attempt joined with its student, used by the
// admin results summary and the student results listing.
type ResultRow struct {
	AttemptID     uuid.UUID     `json:"attempt_id"`
	ExamID        uuid.UUID     `json:"exam_id"`
	ExamTitle     string        `json:"exam_title"`
	StudentID     uuid.UUID     `json:"student_id"`
	Username      string        `json:"username"`
	FirstName     *string       `json:"first_name,omitempty"`
	LastName      *string       `json:"last_name,omitempty"`
	StudentNumber *string       `json:"student_number,omitempty"`
	Status        AttemptStatus `json:"status"`
	SubmittedAt   *time.Time    `json:"submitted_at,omitempty"`
	TimeTaken     *int          `json:"time_taken_seconds,omitempty"`
	Score         *int          `json:"score,omitempty"`
	MaxScore      *int          `json:"max_score,omitempty"`
	UpdatedAt     *time.Time    `json:"result_updated_at,omitempty"`
}
