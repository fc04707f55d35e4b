package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Reset guard errors.
var (
	ErrAttemptNotResettable = errors.New("attempt is not in a resettable state")
	ErrAttemptHasAnswers    = errors.New("submitted attempt has recorded answers")
)

// AttemptStatus enumerates the attempt lifecycle states.
type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "NOT_STARTED"
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptLocked     AttemptStatus = "LOCKED"
)

// Lock reasons recorded on an attempt. Proctoring violations reuse the
// violation kind as the reason; admin termination uses its own marker.
const LockReasonAdminTerminate = "ADMIN_TERMINATE"

// Violation kinds reportable by the exam client.
const (
	ViolationTabHidden      = "TAB_HIDDEN"
	ViolationFullscreenExit = "FULLSCREEN_EXIT"
	ViolationCopy           = "COPY"
	ViolationPaste          = "PASTE"
	ViolationCut            = "CUT"
	ViolationContextMenu    = "CONTEXT_MENU"
)

// Attempt represents a student's single attempt at an exam. Each student
// holds at most one attempt per exam. LockTokenHash is the digest of the
// session-lock token held by the active exam tab; the raw token is never
// stored.
type Attempt struct {
	ID               uuid.UUID     `json:"id"`
	ExamID           uuid.UUID     `json:"exam_id"`
	StudentID        uuid.UUID     `json:"student_id"`
	Status           AttemptStatus `json:"status"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	TimeTakenSeconds *int          `json:"time_taken_seconds,omitempty"`
	LockedAt         *time.Time    `json:"locked_at,omitempty"`
	LockedReason     *string       `json:"locked_reason,omitempty"`
	LockTokenHash    *string       `json:"-"`
	LockUpdatedAt    *time.Time    `json:"lock_updated_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// DeadlineDue reports whether the attempt is running and its exam deadline
// has passed as of now.
func (a *Attempt) DeadlineDue(exam *Exam, now time.Time) bool {
	if a.Status != AttemptInProgress || a.StartedAt == nil {
		return false
	}
	return !now.Before(exam.Deadline(*a.StartedAt))
}

// RemainingSeconds returns the seconds left before the deadline, clamped
// to zero. Returns 0 for attempts that are not running.
func (a *Attempt) RemainingSeconds(exam *Exam, now time.Time) int {
	if a.Status != AttemptInProgress || a.StartedAt == nil {
		return 0
	}
	left := exam.Deadline(*a.StartedAt).Sub(now)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

// ApplyAutoSubmit transitions the attempt to SUBMITTED with the submission
// instant pinned to the exact deadline, so the recorded duration equals the
// exam duration regardless of when the expiry was observed.
func (a *Attempt) ApplyAutoSubmit(exam *Exam) {
	deadline := exam.Deadline(*a.StartedAt)
	taken := exam.DurationMinutes * 60
	a.Status = AttemptSubmitted
	a.SubmittedAt = &deadline
	a.TimeTakenSeconds = &taken
	a.LockTokenHash = nil
}

// Resettable reports whether an admin reset is permitted: the attempt is
// LOCKED, or SUBMITTED without any recorded answers. answerCount is the
// number of answers currently stored for the attempt.
func (a *Attempt) Resettable(answerCount int) error {
	switch a.Status {
	case AttemptLocked:
		return nil
	case AttemptSubmitted:
		if answerCount > 0 {
			return ErrAttemptHasAnswers
		}
		return nil
	}
	return ErrAttemptNotResettable
}

// RecordAnswerRequest is the payload for saving one answer.
type RecordAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Choice     string    `json:"choice" binding:"required,min=1"`
	Flagged    *bool     `json:"flagged" binding:"omitempty"`
}

// ReportViolationRequest is the payload for reporting a proctoring violation.
type ReportViolationRequest struct {
	Kind string `json:"kind" binding:"required,oneof=TAB_HIDDEN FULLSCREEN_EXIT COPY PASTE CUT CONTEXT_MENU"`
}
