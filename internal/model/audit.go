package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the platform.
const (
	AuditEnterExam       = "ENTER_EXAM"
	AuditSubmitAttempt   = "SUBMIT_ATTEMPT"
	AuditAutoSubmit      = "AUTO_SUBMIT"
	AuditViolation       = "VIOLATION_REPORTED"
	AuditAutoLock        = "AUTO_LOCK"
	AuditAdminUnlock     = "ADMIN_UNLOCK"
	AuditAdminTerminate  = "ADMIN_TERMINATE"
	AuditAdminReset      = "ADMIN_RESET"
	AuditManualGrade     = "MANUAL_GRADE"
	AuditResultsGenerate = "RESULTS_GENERATE"
	AuditResultsPublish  = "RESULTS_PUBLISH"
	AuditResultsHide     = "RESULTS_HIDE"
	AuditQuestionChange  = "QUESTION_CHANGE"
	AuditSessionReset    = "SESSION_RESET"
)

// AuditEvent is one append-only audit record. Events are queued through
// Redis and persisted in batches by the audit worker.
type AuditEvent struct {
	Action       string                 `json:"action"`
	ActorID      *uuid.UUID             `json:"actor_id,omitempty"`
	ExamID       *uuid.UUID             `json:"exam_id,omitempty"`
	AttemptID    *uuid.UUID             `json:"attempt_id,omitempty"`
	TargetUserID *uuid.UUID             `json:"target_user_id,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	RecordedAt   time.Time              `json:"recorded_at"`
}
