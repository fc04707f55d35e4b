package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/provexa/exam-backend/internal/grading"
)

// Result is the graded outcome of one attempt. Score and MaxScore are the
// rescaled values when the exam configures a total-marks target; Breakdown
// always carries the raw per-question marks.
type Result struct {
	ID        uuid.UUID               `json:"id"`
	AttemptID uuid.UUID               `json:"attempt_id"`
	Score     int                     `json:"score"`
	MaxScore  int                     `json:"max_score"`
	Breakdown []grading.BreakdownItem `json:"breakdown"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// ManualEarned returns the manually overridden earned marks per question.
func (r *Result) ManualEarned() map[string]int {
	manual := make(map[string]int)
	for _, item := range r.Breakdown {
		if item.Manual {
			manual[item.QuestionID] = item.Earned
		}
	}
	return manual
}

// ManualGradeRequest carries admin grade overrides for one attempt.
type ManualGradeRequest struct {
	Overrides map[string]int `json:"overrides" binding:"required,min=1"`
}
