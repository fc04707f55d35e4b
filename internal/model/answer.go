package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Answer is one stored answer, keyed by (attempt, question). Value holds
// the choice as stored JSON; legacy rows may use older shapes, so read it
// through ExtractChoice.
type Answer struct {
	AttemptID  uuid.UUID       `json:"attempt_id"`
	QuestionID uuid.UUID       `json:"question_id"`
	Value      json.RawMessage `json:"value"`
	Flagged    bool            `json:"flagged"`
	AnsweredAt time.Time       `json:"answered_at"`
}

// Choice extracts the stored choice value.
func (a *Answer) Choice() string {
	return ExtractChoice(a.Value)
}
