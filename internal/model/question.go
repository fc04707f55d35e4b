package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question types.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
)

// Answer-key validation errors.
var (
	ErrMCQOptionsRequired = errors.New("multiple choice question needs at least two options")
	ErrDuplicateChoices   = errors.New("duplicate choices after normalization")
	ErrMCQCorrectRequired = errors.New("correct choice must be one of the options")
	ErrTFCorrectRequired  = errors.New("correct choice must be true or false")
)

// Question represents a single exam question. Correct holds the answer key
// as stored JSON; use CorrectChoice to read it regardless of legacy shape.
type Question struct {
	ID        uuid.UUID       `json:"id"`
	ExamID    uuid.UUID       `json:"exam_id"`
	Type      QuestionType    `json:"type"`
	Prompt    string          `json:"prompt"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Options   []string        `json:"options,omitempty"`
	Correct   json.RawMessage `json:"correct,omitempty"`
	Marks     int             `json:"marks"`
	OrderNum  int             `json:"order_num"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CorrectChoice extracts the answer-key choice from the stored JSON.
func (q *Question) CorrectChoice() string {
	return ExtractChoice(q.Correct)
}

// StudentView returns a copy of the question with the answer key stripped.
func (q *Question) StudentView() Question {
	view := *q
	view.Correct = nil
	return view
}

// NormalizeChoice canonicalizes a choice value for comparison:
// surrounding whitespace is removed and casing is ignored.
func NormalizeChoice(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExtractChoice reads a choice out of stored JSON. Rows written by older
// versions of the platform carry three shapes: a bare string, an object
// with a "choice" key, or an object with a "value" key.
func ExtractChoice(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Choice *string `json:"choice"`
		Value  *string `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Choice != nil {
			return *obj.Choice
		}
		if obj.Value != nil {
			return *obj.Value
		}
	}
	return ""
}

// EncodeChoice wraps a choice in the canonical stored shape {"choice": ...}.
func EncodeChoice(choice string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"choice": choice})
	return raw
}

// ValidateAnswerKey checks type-specific answer-key invariants and returns
// the canonical option list and normalized correct choice.
//
// Multiple choice requires at least two options, no duplicates after
// normalization, and a correct choice matching one of the options.
// True/false requires the correct choice to normalize to "true" or "false"
// and carries no option list.
func ValidateAnswerKey(qType QuestionType, options []string, correct string) ([]string, string, error) {
	normalized := NormalizeChoice(correct)

	switch qType {
	case QuestionMultipleChoice:
		if len(options) < 2 {
			return nil, "", ErrMCQOptionsRequired
		}
		seen := make(map[string]struct{}, len(options))
		found := false
		for _, opt := range options {
			key := NormalizeChoice(opt)
			if _, dup := seen[key]; dup {
				return nil, "", ErrDuplicateChoices
			}
			seen[key] = struct{}{}
			if key == normalized {
				found = true
			}
		}
		if normalized == "" || !found {
			return nil, "", ErrMCQCorrectRequired
		}
		return options, normalized, nil

	case QuestionTrueFalse:
		if normalized != "true" && normalized != "false" {
			return nil, "", ErrTFCorrectRequired
		}
		return nil, normalized, nil
	}

	return nil, "", ErrMCQCorrectRequired
}

// CreateQuestionRequest is the payload for adding a question to an exam.
type CreateQuestionRequest struct {
	Type     QuestionType `json:"type" binding:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE"`
	Prompt   string       `json:"prompt" binding:"required,min=1"`
	ImageURL *string      `json:"image_url" binding:"omitempty,url"`
	Options  []string     `json:"options" binding:"omitempty,dive,min=1"`
	Correct  string       `json:"correct" binding:"required,min=1"`
	Marks    int          `json:"marks" binding:"required,min=1"`
}

// UpdateQuestionRequest is the payload for updating a question.
type UpdateQuestionRequest struct {
	Type     QuestionType `json:"type" binding:"omitempty,oneof=MULTIPLE_CHOICE TRUE_FALSE"`
	Prompt   string       `json:"prompt" binding:"omitempty,min=1"`
	ImageURL *string      `json:"image_url" binding:"omitempty,url"`
	Options  []string     `json:"options" binding:"omitempty,dive,min=1"`
	Correct  string       `json:"correct" binding:"omitempty,min=1"`
	Marks    *int         `json:"marks" binding:"omitempty,min=1"`
}

// BulkCreateQuestionsRequest carries multiple questions created in one call.
type BulkCreateQuestionsRequest struct {
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// ReorderQuestionsRequest carries the full question order for an exam.
type ReorderQuestionsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1,dive,required"`
}
