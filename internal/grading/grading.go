// Package grading implements the deterministic grading engine. Grading is a
// pure function of the answer key and the stored answers; running it twice
// over the same inputs always yields the same result.
package grading

import (
	"math"
	"strings"
)

// QuestionType mirrors the supported question types.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
)

// Question is the answer-key view of one question.
type Question struct {
	ID      string
	Type    QuestionType
	Marks   int
	Correct string
}

// BreakdownItem is the per-question grading outcome. Manual marks entries
// whose earned marks were set by an admin override rather than the engine.
type BreakdownItem struct {
	QuestionID string `json:"questionId"`
	Marks      int    `json:"marks"`
	Earned     int    `json:"earned"`
	Correct    bool   `json:"correct"`
	Manual     bool   `json:"manual,omitempty"`
}

// Result is the raw grading outcome before any rescaling.
type Result struct {
	Score     int
	MaxScore  int
	Breakdown []BreakdownItem
}

// Normalize canonicalizes a choice for comparison: surrounding whitespace
// is removed and casing is ignored.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Grade scores one attempt. answers maps question ID to the student's
// stored choice; unanswered questions earn zero. Both sides of every
// comparison are normalized, so answer keys written with different casing
// or stray whitespace still match.
func Grade(questions []Question, answers map[string]string) Result {
	res := Result{Breakdown: make([]BreakdownItem, 0, len(questions))}
	for _, q := range questions {
		res.MaxScore += q.Marks

		item := BreakdownItem{QuestionID: q.ID, Marks: q.Marks}
		if given, ok := answers[q.ID]; ok && Normalize(given) != "" {
			if Normalize(given) == Normalize(q.Correct) {
				item.Correct = true
				item.Earned = q.Marks
			}
		}
		res.Score += item.Earned
		res.Breakdown = append(res.Breakdown, item)
	}
	return res
}

// Rescale maps a raw score onto the exam's configured total-marks target
// using round-half-up. When target or maxScore is not positive, the raw
// values pass through unchanged.
func Rescale(score, maxScore, target int) (int, int) {
	if target <= 0 || maxScore <= 0 {
		return score, maxScore
	}
	scaled := int(math.Round(float64(score) * float64(target) / float64(maxScore)))
	return scaled, target
}

// OverlayManual replaces engine-graded entries with manual overrides and
// returns the recomputed raw score. Overrides for questions no longer in
// the breakdown are dropped; earned marks are clamped to [0, Marks].
func OverlayManual(breakdown []BreakdownItem, manual map[string]int) ([]BreakdownItem, int) {
	score := 0
	for i := range breakdown {
		if earned, ok := manual[breakdown[i].QuestionID]; ok {
			if earned < 0 {
				earned = 0
			}
			if earned > breakdown[i].Marks {
				earned = breakdown[i].Marks
			}
			breakdown[i].Earned = earned
			breakdown[i].Correct = earned == breakdown[i].Marks
			breakdown[i].Manual = true
		}
		score += breakdown[i].Earned
	}
	return breakdown, score
}
