package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateAnswerKey(t *testing.T) {
	tests := []struct {
		name    string
		qType   QuestionType
		options []string
		correct string
		wantErr error
	}{
		{
			name:  "valid multiple choice",
			qType: QuestionMultipleChoice, options: []string{"A", "B", "C"}, correct: "B",
		},
		{
			name:  "correct matched case-insensitively",
			qType: QuestionMultipleChoice, options: []string{"Red", "Blue"}, correct: "  blue ",
		},
		{
			name:  "too few options",
			qType: QuestionMultipleChoice, options: []string{"A"}, correct: "A",
			wantErr: ErrMCQOptionsRequired,
		},
		{
			name:  "duplicate options after normalization",
			qType: QuestionMultipleChoice, options: []string{"A", " a "}, correct: "A",
			wantErr: ErrDuplicateChoices,
		},
		{
			name:  "correct not among options",
			qType: QuestionMultipleChoice, options: []string{"A", "B"}, correct: "C",
			wantErr: ErrMCQCorrectRequired,
		},
		{
			name:  "empty correct choice",
			qType: QuestionMultipleChoice, options: []string{"A", "B"}, correct: "  ",
			wantErr: ErrMCQCorrectRequired,
		},
		{
			name:  "valid true false",
			qType: QuestionTrueFalse, correct: "TRUE",
		},
		{
			name:  "true false rejects other values",
			qType: QuestionTrueFalse, correct: "yes",
			wantErr: ErrTFCorrectRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, normalized, err := ValidateAnswerKey(tt.qType, tt.options, tt.correct)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && normalized != NormalizeChoice(tt.correct) {
				t.Errorf("normalized = %q, want %q", normalized, NormalizeChoice(tt.correct))
			}
		})
	}

	t.Run("true false drops option list", func(t *testing.T) {
		options, _, err := ValidateAnswerKey(QuestionTrueFalse, []string{"true", "false"}, "true")
		if err != nil {
			t.Fatal(err)
		}
		if options != nil {
			t.Errorf("options = %v, want nil", options)
		}
	})
}

func TestExtractChoice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "canonical object", raw: `{"choice":"B"}`, want: "B"},
		{name: "legacy bare string", raw: `"B"`, want: "B"},
		{name: "legacy value object", raw: `{"value":"true"}`, want: "true"},
		{name: "empty", raw: ``, want: ""},
		{name: "unknown shape", raw: `{"answer":"B"}`, want: ""},
		{name: "null", raw: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractChoice(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("ExtractChoice(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEncodeChoiceRoundTrip(t *testing.T) {
	raw := EncodeChoice("b")
	if got := ExtractChoice(raw); got != "b" {
		t.Errorf("round trip = %q, want %q", got, "b")
	}
}
