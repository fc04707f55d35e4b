package grading

import (
	"testing"
)

func TestGrade(t *testing.T) {
	questions := []Question{
		{ID: "q1", Type: MultipleChoice, Marks: 2, Correct: "B"},
		{ID: "q2", Type: TrueFalse, Marks: 1, Correct: "true"},
	}

	tests := []struct {
		name      string
		answers   map[string]string
		wantScore int
		wantMax   int
		wantQ1    bool
		wantQ2    bool
	}{
		{
			name:      "all correct",
			answers:   map[string]string{"q1": "B", "q2": "true"},
			wantScore: 3, wantMax: 3, wantQ1: true, wantQ2: true,
		},
		{
			name:      "case and whitespace ignored",
			answers:   map[string]string{"q1": "  b ", "q2": "TRUE"},
			wantScore: 3, wantMax: 3, wantQ1: true, wantQ2: true,
		},
		{
			name:      "partially correct",
			answers:   map[string]string{"q1": "A", "q2": "true"},
			wantScore: 1, wantMax: 3, wantQ1: false, wantQ2: true,
		},
		{
			name:      "unanswered earns zero",
			answers:   map[string]string{"q2": "false"},
			wantScore: 0, wantMax: 3, wantQ1: false, wantQ2: false,
		},
		{
			name:      "no answers at all",
			answers:   map[string]string{},
			wantScore: 0, wantMax: 3, wantQ1: false, wantQ2: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(questions, tt.answers)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.MaxScore != tt.wantMax {
				t.Errorf("MaxScore = %d, want %d", got.MaxScore, tt.wantMax)
			}
			if len(got.Breakdown) != 2 {
				t.Fatalf("Breakdown has %d entries, want 2", len(got.Breakdown))
			}
			if got.Breakdown[0].Correct != tt.wantQ1 {
				t.Errorf("q1 correct = %v, want %v", got.Breakdown[0].Correct, tt.wantQ1)
			}
			if got.Breakdown[1].Correct != tt.wantQ2 {
				t.Errorf("q2 correct = %v, want %v", got.Breakdown[1].Correct, tt.wantQ2)
			}
		})
	}
}

func TestGradeDeterministic(t *testing.T) {
	questions := []Question{
		{ID: "q1", Type: MultipleChoice, Marks: 2, Correct: "b"},
		{ID: "q2", Type: MultipleChoice, Marks: 3, Correct: "d"},
		{ID: "q3", Type: TrueFalse, Marks: 1, Correct: "false"},
	}
	answers := map[string]string{"q1": "B", "q2": "a", "q3": "false"}

	first := Grade(questions, answers)
	second := Grade(questions, answers)

	if first.Score != second.Score || first.MaxScore != second.MaxScore {
		t.Fatalf("repeated grading diverged: %+v vs %+v", first, second)
	}
	for i := range first.Breakdown {
		if first.Breakdown[i] != second.Breakdown[i] {
			t.Errorf("breakdown[%d] diverged: %+v vs %+v", i, first.Breakdown[i], second.Breakdown[i])
		}
	}
	if first.Breakdown[0].Earned != 2 || first.Breakdown[1].Earned != 0 || first.Breakdown[2].Earned != 1 {
		t.Errorf("unexpected earned marks: %+v", first.Breakdown)
	}
}

func TestRescale(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		maxScore int
		target   int
		want     int
		wantMax  int
	}{
		{name: "scales up with rounding", score: 3, maxScore: 4, target: 10, want: 8, wantMax: 10},
		{name: "rounds half up", score: 1, maxScore: 4, target: 10, want: 3, wantMax: 10},
		{name: "full score maps to target", score: 4, maxScore: 4, target: 100, want: 100, wantMax: 100},
		{name: "zero stays zero", score: 0, maxScore: 4, target: 10, want: 0, wantMax: 10},
		{name: "no target passes through", score: 3, maxScore: 4, target: 0, want: 3, wantMax: 4},
		{name: "empty exam passes through", score: 0, maxScore: 0, target: 10, want: 0, wantMax: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotMax := Rescale(tt.score, tt.maxScore, tt.target)
			if got != tt.want || gotMax != tt.wantMax {
				t.Errorf("Rescale(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.score, tt.maxScore, tt.target, got, gotMax, tt.want, tt.wantMax)
			}
		})
	}
}

func TestOverlayManual(t *testing.T) {
	breakdown := []BreakdownItem{
		{QuestionID: "q1", Marks: 2, Earned: 2, Correct: true},
		{QuestionID: "q2", Marks: 3, Earned: 0, Correct: false},
		{QuestionID: "q3", Marks: 1, Earned: 0, Correct: false},
	}

	got, score := OverlayManual(breakdown, map[string]int{
		"q2":   2,  // partial credit
		"q3":   5,  // clamped to marks
		"gone": 99, // question no longer exists, dropped
	})

	if score != 5 {
		t.Errorf("score = %d, want 5", score)
	}
	if got[0].Manual {
		t.Error("q1 must not be marked manual")
	}
	if !got[1].Manual || got[1].Earned != 2 || got[1].Correct {
		t.Errorf("q2 overlay wrong: %+v", got[1])
	}
	if !got[2].Manual || got[2].Earned != 1 || !got[2].Correct {
		t.Errorf("q3 must clamp to full marks: %+v", got[2])
	}
}

func TestOverlaySurvivesRegrade(t *testing.T) {
	questions := []Question{
		{ID: "q1", Type: MultipleChoice, Marks: 2, Correct: "a"},
		{ID: "q2", Type: MultipleChoice, Marks: 2, Correct: "b"},
	}
	answers := map[string]string{"q1": "a", "q2": "c"}
	manual := map[string]int{"q2": 1}

	for i := 0; i < 3; i++ {
		res := Grade(questions, answers)
		breakdown, score := OverlayManual(res.Breakdown, manual)
		if score != 3 {
			t.Fatalf("run %d: score = %d, want 3", i, score)
		}
		if !breakdown[1].Manual || breakdown[1].Earned != 1 {
			t.Fatalf("run %d: manual entry lost: %+v", i, breakdown[1])
		}
	}
}
