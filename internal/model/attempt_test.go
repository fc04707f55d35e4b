package model

import (
	"errors"
	"testing"
	"time"
)

func testExam(durationMinutes int) *Exam {
	return &Exam{DurationMinutes: durationMinutes}
}

func TestDeadlineDue(t *testing.T) {
	started := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	exam := testExam(60)

	tests := []struct {
		name    string
		attempt Attempt
		now     time.Time
		want    bool
	}{
		{
			name:    "running before deadline",
			attempt: Attempt{Status: AttemptInProgress, StartedAt: &started},
			now:     started.Add(59 * time.Minute),
			want:    false,
		},
		{
			name:    "running exactly at deadline",
			attempt: Attempt{Status: AttemptInProgress, StartedAt: &started},
			now:     started.Add(60 * time.Minute),
			want:    true,
		},
		{
			name:    "running past deadline",
			attempt: Attempt{Status: AttemptInProgress, StartedAt: &started},
			now:     started.Add(2 * time.Hour),
			want:    true,
		},
		{
			name:    "submitted attempts never expire",
			attempt: Attempt{Status: AttemptSubmitted, StartedAt: &started},
			now:     started.Add(2 * time.Hour),
			want:    false,
		},
		{
			name:    "locked attempts never expire",
			attempt: Attempt{Status: AttemptLocked, StartedAt: &started},
			now:     started.Add(2 * time.Hour),
			want:    false,
		},
		{
			name:    "not started has no deadline",
			attempt: Attempt{Status: AttemptNotStarted},
			now:     started.Add(2 * time.Hour),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.attempt.DeadlineDue(exam, tt.now); got != tt.want {
				t.Errorf("DeadlineDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyAutoSubmitPinsDeadline(t *testing.T) {
	started := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	exam := testExam(45)
	hash := "abc"
	attempt := Attempt{Status: AttemptInProgress, StartedAt: &started, LockTokenHash: &hash}

	attempt.ApplyAutoSubmit(exam)

	if attempt.Status != AttemptSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", attempt.Status)
	}
	wantSubmitted := started.Add(45 * time.Minute)
	if !attempt.SubmittedAt.Equal(wantSubmitted) {
		t.Errorf("submitted_at = %v, want %v", attempt.SubmittedAt, wantSubmitted)
	}
	if *attempt.TimeTakenSeconds != 45*60 {
		t.Errorf("time_taken_seconds = %d, want %d", *attempt.TimeTakenSeconds, 45*60)
	}
	if attempt.LockTokenHash != nil {
		t.Error("lock token hash must be cleared on submit")
	}
}

func TestRemainingSeconds(t *testing.T) {
	started := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	exam := testExam(30)
	attempt := Attempt{Status: AttemptInProgress, StartedAt: &started}

	if got := attempt.RemainingSeconds(exam, started.Add(10*time.Minute)); got != 20*60 {
		t.Errorf("remaining = %d, want %d", got, 20*60)
	}
	if got := attempt.RemainingSeconds(exam, started.Add(31*time.Minute)); got != 0 {
		t.Errorf("remaining after deadline = %d, want 0", got)
	}

	attempt.Status = AttemptSubmitted
	if got := attempt.RemainingSeconds(exam, started); got != 0 {
		t.Errorf("remaining for submitted = %d, want 0", got)
	}
}

func TestResettable(t *testing.T) {
	tests := []struct {
		name    string
		status  AttemptStatus
		answers int
		wantErr error
	}{
		{name: "locked is resettable", status: AttemptLocked, answers: 12},
		{name: "submitted without answers is resettable", status: AttemptSubmitted, answers: 0},
		{name: "submitted with answers is protected", status: AttemptSubmitted, answers: 3, wantErr: ErrAttemptHasAnswers},
		{name: "in progress is not resettable", status: AttemptInProgress, wantErr: ErrAttemptNotResettable},
		{name: "not started is not resettable", status: AttemptNotStarted, wantErr: ErrAttemptNotResettable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Attempt{Status: tt.status}
			if err := a.Resettable(tt.answers); !errors.Is(err, tt.wantErr) {
				t.Errorf("Resettable(%d) = %v, want %v", tt.answers, err, tt.wantErr)
			}
		})
	}
}
