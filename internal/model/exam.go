package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents an exam entity. The password hash gates student entry;
// TotalMarks, when set, is the rescaling target for generated results.
type Exam struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	AcademicYear     string    `json:"academic_year"`
	DurationMinutes  int       `json:"duration_minutes"`
	IsActive         bool      `json:"is_active"`
	ResultsPublished bool      `json:"results_published"`
	MaxQuestions     *int      `json:"max_questions,omitempty"`
	TotalMarks       *int      `json:"total_marks,omitempty"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Deadline returns the wall-clock instant at which an attempt started at
// startedAt must be auto-submitted.
func (e *Exam) Deadline(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	AcademicYear    string `json:"academic_year" binding:"required,min=4,max=20"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	ExamPassword    string `json:"exam_password" binding:"required,min=4,max=100"`
	MaxQuestions    *int   `json:"max_questions" binding:"omitempty,min=1"`
	TotalMarks      *int   `json:"total_marks" binding:"omitempty,min=1"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	AcademicYear    string `json:"academic_year" binding:"omitempty,min=4,max=20"`
	DurationMinutes *int   `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	IsActive        *bool  `json:"is_active" binding:"omitempty"`
	ExamPassword    string `json:"exam_password" binding:"omitempty,min=4,max=100"`
	MaxQuestions    *int   `json:"max_questions" binding:"omitempty,min=1"`
	TotalMarks      *int   `json:"total_marks" binding:"omitempty,min=1"`
}

// AssignStudentsRequest is the payload for assigning students to an exam.
type AssignStudentsRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids" binding:"required,min=1,dive,required"`
}
