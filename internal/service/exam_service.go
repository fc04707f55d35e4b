package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
)

// ExamService handles exam administration and the student exam listing.
type ExamService struct {
	exams       *repository.ExamRepository
	assignments *repository.AssignmentRepository
	questions   *repository.QuestionRepository
	attempts    *repository.AttemptRepository
	results     *repository.ResultRepository
	auth        *AuthService
	audit       *AuditService
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams *repository.ExamRepository,
	assignments *repository.AssignmentRepository,
	questions *repository.QuestionRepository,
	attempts *repository.AttemptRepository,
	results *repository.ResultRepository,
	auth *AuthService,
	audit *AuditService,
) *ExamService {
	return &ExamService{
		exams:       exams,
		assignments: assignments,
		questions:   questions,
		attempts:    attempts,
		results:     results,
		auth:        auth,
		audit:       audit,
	}
}

// Get retrieves one exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	return exam, err
}

// List retrieves exams with pagination.
func (s *ExamService) List(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	return s.exams.ListPaginated(ctx, limit, offset)
}

// ListForStudent returns the active exams assigned to a student.
func (s *ExamService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Exam, error) {
	return s.exams.ListAssignedActive(ctx, studentID)
}

// Create creates a new exam. The entry password is stored as a bcrypt hash.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	hash, err := s.auth.HashPassword(req.ExamPassword)
	if err != nil {
		return nil, err
	}

	exam := &model.Exam{
		Title:           req.Title,
		AcademicYear:    req.AcademicYear,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
		MaxQuestions:    req.MaxQuestions,
		TotalMarks:      req.TotalMarks,
		PasswordHash:    hash,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Update applies the non-empty fields of the request to an exam.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.AcademicYear != "" {
		exam.AcademicYear = req.AcademicYear
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.MaxQuestions != nil {
		exam.MaxQuestions = req.MaxQuestions
	}
	if req.TotalMarks != nil {
		exam.TotalMarks = req.TotalMarks
	}
	if req.ExamPassword != "" {
		hash, err := s.auth.HashPassword(req.ExamPassword)
		if err != nil {
			return nil, err
		}
		exam.PasswordHash = hash
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Delete removes an exam and everything hanging off it.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.exams.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrExamNotFound
	}
	return nil
}

// AssignStudents adds students to an exam roster. Already-assigned students
// are skipped; returns the number of new assignments.
func (s *ExamService) AssignStudents(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (int64, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return 0, err
	}
	return s.assignments.Assign(ctx, examID, studentIDs)
}

// UnassignStudent removes a student from the exam roster. Returns false when
// the student was not assigned.
func (s *ExamService) UnassignStudent(ctx context.Context, examID, studentID uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return false, err
	}
	return s.assignments.Unassign(ctx, examID, studentID)
}

// SetResultsPublished flips result visibility for students.
func (s *ExamService) SetResultsPublished(ctx context.Context, adminID, examID uuid.UUID, published bool) (*model.Exam, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := s.exams.SetResultsPublished(ctx, examID, published); err != nil {
		return nil, err
	}
	exam.ResultsPublished = published

	action := model.AuditResultsHide
	if published {
		action = model.AuditResultsPublish
	}
	s.audit.Record(ctx, model.AuditEvent{Action: action, ActorID: &adminID, ExamID: &examID})
	return exam, nil
}

// ResultsSummary is the admin's per-exam results overview.
type ResultsSummary struct {
	Exam          *model.Exam       `json:"exam"`
	QuestionCount int               `json:"question_count"`
	Rows          []model.ResultRow `json:"rows"`
}

// ResultsSummary returns every attempt of the exam with its result fields.
// Expired running attempts are settled first so the summary never shows an
// attempt that should already be submitted.
func (s *ExamService) ResultsSummary(ctx context.Context, examID uuid.UUID) (*ResultsSummary, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}

	if _, err := s.attempts.AutoSubmitExpired(ctx, examID); err != nil {
		return nil, err
	}

	count, err := s.questions.CountByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	rows, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return &ResultsSummary{Exam: exam, QuestionCount: count, Rows: rows}, nil
}
