package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
)

// Question errors.
var (
	ErrDuplicateQuestion   = errors.New("a question with the same prompt already exists in this exam")
	ErrMaxQuestionsReached = errors.New("the exam question limit has been reached")
)

// QuestionService handles answer-key management. Every mutation regrades
// the exam's submitted attempts, so stored results never drift from the
// current key.
type QuestionService struct {
	questions *repository.QuestionRepository
	exams     *repository.ExamRepository
	results   *ResultService
	audit     *AuditService
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questions *repository.QuestionRepository,
	exams *repository.ExamRepository,
	results *ResultService,
	audit *AuditService,
) *QuestionService {
	return &QuestionService{questions: questions, exams: exams, results: results, audit: audit}
}

// ListByExam returns the exam's questions in display order, answer keys
// included. Admin only.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	if _, err := s.loadExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.questions.ListByExam(ctx, examID)
}

// Get retrieves one question.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}

// Create validates and appends a question to the exam.
func (s *QuestionService) Create(ctx context.Context, adminID, examID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	if exam.MaxQuestions != nil {
		count, err := s.questions.CountByExam(ctx, examID)
		if err != nil {
			return nil, err
		}
		if count >= *exam.MaxQuestions {
			return nil, ErrMaxQuestionsReached
		}
	}

	dup, err := s.questions.PromptExists(ctx, examID, req.Prompt, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateQuestion
	}

	options, correct, err := model.ValidateAnswerKey(req.Type, req.Options, req.Correct)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:   examID,
		Type:     req.Type,
		Prompt:   req.Prompt,
		ImageURL: req.ImageURL,
		Options:  options,
		Correct:  model.EncodeChoice(correct),
		Marks:    req.Marks,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}

	s.regradeExam(ctx, adminID, examID, "create")
	return q, nil
}

// CreateBatch validates and appends several questions in one call.
func (s *QuestionService) CreateBatch(ctx context.Context, adminID, examID uuid.UUID, reqs []model.CreateQuestionRequest) ([]model.Question, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	count, err := s.questions.CountByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.MaxQuestions != nil && count+len(reqs) > *exam.MaxQuestions {
		return nil, ErrMaxQuestionsReached
	}

	batchPrompts := make(map[string]struct{}, len(reqs))
	questions := make([]model.Question, 0, len(reqs))
	for i := range reqs {
		req := &reqs[i]

		key := model.NormalizeChoice(req.Prompt)
		if _, dup := batchPrompts[key]; dup {
			return nil, ErrDuplicateQuestion
		}
		batchPrompts[key] = struct{}{}

		dup, err := s.questions.PromptExists(ctx, examID, req.Prompt, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, ErrDuplicateQuestion
		}

		options, correct, err := model.ValidateAnswerKey(req.Type, req.Options, req.Correct)
		if err != nil {
			return nil, err
		}

		questions = append(questions, model.Question{
			Type:     req.Type,
			Prompt:   req.Prompt,
			ImageURL: req.ImageURL,
			Options:  options,
			Correct:  model.EncodeChoice(correct),
			Marks:    req.Marks,
		})
	}

	created, err := s.questions.CreateBatch(ctx, examID, questions)
	if err != nil {
		return nil, err
	}

	s.regradeExam(ctx, adminID, examID, "bulk_create")
	return created, nil
}

// Update validates and applies changes to a question.
func (s *QuestionService) Update(ctx context.Context, adminID, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != "" {
		q.Type = req.Type
	}
	if req.Prompt != "" {
		dup, err := s.questions.PromptExists(ctx, q.ExamID, req.Prompt, q.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, ErrDuplicateQuestion
		}
		q.Prompt = req.Prompt
	}
	if req.ImageURL != nil {
		q.ImageURL = req.ImageURL
	}
	if req.Marks != nil {
		q.Marks = *req.Marks
	}

	options := q.Options
	if req.Options != nil {
		options = req.Options
	}
	correct := q.CorrectChoice()
	if req.Correct != "" {
		correct = req.Correct
	}
	options, normalized, err := model.ValidateAnswerKey(q.Type, options, correct)
	if err != nil {
		return nil, err
	}
	q.Options = options
	q.Correct = model.EncodeChoice(normalized)

	if err := s.questions.Update(ctx, q); err != nil {
		return nil, err
	}

	s.regradeExam(ctx, adminID, q.ExamID, "update")
	return q, nil
}

// Delete removes a question along with its stored answers.
func (s *QuestionService) Delete(ctx context.Context, adminID, id uuid.UUID) error {
	q, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.questions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrQuestionNotFound
	}

	s.regradeExam(ctx, adminID, q.ExamID, "delete")
	return nil
}

// Reorder rewrites the exam's question display order. Stored breakdowns
// follow display order, so a regrade runs afterwards like any other
// answer-key mutation.
func (s *QuestionService) Reorder(ctx context.Context, adminID, examID uuid.UUID, ids []uuid.UUID) ([]model.Question, error) {
	if _, err := s.loadExam(ctx, examID); err != nil {
		return nil, err
	}
	if err := s.questions.Reorder(ctx, examID, ids); err != nil {
		return nil, err
	}

	s.regradeExam(ctx, adminID, examID, "reorder")
	return s.questions.ListByExam(ctx, examID)
}

func (s *QuestionService) loadExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	return exam, err
}

// regradeExam reruns result generation after an answer-key mutation. A
// regrade failure does not undo the mutation; it is logged for a manual
// rerun through the results endpoint.
func (s *QuestionService) regradeExam(ctx context.Context, adminID, examID uuid.UUID, change string) {
	summary, err := s.results.Regenerate(ctx, nil, examID)
	if err != nil {
		log.Error().Err(err).Str("exam_id", examID.String()).Msg("Regrade after question change failed")
		return
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:  model.AuditQuestionChange,
		ActorID: &adminID,
		ExamID:  &examID,
		Meta: map[string]interface{}{
			"change":   change,
			"regraded": summary.Regenerated,
			"failed":   summary.Failed,
		},
	})
}
