package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/provexa/exam-backend/internal/grading"
	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
)

// Result errors.
var (
	ErrResultUnavailable = errors.New("attempt has no result yet")
)

// ResultService generates and regenerates graded results. Regeneration is
// idempotent: grading is a pure function of the current answer key and the
// stored answers, with manual overrides overlaid afterwards, so rerunning it
// never changes a result unless its inputs changed.
type ResultService struct {
	attempts  *repository.AttemptRepository
	answers   *repository.AnswerRepository
	questions *repository.QuestionRepository
	results   *repository.ResultRepository
	exams     *repository.ExamRepository
	audit     *AuditService
}

// NewResultService creates a new ResultService.
func NewResultService(
	attempts *repository.AttemptRepository,
	answers *repository.AnswerRepository,
	questions *repository.QuestionRepository,
	results *repository.ResultRepository,
	exams *repository.ExamRepository,
	audit *AuditService,
) *ResultService {
	return &ResultService{
		attempts:  attempts,
		answers:   answers,
		questions: questions,
		results:   results,
		exams:     exams,
		audit:     audit,
	}
}

// RegenerationSummary reports one regeneration run over an exam.
type RegenerationSummary struct {
	Attempts    int `json:"attempts"`
	Regenerated int `json:"regenerated"`
	Failed      int `json:"failed"`
}

// Regenerate regrades every submitted attempt of the exam. A failure on one
// attempt is logged and skipped; the rest of the run continues.
func (s *ResultService) Regenerate(ctx context.Context, actorID *uuid.UUID, examID uuid.UUID) (*RegenerationSummary, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	key := toGradingQuestions(questions)

	attemptIDs, err := s.attempts.ListSubmittedIDs(ctx, examID)
	if err != nil {
		return nil, err
	}

	summary := &RegenerationSummary{Attempts: len(attemptIDs)}
	for _, attemptID := range attemptIDs {
		if _, err := s.regenerateOne(ctx, exam, key, attemptID, nil); err != nil {
			summary.Failed++
			log.Error().Err(err).
				Str("exam_id", examID.String()).
				Str("attempt_id", attemptID.String()).
				Msg("Result regeneration failed for attempt")
			continue
		}
		summary.Regenerated++
	}

	if actorID != nil {
		s.audit.Record(ctx, model.AuditEvent{
			Action:  model.AuditResultsGenerate,
			ActorID: actorID,
			ExamID:  &examID,
			Meta: map[string]interface{}{
				"attempts": summary.Attempts,
				"failed":   summary.Failed,
			},
		})
	}
	return summary, nil
}

// regenerateOne grades a single attempt and upserts its result. Manual
// breakdown entries from the previous result survive the regrade; extra
// overrides, when given, are merged on top of them.
func (s *ResultService) regenerateOne(ctx context.Context, exam *model.Exam, key []grading.Question, attemptID uuid.UUID, extra map[string]int) (*model.Result, error) {
	answers, err := s.answers.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	given := make(map[string]string, len(answers))
	for i := range answers {
		given[answers[i].QuestionID.String()] = answers[i].Choice()
	}

	manual := map[string]int{}
	previous, err := s.results.GetByAttempt(ctx, attemptID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if previous != nil {
		manual = previous.ManualEarned()
	}
	for qid, earned := range extra {
		manual[qid] = earned
	}

	graded := grading.Grade(key, given)
	breakdown, score := grading.OverlayManual(graded.Breakdown, manual)

	target := 0
	if exam.TotalMarks != nil {
		target = *exam.TotalMarks
	}
	score, maxScore := grading.Rescale(score, graded.MaxScore, target)

	return s.results.Upsert(ctx, attemptID, score, maxScore, breakdown)
}

// ApplyManualGrades overrides earned marks for individual questions of a
// submitted attempt and regrades it. Overrides persist through later
// regenerations until the question itself is removed.
func (s *ResultService) ApplyManualGrades(ctx context.Context, adminID, attemptID uuid.UUID, overrides map[string]int) (*model.Result, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptSubmitted {
		return nil, ErrResultUnavailable
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(questions))
	for i := range questions {
		known[questions[i].ID.String()] = struct{}{}
	}
	for qid := range overrides {
		if _, ok := known[qid]; !ok {
			return nil, ErrQuestionNotFound
		}
	}

	result, err := s.regenerateOne(ctx, exam, toGradingQuestions(questions), attemptID, overrides)
	if err != nil {
		return nil, err
	}

	s.audit.RecordAttempt(ctx, model.AuditManualGrade, adminID, attempt.ExamID, attemptID,
		map[string]interface{}{"overrides": len(overrides)})
	return result, nil
}

// GetAttemptResult returns the stored result for one attempt.
func (s *ResultService) GetAttemptResult(ctx context.Context, attemptID uuid.UUID) (*model.Result, error) {
	result, err := s.results.GetByAttempt(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultUnavailable
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListStudentResults returns the student's graded results for exams whose
// results are published.
func (s *ResultService) ListStudentResults(ctx context.Context, studentID uuid.UUID) ([]model.ResultRow, error) {
	return s.results.ListPublishedForStudent(ctx, studentID)
}

func toGradingQuestions(questions []model.Question) []grading.Question {
	key := make([]grading.Question, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		key = append(key, grading.Question{
			ID:      q.ID.String(),
			Type:    grading.QuestionType(q.Type),
			Marks:   q.Marks,
			Correct: q.CorrectChoice(),
		})
	}
	return key
}
