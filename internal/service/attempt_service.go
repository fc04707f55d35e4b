package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/provexa/exam-backend/internal/config"
	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
)

// Attempt lifecycle errors.
var (
	ErrExamNotFound         = errors.New("exam not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrNotAssigned          = errors.New("student is not assigned to this exam or the exam is inactive")
	ErrWrongExamPassword    = errors.New("wrong exam password")
	ErrAttemptLockedByAdmin = errors.New("attempt is locked")
	ErrSessionConflict      = errors.New("attempt is held by another exam tab")
	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
	ErrAlreadySubmitted     = errors.New("attempt is already submitted")
)

// AttemptService drives the attempt lifecycle: entry, answering, submission,
// proctoring violations and the admin interventions. Every read of a running
// attempt first settles the exam deadline, so expiry needs no background
// timer.
type AttemptService struct {
	cfg         *config.Config
	rdb         *redis.Client
	attempts    *repository.AttemptRepository
	answers     *repository.AnswerRepository
	exams       *repository.ExamRepository
	assignments *repository.AssignmentRepository
	questions   *repository.QuestionRepository
	auth        *AuthService
	audit       *AuditService
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	cfg *config.Config,
	rdb *redis.Client,
	attempts *repository.AttemptRepository,
	answers *repository.AnswerRepository,
	exams *repository.ExamRepository,
	assignments *repository.AssignmentRepository,
	questions *repository.QuestionRepository,
	auth *AuthService,
	audit *AuditService,
) *AttemptService {
	return &AttemptService{
		cfg:         cfg,
		rdb:         rdb,
		attempts:    attempts,
		answers:     answers,
		exams:       exams,
		assignments: assignments,
		questions:   questions,
		auth:        auth,
		audit:       audit,
	}
}

// EnterResult is the outcome of an exam entry. LockToken is set only when
// the caller now holds the attempt; it is empty for already-submitted
// attempts.
type EnterResult struct {
	Attempt   *model.Attempt `json:"attempt"`
	LockToken string         `json:"lock_token,omitempty"`
}

// AttemptState is the full state of a student's attempt, served on reload.
type AttemptState struct {
	Exam             *model.Exam      `json:"exam"`
	Questions        []model.Question `json:"questions"`
	Attempt          *model.Attempt   `json:"attempt"`
	Answers          []model.Answer   `json:"answers"`
	RemainingSeconds int              `json:"remaining_seconds"`
}

// ViolationOutcome reports the attempt state after a violation report.
type ViolationOutcome struct {
	Status  model.AttemptStatus `json:"status"`
	Strikes int64               `json:"strikes"`
	Limit   int                 `json:"limit"`
}

// Enter lets a student into an exam. On first entry it creates a running
// attempt; on re-entry it verifies the session lock and resumes. Entering a
// submitted attempt succeeds without a token so the client can show the
// finished screen.
func (s *AttemptService) Enter(ctx context.Context, studentID, examID uuid.UUID, password, presentedToken string) (*EnterResult, error) {
	exam, err := s.loadAssignedExam(ctx, studentID, examID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.CheckPassword(exam.PasswordHash, password); err != nil {
		return nil, ErrWrongExamPassword
	}

	attempt, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.enterFresh(ctx, studentID, exam)
	}
	if err != nil {
		return nil, err
	}

	return s.enterExisting(ctx, studentID, exam, attempt, presentedToken)
}

func (s *AttemptService) enterFresh(ctx context.Context, studentID uuid.UUID, exam *model.Exam) (*EnterResult, error) {
	raw, err := MintLockToken()
	if err != nil {
		return nil, err
	}

	attempt, created, err := s.attempts.CreateInProgress(ctx, exam.ID, studentID, HashLockToken(raw))
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the insert race: another tab entered first and holds the lock.
		existing, err := s.attempts.GetByExamAndStudent(ctx, exam.ID, studentID)
		if err != nil {
			return nil, err
		}
		return s.enterExisting(ctx, studentID, exam, existing, "")
	}

	s.audit.RecordAttempt(ctx, model.AuditEnterExam, studentID, exam.ID, attempt.ID, nil)
	return &EnterResult{Attempt: attempt, LockToken: raw}, nil
}

func (s *AttemptService) enterExisting(ctx context.Context, studentID uuid.UUID, exam *model.Exam, attempt *model.Attempt, presentedToken string) (*EnterResult, error) {
	if err := s.settleDeadline(ctx, exam, attempt); err != nil {
		return nil, err
	}

	switch attempt.Status {
	case model.AttemptSubmitted:
		return &EnterResult{Attempt: attempt}, nil
	case model.AttemptLocked:
		return nil, ErrAttemptLockedByAdmin
	}

	// IN_PROGRESS with a live lock: only the holder may re-enter.
	if attempt.Status == model.AttemptInProgress && attempt.LockTokenHash != nil {
		if !VerifyLockToken(*attempt.LockTokenHash, presentedToken) {
			return nil, ErrSessionConflict
		}
		resumed, err := s.attempts.Resume(ctx, attempt.ID, *attempt.LockTokenHash)
		if err != nil {
			return nil, err
		}
		return &EnterResult{Attempt: resumed, LockToken: presentedToken}, nil
	}

	// NOT_STARTED, or IN_PROGRESS with no lock (after an admin unlock):
	// mint a fresh token and take over.
	raw, err := MintLockToken()
	if err != nil {
		return nil, err
	}
	resumed, err := s.attempts.Resume(ctx, attempt.ID, HashLockToken(raw))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent transition moved the attempt out of a resumable state.
			return nil, ErrAttemptNotInProgress
		}
		return nil, err
	}

	s.audit.RecordAttempt(ctx, model.AuditEnterExam, studentID, exam.ID, resumed.ID, nil)
	return &EnterResult{Attempt: resumed, LockToken: raw}, nil
}

// GetState returns the student's full attempt state for an exam: the exam,
// its questions with answer keys stripped, the attempt and the stored
// answers. A valid lock token is required while the attempt is running.
func (s *AttemptService) GetState(ctx context.Context, studentID, examID uuid.UUID, presentedToken string) (*AttemptState, error) {
	exam, err := s.loadAssignedExam(ctx, studentID, examID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.settleDeadline(ctx, exam, attempt); err != nil {
		return nil, err
	}

	if attempt.Status == model.AttemptInProgress {
		if attempt.LockTokenHash == nil || !VerifyLockToken(*attempt.LockTokenHash, presentedToken) {
			return nil, ErrSessionConflict
		}
		if err := s.attempts.TouchLock(ctx, attempt.ID); err != nil {
			return nil, err
		}
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	views := make([]model.Question, 0, len(questions))
	for i := range questions {
		views = append(views, questions[i].StudentView())
	}

	answers, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	return &AttemptState{
		Exam:             exam,
		Questions:        views,
		Attempt:          attempt,
		Answers:          answers,
		RemainingSeconds: attempt.RemainingSeconds(exam, time.Now()),
	}, nil
}

// RecordAnswer upserts one answer for a running attempt. Last write wins.
func (s *AttemptService) RecordAnswer(ctx context.Context, studentID, attemptID uuid.UUID, presentedToken string, req *model.RecordAnswerRequest) (*model.Answer, error) {
	attempt, exam, err := s.loadOwnedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRunning(ctx, exam, attempt, presentedToken); err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(ctx, req.QuestionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	if question.ExamID != attempt.ExamID {
		return nil, ErrQuestionNotFound
	}

	flagged := req.Flagged != nil && *req.Flagged
	return s.answers.Upsert(ctx, attempt.ID, question.ID, model.EncodeChoice(req.Choice), flagged)
}

// Submit finalizes a running attempt. Submitting an already-submitted
// attempt is a no-op success.
func (s *AttemptService) Submit(ctx context.Context, studentID, attemptID uuid.UUID, presentedToken string) (*model.Attempt, error) {
	attempt, exam, err := s.loadOwnedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.settleDeadline(ctx, exam, attempt); err != nil {
		return nil, err
	}

	switch attempt.Status {
	case model.AttemptSubmitted:
		return attempt, nil
	case model.AttemptLocked:
		return nil, ErrAttemptLockedByAdmin
	case model.AttemptNotStarted:
		return nil, ErrAttemptNotInProgress
	}

	if attempt.LockTokenHash == nil || !VerifyLockToken(*attempt.LockTokenHash, presentedToken) {
		return nil, ErrSessionConflict
	}

	now := time.Now()
	taken := int(now.Sub(*attempt.StartedAt) / time.Second)
	maxTaken := exam.DurationMinutes * 60
	if taken > maxTaken {
		taken = maxTaken
	}

	ok, err := s.attempts.MarkSubmitted(ctx, attempt.ID, now, taken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.resolveLostSubmit(ctx, attempt.ID)
	}

	s.clearStrikes(ctx, attempt.ID)
	s.audit.RecordAttempt(ctx, model.AuditSubmitAttempt, studentID, exam.ID, attempt.ID,
		map[string]interface{}{"trigger": "student"})

	return s.attempts.GetByID(ctx, attempt.ID)
}

// resolveLostSubmit maps a lost submit race to the winner's outcome.
func (s *AttemptService) resolveLostSubmit(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	current, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case model.AttemptSubmitted:
		return current, nil
	case model.AttemptLocked:
		return nil, ErrAttemptLockedByAdmin
	}
	return nil, ErrAttemptNotInProgress
}

// ReportViolation records one proctoring violation. Below the configured
// strike limit the attempt keeps running; at the limit it is locked with the
// violation kind as the reason. Reporting against an already-locked attempt
// is an idempotent success.
func (s *AttemptService) ReportViolation(ctx context.Context, studentID, attemptID uuid.UUID, presentedToken, kind string) (*ViolationOutcome, error) {
	attempt, exam, err := s.loadOwnedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.settleDeadline(ctx, exam, attempt); err != nil {
		return nil, err
	}

	switch attempt.Status {
	case model.AttemptSubmitted:
		return nil, ErrAlreadySubmitted
	case model.AttemptLocked:
		return &ViolationOutcome{Status: model.AttemptLocked, Limit: s.cfg.ViolationStrikeLimit}, nil
	case model.AttemptNotStarted:
		return nil, ErrAttemptNotInProgress
	}

	if attempt.LockTokenHash == nil || !VerifyLockToken(*attempt.LockTokenHash, presentedToken) {
		return nil, ErrSessionConflict
	}

	// The strike counter lives server-side; the client only names the kind.
	strikesKey := config.CacheKey.AttemptStrikesKey(attemptID.String())
	strikes, err := s.rdb.Incr(ctx, strikesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("count violation: %w", err)
	}
	if strikes == 1 {
		// Scope the counter to the longest an attempt can run.
		ttl := time.Duration(exam.DurationMinutes)*time.Minute + time.Hour
		if err := s.rdb.Expire(ctx, strikesKey, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Strike counter TTL not set")
		}
	}

	s.audit.RecordAttempt(ctx, model.AuditViolation, studentID, exam.ID, attemptID,
		map[string]interface{}{"kind": kind, "strikes": strikes})

	if strikes < int64(s.cfg.ViolationStrikeLimit) {
		return &ViolationOutcome{Status: model.AttemptInProgress, Strikes: strikes, Limit: s.cfg.ViolationStrikeLimit}, nil
	}

	ok, err := s.attempts.MarkLocked(ctx, attemptID, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.attempts.GetByID(ctx, attemptID)
		if err != nil {
			return nil, err
		}
		if current.Status == model.AttemptSubmitted {
			return nil, ErrAlreadySubmitted
		}
		return &ViolationOutcome{Status: current.Status, Strikes: strikes, Limit: s.cfg.ViolationStrikeLimit}, nil
	}

	s.audit.RecordAttempt(ctx, model.AuditAutoLock, studentID, exam.ID, attemptID,
		map[string]interface{}{"kind": kind, "strikes": strikes})

	return &ViolationOutcome{Status: model.AttemptLocked, Strikes: strikes, Limit: s.cfg.ViolationStrikeLimit}, nil
}

// Unlock returns a locked attempt to the student. For every other status it
// still wipes the session-lock bookkeeping, so a student whose tab lost the
// raw token gets back in with a freshly minted one on the next entry.
func (s *AttemptService) Unlock(ctx context.Context, adminID, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.attempts.Unlock(ctx, attemptID); err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptLocked {
		s.clearStrikes(ctx, attemptID)
	}

	s.audit.RecordAttempt(ctx, model.AuditAdminUnlock, adminID, attempt.ExamID, attemptID, nil)
	return s.attempts.GetByID(ctx, attemptID)
}

// Terminate locks a running attempt on the admin's authority. Terminating an
// already-locked attempt is an idempotent success.
func (s *AttemptService) Terminate(ctx context.Context, adminID, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	if err := s.settleDeadline(ctx, exam, attempt); err != nil {
		return nil, err
	}

	switch attempt.Status {
	case model.AttemptSubmitted:
		return nil, ErrAlreadySubmitted
	case model.AttemptLocked:
		return attempt, nil
	case model.AttemptNotStarted:
		return nil, ErrAttemptNotInProgress
	}

	ok, err := s.attempts.MarkLocked(ctx, attemptID, model.LockReasonAdminTerminate)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.attempts.GetByID(ctx, attemptID)
		if err != nil {
			return nil, err
		}
		if current.Status == model.AttemptSubmitted {
			return nil, ErrAlreadySubmitted
		}
		return current, nil
	}

	s.audit.RecordAttempt(ctx, model.AuditAdminTerminate, adminID, attempt.ExamID, attemptID, nil)
	return s.attempts.GetByID(ctx, attemptID)
}

// Reset wipes an attempt back to NOT_STARTED so the student can start over.
// Only locked attempts and submitted attempts without answers qualify.
func (s *AttemptService) Reset(ctx context.Context, adminID, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	prevStatus := attempt.Status

	if err := s.attempts.Reset(ctx, attemptID); err != nil {
		return nil, err
	}
	s.clearStrikes(ctx, attemptID)

	s.audit.RecordAttempt(ctx, model.AuditAdminReset, adminID, attempt.ExamID, attemptID,
		map[string]interface{}{"previous_status": prevStatus})
	return s.attempts.GetByID(ctx, attemptID)
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *AttemptService) loadAssignedExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, err
	}

	assigned, err := s.assignments.IsAssigned(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if !assigned || !exam.IsActive {
		return nil, ErrNotAssigned
	}
	return exam, nil
}

func (s *AttemptService) loadOwnedAttempt(ctx context.Context, studentID, attemptID uuid.UUID) (*model.Attempt, *model.Exam, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	// Ownership failures look identical to missing attempts.
	if attempt.StudentID != studentID {
		return nil, nil, ErrAttemptNotFound
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, exam, nil
}

// settleDeadline finalizes the attempt if its deadline has passed, pinning
// the submission instant to the deadline. The attempt is mutated in place to
// the settled state.
func (s *AttemptService) settleDeadline(ctx context.Context, exam *model.Exam, attempt *model.Attempt) error {
	if !attempt.DeadlineDue(exam, time.Now()) {
		return nil
	}

	deadline := exam.Deadline(*attempt.StartedAt)
	ok, err := s.attempts.MarkSubmitted(ctx, attempt.ID, deadline, exam.DurationMinutes*60)
	if err != nil {
		return err
	}
	if ok {
		s.clearStrikes(ctx, attempt.ID)
		s.audit.RecordAttempt(ctx, model.AuditAutoSubmit, attempt.StudentID, exam.ID, attempt.ID,
			map[string]interface{}{"trigger": "deadline"})
		attempt.ApplyAutoSubmit(exam)
		return nil
	}

	// A concurrent transition settled the row first; adopt its outcome.
	current, err := s.attempts.GetByID(ctx, attempt.ID)
	if err != nil {
		return err
	}
	*attempt = *current
	return nil
}

func (s *AttemptService) requireRunning(ctx context.Context, exam *model.Exam, attempt *model.Attempt, presentedToken string) error {
	if err := s.settleDeadline(ctx, exam, attempt); err != nil {
		return err
	}
	switch attempt.Status {
	case model.AttemptLocked:
		return ErrAttemptLockedByAdmin
	case model.AttemptSubmitted, model.AttemptNotStarted:
		return ErrAttemptNotInProgress
	}
	if attempt.LockTokenHash == nil || !VerifyLockToken(*attempt.LockTokenHash, presentedToken) {
		return ErrSessionConflict
	}
	return nil
}

func (s *AttemptService) clearStrikes(ctx context.Context, attemptID uuid.UUID) {
	key := config.CacheKey.AttemptStrikesKey(attemptID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Strike counter cleanup failed")
	}
}
