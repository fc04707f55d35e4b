package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/provexa/exam-backend/internal/config"
	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
)

// MonitorService serves the proctoring view: a pull-based snapshot of every
// assigned student's attempt, polled by the admin dashboard.
type MonitorService struct {
	rdb       *redis.Client
	exams     *repository.ExamRepository
	attempts  *repository.AttemptRepository
	questions *repository.QuestionRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	rdb *redis.Client,
	exams *repository.ExamRepository,
	attempts *repository.AttemptRepository,
	questions *repository.QuestionRepository,
) *MonitorService {
	return &MonitorService{rdb: rdb, exams: exams, attempts: attempts, questions: questions}
}

// GetExamSessions builds the proctoring snapshot for one exam. Expired
// running attempts are settled in bulk first, so the snapshot never shows a
// student as still working past the deadline.
func (s *MonitorService) GetExamSessions(ctx context.Context, examID uuid.UUID) (*model.ExamSessionsSnapshot, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, err
	}

	autoSubmitted, err := s.attempts.AutoSubmitExpired(ctx, examID)
	if err != nil {
		return nil, err
	}

	questionCount, err := s.questions.CountByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.attempts.ListExamSessions(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range sessions {
		row := &sessions[i]
		if row.Status != nil && *row.Status == model.AttemptInProgress && row.StartedAt != nil {
			a := model.Attempt{Status: *row.Status, StartedAt: row.StartedAt}
			row.RemainingSeconds = a.RemainingSeconds(exam, now)
		}
	}
	s.fillViolationCounts(ctx, sessions)

	return &model.ExamSessionsSnapshot{
		Exam:          exam,
		QuestionCount: questionCount,
		AutoSubmitted: autoSubmitted,
		Sessions:      sessions,
		GeneratedAt:   now.UTC(),
	}, nil
}

// fillViolationCounts reads the live strike counters for running attempts
// in one round trip. Counter reads are best-effort: on Redis failure the
// snapshot ships with zero counts.
func (s *MonitorService) fillViolationCounts(ctx context.Context, sessions []model.ExamSessionRow) {
	var keys []string
	var idx []int
	for i := range sessions {
		if sessions[i].AttemptID != nil && sessions[i].Status != nil && *sessions[i].Status == model.AttemptInProgress {
			keys = append(keys, config.CacheKey.AttemptStrikesKey(sessions[i].AttemptID.String()))
			idx = append(idx, i)
		}
	}
	if len(keys) == 0 {
		return
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn().Err(err).Msg("Strike counter read failed")
		return
	}
	for j, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			sessions[idx[j]].ViolationCount = n
		}
	}
}
