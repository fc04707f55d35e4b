package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/provexa/exam-backend/internal/config"
	"github.com/provexa/exam-backend/internal/model"
)

// AuditService appends audit events. Events are queued in Redis and drained
// to PostgreSQL by the audit worker; recording is best-effort and never
// fails the operation being audited.
type AuditService struct {
	rdb *redis.Client
}

// NewAuditService creates a new AuditService.
func NewAuditService(rdb *redis.Client) *AuditService {
	return &AuditService{rdb: rdb}
}

// Record queues one audit event. Errors are logged and swallowed.
func (s *AuditService) Record(ctx context.Context, ev model.AuditEvent) {
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("action", ev.Action).Msg("Audit event marshal failed")
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAuditQueue, payload).Err(); err != nil {
		log.Warn().Err(err).Str("action", ev.Action).Msg("Audit event enqueue failed")
	}
}

// RecordAttempt queues an audit event scoped to one attempt.
func (s *AuditService) RecordAttempt(ctx context.Context, action string, actorID, examID, attemptID uuid.UUID, meta map[string]interface{}) {
	s.Record(ctx, model.AuditEvent{
		Action:    action,
		ActorID:   &actorID,
		ExamID:    &examID,
		AttemptID: &attemptID,
		Meta:      meta,
	})
}
