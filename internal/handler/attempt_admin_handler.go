package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/provexa/exam-backend/internal/middleware"
	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/response"
	"github.com/provexa/exam-backend/internal/service"
	"github.com/provexa/exam-backend/internal/validator"
)

// AttemptAdminHandler handles admin interventions on attempts.
type AttemptAdminHandler struct {
	attemptService *service.AttemptService
	resultService  *service.ResultService
}

// NewAttemptAdminHandler creates a new AttemptAdminHandler.
func NewAttemptAdminHandler(attemptService *service.AttemptService, resultService *service.ResultService) *AttemptAdminHandler {
	return &AttemptAdminHandler{attemptService: attemptService, resultService: resultService}
}

// UnlockAttempt godoc
// POST /api/v1/admin/attempts/:attempt_id/unlock
// Returns a locked attempt to the student. Also clears the session lock on
// any other attempt, recovering students whose tab lost the token.
func (h *AttemptAdminHandler) UnlockAttempt(c *gin.Context) {
	h.intervene(c, h.attemptService.Unlock)
}

// TerminateAttempt godoc
// POST /api/v1/admin/attempts/:attempt_id/terminate
// Locks a running attempt on the admin's authority.
func (h *AttemptAdminHandler) TerminateAttempt(c *gin.Context) {
	h.intervene(c, h.attemptService.Terminate)
}

// ResetAttempt godoc
// POST /api/v1/admin/attempts/:attempt_id/reset
// Wipes an attempt back to NOT_STARTED. Refused for submitted attempts with
// stored answers.
func (h *AttemptAdminHandler) ResetAttempt(c *gin.Context) {
	h.intervene(c, h.attemptService.Reset)
}

// intervene runs one admin transition on an attempt and replies with the
// resulting state.
func (h *AttemptAdminHandler) intervene(c *gin.Context, op func(ctx context.Context, adminID, attemptID uuid.UUID) (*model.Attempt, error)) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := op(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetAttemptResult godoc
// GET /api/v1/admin/attempts/:attempt_id/grading
// Returns the stored result with its per-question breakdown.
func (h *AttemptAdminHandler) GetAttemptResult(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.GetAttemptResult(c.Request.Context(), attemptID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ApplyManualGrades godoc
// PUT /api/v1/admin/attempts/:attempt_id/grading
// Overrides earned marks per question and regrades the attempt.
func (h *AttemptAdminHandler) ApplyManualGrades(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ManualGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.resultService.ApplyManualGrades(c.Request.Context(), claims.UserID, attemptID, req.Overrides)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
