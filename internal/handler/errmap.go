package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
	"github.com/provexa/exam-backend/internal/response"
	"github.com/provexa/exam-backend/internal/service"
)

// failDomain maps service errors onto the API error taxonomy. Unknown errors
// become a 500 without leaking their message.
func failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrAttemptNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrResultUnavailable):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssigned)
	case errors.Is(err, service.ErrWrongExamPassword):
		response.Fail(c, http.StatusForbidden, response.ErrWrongExamPassword)

	case errors.Is(err, service.ErrAttemptLockedByAdmin):
		response.Fail(c, http.StatusLocked, response.ErrAttemptLockedByAdmin)
	case errors.Is(err, service.ErrSessionConflict):
		response.Fail(c, http.StatusConflict, response.ErrSessionConflict)
	case errors.Is(err, service.ErrAttemptNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotInProgress)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, model.ErrAttemptNotResettable):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotResettable)
	case errors.Is(err, model.ErrAttemptHasAnswers):
		response.Fail(c, http.StatusConflict, response.ErrAttemptHasAnswers)

	case errors.Is(err, model.ErrMCQOptionsRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrMCQOptionsRequired)
	case errors.Is(err, model.ErrDuplicateChoices):
		response.Fail(c, http.StatusBadRequest, response.ErrDuplicateChoices)
	case errors.Is(err, model.ErrMCQCorrectRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrMCQCorrectRequired)
	case errors.Is(err, model.ErrTFCorrectRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrTFCorrectRequired)
	case errors.Is(err, service.ErrDuplicateQuestion):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateQuestion)
	case errors.Is(err, service.ErrMaxQuestionsReached):
		response.Fail(c, http.StatusConflict, response.ErrMaxQuestionsReached)
	case errors.Is(err, repository.ErrReorderMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)

	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// attemptToken reads the session-lock token presented by the exam tab.
func attemptToken(c *gin.Context) string {
	return c.GetHeader("X-Attempt-Token")
}
