package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/provexa/exam-backend/internal/middleware"
	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/response"
	"github.com/provexa/exam-backend/internal/service"
	"github.com/provexa/exam-backend/internal/validator"
)

// ExamHandler handles admin exam management endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	resultService  *service.ResultService
	monitorService *service.MonitorService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	examService *service.ExamService,
	resultService *service.ResultService,
	monitorService *service.MonitorService,
) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		resultService:  resultService,
		monitorService: monitorService,
	}
}

// ListExams godoc
// GET /api/v1/admin/exams
// Lists exams with pagination.
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	exams, total, err := h.examService.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	})
}

// GetExam godoc
// GET /api/v1/admin/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:exam_id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), examID, &req)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:exam_id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted"})
}

// AssignStudents godoc
// POST /api/v1/admin/exams/:exam_id/assign
// Adds students to the exam roster; already-assigned students are skipped.
func (h *ExamHandler) AssignStudents(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AssignStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assigned, err := h.examService.AssignStudents(c.Request.Context(), examID, req.StudentIDs)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assigned": assigned})
}

// UnassignStudent godoc
// DELETE /api/v1/admin/exams/:exam_id/assign/:student_id
// Removes a student from the exam roster.
func (h *ExamHandler) UnassignStudent(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	removed, err := h.examService.UnassignStudent(c.Request.Context(), examID, studentID)
	if err != nil {
		failDomain(c, err)
		return
	}
	if !removed {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student unassigned"})
}

// GetExamSessions godoc
// GET /api/v1/admin/exams/:exam_id/sessions
// The proctoring snapshot: every assigned student with attempt state,
// answer progress, remaining time and live violation counts.
func (h *ExamHandler) GetExamSessions(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snapshot, err := h.monitorService.GetExamSessions(c.Request.Context(), examID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, snapshot)
}

// GetResultsSummary godoc
// GET /api/v1/admin/exams/:exam_id/results
func (h *ExamHandler) GetResultsSummary(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.examService.ResultsSummary(c.Request.Context(), examID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// RegenerateResults godoc
// POST /api/v1/admin/exams/:exam_id/results/generate
// Regrades every submitted attempt of the exam against the current key.
func (h *ExamHandler) RegenerateResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.resultService.Regenerate(c.Request.Context(), &claims.UserID, examID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// PublishResults godoc
// POST /api/v1/admin/exams/:exam_id/results/publish
func (h *ExamHandler) PublishResults(c *gin.Context) {
	h.setResultsPublished(c, true)
}

// HideResults godoc
// POST /api/v1/admin/exams/:exam_id/results/hide
func (h *ExamHandler) HideResults(c *gin.Context) {
	h.setResultsPublished(c, false)
}

func (h *ExamHandler) setResultsPublished(c *gin.Context, published bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.SetResultsPublished(c.Request.Context(), claims.UserID, examID, published)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}
