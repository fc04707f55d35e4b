package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/provexa/exam-backend/internal/middleware"
	"github.com/provexa/exam-backend/internal/model"
	"github.com/provexa/exam-backend/internal/repository"
	"github.com/provexa/exam-backend/internal/response"
	"github.com/provexa/exam-backend/internal/service"
)

// StudentManagementHandler handles admin operations on student accounts.
type StudentManagementHandler struct {
	users        *repository.UserRepository
	authService  *service.AuthService
	auditService *service.AuditService
}

// NewStudentManagementHandler creates a new StudentManagementHandler.
func NewStudentManagementHandler(users *repository.UserRepository, authService *service.AuthService, auditService *service.AuditService) *StudentManagementHandler {
	return &StudentManagementHandler{users: users, authService: authService, auditService: auditService}
}

// ListStudents godoc
// GET /api/v1/admin/students
// Lists student accounts with pagination, for roster assignment.
func (h *StudentManagementHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 25
	}

	students, total, err := h.users.ListStudentsPaginated(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	})
}

// ResetStudentSession godoc
// POST /api/v1/admin/students/:student_id/reset-session
// Clears the student's single-device session so they can log in again.
func (h *StudentManagementHandler) ResetStudentSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), studentID)
	if err != nil || user.Role != model.RoleStudent {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), studentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.auditService.Record(c.Request.Context(), model.AuditEvent{
		Action:       model.AuditSessionReset,
		ActorID:      &claims.UserID,
		TargetUserID: &studentID,
	})

	response.Success(c, http.StatusOK, gin.H{"message": "session reset"})
}
