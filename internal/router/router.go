package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/provexa/exam-backend/internal/config"
	"github.com/provexa/exam-backend/internal/handler"
	"github.com/provexa/exam-backend/internal/middleware"
	"github.com/provexa/exam-backend/internal/response"
	"github.com/provexa/exam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	Exam          *handler.ExamHandler
	Question      *handler.QuestionHandler
	AttemptAdmin  *handler.AttemptAdminHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Attempt-Token"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth and exam entry (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.StudentPortal.ListExams)
		studentAPI.POST("/exams/:exam_id/enter", authLimiter.Middleware(), handlers.StudentPortal.EnterExam)
		studentAPI.GET("/exams/:exam_id/attempt", handlers.StudentPortal.GetAttemptState)
		studentAPI.PUT("/attempts/:attempt_id/answer", handlers.StudentPortal.RecordAnswer)
		studentAPI.POST("/attempts/:attempt_id/submit", handlers.StudentPortal.SubmitAttempt)
		studentAPI.POST("/attempts/:attempt_id/violation", handlers.StudentPortal.ReportViolation)
		studentAPI.GET("/results", handlers.StudentPortal.ListResults)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Exam management
		adminAPI.GET("/exams", handlers.Exam.ListExams)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		adminAPI.PUT("/exams/:exam_id", handlers.Exam.UpdateExam)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		adminAPI.POST("/exams/:exam_id/assign", handlers.Exam.AssignStudents)
		adminAPI.DELETE("/exams/:exam_id/assign/:student_id", handlers.Exam.UnassignStudent)

		// Proctoring view
		adminAPI.GET("/exams/:exam_id/sessions", handlers.Exam.GetExamSessions)

		// Results
		adminAPI.GET("/exams/:exam_id/results", handlers.Exam.GetResultsSummary)
		adminAPI.POST("/exams/:exam_id/results/generate", handlers.Exam.RegenerateResults)
		adminAPI.POST("/exams/:exam_id/results/publish", handlers.Exam.PublishResults)
		adminAPI.POST("/exams/:exam_id/results/hide", handlers.Exam.HideResults)

		// Question management
		adminAPI.GET("/exams/:exam_id/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Question.CreateQuestion)
		adminAPI.POST("/exams/:exam_id/questions/bulk", handlers.Question.BulkCreateQuestions)
		adminAPI.PUT("/exams/:exam_id/questions/reorder", handlers.Question.ReorderQuestions)
		adminAPI.GET("/questions/:question_id", handlers.Question.GetQuestion)
		adminAPI.PUT("/questions/:question_id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.DeleteQuestion)

		// Attempt interventions
		adminAPI.POST("/attempts/:attempt_id/unlock", handlers.AttemptAdmin.UnlockAttempt)
		adminAPI.POST("/attempts/:attempt_id/terminate", handlers.AttemptAdmin.TerminateAttempt)
		adminAPI.POST("/attempts/:attempt_id/reset", handlers.AttemptAdmin.ResetAttempt)
		adminAPI.GET("/attempts/:attempt_id/grading", handlers.AttemptAdmin.GetAttemptResult)
		adminAPI.PUT("/attempts/:attempt_id/grading", handlers.AttemptAdmin.ApplyManualGrades)

		// Student accounts
		adminAPI.GET("/students", handlers.StudentMgmt.ListStudents)
		adminAPI.POST("/students/:student_id/reset-session", handlers.StudentMgmt.ResetStudentSession)
	}

	return router
}
