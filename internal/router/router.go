package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/handler"
	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Portal     *handler.PortalHandler
	Annotation *handler.AnnotationHandler
	Canvas     *handler.CanvasHandler
	Exam       *handler.ExamHandler
	Media      *handler.MediaHandler
	WS         *handler.WSHandler
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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every response carries metadata.
	router.Use(response.RequestIDMiddleware())

	// Brotli on everything except WebSocket upgrades.
	router.Use(middleware.Brotli())

	// Uploaded media (question images, audio tracks) with aggressive
	// caching; filenames are UUIDs so stale caches cannot occur.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		auth.POST("/logout", middleware.RequireLearnerJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireLearnerJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Learner Portal Group (JWT + Single Device) ─────────────────
	portal := router.Group("/api/v1/portal")
	portal.Use(
		middleware.RequireLearnerJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		portal.GET("/lobby", handlers.Portal.Lobby)
		portal.POST("/upgrade", handlers.Portal.Upgrade)
		portal.GET("/session", handlers.Portal.State)
		portal.POST("/exams/:examId/select", handlers.Portal.Select)
		portal.GET("/exams/:examId/payload", handlers.Portal.ExamPayload)

		portal.POST("/session/start", handlers.Portal.Start)
		portal.GET("/session/paper", handlers.Portal.Paper)
		portal.POST("/session/answers", handlers.Portal.Answer)
		portal.POST("/session/pause", handlers.Portal.Pause)
		portal.POST("/session/resume", handlers.Portal.Resume)
		portal.POST("/session/submit", handlers.Portal.Submit)
		portal.POST("/session/review", handlers.Portal.Review)
		portal.POST("/session/try-again", handlers.Portal.TryAgain)
		portal.POST("/session/back-to-list", handlers.Portal.BackToList)

		portal.GET("/history", handlers.Portal.History)
		portal.POST("/history/open", handlers.Portal.OpenHistory)
		portal.POST("/history/close", handlers.Portal.CloseHistory)
		portal.POST("/history/:attemptId/review", handlers.Portal.ReviewAttempt)
		portal.DELETE("/history/:attemptId", handlers.Portal.DeleteAttempt)

		portal.PUT("/annotations", handlers.Annotation.Save)
		portal.GET("/annotations", handlers.Annotation.ListByContext)
		portal.DELETE("/annotations/:annotationId", handlers.Annotation.Delete)
		portal.GET("/exams/:examId/annotations", handlers.Annotation.Sidebar)

		portal.DELETE("/canvas/:targetType/:targetId", handlers.Canvas.DeleteTarget)
		portal.GET("/canvas/:targetType/:targetId/:page", handlers.Canvas.Load)
		portal.PUT("/canvas/:targetType/:targetId/:page", handlers.Canvas.Replace)
		portal.POST("/canvas/:targetType/:targetId/:page/undo", handlers.Canvas.Undo)
		portal.POST("/canvas/:targetType/:targetId/:page/clear", handlers.Canvas.Clear)
	}

	// ─── 3. WebSocket Group (Learner WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireLearnerWSAuth(authService))
	{
		ws.GET("/portal/session", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.GET("/exams/:examId", handlers.Exam.Get)
		adminAPI.PUT("/exams/:examId", handlers.Exam.Update)
		adminAPI.DELETE("/exams/:examId", handlers.Exam.Delete)

		adminAPI.GET("/exams/:examId/questions", handlers.Exam.ListQuestions)
		adminAPI.PUT("/exams/:examId/questions", handlers.Exam.ReplaceQuestions)

		adminAPI.POST("/exams/:examId/publish", handlers.Exam.Publish)
		adminAPI.POST("/exams/:examId/unpublish", handlers.Exam.Unpublish)
		adminAPI.POST("/exams/:examId/refresh-cache", handlers.Exam.RefreshCache)

		adminAPI.POST("/media/images", handlers.Media.UploadImage)
		adminAPI.POST("/media/audio", handlers.Media.UploadAudio)
	}

	return router
}
