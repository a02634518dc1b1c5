package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/database"
	"github.com/hangulab/topik-practice-backend/internal/handler"
	"github.com/hangulab/topik-practice-backend/internal/logger"
	"github.com/hangulab/topik-practice-backend/internal/paper"
	"github.com/hangulab/topik-practice-backend/internal/repository"
	"github.com/hangulab/topik-practice-backend/internal/router"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/validator"
	"github.com/hangulab/topik-practice-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting TOPIK Practice Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// The section tables are compile-time constants; a bad edit should
	// stop the process at boot, not surface as a mis-sectioned paper.
	if err := paper.ValidateStructures(); err != nil {
		log.Fatal().Err(err).Msg("Invalid section structure tables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	learnerRepo := repository.NewLearnerRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	annotationRepo := repository.NewAnnotationRepository(pool)
	canvasRepo := repository.NewCanvasRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	accessService := service.NewAccessService(learnerRepo)
	sessionService := service.NewSessionService(examService, accessService, attemptRepo, rdb, log)
	annotationService := service.NewAnnotationService(annotationRepo, log)
	canvasService := service.NewCanvasService(canvasRepo, rdb, cfg.CanvasDebounce, log)
	mediaService := service.NewMediaService(cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, learnerRepo, adminRepo),
		Portal:     handler.NewPortalHandler(sessionService, annotationService, accessService),
		Annotation: handler.NewAnnotationHandler(annotationService),
		Canvas:     handler.NewCanvasHandler(canvasService),
		Exam:       handler.NewExamHandler(examService),
		Media:      handler.NewMediaHandler(mediaService),
		WS:         handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Countdown Ticker ───────────────────────────────────────
	sessionService.StartTicker()

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	attemptWorker := worker.NewAttemptWorker(attemptRepo, rdb, log)
	canvasWorker := worker.NewCanvasWorker(canvasRepo, rdb, log)

	go attemptWorker.Start(workerCtx)
	go canvasWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published papers into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the countdown and push any pending debounced canvas writes
	//    onto the queue before the workers drain it.
	sessionService.Stop()
	canvasService.FlushAll()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
