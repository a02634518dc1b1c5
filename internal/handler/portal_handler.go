package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/paper"
	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/session"
	"github.com/hangulab/topik-practice-backend/internal/validator"
)

// PortalHandler handles the learner-facing exam session endpoints. Every
// route assumes RequireLearnerJWT ran first.
type PortalHandler struct {
	sessionService    *service.SessionService
	annotationService *service.AnnotationService
	accessService     *service.AccessService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	sessionService *service.SessionService,
	annotationService *service.AnnotationService,
	accessService *service.AccessService,
) *PortalHandler {
	return &PortalHandler{
		sessionService:    sessionService,
		annotationService: annotationService,
		accessService:     accessService,
	}
}

// Lobby godoc
// GET /api/v1/portal/lobby?type=READING|LISTENING
// Lists published exams with per-learner lock flags.
func (h *PortalHandler) Lobby(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examType := model.ExamType(c.Query("type"))
	if examType != "" && examType != model.ExamTypeReading && examType != model.ExamTypeListening {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	lobby, err := h.sessionService.Lobby(c.Request.Context(), claims.UserID, examType)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": lobby})
}

// State godoc
// GET /api/v1/portal/session
// Snapshots the learner's session machine, restoring from the Redis mirror
// after a server restart.
func (h *PortalHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)

	state, err := h.sessionService.State(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Select godoc
// POST /api/v1/portal/exams/:examId/select
// Moves the learner onto the exam cover. Locked premium content returns
// UPGRADE_REQUIRED rather than NOT_FOUND, so the client can prompt.
func (h *PortalHandler) Select(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessionService.Select(c.Request.Context(), claims.UserID, examID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ExamPayload godoc
// GET /api/v1/portal/exams/:examId/payload
// Returns the cached paper (no correct answers) for the cover page
// prefetch, so the client has questions and audio ready before start.
func (h *PortalHandler) ExamPayload(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.sessionService.Payload(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": payload})
}

// Start godoc
// POST /api/v1/portal/session/start
// Begins the countdown at the exam's full time limit.
func (h *PortalHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)

	if err := h.sessionService.Start(c.Request.Context(), claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Paper godoc
// GET /api/v1/portal/session/paper?active=<annotationId>
// Renders the current paper with the learner's annotations applied. In
// review mode the options carry correct/incorrect tags and selection is
// disabled.
func (h *PortalHandler) Paper(c *gin.Context) {
	claims := middleware.GetClaims(c)

	view, err := h.sessionService.Paper(claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	activeID := uuid.Nil
	if raw := c.Query("active"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			activeID = parsed
		}
	}

	decorate, err := h.annotationService.Decorator(c.Request.Context(), claims.UserID, view.Exam.ID, activeID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrContentLoad)
		return
	}

	rendered := make([]paper.RenderedQuestion, 0, len(view.Questions))
	for _, q := range view.Questions {
		userAnswer := paper.NoAnswer
		if opt, ok := view.Answers[q.Number]; ok {
			userAnswer = opt
		}
		rendered = append(rendered, paper.RenderQuestion(paper.RenderInput{
			ExamType:   view.Exam.Type,
			Question:   q,
			UserAnswer: userAnswer,
			ReviewMode: view.Review,
			Decorate:   decorate,
		}))
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam":      view.Exam,
		"review":    view.Review,
		"questions": rendered,
	})
}

// Answer godoc
// POST /api/v1/portal/session/answers
// Records one option choice. The REST path backs up the WebSocket channel
// for clients behind restrictive proxies.
func (h *PortalHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req struct {
		Number int `json:"number" binding:"required,min=1,max=50"`
		Option int `json:"option" binding:"min=0,max=3"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Answer(c.Request.Context(), claims.UserID, req.Number, req.Option); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Pause godoc
// POST /api/v1/portal/session/pause
func (h *PortalHandler) Pause(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessionService.Pause(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Resume godoc
// POST /api/v1/portal/session/resume
func (h *PortalHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessionService.Resume(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Submit godoc
// POST /api/v1/portal/session/submit
// Grades the paper. Repeat submissions return the same attempt.
func (h *PortalHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attempt, err := h.sessionService.Submit(claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": attempt})
}

// Review godoc
// POST /api/v1/portal/session/review
func (h *PortalHandler) Review(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessionService.Review(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// TryAgain godoc
// POST /api/v1/portal/session/try-again
func (h *PortalHandler) TryAgain(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessionService.TryAgain(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// BackToList godoc
// POST /api/v1/portal/session/back-to-list
// The universal escape hatch; always succeeds.
func (h *PortalHandler) BackToList(c *gin.Context) {
	claims := middleware.GetClaims(c)
	h.sessionService.BackToList(c.Request.Context(), claims.UserID)
	response.Success(c, http.StatusOK, gin.H{})
}

// OpenHistory godoc
// POST /api/v1/portal/history/open
func (h *PortalHandler) OpenHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessionService.OpenHistory(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// CloseHistory godoc
// POST /api/v1/portal/history/close
func (h *PortalHandler) CloseHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessionService.CloseHistory(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// History godoc
// GET /api/v1/portal/history
// Lists past attempts, newest first.
func (h *PortalHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attempts, err := h.sessionService.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// ReviewAttempt godoc
// POST /api/v1/portal/history/:attemptId/review
// Opens a past attempt in review mode over the paper it was taken on.
func (h *PortalHandler) ReviewAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attemptId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessionService.ReviewAttempt(c.Request.Context(), claims.UserID, attemptID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteAttempt godoc
// DELETE /api/v1/portal/history/:attemptId
func (h *PortalHandler) DeleteAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attemptId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessionService.DeleteAttempt(c.Request.Context(), claims.UserID, attemptID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Upgrade godoc
// POST /api/v1/portal/upgrade
// Moves the learner to the premium plan after the upgrade prompt.
func (h *PortalHandler) Upgrade(c *gin.Context) {
	claims := middleware.GetClaims(c)

	if err := h.accessService.UpgradePlan(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"plan": model.PlanPremium})
}

// failSession maps service and machine errors onto the response envelope.
func (h *PortalHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUpgradeRequired):
		response.Fail(c, http.StatusForbidden, response.ErrUpgradeRequired)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrNoQuestions), errors.Is(err, service.ErrPayloadNotCached):
		response.Fail(c, http.StatusInternalServerError, response.ErrContentLoad)
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, session.ErrAnswerOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerOutOfRange)
	case errors.Is(err, session.ErrNoActiveExam):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveSession)
	case errors.Is(err, session.ErrIllegalTransition):
		response.Fail(c, http.StatusConflict, response.ErrIllegalTransition)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
