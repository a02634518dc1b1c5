package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/validator"
)

// ExamHandler handles the admin exam authoring endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// List godoc
// GET /api/v1/admin/exams?page=&per_page=
func (h *ExamHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.ListByAuthor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// Get godoc
// GET /api/v1/admin/exams/:examId
func (h *ExamHandler) Get(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Create godoc
// POST /api/v1/admin/exams
// Creates a new exam in DRAFT.
func (h *ExamHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam := &model.Exam{
		Type:             model.ExamType(req.Type),
		Title:            req.Title,
		Round:            req.Round,
		PaperType:        model.PaperType(req.PaperType),
		TimeLimitMinutes: req.TimeLimitMinutes,
		Premium:          req.Premium,
		AuthorID:         claims.UserID,
	}
	if req.AudioURL != "" {
		exam.AudioURL = &req.AudioURL
	}

	if err := h.examService.Create(c.Request.Context(), exam); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Update godoc
// PUT /api/v1/admin/exams/:examId
// Partially updates a draft exam's fields.
func (h *ExamHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Round != nil {
		exam.Round = *req.Round
	}
	if req.PaperType != "" {
		exam.PaperType = model.PaperType(req.PaperType)
	}
	if req.TimeLimitMinutes != nil {
		exam.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.AudioURL != nil {
		exam.AudioURL = req.AudioURL
	}
	if req.Premium != nil {
		exam.Premium = *req.Premium
	}

	if err := h.examService.Update(c.Request.Context(), exam, claims.UserID); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Delete godoc
// DELETE /api/v1/admin/exams/:examId
func (h *ExamHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, claims.UserID); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:examId/questions
// Returns the authored questions with correct answers, for the editor.
func (h *ExamHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.examService.ListQuestions(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/exams/:examId/questions
// Swaps the full question set in one transaction.
func (h *ExamHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = model.Question{
			ExamID:        examID,
			Number:        q.Number,
			Passage:       q.Passage,
			ContextBox:    q.ContextBox,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Score:         q.Score,
			ImageURL:      q.ImageURL,
			OptionImages:  q.OptionImages,
		}
	}

	if err := h.examService.ReplaceQuestions(c.Request.Context(), examID, claims.UserID, questions); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": len(questions)})
}

// Publish godoc
// POST /api/v1/admin/exams/:examId/publish
// Warms the Redis payload cache and flips the exam to PUBLISHED.
func (h *ExamHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Publish(c.Request.Context(), examID, claims.UserID); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Unpublish godoc
// POST /api/v1/admin/exams/:examId/unpublish
func (h *ExamHandler) Unpublish(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Unpublish(c.Request.Context(), examID, claims.UserID); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// RefreshCache godoc
// POST /api/v1/admin/exams/:examId/refresh-cache
// Re-caches a published exam after question corrections.
func (h *ExamHandler) RefreshCache(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.RefreshCache(c.Request.Context(), examID, claims.UserID); err != nil {
		h.failExam(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func (h *ExamHandler) failExam(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotExamAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrContentLoad)
	case errors.Is(err, service.ErrPaperStructure):
		response.Fail(c, http.StatusConflict, response.ErrPaperStructure)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
