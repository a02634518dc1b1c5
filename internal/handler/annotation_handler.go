package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/validator"
)

// AnnotationHandler handles highlight and note endpoints.
type AnnotationHandler struct {
	annotationService *service.AnnotationService
}

// NewAnnotationHandler creates a new AnnotationHandler.
func NewAnnotationHandler(annotationService *service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotationService: annotationService}
}

// Save godoc
// PUT /api/v1/portal/annotations
// Creates or updates the highlight anchored to (context key, text).
// Saving the same text twice updates in place.
func (h *AnnotationHandler) Save(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SaveAnnotationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	saved, err := h.annotationService.Save(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"annotation": saved})
}

// Delete godoc
// DELETE /api/v1/portal/annotations/:annotationId
// Soft-deletes: the mark disappears but re-highlighting the same text
// revives the record.
func (h *AnnotationHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("annotationId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.annotationService.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, service.ErrAnnotationNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListByContext godoc
// GET /api/v1/portal/annotations?context_key=TOPIK-<examId>-Q<n>
// Returns every annotation for one question, tombstones included.
func (h *AnnotationHandler) ListByContext(c *gin.Context) {
	claims := middleware.GetClaims(c)

	contextKey := c.Query("context_key")
	if contextKey == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	annotations, err := h.annotationService.ListByContext(c.Request.Context(), claims.UserID, contextKey)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"annotations": annotations})
}

// Sidebar godoc
// GET /api/v1/portal/exams/:examId/annotations?editing=<annotationId>
// Lists the noted annotations across one exam for the sidebar, ordered by
// question then age. Plain highlights stay inline-only; ?editing= admits
// the annotation whose note editor is currently open.
func (h *AnnotationHandler) Sidebar(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	editingID := uuid.Nil
	if raw := c.Query("editing"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			editingID = parsed
		}
	}

	annotations, err := h.annotationService.Sidebar(c.Request.Context(), claims.UserID, examID, editingID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"annotations": annotations})
}
