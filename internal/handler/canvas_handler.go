package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/validator"
)

// CanvasHandler handles the freehand ink overlay endpoints. The overlay is
// addressed by target ID + type + page index from the route.
type CanvasHandler struct {
	canvasService *service.CanvasService
}

// NewCanvasHandler creates a new CanvasHandler.
func NewCanvasHandler(canvasService *service.CanvasService) *CanvasHandler {
	return &CanvasHandler{canvasService: canvasService}
}

func canvasKeyFromRoute(c *gin.Context) (model.CanvasKey, bool) {
	pageIndex, err := strconv.Atoi(c.Param("page"))
	if err != nil || pageIndex < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return model.CanvasKey{}, false
	}
	targetID := c.Param("targetId")
	targetType := c.Param("targetType")
	if targetID == "" || targetType == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return model.CanvasKey{}, false
	}
	return model.CanvasKey{TargetID: targetID, TargetType: targetType, PageIndex: pageIndex}, true
}

// Load godoc
// GET /api/v1/portal/canvas/:targetType/:targetId/:page
// Returns the overlay; a never-drawn page comes back empty at version 0.
func (h *CanvasHandler) Load(c *gin.Context) {
	claims := middleware.GetClaims(c)

	key, ok := canvasKeyFromRoute(c)
	if !ok {
		return
	}

	data, err := h.canvasService.Load(c.Request.Context(), claims.UserID, key)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"canvas": data})
}

// Replace godoc
// PUT /api/v1/portal/canvas/:targetType/:targetId/:page
// Stores a full stroke snapshot. Persistence is debounced; the response
// carries the new version immediately.
func (h *CanvasHandler) Replace(c *gin.Context) {
	claims := middleware.GetClaims(c)

	key, ok := canvasKeyFromRoute(c)
	if !ok {
		return
	}

	var req model.SaveCanvasRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	data, err := h.canvasService.Replace(c.Request.Context(), claims.UserID, key, req.Lines)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"canvas": data})
}

// Undo godoc
// POST /api/v1/portal/canvas/:targetType/:targetId/:page/undo
// Removes the most recent stroke; a no-op on an empty overlay.
func (h *CanvasHandler) Undo(c *gin.Context) {
	claims := middleware.GetClaims(c)

	key, ok := canvasKeyFromRoute(c)
	if !ok {
		return
	}

	data, err := h.canvasService.Undo(c.Request.Context(), claims.UserID, key)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"canvas": data})
}

// DeleteTarget godoc
// DELETE /api/v1/portal/canvas/:targetType/:targetId
// Erases every page overlay for one target, pending autosaves included.
func (h *CanvasHandler) DeleteTarget(c *gin.Context) {
	claims := middleware.GetClaims(c)

	targetID := c.Param("targetId")
	targetType := c.Param("targetType")
	if targetID == "" || targetType == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.canvasService.DropTarget(c.Request.Context(), claims.UserID, targetID, targetType); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Clear godoc
// POST /api/v1/portal/canvas/:targetType/:targetId/:page/clear
func (h *CanvasHandler) Clear(c *gin.Context) {
	claims := middleware.GetClaims(c)

	key, ok := canvasKeyFromRoute(c)
	if !ok {
		return
	}

	data, err := h.canvasService.Clear(c.Request.Context(), claims.UserID, key)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"canvas": data})
}
