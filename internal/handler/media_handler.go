package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
)

// MediaHandler handles file uploads for exam authoring.
type MediaHandler struct {
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadImage godoc
// POST /api/v1/admin/media/images
// Accepts a question illustration or picture option (multipart "file").
func (h *MediaHandler) UploadImage(c *gin.Context) {
	h.upload(c, service.MediaKindImage)
}

// UploadAudio godoc
// POST /api/v1/admin/media/audio
// Accepts a listening paper track (multipart "file").
func (h *MediaHandler) UploadAudio(c *gin.Context) {
	h.upload(c, service.MediaKindAudio)
}

func (h *MediaHandler) upload(c *gin.Context, kind service.MediaKind) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	url, err := h.mediaService.SaveUpload(file, header, kind)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"url": url})
}
