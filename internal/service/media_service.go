package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hangulab/topik-practice-backend/internal/config"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// MediaKind selects which MIME family an upload endpoint accepts.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindAudio MediaKind = "audio"
)

// Question illustrations and picture options.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Listening paper audio tracks.
var allowedAudioTypes = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/ogg":  ".ogg",
}

// MediaService handles file upload operations for exam authoring.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// SaveUpload saves an uploaded file to local storage with a UUID filename.
// Returns the relative URL path to the saved file.
func (s *MediaService) SaveUpload(file multipart.File, header *multipart.FileHeader, kind MediaKind) (string, error) {
	allowed := allowedImageTypes
	if kind == MediaKindAudio {
		allowed = allowedAudioTypes
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowed[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(typeNames(allowed), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return "/uploads/" + filename, nil
}

func typeNames(allowed map[string]string) []string {
	types := make([]string, 0, len(allowed))
	for t := range allowed {
		types = append(types, t)
	}
	return types
}
