package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/debounce"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/repository"
)

// CanvasJob is one persistence unit flowing through the canvas queue.
type CanvasJob struct {
	LearnerID int              `json:"learner_id"`
	Key       model.CanvasKey  `json:"key"`
	Data      model.CanvasData `json:"data"`
}

type canvasWriterKey struct {
	learnerID int
	key       model.CanvasKey
}

// CanvasService manages freehand ink overlays. Every edit goes through an
// in-memory working copy and a per-overlay debounce writer, so a burst of
// strokes costs one queue push, not dozens.
type CanvasService struct {
	repo *repository.CanvasRepository
	rdb  *redis.Client
	log  zerolog.Logger

	window time.Duration

	mu      sync.Mutex
	working map[canvasWriterKey]*model.CanvasData
	writers map[canvasWriterKey]*debounce.Writer[CanvasJob]
}

// NewCanvasService creates a new CanvasService.
func NewCanvasService(repo *repository.CanvasRepository, rdb *redis.Client, window time.Duration, log zerolog.Logger) *CanvasService {
	return &CanvasService{
		repo:    repo,
		rdb:     rdb,
		log:     log.With().Str("component", "canvas_service").Logger(),
		window:  window,
		working: make(map[canvasWriterKey]*model.CanvasData),
		writers: make(map[canvasWriterKey]*debounce.Writer[CanvasJob]),
	}
}

// Load returns the overlay for one page. A never-drawn page comes back as
// an empty version-zero overlay, never nil.
func (s *CanvasService) Load(ctx context.Context, learnerID int, key model.CanvasKey) (*model.CanvasData, error) {
	wk := canvasWriterKey{learnerID: learnerID, key: key}

	s.mu.Lock()
	if data, ok := s.working[wk]; ok {
		snapshot := cloneCanvas(*data)
		s.mu.Unlock()
		return &snapshot, nil
	}
	s.mu.Unlock()

	data, err := s.repo.Get(ctx, learnerID, key)
	if err != nil {
		return nil, fmt.Errorf("load canvas: %w", err)
	}
	if data == nil {
		data = &model.CanvasData{Lines: []model.Stroke{}, Version: 0}
	}

	s.mu.Lock()
	if cached, ok := s.working[wk]; ok {
		// Lost the race against a concurrent edit; the working copy wins.
		snapshot := cloneCanvas(*cached)
		s.mu.Unlock()
		return &snapshot, nil
	}
	s.working[wk] = data
	s.mu.Unlock()

	snapshot := cloneCanvas(*data)
	return &snapshot, nil
}

// Replace stores a full stroke snapshot, bumps the version, and schedules
// the debounced persistence write.
func (s *CanvasService) Replace(ctx context.Context, learnerID int, key model.CanvasKey, lines []model.Stroke) (*model.CanvasData, error) {
	return s.apply(ctx, learnerID, key, func(data *model.CanvasData) {
		data.Lines = lines
	})
}

// Undo removes the most recent stroke. Undoing an empty overlay is a
// no-op that still reports the current state.
func (s *CanvasService) Undo(ctx context.Context, learnerID int, key model.CanvasKey) (*model.CanvasData, error) {
	return s.apply(ctx, learnerID, key, func(data *model.CanvasData) {
		if len(data.Lines) > 0 {
			data.Lines = data.Lines[:len(data.Lines)-1]
		}
	})
}

// Clear wipes every stroke from the overlay.
func (s *CanvasService) Clear(ctx context.Context, learnerID int, key model.CanvasKey) (*model.CanvasData, error) {
	return s.apply(ctx, learnerID, key, func(data *model.CanvasData) {
		data.Lines = []model.Stroke{}
	})
}

func (s *CanvasService) apply(ctx context.Context, learnerID int, key model.CanvasKey, mutate func(*model.CanvasData)) (*model.CanvasData, error) {
	// Ensure the working copy exists before mutating.
	if _, err := s.Load(ctx, learnerID, key); err != nil {
		return nil, err
	}

	wk := canvasWriterKey{learnerID: learnerID, key: key}

	s.mu.Lock()
	data := s.working[wk]
	mutate(data)
	data.Version++
	snapshot := cloneCanvas(*data)

	w, ok := s.writers[wk]
	if !ok {
		w = debounce.NewWriter(s.window, s.enqueue)
		s.writers[wk] = w
	}
	s.mu.Unlock()

	w.Set(CanvasJob{LearnerID: learnerID, Key: key, Data: snapshot})
	return &snapshot, nil
}

// enqueue pushes one coalesced snapshot onto the persistence queue.
func (s *CanvasService) enqueue(job CanvasJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(job)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal canvas job failed")
		return
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.PersistCanvasQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).
			Int("learner_id", job.LearnerID).
			Str("target_id", job.Key.TargetID).
			Msg("Enqueue canvas job failed")
	}
}

// DropTarget erases every page overlay for one target: pending debounced
// writes are cancelled, working copies discarded, and the stored rows
// deleted. Backs the "erase all pages" action.
func (s *CanvasService) DropTarget(ctx context.Context, learnerID int, targetID, targetType string) error {
	s.mu.Lock()
	var dropped []*debounce.Writer[CanvasJob]
	for wk, w := range s.writers {
		if wk.learnerID == learnerID && wk.key.TargetID == targetID && wk.key.TargetType == targetType {
			dropped = append(dropped, w)
			delete(s.writers, wk)
		}
	}
	for wk := range s.working {
		if wk.learnerID == learnerID && wk.key.TargetID == targetID && wk.key.TargetType == targetType {
			delete(s.working, wk)
		}
	}
	s.mu.Unlock()

	for _, w := range dropped {
		w.Discard()
	}

	if err := s.repo.DeleteByTarget(ctx, learnerID, targetID, targetType); err != nil {
		return fmt.Errorf("delete canvas target: %w", err)
	}
	return nil
}

// FlushAll forces every pending debounced write out immediately. Called on
// shutdown so in-window edits are not lost.
func (s *CanvasService) FlushAll() {
	s.mu.Lock()
	writers := make([]*debounce.Writer[CanvasJob], 0, len(s.writers))
	for _, w := range s.writers {
		writers = append(writers, w)
	}
	s.mu.Unlock()

	for _, w := range writers {
		w.Flush()
	}
}

func cloneCanvas(data model.CanvasData) model.CanvasData {
	lines := make([]model.Stroke, len(data.Lines))
	copy(lines, data.Lines)
	return model.CanvasData{Lines: lines, Version: data.Version}
}
