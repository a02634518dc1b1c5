package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/repository"
	"github.com/hangulab/topik-practice-backend/internal/service"
)

const (
	CanvasBatchSize    = 25
	CanvasBatchTimeout = 2 * time.Second
	CanvasPollTimeout  = 1 * time.Second
)

// CanvasWorker consumes the canvas persistence queue in small batches and
// upserts overlays into PostgreSQL. The upsert's version guard makes
// out-of-order and duplicate deliveries safe.
type CanvasWorker struct {
	canvasRepo *repository.CanvasRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewCanvasWorker creates a new CanvasWorker.
func NewCanvasWorker(canvasRepo *repository.CanvasRepository, rdb *redis.Client, log zerolog.Logger) *CanvasWorker {
	return &CanvasWorker{
		canvasRepo: canvasRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "canvas_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *CanvasWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*service.CanvasJob, 0, CanvasBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= CanvasBatchSize || time.Since(lastFlush) >= CanvasBatchTimeout) {
			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			w.log.Info().Msg("Worker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, CanvasPollTimeout, config.WorkerKey.PersistCanvasQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var job service.CanvasJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload, dropping job")
				continue
			}
			batch = append(batch, &job)
		}
	}
}

func (w *CanvasWorker) flush(ctx context.Context, batch []*service.CanvasJob) {
	if len(batch) == 0 {
		return
	}

	persisted := 0
	for _, job := range batch {
		if err := w.canvasRepo.Upsert(ctx, job.LearnerID, job.Key, job.Data); err != nil {
			w.log.Error().Err(err).
				Int("learner_id", job.LearnerID).
				Str("target_id", job.Key.TargetID).
				Msg("Upsert failed, requeueing")
			raw, _ := json.Marshal(job)
			w.rdb.RPush(ctx, config.WorkerKey.PersistCanvasQueue, raw)
			continue
		}
		persisted++
	}

	w.log.Debug().
		Int("persisted", persisted).
		Int("batch", len(batch)).
		Msg("Canvas batch flushed")
}
