package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/repository"
)

// AttemptWorker consumes the attempt persistence queue and inserts graded
// attempts into PostgreSQL. The attempt ID is fixed at grading time, so a
// requeued job lands on the insert's conflict clause and double delivery
// stays harmless.
type AttemptWorker struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptWorker creates a new AttemptWorker.
func NewAttemptWorker(attemptRepo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AttemptWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAttemptsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.persist(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AttemptWorker) persist(ctx context.Context, raw []byte) error {
	var attempt model.ExamAttempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		// Poison message; log and drop rather than loop forever.
		w.log.Error().Err(err).Msg("Unmarshal error, dropping job")
		return nil
	}
	return w.attemptRepo.Create(ctx, &attempt)
}

// drain processes all remaining items in the queue before shutdown.
func (w *AttemptWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAttemptsQueue).Result()
		if err != nil {
			break
		}

		if err := w.persist(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, result)
			break
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("drained", drained).Msg("Queue drained")
	}
}
