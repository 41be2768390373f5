// Package runner drives events through a fixed pool of workers.
//
// Every event gets its own random stream derived from the run seed and the
// event ID, so the physics of event N does not depend on which worker picks
// it up or in which order events complete.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/bremsim/internal/ctxlog"
)

// DefaultWorkers reproduces the sequential reference behavior.
const DefaultWorkers = 1

// ErrInvalidConfig rejects negative event or worker counts.
var ErrInvalidConfig = errors.New("runner: invalid config")

// Config describes one run.
type Config struct {
	Events     int
	Workers    int // 0 means DefaultWorkers
	Seed       uint64
	FirstEvent int
}

// EventFunc processes one event with the random stream that belongs to it.
type EventFunc func(ctx context.Context, eventID int, rng *rand.Rand) error

// Summary reports a finished run.
type Summary struct {
	Events   int
	Workers  int
	Duration time.Duration
}

// EventRand returns the random stream of eventID in a run seeded with seed.
func EventRand(seed uint64, eventID int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(eventID)))
}

// Run calls fn for event IDs FirstEvent .. FirstEvent+Events-1. The first
// error returned by fn, or cancellation of ctx, stops the run; events already
// in flight finish first.
func Run(ctx context.Context, cfg Config, fn EventFunc) (Summary, error) {
	if cfg.Events < 0 || cfg.Workers < 0 {
		return Summary{}, fmt.Errorf("%w: events=%d workers=%d", ErrInvalidConfig, cfg.Events, cfg.Workers)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	if workers > cfg.Events && cfg.Events > 0 {
		workers = cfg.Events
	}

	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	summary := Summary{Workers: workers}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		done     atomic.Int64
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	ids := make(chan int)
	go func() {
		defer close(ids)
		for i := 0; i < cfg.Events; i++ {
			select {
			case ids <- cfg.FirstEvent + i:
			case <-runCtx.Done():
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger.Debug("Worker started.", "workerID", workerID)
			for id := range ids {
				if runCtx.Err() != nil {
					continue
				}
				if err := fn(runCtx, id, EventRand(cfg.Seed, id)); err != nil {
					logger.Error("Event failed.", "workerID", workerID, "event", id, "error", err)
					fail(fmt.Errorf("event %d: %w", id, err))
					continue
				}
				done.Add(1)
			}
			logger.Debug("Worker finished.", "workerID", workerID)
		}(w)
	}
	wg.Wait()

	summary.Events = int(done.Load())
	summary.Duration = time.Since(start)

	if firstErr != nil {
		return summary, firstErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
