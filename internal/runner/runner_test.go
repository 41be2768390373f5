package runner

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bremsim/internal/ctxlog"
)

func firstDraws(t *testing.T, workers int) map[int]uint64 {
	t.Helper()

	var mu sync.Mutex
	draws := map[int]uint64{}
	summary, err := Run(ctxlog.Discard(context.Background()), Config{Events: 50, Workers: workers, Seed: 12, FirstEvent: 100},
		func(_ context.Context, id int, rng *rand.Rand) error {
			mu.Lock()
			defer mu.Unlock()
			draws[id] = rng.Uint64()
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, 50, summary.Events)
	return draws
}

func TestRun_StreamsIndependentOfWorkers(t *testing.T) {
	t.Parallel()

	// --- Act ---
	sequential := firstDraws(t, 1)
	parallel := firstDraws(t, 4)

	// --- Assert ---
	require.Len(t, sequential, 50)
	for id := 100; id < 150; id++ {
		assert.Contains(t, sequential, id)
	}
	assert.Equal(t, sequential, parallel)
	assert.Equal(t, EventRand(12, 100).Uint64(), sequential[100])
}

func TestRun_StopsOnFirstError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	boom := errors.New("boom")
	var seen []int

	// --- Act ---
	summary, err := Run(ctxlog.Discard(context.Background()), Config{Events: 10},
		func(_ context.Context, id int, _ *rand.Rand) error {
			seen = append(seen, id)
			if id == 3 {
				return boom
			}
			return nil
		})

	// --- Assert ---
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "event 3")
	assert.Equal(t, 3, summary.Events)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, cancel := context.WithCancel(ctxlog.Discard(context.Background()))

	// --- Act ---
	summary, err := Run(ctx, Config{Events: 1000, Workers: 2},
		func(_ context.Context, id int, _ *rand.Rand) error {
			if id == 5 {
				cancel()
			}
			return nil
		})

	// --- Assert ---
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, summary.Events, 1000)
}

func TestRun_Config(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		cfg         Config
		wantWorkers int
		wantErr     error
	}{
		{name: "default workers", cfg: Config{Events: 3}, wantWorkers: 1},
		{name: "workers capped by events", cfg: Config{Events: 2, Workers: 8}, wantWorkers: 2},
		{name: "zero events", cfg: Config{Events: 0, Workers: 3}, wantWorkers: 3},
		{name: "negative events", cfg: Config{Events: -1}, wantErr: ErrInvalidConfig},
		{name: "negative workers", cfg: Config{Events: 1, Workers: -2}, wantErr: ErrInvalidConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			summary, err := Run(ctxlog.Discard(context.Background()), tc.cfg,
				func(context.Context, int, *rand.Rand) error { return nil })

			// --- Assert ---
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantWorkers, summary.Workers)
			assert.Equal(t, tc.cfg.Events, summary.Events)
		})
	}
}
