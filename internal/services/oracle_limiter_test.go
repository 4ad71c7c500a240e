package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedOracle_BoundsConcurrency(t *testing.T) {
	inner := newScriptedOracle().on(taskGrading, "ok")
	inner.delay = 20 * time.Millisecond
	limited := NewLimitedOracle(inner, 3)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := limited.GenerateText(context.Background(), taskGrading+"\nprompt", 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 12, inner.callCount(taskGrading))
	assert.LessOrEqual(t, inner.peak(), 3)
}

func TestLimitedOracle_HonoursContext(t *testing.T) {
	inner := newScriptedOracle().on(taskGrading, "ok")
	inner.delay = time.Second
	limited := NewLimitedOracle(inner, 1)

	go func() {
		_, _ = limited.GenerateText(context.Background(), taskGrading, 0)
	}()
	require.Eventually(t, func() bool { return inner.callCount(taskGrading) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := limited.GenerateText(ctx, taskGrading, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (c *countingEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return []float32{1}, nil
}

func TestModelLimiter_EmbeddingsShareOracleSlots(t *testing.T) {
	inner := newScriptedOracle().on(taskGrading, "ok")
	inner.delay = time.Second
	embedder := &countingEmbedder{}

	limiter := NewModelLimiter(1)
	oracle := limiter.Oracle(inner)
	limitedEmbedder := limiter.Embedder(embedder)

	go func() {
		_, _ = oracle.GenerateText(context.Background(), taskGrading, 0)
	}()
	require.Eventually(t, func() bool { return inner.callCount(taskGrading) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := limitedEmbedder.GenerateEmbedding(ctx, "resume")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	embedder.mu.Lock()
	defer embedder.mu.Unlock()
	assert.Zero(t, embedder.calls)
}
