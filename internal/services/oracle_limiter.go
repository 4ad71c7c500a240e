package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ModelLimiter bounds how many model calls may be in flight at once. Text
// generation and embedding calls wrapped by the same limiter share its slots.
type ModelLimiter struct {
	sem *semaphore.Weighted
}

func NewModelLimiter(maxConcurrent int64) *ModelLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ModelLimiter{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Oracle wraps next so that its calls take a slot.
func (l *ModelLimiter) Oracle(next Oracle) Oracle {
	return &limitedOracle{next: next, limiter: l}
}

// Embedder wraps next so that its calls take a slot.
func (l *ModelLimiter) Embedder(next Embedder) Embedder {
	return &limitedEmbedder{next: next, limiter: l}
}

func (l *ModelLimiter) acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for model slot: %w", err)
	}
	return func() { l.sem.Release(1) }, nil
}

// NewLimitedOracle bounds how many calls to next may be in flight at once.
// Every component sharing the returned Oracle shares the same limit.
func NewLimitedOracle(next Oracle, maxConcurrent int64) Oracle {
	return NewModelLimiter(maxConcurrent).Oracle(next)
}

type limitedOracle struct {
	next    Oracle
	limiter *ModelLimiter
}

func (o *limitedOracle) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	release, err := o.limiter.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	return o.next.GenerateText(ctx, prompt, temperature)
}

type limitedEmbedder struct {
	next    Embedder
	limiter *ModelLimiter
}

func (e *limitedEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	release, err := e.limiter.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return e.next.GenerateEmbedding(ctx, text)
}
