// Package worker runs per-file checks on a bounded goroutine pool.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/3leaps/odoosentry/internal/logger"
)

// ErrPanic is returned when a task panics.
var ErrPanic = errors.New("worker task panicked")

// Task checks one item.
type Task[T, R any] func(ctx context.Context, item T) R

// Map applies task to every item and returns the results in input order.
//
// With jobs <= 1 the items are processed sequentially on the calling
// goroutine. Otherwise at most jobs tasks run at once on an ants pool.
// Results never depend on completion order.
func Map[T, R any](ctx context.Context, jobs int, items []T, task Task[T, R]) ([]R, error) {
	results := make([]R, len(items))

	if jobs <= 1 || len(items) <= 1 {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = task(ctx, item)
		}
		return results, nil
	}

	pool, err := ants.NewPool(min(jobs, len(items)),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			fail(err)
			break
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					logger.Error("Worker panic recovered",
						zap.Int("index", i),
						zap.Any("panic", p),
						zap.Stack("stack"),
					)
					fail(fmt.Errorf("%w: %v", ErrPanic, p))
				}
			}()

			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			results[i] = task(ctx, item)
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit task: %w", err))
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
