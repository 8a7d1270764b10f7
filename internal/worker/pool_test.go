// Package worker runs per-file checks on a bounded goroutine pool.
//
// Copyright 2025 3 Leaps, LLC
// Licensed under the Apache License, Version 2.0

package worker

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestMap_PreservesOrder(t *testing.T) {
	for _, jobs := range []int{0, 1, 2, 8, 64} {
		t.Run(strconv.Itoa(jobs), func(t *testing.T) {
			in := items(50)

			got, err := Map(context.Background(), jobs, in, func(_ context.Context, i int) string {
				// Later items finish first.
				time.Sleep(time.Duration(50-i) * 100 * time.Microsecond)
				return "file" + strconv.Itoa(i)
			})
			require.NoError(t, err)

			require.Len(t, got, len(in))
			for i, s := range got {
				assert.Equal(t, "file"+strconv.Itoa(i), s)
			}
		})
	}
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), 4, []string{}, func(context.Context, string) int { return 1 })
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	_, err := Map(context.Background(), 3, items(30), func(_ context.Context, i int) int {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return i
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestMap_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, jobs := range []int{1, 4} {
		var calls atomic.Int32
		_, err := Map(ctx, jobs, items(10), func(context.Context, int) int {
			calls.Add(1)
			return 0
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls.Load())
	}
}

func TestMap_Panic(t *testing.T) {
	_, err := Map(context.Background(), 4, items(8), func(_ context.Context, i int) int {
		if i == 5 {
			panic("boom")
		}
		return i
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPanic))
	assert.Contains(t, err.Error(), "boom")
}
