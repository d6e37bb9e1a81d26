// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfspipeline

import (
	"context"
	"sync"
)

// DefaultQueueDepth is the bounded-queue capacity used across vfsindex
// when a caller does not supply a tunable of its own.
const DefaultQueueDepth = 1024

// Func processes one item, producing a result or an error.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Run feeds items through a bounded queue of the given depth to a pool of
// parallelism workers, each applying fn, and collects the results in
// whatever order workers finish (the "unordered pipeline" pattern). It
// returns as soon as every item has been consumed and every worker has
// exited.
//
// If fn returns an error for any item, Run records the first such error,
// stops feeding new items into the queue, lets in-flight work drain, and
// returns that error alongside whatever results were already produced.
// Cancelling ctx has the same draining effect.
//
// parallelism and queueDepth below 1 are treated as 1 and
// [DefaultQueueDepth] respectively.
func Run[T, R any](ctx context.Context, items []T, parallelism, queueDepth int, fn Func[T, R]) ([]R, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	if queueDepth < 1 {
		queueDepth = DefaultQueueDepth
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan T, queueDepth)
	type outcome struct {
		result R
		err    error
	}
	out := make(chan outcome, queueDepth)

	var workers sync.WaitGroup
	workers.Add(parallelism)
	for i := 0; i < parallelism; i++ {
		go func() {
			defer workers.Done()
			for item := range in {
				result, err := fn(runCtx, item)
				select {
				case out <- outcome{result: result, err: err}:
				case <-runCtx.Done():
					return
				}
				if err != nil {
					cancel()
				}
			}
		}()
	}

	go func() {
		defer close(in)
		for _, item := range items {
			select {
			case in <- item:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(out)
	}()

	results := make([]R, 0, len(items))
	var firstErr error
	for o := range out {
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		results = append(results, o.result)
	}
	return results, firstErr
}
