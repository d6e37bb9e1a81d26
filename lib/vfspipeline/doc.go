// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfspipeline implements the bounded-queue-plus-worker-pool
// pattern shared by every concurrent stage of vfsindex: the Analyzer's
// path scan, the cache decoder, and the portable-state decoder all feed a
// bounded input queue to a fixed pool of workers and drain results into an
// unordered collector.
//
// Downstream code must tolerate reordering: there is no guarantee that
// results are produced in the order their inputs were submitted. Queue
// depth defaults to 1024, matching the default used throughout vfsindex.
//
// Cancellation is cooperative: closing the input (by exhausting items, or
// by the supplied context.Context being cancelled) lets in-flight workers
// drain before the pool terminates. The first error returned by any
// worker stops new work from being scheduled.
package vfspipeline
