// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wabbajack-tools/vfsindex/lib/clock"
)

// Context owns the current [IndexRoot], the collaborators Analyze and
// Stager need, and the known-file backfill list.
//
// Index is read lock-free by any goroutine: index and lastIntegratedAt
// are stored in atomic.Pointer/atomic.Int64 and replaced with a single
// atomic store, never under a mutex. Enumeration, hashing and
// extraction happen outside any lock. Every writer holds writeMu around
// its store; BackfillMissing, IntegrateFromFile and
// IntegrateFromPortable also run Integrate's traversal under it, against
// the Index current at that moment, so two of them racing each other
// can't silently drop one's result. AddRoot runs its traversal outside
// writeMu and replaces Index wholesale (see [Context.AddRoot]). writeMu
// is never held across a reader's Index() call.
type Context struct {
	index            atomic.Pointer[IndexRoot]
	lastIntegratedAt atomic.Int64 // UnixNano; 0 means never integrated

	writeMu sync.Mutex

	hasher    Hasher
	detector  ArchiveDetector
	extractor ArchiveExtractor

	stagingRoot string

	parallelism int
	queueDepth  int

	logger *slog.Logger
	clock  clock.Clock

	// knownFiles is mutated only on a single goroutine: no concurrent
	// AddKnown/BackfillMissing calls are supported, matching the single-
	// writer contract documented on Context.
	knownFiles []KnownFile
}

// Option configures a new Context.
type Option func(*Context)

// WithParallelism overrides the Analyzer worker count (default 8).
func WithParallelism(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithQueueDepth overrides the bounded queue depth used by the Analyzer,
// cache decoder, and portable decoder (default 1024).
func WithQueueDepth(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.queueDepth = n
		}
	}
}

// WithLogger sets the logger used for ambient diagnostics. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp LastIntegratedAt. Defaults to
// clock.Real(). Tests inject clock.Fake() for determinism.
func WithClock(clk clock.Clock) Option {
	return func(c *Context) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// NewContext constructs a Context with an empty Index.
//
// hasher, detector, and extractor are the three external collaborators;
// stagingRoot is the directory under which Analyze and Stager allocate
// scratch subdirectories (see [Context.Stage]).
func NewContext(hasher Hasher, detector ArchiveDetector, extractor ArchiveExtractor, stagingRoot string, opts ...Option) *Context {
	c := &Context{
		hasher:      hasher,
		detector:    detector,
		extractor:   extractor,
		stagingRoot: stagingRoot,
		parallelism: 8,
		queueDepth:  1024,
		logger:      slog.Default(),
		clock:       clock.Real(),
	}
	c.index.Store(emptyIndexRoot())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Index returns the current IndexRoot. Safe to call concurrently with
// AddRoot and with any other reader, with no lock taken: the returned
// value is immutable and will never be mutated in place.
func (c *Context) Index() *IndexRoot {
	return c.index.Load()
}

// LastIntegratedAt returns when Index was last replaced by a successful
// AddRoot, BackfillMissing, IntegrateFromFile, or IntegrateFromPortable
// call. Ambient reporting only; it has no bearing on any index
// invariant.
func (c *Context) LastIntegratedAt() time.Time {
	nanos := c.lastIntegratedAt.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

// integrateRoots merges newRoots into the current Index and installs the
// result with a single atomic store. writeMu is held for the whole
// read-modify-store sequence, Integrate's traversal included, so
// concurrent writers are serialized; readers never wait on it.
func (c *Context) integrateRoots(ctx context.Context, newRoots []*VirtualFile) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	snapshot := c.index.Load()

	merged, err := snapshot.Integrate(ctx, newRoots, c.parallelism)
	if err != nil {
		return err
	}

	c.index.Store(merged)
	c.lastIntegratedAt.Store(c.clock.Now().UnixNano())
	return nil
}

// AddRoot scans dir, reuses unchanged entries from the current Index,
// analyzes everything else concurrently, and installs the result.
// Fails with ErrNotAbsolutePath if dir is not absolute; no state is
// mutated in that case.
//
// The scan result already holds every root of the starting snapshot
// whose file still exists, so it is integrated into an empty IndexRoot
// outside writeMu, and roots whose files are gone are dropped. The
// store replaces Index wholesale: of two racing writers, the later
// AddRoot store wins.
func (c *Context) AddRoot(ctx context.Context, dir string) error {
	roots, err := c.scanRoot(ctx, dir)
	if err != nil {
		return err
	}
	merged, err := emptyIndexRoot().Integrate(ctx, roots, c.parallelism)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.index.Store(merged)
	c.lastIntegratedAt.Store(c.clock.Now().UnixNano())
	return nil
}
