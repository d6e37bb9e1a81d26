// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now, time.After, time.NewTicker, time.AfterFunc, or time.Sleep
// directly. In production, Real() provides the standard library
// behavior. In tests, Fake() provides a deterministic clock that
// advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time. vfsindex's own Context
// does exactly this, stamping LastIntegratedAt from the injected clock
// rather than time.Now so tests can assert on it deterministically:
//
//	type Context struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	c := vfs.NewContext(hasher, detector, extractor, stagingRoot, vfs.WithClock(clock.Real()))
//
// In tests:
//
//	fc := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c := vfs.NewContext(hasher, detector, extractor, stagingRoot, vfs.WithClock(fc))
//	if err := c.AddRoot(ctx, dir); err != nil { ... }
//	// c.LastIntegratedAt() now equals fc.Now()
//
// # FakeClock Synchronization
//
// When a goroutine calls Sleep, After, NewTicker, or AfterFunc on a
// FakeClock, it registers a pending timer. Use WaitForTimers to block
// until a specific number of timers are registered before calling
// Advance. This eliminates the race between timer registration and
// time advancement that plagues tests using time.Sleep for
// synchronization.
package clock
