// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for archive names, root paths, or
// scratch directory names that must be distinguishable across
// concurrent subtests.
//
//	archiveName := testutil.UniqueID("pack") + ".zip" // "pack-1.zip", ...
//	rootDir := testutil.UniqueID("root")              // "root-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
