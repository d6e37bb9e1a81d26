// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "errors"

// Sentinel errors corresponding to the error kinds this package can
// raise. Wrap these with fmt.Errorf("...: %w", ...) so callers can match
// with errors.Is.
var (
	// ErrNotAbsolutePath is returned eagerly by AddRoot when the given
	// path is not absolute. No state is mutated.
	ErrNotAbsolutePath = errors.New("vfs: path is not absolute")

	// ErrBadCacheFormat is returned when a cache file's magic or version
	// does not match exactly. Fatal to the load; Context.Index is
	// unchanged.
	ErrBadCacheFormat = errors.New("vfs: bad cache file format")

	// ErrIoError wraps an underlying filesystem error encountered during
	// analysis or cache load. Fatal to the current operation;
	// already-integrated state is unaffected.
	ErrIoError = errors.New("vfs: i/o error")

	// ErrExtractionFailed indicates an ArchiveExtractor call failed.
	// During analysis this downgrades the node to a non-archive leaf
	// (non-fatal). During staging it is fatal and triggers scoped
	// cleanup of every scratch directory allocated by that Stage call.
	ErrExtractionFailed = errors.New("vfs: archive extraction failed")

	// ErrHashFailed indicates the Hasher returned an error. Fatal to the
	// current analysis.
	ErrHashFailed = errors.New("vfs: hash computation failed")

	// ErrLookupMissing indicates a query (FileForArchiveHashPath, known
	// file resolution, ...) could not resolve a segment. Fatal to the
	// query; no retry.
	ErrLookupMissing = errors.New("vfs: lookup miss")
)
