// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for vfsindex.
//
// # Build information
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// These default to "unknown", "false", "unknown" and "0.1.0-dev"
// respectively when not injected, which
// occurs during development builds and test runs.
//
// Formatting functions produce human-readable version strings:
//
//   - [Info] -- "0.1.0-dev (abc1234, 2026-02-10T...)" for --version
//   - [Full] -- Info plus Go version and GOOS/GOARCH
//   - [Short] -- just the version number
//   - [Commit] -- just the git SHA
//
// cmd/vfsindex's --version flag prints [Full] followed by
// lib/vfs.CacheFormatVersion: the binary cache format can change
// independently of the semantic version, and a cache file that
// IntegrateFromFile rejects as ErrBadCacheFormat is usually explained
// by comparing that number against the cache file's own version field.
package version
