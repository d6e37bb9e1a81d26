// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfshash provides the default content hasher used by vfsindex.
//
// [New] returns a [vfs.Hasher] backed by keyed BLAKE3 ([github.com/zeebo/blake3]),
// following the same keyed-hash, domain-separated construction used
// elsewhere in the donor project's artifact store: rather than the bare
// unkeyed digest, the key is a fixed domain string's ASCII bytes,
// zero-padded to 32 bytes, so that a future second use of BLAKE3 elsewhere in the module (or a
// different vfsindex-derived tool reusing this package) cannot produce
// colliding digests by accident.
package vfshash
