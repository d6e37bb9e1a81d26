// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs implements the Virtual File System index at the core of
// vfsindex: modlist assembly tooling needs a queryable forest of real and
// virtual files (files nested inside archives, themselves possibly
// nested inside further archives), each identified by a stable content
// hash, with on-demand staging of nested archive contents back onto disk
// and a binary cache so re-scans can skip unchanged files.
//
// # Forest
//
// [VirtualFile] is one node: either a root (an on-disk file, its Name an
// absolute path) or a child produced by extracting a parent archive (its
// Name the path of the file within that archive). Edges are owning from
// parent to children and non-owning from child back to parent, so the
// forest never contains a cycle.
//
// # Index
//
// [IndexRoot] is an immutable snapshot: a list of root files plus four
// maps derived from a full pre-order traversal of the forest. Every
// integration produces a fresh [IndexRoot]; existing readers never
// observe a torn index. [Context] owns the current [IndexRoot] and swaps
// it atomically; readers take no lock. Hashing and extraction happen
// outside the writer lock. AddRoot also runs Integrate's traversal
// outside it; the other writers run that traversal while holding it.
//
// # Collaborators
//
// [Hasher], [ArchiveDetector], and [ArchiveExtractor] are the three
// external contracts this package depends on but does not implement;
// concrete default implementations live in lib/vfshash and
// lib/vfsarchive and are wired in by the caller (see cmd/vfsindex).
package vfs
