// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Hash is the fixed-width content hash identifying a VirtualFile. Two
// nodes with equal content produce equal hashes; the hash of a node,
// once set, never changes.
type Hash [32]byte

// IsZero reports whether h is the zero hash, used as the "no hash"
// sentinel for transient nodes that have not been hashed (for example,
// structural placeholders synthesized by BackfillMissing).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer, formatting h as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses a lowercase hex string produced by [Hash.String].
func ParseHash(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: parsing hash %q: %v", ErrLookupMissing, s, err)
	}
	if len(decoded) != len(h) {
		return h, fmt.Errorf("%w: hash %q has %d bytes, want %d", ErrLookupMissing, s, len(decoded), len(h))
	}
	copy(h[:], decoded)
	return h, nil
}

// Hasher computes a stable content hash of a byte stream. Implementations
// must be deterministic and stable across runs and machines. This is an
// external collaborator: vfsindex depends only on this contract, not on
// any particular hash algorithm. The default implementation lives in
// lib/vfshash.
type Hasher interface {
	Hash(r io.Reader) (Hash, error)
}

// ArchiveDetector decides whether a given on-disk file is a container
// that Analyze must descend into. Implementations must be pure and
// side-effect-free. The default implementation lives in lib/vfsarchive.
type ArchiveDetector interface {
	IsArchive(path string) bool
}

// ArchiveExtractor materializes an archive's contents into targetDir.
// It fails when archivePath does not hold a recognized archive; on
// success targetDir contains the extracted tree. The default
// implementation lives in lib/vfsarchive.
type ArchiveExtractor interface {
	Extract(ctx context.Context, archivePath, targetDir string) error
}

// DiskState is the (size, last-modified) pair read from os.FileInfo
// during enumeration. The Analyzer's reuse gate compares a VirtualFile's
// recorded state against a fresh DiskState to decide whether re-analysis
// is necessary; no content comparison is ever performed.
type DiskState struct {
	Size         int64
	LastModified time.Time
}
