// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfshash

import (
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/wabbajack-tools/vfsindex/lib/vfs"
)

// domainKey is a fixed 32-byte key for BLAKE3 keyed hashing. Keying the
// hash (rather than using blake3's bare unkeyed digest) means a second,
// unrelated use of BLAKE3 elsewhere in the module can never collide
// with a vfsindex content hash by construction. The byte values are
// the ASCII encoding of the domain name, zero-padded to 32 bytes, so
// the key stays inspectable in hex dumps without sacrificing any
// cryptographic property (BLAKE3 keyed mode treats the key as an
// opaque 32-byte value).
var domainKey = [32]byte{
	'v', 'f', 's', 'i', 'n', 'd', 'e', 'x', '.', 'v', 'f', 's', 'h', 'a', 's', 'h',
	'.', 'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0,
}

// hasher is the default [vfs.Hasher]: keyed BLAKE3.
type hasher struct{}

// New returns the default content hasher used throughout vfsindex.
func New() vfs.Hasher {
	return hasher{}
}

func (hasher) Hash(r io.Reader) (vfs.Hash, error) {
	h, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		return vfs.Hash{}, fmt.Errorf("constructing keyed blake3: %w", err)
	}
	if _, err := io.Copy(h, r); err != nil {
		return vfs.Hash{}, fmt.Errorf("reading stream: %w", err)
	}

	var out vfs.Hash
	sum := h.Sum(nil)
	copy(out[:], sum)
	return out, nil
}
