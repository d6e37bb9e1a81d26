// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides vfsindex's standard CBOR encoding configuration.
//
// CBOR is vfsindex's on-disk record format: binary cache records
// (lib/vfs's WriteToFile/IntegrateFromFile) encode through this package,
// so every caller gets identical bytes for identical data without
// duplicating encoder configuration. lib/vfs does not encode
// PortableFile itself; a caller that puts one on disk or on the wire
// encodes it with this package.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes — load-bearing for the
// cache round-trip invariant.
//
// For buffer-oriented operations (cache records):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
