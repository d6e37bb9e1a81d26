// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/wabbajack-tools/vfsindex/lib/codec"
	"github.com/wabbajack-tools/vfsindex/lib/vfspipeline"
)

// cacheMagic and CacheFormatVersion identify the binary cache file format.
// Decoders must reject any file whose magic or version does not match
// exactly, comparing against these constants rather than against the
// bytes just read back out of the file under decode (the open question
// this package resolves by construction).
const (
	cacheMagic = "WABBAJACK VFS FILE"

	// CacheFormatVersion is the on-disk binary cache format version
	// this build reads and writes. Surfaced for diagnostics (e.g.
	// cmd/vfsindex's --version output) so a cache file rejected by
	// IntegrateFromFile can be explained by a version mismatch rather
	// than corruption.
	CacheFormatVersion uint64 = 2
)

// wireFile is the CBOR shape of one VirtualFile record. Each record's
// length-prefixed payload (see WriteToFile) is the 8-byte little-endian
// length of the CBOR Core Deterministic encoding of a wireFile, followed
// by that encoding as an LZ4 block (or raw, when LZ4 cannot shrink it),
// recursed into via Children — the array's own length serves as the
// "child-count prefix" the wire format calls for.
type wireFile struct {
	Name            string     `cbor:"name"`
	Hash            []byte     `cbor:"hash,omitempty"`
	HashValid       bool       `cbor:"hash_valid"`
	Size            int64      `cbor:"size"`
	LastModifiedUTC int64      `cbor:"last_modified_utc,omitempty"`
	HasLastModified bool       `cbor:"has_last_modified"`
	Children        []wireFile `cbor:"children,omitempty"`
}

func toWire(f *VirtualFile) wireFile {
	w := wireFile{
		Name:            f.Name,
		HashValid:       f.HashValid,
		Size:            f.Size,
		HasLastModified: f.HasLastModified,
	}
	if f.HashValid {
		w.Hash = append([]byte(nil), f.Hash[:]...)
	}
	if f.HasLastModified {
		w.LastModifiedUTC = f.LastModified.UnixNano()
	}
	if len(f.Children) > 0 {
		w.Children = make([]wireFile, len(f.Children))
		for i, c := range f.Children {
			w.Children[i] = toWire(c)
		}
	}
	return w
}

func fromWire(w wireFile, parent *VirtualFile, c *Context) *VirtualFile {
	f := &VirtualFile{
		Name:            w.Name,
		Parent:          parent,
		HashValid:       w.HashValid,
		Size:            w.Size,
		HasLastModified: w.HasLastModified,
		context:         c,
	}
	if w.HashValid {
		copy(f.Hash[:], w.Hash)
	}
	if w.HasLastModified {
		f.LastModified = unixNanoToTime(w.LastModifiedUTC)
	}
	if len(w.Children) > 0 {
		f.Children = make([]*VirtualFile, len(w.Children))
		for i, childWire := range w.Children {
			f.Children[i] = fromWire(childWire, f, c)
		}
	}
	return f
}

// WriteToFile serializes the current Index to path using the binary
// cache format: the magic, the version, a file count, then each root
// written as a length-prefixed, LZ4-compressed CBOR record.
func (c *Context) WriteToFile(path string) error {
	snapshot := c.Index()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating cache file %s: %v", ErrIoError, path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	if _, err := w.WriteString(cacheMagic); err != nil {
		return fmt.Errorf("%w: writing magic: %v", ErrIoError, err)
	}
	if err := binary.Write(w, binary.LittleEndian, CacheFormatVersion); err != nil {
		return fmt.Errorf("%w: writing version: %v", ErrIoError, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(snapshot.AllFiles))); err != nil {
		return fmt.Errorf("%w: writing file count: %v", ErrIoError, err)
	}

	for _, root := range snapshot.AllFiles {
		record, err := encodeRecord(root)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(record))); err != nil {
			return fmt.Errorf("%w: writing record length: %v", ErrIoError, err)
		}
		if _, err := w.Write(record); err != nil {
			return fmt.Errorf("%w: writing record: %v", ErrIoError, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing cache file %s: %v", ErrIoError, path, err)
	}
	return nil
}

// IntegrateFromFile decodes path as a binary cache file and integrates
// the resulting roots into Index. The magic and version are validated
// exactly; any mismatch is a BadCacheFormat error and leaves Index
// unchanged.
func (c *Context) IntegrateFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening cache file %s: %v", ErrIoError, path, err)
	}
	defer file.Close()

	r := bufio.NewReader(file)

	magic := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("%w: reading magic: %v", ErrBadCacheFormat, err)
	}
	if string(magic) != cacheMagic {
		return fmt.Errorf("%w: magic %q does not match %q", ErrBadCacheFormat, magic, cacheMagic)
	}

	var version uint64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("%w: reading version: %v", ErrBadCacheFormat, err)
	}
	if version != CacheFormatVersion {
		return fmt.Errorf("%w: version %d does not match %d", ErrBadCacheFormat, version, CacheFormatVersion)
	}

	var fileCount uint64
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return fmt.Errorf("%w: reading file count: %v", ErrBadCacheFormat, err)
	}

	records := make([][]byte, fileCount)
	for i := range records {
		var length uint64
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return fmt.Errorf("%w: reading record %d length: %v", ErrBadCacheFormat, i, err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("%w: reading record %d: %v", ErrBadCacheFormat, i, err)
		}
		records[i] = buf
	}

	roots, err := vfspipeline.Run(ctx, records, c.parallelism, c.queueDepth,
		func(_ context.Context, record []byte) (*VirtualFile, error) {
			return decodeRecord(record, c)
		})
	if err != nil {
		return fmt.Errorf("%w: decoding cache records: %v", ErrBadCacheFormat, err)
	}

	return c.integrateRoots(ctx, roots)
}

func encodeRecord(root *VirtualFile) ([]byte, error) {
	cborBytes, err := codec.Marshal(toWire(root))
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %v", ErrIoError, root.FullPath(), err)
	}

	bound := lz4.CompressBlockBound(len(cborBytes))
	compressed := make([]byte, bound)
	written, err := lz4.CompressBlock(cborBytes, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 compressing %s: %v", ErrIoError, root.FullPath(), err)
	}

	frame := make([]byte, 8+written)
	binary.LittleEndian.PutUint64(frame[:8], uint64(len(cborBytes)))
	if written == 0 {
		// CompressBlock returns 0 for incompressible input; store the
		// raw CBOR bytes instead, distinguishable by the uncompressed
		// length matching the stored payload length below.
		frame = append(frame[:8], cborBytes...)
		return frame, nil
	}
	copy(frame[8:], compressed[:written])
	return frame, nil
}

func unixNanoToTime(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

func decodeRecord(record []byte, c *Context) (*VirtualFile, error) {
	if len(record) < 8 {
		return nil, fmt.Errorf("%w: record too short", ErrBadCacheFormat)
	}
	uncompressedSize := binary.LittleEndian.Uint64(record[:8])
	payload := record[8:]

	var cborBytes []byte
	if uint64(len(payload)) == uncompressedSize {
		cborBytes = payload
	} else {
		cborBytes = make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, cborBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 decompressing record: %v", ErrBadCacheFormat, err)
		}
		if uint64(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrBadCacheFormat, n, uncompressedSize)
		}
	}

	var w wireFile
	if err := codec.Unmarshal(cborBytes, &w); err != nil {
		return nil, fmt.Errorf("%w: decoding record: %v", ErrBadCacheFormat, err)
	}

	return fromWire(w, nil, c), nil
}
