// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfsarchive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/wabbajack-tools/vfsindex/lib/vfs"
)

var (
	zipSignature = []byte("PK\x03\x04")
	gzipHeader   = []byte{0x1f, 0x8b}
)

// detector is the default [vfs.ArchiveDetector]: zip and gzip files are
// recognized by their leading bytes rather than their extension, so a
// renamed zip or tar.gz is still descended into. A plain tar file is
// recognized only by a .tar extension, confirmed by parsing a tar
// header.
type detector struct{}

// NewDetector returns the default ArchiveDetector.
func NewDetector() vfs.ArchiveDetector {
	return detector{}
}

func (detector) IsArchive(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 4)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	header = header[:n]

	if bytes.HasPrefix(header, zipSignature) {
		return true
	}
	if bytes.HasPrefix(header, gzipHeader) {
		return looksLikeTarGz(path)
	}
	if strings.HasSuffix(strings.ToLower(path), ".tar") {
		return looksLikeTar(path)
	}
	return false
}

// looksLikeTarGz confirms that a gzip-prefixed file's decompressed
// stream parses as a tar header, rather than assuming every .gz is a
// tarball.
func looksLikeTarGz(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	gz, err := gzip.NewReader(bufio.NewReader(file))
	if err != nil {
		return false
	}
	defer gz.Close()

	return hasValidTarHeader(gz)
}

func looksLikeTar(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()
	return hasValidTarHeader(bufio.NewReader(file))
}

func hasValidTarHeader(r io.Reader) bool {
	_, err := tar.NewReader(r).Next()
	return err == nil || err == io.EOF
}
