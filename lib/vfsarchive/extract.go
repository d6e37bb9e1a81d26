// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfsarchive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wabbajack-tools/vfsindex/lib/vfs"
)

// extractor is the default [vfs.ArchiveExtractor]: it dispatches on the
// same signature sniff as detector, then unpacks with archive/zip or
// archive/tar plus compress/gzip.
type extractor struct{}

// NewExtractor returns the default ArchiveExtractor.
func NewExtractor() vfs.ArchiveExtractor {
	return extractor{}
}

func (extractor) Extract(ctx context.Context, archivePath, targetDir string) error {
	header, err := readHeader(archivePath)
	if err != nil {
		return err
	}

	switch {
	case len(header) >= 4 && string(header[:4]) == string(zipSignature):
		return extractZip(ctx, archivePath, targetDir)
	case len(header) >= 2 && header[0] == gzipHeader[0] && header[1] == gzipHeader[1]:
		return extractTarGz(ctx, archivePath, targetDir)
	case strings.HasSuffix(strings.ToLower(archivePath), ".tar"):
		return extractTar(ctx, archivePath, targetDir)
	default:
		return fmt.Errorf("unrecognized archive format: %s", archivePath)
	}
}

func readHeader(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	header := make([]byte, 4)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return header[:n], nil
}

func extractZip(ctx context.Context, archivePath, targetDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		if err := extractZipEntry(entry, targetDir); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(entry *zip.File, targetDir string) error {
	destPath, err := safeJoin(targetDir, entry.Name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", entry.Name, err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening zip entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

func extractTarGz(ctx context.Context, archivePath, targetDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(bufio.NewReader(file))
	if err != nil {
		return fmt.Errorf("reading gzip header of %s: %w", archivePath, err)
	}
	defer gz.Close()

	return extractTarStream(ctx, gz, targetDir)
}

func extractTar(ctx context.Context, archivePath, targetDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer file.Close()

	return extractTarStream(ctx, bufio.NewReader(file), targetDir)
}

func extractTarStream(ctx context.Context, r io.Reader, targetDir string) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}
		if header.Typeflag == tar.TypeDir {
			continue
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		destPath, err := safeJoin(targetDir, header.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", header.Name, err)
		}

		dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", destPath, err)
		}
		if _, err := io.Copy(dst, tr); err != nil {
			dst.Close()
			return fmt.Errorf("writing %s: %w", destPath, err)
		}
		dst.Close()
	}
}

// safeJoin joins targetDir with an archive entry's name, rejecting any
// entry that would escape targetDir via ".." path traversal.
func safeJoin(targetDir, entryName string) (string, error) {
	joined := filepath.Join(targetDir, entryName)
	if !strings.HasPrefix(joined, filepath.Clean(targetDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction target", entryName)
	}
	return joined, nil
}
