// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fakeHasher hashes with sha256, truncated/padded to fit Hash's width.
// Deterministic and collision-free enough for tests; the production
// hasher lives in lib/vfshash.
type fakeHasher struct{}

func (fakeHasher) Hash(r io.Reader) (Hash, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Hash{}, err
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// fakeDetector treats any file with a .zip extension as an archive.
type fakeDetector struct{}

func (fakeDetector) IsArchive(path string) bool {
	return filepath.Ext(path) == ".zip"
}

// fakeExtractor unpacks a real zip file, so tests can exercise nested
// archive descent without depending on lib/vfsarchive.
type fakeExtractor struct {
	// failPaths, when non-nil, names archive paths whose extraction must
	// fail, simulating a corrupt or unreadable archive.
	failPaths map[string]bool
}

func (e fakeExtractor) Extract(_ context.Context, archivePath, targetDir string) error {
	if e.failPaths[archivePath] {
		return fmt.Errorf("simulated extraction failure for %s", archivePath)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(targetDir, entry.Name)
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		src, err := entry.Open()
		if err != nil {
			return err
		}
		dst, err := os.Create(destPath)
		if err != nil {
			src.Close()
			return err
		}
		_, copyErr := io.Copy(dst, src)
		src.Close()
		dst.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

// writeZip creates a zip archive at path containing files, a map from
// in-archive name to content.
func writeZip(path string, files map[string]string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			return err
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			return err
		}
	}
	return w.Close()
}

func newTestContext(t interface {
	TempDir() string
}) *Context {
	return NewContext(fakeHasher{}, fakeDetector{}, fakeExtractor{}, t.TempDir())
}
