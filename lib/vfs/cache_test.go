// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestCache_RoundTrip covers invariant 5 and scenario S6: writing and
// reloading a cache file reproduces the same lookup tables.
func TestCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pack.zip")
	if err := writeZip(archivePath, map[string]string{"inner/x.txt": "payload"}); err != nil {
		t.Fatalf("writeZip: %v", err)
	}
	writeFile(t, filepath.Join(dir, "plain.txt"), "just a plain file")

	source := newTestContext(t)
	if err := source.AddRoot(context.Background(), dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	cachePath := filepath.Join(t.TempDir(), "index.cache")
	if err := source.WriteToFile(cachePath); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}

	target := newTestContext(t)
	if err := target.IntegrateFromFile(context.Background(), cachePath); err != nil {
		t.Fatalf("IntegrateFromFile: %v", err)
	}

	sourceIdx := source.Index()
	targetIdx := target.Index()

	if len(sourceIdx.AllFiles) != len(targetIdx.AllFiles) {
		t.Fatalf("AllFiles count differs: %d vs %d", len(sourceIdx.AllFiles), len(targetIdx.AllFiles))
	}
	if len(sourceIdx.ByFullPath) != len(targetIdx.ByFullPath) {
		t.Fatalf("ByFullPath size differs: %d vs %d", len(sourceIdx.ByFullPath), len(targetIdx.ByFullPath))
	}
	for path, sourceNode := range sourceIdx.ByFullPath {
		targetNode, ok := targetIdx.ByFullPath[path]
		if !ok {
			t.Fatalf("ByFullPath missing %s after round-trip", path)
		}
		if targetNode.Hash != sourceNode.Hash {
			t.Fatalf("%s: hash differs after round-trip", path)
		}
		if targetNode.Size != sourceNode.Size {
			t.Fatalf("%s: size differs after round-trip", path)
		}
		if targetNode.HasLastModified != sourceNode.HasLastModified {
			t.Fatalf("%s: HasLastModified differs after round-trip", path)
		}
		if targetNode.HasLastModified && !targetNode.LastModified.Equal(sourceNode.LastModified) {
			t.Fatalf("%s: LastModified differs after round-trip: %v vs %v",
				path, targetNode.LastModified, sourceNode.LastModified)
		}
	}
}

func TestIntegrateFromFile_RejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cache")
	if err := os.WriteFile(path, []byte("NOT A VALID CACHE FILE!!!"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := newTestContext(t)
	err := c.IntegrateFromFile(context.Background(), path)
	if err == nil {
		t.Fatalf("expected an error for a file with a bad magic")
	}
}

func TestIntegrateFromFile_RejectsWrongVersion(t *testing.T) {
	dir := t.TempDir()
	c := newTestContext(t)
	if err := c.AddRoot(context.Background(), dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.cache")
	if err := c.WriteToFile(path); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Corrupt the version field (immediately after the 18-byte magic).
	data[18] = data[18] ^ 0xFF

	corrupted := filepath.Join(t.TempDir(), "corrupted.cache")
	if err := os.WriteFile(corrupted, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	other := newTestContext(t)
	if err := other.IntegrateFromFile(context.Background(), corrupted); err == nil {
		t.Fatalf("expected an error for a file with the wrong version")
	}
}
