// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestStage_NestedArchiveOrder covers invariant 6, invariant 7, and
// scenario S5: staging a file nested two archives deep extracts the
// outer archive before the inner one, the leaf's staged path is
// readable, and releasing the handle removes both scratch directories.
func TestStage_NestedArchiveOrder(t *testing.T) {
	dir := t.TempDir()

	middlePath := filepath.Join(t.TempDir(), "middle.zip")
	if err := writeZip(middlePath, map[string]string{"leaf.txt": "leaf content"}); err != nil {
		t.Fatalf("writeZip(middle): %v", err)
	}
	middleBytes, err := os.ReadFile(middlePath)
	if err != nil {
		t.Fatalf("ReadFile(middle): %v", err)
	}

	outerPath := filepath.Join(dir, "outer.zip")
	if err := writeZipBytes(outerPath, map[string][]byte{"middle.zip": middleBytes}); err != nil {
		t.Fatalf("writeZip(outer): %v", err)
	}

	c := newTestContext(t)
	if err := c.AddRoot(context.Background(), dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	outerRoot := c.Index().ByRootPath[outerPath]
	if outerRoot == nil {
		t.Fatalf("outer.zip not found in index")
	}
	if len(outerRoot.Children) != 1 {
		t.Fatalf("outer.zip has %d children, want 1", len(outerRoot.Children))
	}
	middleNode := outerRoot.Children[0]
	if len(middleNode.Children) != 1 {
		t.Fatalf("middle.zip has %d children, want 1", len(middleNode.Children))
	}
	leafNode := middleNode.Children[0]

	handle, stageErr := c.Stage(context.Background(), []*VirtualFile{leafNode})
	if stageErr != nil {
		t.Fatalf("Stage: %v", stageErr)
	}

	if leafNode.StagedPath == "" {
		t.Fatalf("leaf node has no StagedPath after staging")
	}
	content, err := os.ReadFile(leafNode.StagedPath)
	if err != nil {
		t.Fatalf("reading staged leaf: %v", err)
	}
	if string(content) != "leaf content" {
		t.Fatalf("staged leaf content = %q, want %q", content, "leaf content")
	}

	scratchDirs := append([]string(nil), handle.scratches...)
	if len(scratchDirs) != 2 {
		t.Fatalf("allocated %d scratch directories, want 2 (outer, middle)", len(scratchDirs))
	}
	for _, scratch := range scratchDirs {
		if _, err := os.Stat(scratch); err != nil {
			t.Fatalf("scratch directory %s does not exist: %v", scratch, err)
		}
	}

	if err := handle.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	for _, scratch := range scratchDirs {
		if _, err := os.Stat(scratch); !os.IsNotExist(err) {
			t.Fatalf("scratch directory %s still exists after Release", scratch)
		}
	}
	if leafNode.StagedPath != "" {
		t.Fatalf("StagedPath not cleared after Release")
	}
}

func TestStage_RootNeedsNoExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "hello")

	c := newTestContext(t)
	if err := c.AddRoot(context.Background(), dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	root := c.Index().ByRootPath[path]
	handle, err := c.Stage(context.Background(), []*VirtualFile{root})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer handle.Release()

	if len(handle.scratches) != 0 {
		t.Fatalf("staging a root allocated %d scratch directories, want 0", len(handle.scratches))
	}
}

func TestStage_ExtractionFailureCleansUpAllocatedScratch(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "broken.zip")
	if err := writeZip(archivePath, map[string]string{"leaf.txt": "content"}); err != nil {
		t.Fatalf("writeZip: %v", err)
	}

	analyzeCtx := NewContext(fakeHasher{}, fakeDetector{}, fakeExtractor{}, t.TempDir())
	if err := analyzeCtx.AddRoot(context.Background(), dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	archiveRoot := analyzeCtx.Index().ByRootPath[archivePath]
	leafNode := archiveRoot.Children[0]

	stagingCtx := NewContext(fakeHasher{}, fakeDetector{}, fakeExtractor{
		failPaths: map[string]bool{archivePath: true},
	}, t.TempDir())
	leafNode.context = stagingCtx

	handle, err := stagingCtx.Stage(context.Background(), []*VirtualFile{leafNode})
	if err == nil {
		t.Fatalf("expected Stage to fail when extraction fails")
	}

	// Stage must clean up every scratch directory it allocated before
	// surfacing the error: no partial state leaks, and the handle comes
	// back already released.
	if len(handle.scratches) != 0 {
		t.Fatalf("handle retains %d scratch directories after a failed Stage", len(handle.scratches))
	}
	if releaseErr := handle.Release(); releaseErr != nil {
		t.Fatalf("Release after failed Stage must be a safe no-op: %v", releaseErr)
	}
}

func writeZipBytes(path string, files map[string][]byte) error {
	strFiles := make(map[string]string, len(files))
	for name, content := range files {
		strFiles[name] = string(content)
	}
	return writeZip(path, strFiles)
}
