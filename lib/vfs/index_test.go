// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"path/filepath"
	"testing"
)

func mustIntegrate(t *testing.T, idx *IndexRoot, roots []*VirtualFile) *IndexRoot {
	t.Helper()
	merged, err := idx.Integrate(context.Background(), roots, 4)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	return merged
}

// TestIntegrate_Idempotence covers invariant 1.
func TestIntegrate_Idempotence(t *testing.T) {
	root := &VirtualFile{Name: "/a", HashValid: true, Hash: Hash{1}}

	once := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{root})
	twice := mustIntegrate(t, once, []*VirtualFile{root})

	if len(once.AllFiles) != len(twice.AllFiles) {
		t.Fatalf("AllFiles length changed across idempotent integration: %d vs %d",
			len(once.AllFiles), len(twice.AllFiles))
	}
	if once.AllFiles[0] != twice.AllFiles[0] {
		t.Fatalf("re-integrating the same root produced a different VirtualFile")
	}
}

// TestIntegrate_LastWriteWins covers invariant 2.
func TestIntegrate_LastWriteWins(t *testing.T) {
	first := &VirtualFile{Name: "/a", HashValid: true, Hash: Hash{1}}
	second := &VirtualFile{Name: "/a", HashValid: true, Hash: Hash{2}}

	afterFirst := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{first})
	afterSecond := mustIntegrate(t, afterFirst, []*VirtualFile{second})

	got := afterSecond.ByRootPath["/a"]
	if got != second {
		t.Fatalf("ByRootPath[\"/a\"] did not resolve to the later entry")
	}
}

// TestIntegrate_IndexCoherence covers invariant 3.
func TestIntegrate_IndexCoherence(t *testing.T) {
	archive := &VirtualFile{Name: "/pack.zip", HashValid: true, Hash: Hash{9}}
	child := &VirtualFile{Name: "inner.txt", HashValid: true, Hash: Hash{8}}
	if err := archive.addChild(child); err != nil {
		t.Fatalf("addChild: %v", err)
	}

	idx := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{archive})

	for _, node := range archive.ThisAndAllChildren() {
		got, ok := idx.ByFullPath[node.FullPath()]
		if !ok {
			t.Fatalf("ByFullPath missing entry for %s", node.FullPath())
		}
		if got != node {
			t.Fatalf("ByFullPath[%s] resolved to a different node", node.FullPath())
		}
	}
	if len(idx.ByFullPath) != 2 {
		t.Fatalf("ByFullPath has %d entries, want 2 (archive + child)", len(idx.ByFullPath))
	}
}

// TestIntegrate_HashCollisionStacks covers invariant 4.
func TestIntegrate_HashCollisionStacks(t *testing.T) {
	sharedHash := Hash{7}
	a := &VirtualFile{Name: "/a", HashValid: true, Hash: sharedHash}
	b := &VirtualFile{Name: "/b", HashValid: true, Hash: sharedHash}

	idx := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{a, b})

	stack := idx.ByHash[sharedHash]
	if len(stack) != 2 {
		t.Fatalf("ByHash[sharedHash] has %d entries, want 2", len(stack))
	}
}

func TestIntegrate_ArchiveFacts(t *testing.T) {
	archive := &VirtualFile{Name: "/pack.zip", HashValid: true, Hash: Hash{3}}
	childA := &VirtualFile{Name: "a.txt", HashValid: true, Hash: Hash{4}, Size: 10}
	childB := &VirtualFile{Name: "b.txt", HashValid: true, Hash: Hash{5}, Size: 20}
	if err := archive.addChild(childA); err != nil {
		t.Fatalf("addChild: %v", err)
	}
	if err := archive.addChild(childB); err != nil {
		t.Fatalf("addChild: %v", err)
	}

	idx := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{archive})

	facts, ok := idx.ArchiveFacts(archive.Hash)
	if !ok {
		t.Fatalf("ArchiveFacts missing for archive root")
	}
	if facts.ChildCount != 2 {
		t.Fatalf("ChildCount = %d, want 2", facts.ChildCount)
	}
	if facts.TotalExtractedSize != 30 {
		t.Fatalf("TotalExtractedSize = %d, want 30", facts.TotalExtractedSize)
	}
	if facts.DeepestNesting != 1 {
		t.Fatalf("DeepestNesting = %d, want 1", facts.DeepestNesting)
	}
}

func TestFileForArchiveHashPath(t *testing.T) {
	archive := &VirtualFile{Name: "/pack.zip", HashValid: true, Hash: Hash{6}}
	child := &VirtualFile{Name: "inner.txt", HashValid: true, Hash: Hash{7}}
	if err := archive.addChild(child); err != nil {
		t.Fatalf("addChild: %v", err)
	}

	idx := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{archive})

	got, err := idx.FileForArchiveHashPath([]string{archive.Hash.String(), "inner.txt"})
	if err != nil {
		t.Fatalf("FileForArchiveHashPath: %v", err)
	}
	if got != child {
		t.Fatalf("FileForArchiveHashPath resolved to the wrong node")
	}
}

func TestFileForArchiveHashPath_MissingSegment(t *testing.T) {
	archive := &VirtualFile{Name: "/pack.zip", HashValid: true, Hash: Hash{6}}
	idx := mustIntegrate(t, emptyIndexRoot(), []*VirtualFile{archive})

	_, err := idx.FileForArchiveHashPath([]string{archive.Hash.String(), "missing.txt"})
	if err == nil {
		t.Fatalf("expected a lookup error for a missing segment")
	}
}

func TestVirtualFile_FullPathAndNestingFactor(t *testing.T) {
	root := &VirtualFile{Name: filepath.FromSlash("/data/pack.zip")}
	child := &VirtualFile{Name: "a"}
	grandchild := &VirtualFile{Name: "b"}
	if err := root.addChild(child); err != nil {
		t.Fatalf("addChild: %v", err)
	}
	if err := child.addChild(grandchild); err != nil {
		t.Fatalf("addChild: %v", err)
	}

	if grandchild.NestingFactor() != 2 {
		t.Fatalf("NestingFactor = %d, want 2", grandchild.NestingFactor())
	}
	want := filepath.FromSlash("/data/pack.zip") + FullPathDelimiter + "a" + FullPathDelimiter + "b"
	if got := grandchild.FullPath(); got != want {
		t.Fatalf("FullPath = %q, want %q", got, want)
	}
}

func TestVirtualFile_AddChild_RejectsDuplicateNames(t *testing.T) {
	parent := &VirtualFile{Name: "/pack.zip"}
	if err := parent.addChild(&VirtualFile{Name: "a.txt"}); err != nil {
		t.Fatalf("addChild: %v", err)
	}
	if err := parent.addChild(&VirtualFile{Name: "a.txt"}); err == nil {
		t.Fatalf("expected an error adding a duplicate sibling name")
	}
}
