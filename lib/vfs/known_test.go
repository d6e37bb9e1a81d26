// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"testing"
)

func TestBackfillMissing_SingleComponentBecomesRoot(t *testing.T) {
	c := newTestContext(t)
	hash := Hash{1, 2, 3}

	if err := c.AddKnown([]KnownFile{{PathComponents: []string{"modlist.txt"}, Hash: hash}}); err != nil {
		t.Fatalf("AddKnown: %v", err)
	}
	if err := c.BackfillMissing(context.Background()); err != nil {
		t.Fatalf("BackfillMissing: %v", err)
	}

	root := c.Index().ByRootPath["modlist.txt"]
	if root == nil {
		t.Fatalf("synthesized root not found")
	}
	if !root.HashValid || root.Hash != hash {
		t.Fatalf("root hash = %v (valid=%v), want %v", root.Hash, root.HashValid, hash)
	}
	if len(c.knownFiles) != 0 {
		t.Fatalf("knownFiles not cleared after BackfillMissing")
	}
}

func TestBackfillMissing_NestedPathCreatesStructuralPlaceholders(t *testing.T) {
	c := newTestContext(t)
	leafHash := Hash{9}

	records := []KnownFile{
		{PathComponents: []string{"pack.zip", "inner", "leaf.txt"}, Hash: leafHash},
	}
	if err := c.AddKnown(records); err != nil {
		t.Fatalf("AddKnown: %v", err)
	}
	if err := c.BackfillMissing(context.Background()); err != nil {
		t.Fatalf("BackfillMissing: %v", err)
	}

	root := c.Index().ByRootPath["pack.zip"]
	if root == nil {
		t.Fatalf("synthesized root not found")
	}
	if root.HashValid {
		t.Fatalf("intermediate root must not carry a hash, topology only")
	}

	inner := root.childByName("inner")
	if inner == nil {
		t.Fatalf("intermediate node 'inner' not created")
	}
	if inner.HashValid {
		t.Fatalf("intermediate node must not carry a hash")
	}

	leaf := inner.childByName("leaf.txt")
	if leaf == nil {
		t.Fatalf("leaf node not created")
	}
	if !leaf.HashValid || leaf.Hash != leafHash {
		t.Fatalf("leaf hash = %v (valid=%v), want %v", leaf.Hash, leaf.HashValid, leafHash)
	}
}

func TestAddKnown_RejectsCollidingRootHash(t *testing.T) {
	c := newTestContext(t)

	if err := c.AddKnown([]KnownFile{{PathComponents: []string{"a"}, Hash: Hash{1}}}); err != nil {
		t.Fatalf("AddKnown (first): %v", err)
	}

	err := c.AddKnown([]KnownFile{{PathComponents: []string{"a"}, Hash: Hash{2}}})
	if err == nil {
		t.Fatalf("expected AddKnown to reject a colliding root hash for the same name")
	}
}

func TestAddKnown_AllowsRepeatingTheSameRootHash(t *testing.T) {
	c := newTestContext(t)

	if err := c.AddKnown([]KnownFile{{PathComponents: []string{"a"}, Hash: Hash{1}}}); err != nil {
		t.Fatalf("AddKnown (first): %v", err)
	}
	if err := c.AddKnown([]KnownFile{{PathComponents: []string{"a"}, Hash: Hash{1}}}); err != nil {
		t.Fatalf("AddKnown (repeat, same hash): %v", err)
	}
}
