// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"strings"
	"time"
)

// FullPathDelimiter separates archive-internal names along a node's
// ancestor chain when composing FullPath. It is reserved: a logical name
// containing it will not round-trip through FullPath lookups. Analyze
// does not check names for it.
const FullPathDelimiter = "::"

// VirtualFile is one node in the file forest: either a root (an on-disk
// file, Parent nil, Name an absolute path) or a child produced by
// extracting a parent archive (Name the path of the file within that
// archive).
//
// Invariants:
//  1. c.Parent == f for every c in f.Children.
//  2. If f.Parent == nil, f.Name is an absolute filesystem path that
//     existed on disk when f was created.
//  3. Sibling Children have distinct Names.
//  4. f.Hash, once HashValid, never changes.
//  5. f.StagedPath is set only while a Stager handle covering f is live.
type VirtualFile struct {
	Name     string
	Parent   *VirtualFile
	Children []*VirtualFile

	Hash      Hash
	HashValid bool
	Size      int64

	// LastModified is defined only for roots; virtual children leave it
	// unset (HasLastModified false).
	LastModified    time.Time
	HasLastModified bool

	// StagedPath is transient and never persisted: the Stager sets it
	// while a handle covering this node is live and clears it on
	// release.
	StagedPath string

	context *Context
}

// childByName returns the existing child named name, or nil.
func (f *VirtualFile) childByName(name string) *VirtualFile {
	for _, c := range f.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// addChild appends child to f.Children after verifying the sibling-name
// uniqueness invariant, and links child.Parent back to f.
func (f *VirtualFile) addChild(child *VirtualFile) error {
	if f.childByName(child.Name) != nil {
		return fmt.Errorf("%w: duplicate child name %q under %s", ErrIoError, child.Name, f.FullPath())
	}
	child.Parent = f
	f.Children = append(f.Children, child)
	return nil
}

// IsRoot reports whether f has no parent.
func (f *VirtualFile) IsRoot() bool {
	return f.Parent == nil
}

// IsArchive reports whether f has at least one child.
func (f *VirtualFile) IsArchive() bool {
	return len(f.Children) > 0
}

// ThisAndAllChildren returns a pre-order traversal of f's subtree,
// starting with f itself.
func (f *VirtualFile) ThisAndAllChildren() []*VirtualFile {
	result := make([]*VirtualFile, 0, 1+len(f.Children))
	var walk func(*VirtualFile)
	walk = func(n *VirtualFile) {
		result = append(result, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(f)
	return result
}

// FilesInFullPath returns the ancestor chain from the root down to f,
// inclusive.
func (f *VirtualFile) FilesInFullPath() []*VirtualFile {
	var reversed []*VirtualFile
	for n := f; n != nil; n = n.Parent {
		reversed = append(reversed, n)
	}
	chain := make([]*VirtualFile, len(reversed))
	for i, n := range reversed {
		chain[len(reversed)-1-i] = n
	}
	return chain
}

// NestingFactor returns the number of ancestors of f; roots have 0.
func (f *VirtualFile) NestingFactor() int {
	n := 0
	for p := f.Parent; p != nil; p = p.Parent {
		n++
	}
	return n
}

// FullPath composes a path from the names along f's ancestor chain: the
// root's absolute path, then each archive-internal name, separated by
// [FullPathDelimiter].
func (f *VirtualFile) FullPath() string {
	chain := f.FilesInFullPath()
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.Name
	}
	return strings.Join(names, FullPathDelimiter)
}
