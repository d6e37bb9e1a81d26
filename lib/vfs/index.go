// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"fmt"

	"github.com/wabbajack-tools/vfsindex/lib/vfspipeline"
)

// ArchiveFacts is a derived, never-persisted summary of one root
// archive, computed once per Integrate during the same traversal that
// builds the four lookup tables. It exists purely for CLI/observability
// reporting and plays no part in the cache round-trip invariant.
type ArchiveFacts struct {
	ChildCount         int
	TotalExtractedSize int64
	DeepestNesting     int
}

// IndexRoot is an immutable snapshot of the file forest: a list of root
// files plus four tables derived from a full pre-order traversal.
// Integrate always returns a fresh IndexRoot; existing instances are
// never mutated, so readers holding an old IndexRoot never observe torn
// state.
type IndexRoot struct {
	AllFiles   []*VirtualFile
	ByFullPath map[string]*VirtualFile
	ByRootPath map[string]*VirtualFile
	ByHash     map[Hash][]*VirtualFile
	ByName     map[string][]*VirtualFile

	archiveFacts map[Hash]ArchiveFacts
}

// emptyIndexRoot returns the IndexRoot with no roots, used as the base
// for a brand new Context.
func emptyIndexRoot() *IndexRoot {
	return &IndexRoot{
		AllFiles:     nil,
		ByFullPath:   map[string]*VirtualFile{},
		ByRootPath:   map[string]*VirtualFile{},
		ByHash:       map[Hash][]*VirtualFile{},
		ByName:       map[string][]*VirtualFile{},
		archiveFacts: map[Hash]ArchiveFacts{},
	}
}

// ArchiveFacts returns the cached summary for the root archive with the
// given hash, and whether one was found. Only roots that are archives
// (IsArchive() true) have an entry.
func (idx *IndexRoot) ArchiveFacts(hash Hash) (ArchiveFacts, bool) {
	facts, ok := idx.archiveFacts[hash]
	return facts, ok
}

// Integrate merges newRoots into idx's root list and returns a fresh
// IndexRoot. idx itself is never mutated.
//
// Step 1: concatenate AllFiles ++ newRoots, group by Name, and within
// each group keep the last occurrence — later wins on path collision.
// Step 2: build the four derived tables (plus ArchiveFacts) in parallel
// by a full pre-order traversal of the resulting root list.
func (idx *IndexRoot) Integrate(ctx context.Context, newRoots []*VirtualFile, parallelism int) (*IndexRoot, error) {
	combined := make([]*VirtualFile, 0, len(idx.AllFiles)+len(newRoots))
	combined = append(combined, idx.AllFiles...)
	combined = append(combined, newRoots...)

	order := make([]string, 0, len(combined))
	last := make(map[string]*VirtualFile, len(combined))
	for _, f := range combined {
		if _, seen := last[f.Name]; !seen {
			order = append(order, f.Name)
		}
		last[f.Name] = f
	}

	mergedRoots := make([]*VirtualFile, len(order))
	for i, name := range order {
		mergedRoots[i] = last[name]
	}

	type partial struct {
		byFullPath map[string]*VirtualFile
		byHash     map[Hash][]*VirtualFile
		byName     map[string][]*VirtualFile
		facts      ArchiveFacts
		hasFacts   bool
		rootHash   Hash
	}

	partials, err := vfspipeline.Run(ctx, mergedRoots, parallelism, vfspipeline.DefaultQueueDepth,
		func(_ context.Context, root *VirtualFile) (partial, error) {
			p := partial{
				byFullPath: map[string]*VirtualFile{},
				byHash:     map[Hash][]*VirtualFile{},
				byName:     map[string][]*VirtualFile{},
			}
			var totalSize int64
			var childCount int
			deepest := 0
			for _, node := range root.ThisAndAllChildren() {
				p.byFullPath[node.FullPath()] = node
				if node.HashValid {
					p.byHash[node.Hash] = append(p.byHash[node.Hash], node)
				}
				p.byName[node.Name] = append(p.byName[node.Name], node)
				if node != root {
					childCount++
					totalSize += node.Size
				}
				if nf := node.NestingFactor() - root.NestingFactor(); nf > deepest {
					deepest = nf
				}
			}
			if root.IsArchive() {
				p.hasFacts = true
				p.rootHash = root.Hash
				p.facts = ArchiveFacts{
					ChildCount:         childCount,
					TotalExtractedSize: totalSize,
					DeepestNesting:     deepest,
				}
			}
			return p, nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: integrating roots: %v", ErrIoError, err)
	}

	merged := &IndexRoot{
		AllFiles:     mergedRoots,
		ByFullPath:   map[string]*VirtualFile{},
		ByRootPath:   map[string]*VirtualFile{},
		ByHash:       map[Hash][]*VirtualFile{},
		ByName:       map[string][]*VirtualFile{},
		archiveFacts: map[Hash]ArchiveFacts{},
	}
	for _, root := range mergedRoots {
		merged.ByRootPath[root.Name] = root
	}
	for _, p := range partials {
		for k, v := range p.byFullPath {
			merged.ByFullPath[k] = v
		}
		for k, v := range p.byHash {
			merged.ByHash[k] = append(merged.ByHash[k], v...)
		}
		for k, v := range p.byName {
			merged.ByName[k] = append(merged.ByName[k], v...)
		}
		if p.hasFacts {
			merged.archiveFacts[p.rootHash] = p.facts
		}
	}

	return merged, nil
}

// FileForArchiveHashPath resolves an archive hash path: segments[0] is a
// root archive's hash, and each subsequent segment is a child basename
// under the previously resolved node.
func (idx *IndexRoot) FileForArchiveHashPath(segments []string) (*VirtualFile, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty archive hash path", ErrLookupMissing)
	}

	rootHash, err := ParseHash(segments[0])
	if err != nil {
		return nil, err
	}

	var current *VirtualFile
	for _, candidate := range idx.ByHash[rootHash] {
		if candidate.IsRoot() {
			current = candidate
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("%w: no root archive with hash %s", ErrLookupMissing, segments[0])
	}

	for _, name := range segments[1:] {
		var next *VirtualFile
		for _, candidate := range idx.ByName[name] {
			if candidate.Parent == current {
				next = candidate
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: no child %q under %s", ErrLookupMissing, name, current.FullPath())
		}
		current = next
	}

	return current, nil
}
