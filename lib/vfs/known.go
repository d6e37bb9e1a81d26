// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"fmt"
	"sort"
)

// KnownFile is a backfill hint: an ordered list of path components from
// root to leaf, and the hash of the leaf file. It reconstructs virtual
// parent→child relationships for archives whose contents are attested
// externally, without performing extraction.
type KnownFile struct {
	PathComponents []string
	Hash           Hash
}

// AddKnown appends records to the pending known-file list. It performs
// no index mutation; call BackfillMissing to materialize them.
//
// Per the open question on known-file root hashes, a record whose single
// path component collides with an already-pending record under a
// different hash is rejected rather than silently accepted: the
// specification leaves this case undefined, and vfsindex chooses to fail
// loudly instead of letting one of the two hashes win arbitrarily.
func (c *Context) AddKnown(records []KnownFile) error {
	rootHashes := map[string]Hash{}
	for _, existing := range c.knownFiles {
		if len(existing.PathComponents) == 1 {
			rootHashes[existing.PathComponents[0]] = existing.Hash
		}
	}

	for _, rec := range records {
		if len(rec.PathComponents) == 0 {
			return fmt.Errorf("%w: known file record has no path components", ErrLookupMissing)
		}
		if len(rec.PathComponents) == 1 {
			name := rec.PathComponents[0]
			if prior, ok := rootHashes[name]; ok && prior != rec.Hash {
				return fmt.Errorf("%w: known file root %q already attested with a different hash", ErrLookupMissing, name)
			}
			rootHashes[name] = rec.Hash
		}
	}

	c.knownFiles = append(c.knownFiles, records...)
	return nil
}

// BackfillMissing materializes every pending known-file record into
// synthesized VirtualFile nodes, integrates them into Index, and clears
// the pending list.
//
// Every 1-length record becomes a synthesized root keyed by its single
// path component. Every longer record is walked from that root: for each
// subsequent path component, an existing child is reused or a new one is
// created, linking parent→child. Only the record's leaf node receives
// the attested Hash; every intermediate node created along the way is a
// structural placeholder with HashValid false — the backfill attests
// topology, not content, so implementations must not assume backfilled
// non-leaf nodes appear in ByHash.
func (c *Context) BackfillMissing(ctx context.Context) error {
	roots := map[string]*VirtualFile{}
	rootOf := func(name string) *VirtualFile {
		root, ok := roots[name]
		if !ok {
			root = &VirtualFile{Name: name, context: c}
			roots[name] = root
		}
		return root
	}

	for _, rec := range c.knownFiles {
		if len(rec.PathComponents) == 0 {
			return fmt.Errorf("%w: known file record has no path components", ErrLookupMissing)
		}

		current := rootOf(rec.PathComponents[0])
		for _, segment := range rec.PathComponents[1:] {
			child := current.childByName(segment)
			if child == nil {
				child = &VirtualFile{Name: segment, context: c}
				if err := current.addChild(child); err != nil {
					return err
				}
			}
			current = child
		}
		current.Hash = rec.Hash
		current.HashValid = true
	}

	newRoots := make([]*VirtualFile, 0, len(roots))
	for _, root := range roots {
		newRoots = append(newRoots, root)
	}
	sort.Slice(newRoots, func(i, j int) bool { return newRoots[i].Name < newRoots[j].Name })

	if err := c.integrateRoots(ctx, newRoots); err != nil {
		return err
	}
	c.knownFiles = nil
	return nil
}
