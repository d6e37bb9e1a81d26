// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"

	"github.com/wabbajack-tools/vfsindex/lib/vfspipeline"
)

// PortableFile is a serialization-only record for compact exchange of
// forest state across machines: {name, hash, parent_hash, size}. Name is
// nil for a root (the sentinel marking that its real path is local and
// not portable); ParentHash is nil for the same reason.
type PortableFile struct {
	Name       *string
	Hash       Hash
	ParentHash *Hash
	Size       int64
}

// GetPortableState flattens the ancestor chain of every file in files
// into a de-duplicated (by hash) list of PortableFile records, suitable
// for IntegrateFromPortable on another Context.
func (c *Context) GetPortableState(files []*VirtualFile) []PortableFile {
	seen := map[Hash]bool{}
	var out []PortableFile

	for _, f := range files {
		for _, node := range f.FilesInFullPath() {
			if !node.HashValid || seen[node.Hash] {
				continue
			}
			seen[node.Hash] = true

			var name *string
			var parentHash *Hash
			if node.Parent != nil {
				n := node.Name
				name = &n
				if node.Parent.HashValid {
					ph := node.Parent.Hash
					parentHash = &ph
				}
			}

			out = append(out, PortableFile{
				Name:       name,
				Hash:       node.Hash,
				ParentHash: parentHash,
				Size:       node.Size,
			})
		}
	}

	return out
}

// IntegrateFromPortable reconstructs VirtualFile trees from state,
// grouping by ParentHash (treating a nil ParentHash as the root
// sentinel), and integrates the resulting roots. linkMap optionally
// supplies an on-disk path for a root-level hash, resolving Name back to
// an absolute path when the record's own Name is the nil sentinel.
func (c *Context) IntegrateFromPortable(ctx context.Context, state []PortableFile, linkMap map[Hash]string) error {
	var sentinel Hash
	byParent := map[Hash][]PortableFile{}
	for _, rec := range state {
		key := sentinel
		if rec.ParentHash != nil {
			key = *rec.ParentHash
		}
		byParent[key] = append(byParent[key], rec)
	}

	roots, err := vfspipeline.Run(ctx, byParent[sentinel], c.parallelism, c.queueDepth,
		func(_ context.Context, rec PortableFile) (*VirtualFile, error) {
			return c.buildFromPortable(rec, byParent, linkMap)
		})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.integrateRoots(ctx, roots)
}

// buildFromPortable recursively materializes a VirtualFile from rec. If
// rec's hash appears as a key in byParent, the node is an archive and
// each matching record is recursively materialized as a child.
func (c *Context) buildFromPortable(rec PortableFile, byParent map[Hash][]PortableFile, linkMap map[Hash]string) (*VirtualFile, error) {
	name := ""
	switch {
	case rec.Name != nil:
		name = *rec.Name
	case linkMap != nil:
		if resolved, ok := linkMap[rec.Hash]; ok {
			name = resolved
		}
	}

	node := &VirtualFile{
		Name:      name,
		Hash:      rec.Hash,
		HashValid: true,
		Size:      rec.Size,
		context:   c,
	}

	for _, childRec := range byParent[rec.Hash] {
		child, err := c.buildFromPortable(childRec, byParent, linkMap)
		if err != nil {
			return nil, err
		}
		if err := node.addChild(child); err != nil {
			return nil, err
		}
	}

	return node, nil
}
