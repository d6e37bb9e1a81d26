// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// StagingHandle tracks the scratch directories allocated by a Stage call
// so Release can remove exactly what was created and nothing else.
type StagingHandle struct {
	c         *Context
	scratches []string
	touched   []*VirtualFile
}

// Release deletes every scratch directory this handle allocated and
// clears StagedPath on every node it set, regardless of whether Stage
// returned an error. Calling Release more than once is safe.
func (h *StagingHandle) Release() error {
	var firstErr error
	for _, dir := range h.scratches {
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: removing scratch directory %s: %v", ErrIoError, dir, err)
		}
	}
	h.scratches = nil

	for _, node := range h.touched {
		node.StagedPath = ""
	}
	h.touched = nil

	return firstErr
}

// Stage materializes every archive ancestor of every file in files onto
// disk, so that each file's StagedPath resolves to a real, readable
// location. It implements the algorithm in §4.5:
//
//  1. Expand every file's ancestor chain and de-duplicate by node
//     identity, collecting the set of archive nodes that need
//     extracting.
//  2. Treat each such archive node as one group: all of its direct
//     children are staged by a single extraction. Requested roots are
//     already real files and need no extraction.
//  3. Process groups in ascending NestingFactor order, so a container's
//     own StagedPath is available before any of its children are
//     extracted.
//  4. Extract each archive node once into a fresh scratch directory and
//     set StagedPath on every one of its direct children.
//
// If any extraction fails, every scratch directory allocated so far is
// deleted before Stage returns: the returned handle is already released
// and the error is the only thing the caller need surface. On success
// the caller owns the handle and must call Release when staging is no
// longer needed.
func (c *Context) Stage(ctx context.Context, files []*VirtualFile) (*StagingHandle, error) {
	handle := &StagingHandle{c: c}
	if err := c.stage(ctx, files, handle); err != nil {
		handle.Release()
		return handle, err
	}
	return handle, nil
}

func (c *Context) stage(ctx context.Context, files []*VirtualFile, handle *StagingHandle) error {
	seen := map[*VirtualFile]bool{}
	var needsExtraction []*VirtualFile
	for _, f := range files {
		for _, node := range f.FilesInFullPath() {
			if seen[node] {
				continue
			}
			seen[node] = true
			if node.IsRoot() {
				continue
			}
			if node.Parent.IsArchive() && len(node.Parent.Children) > 0 {
				needsExtraction = append(needsExtraction, node.Parent)
			}
		}
	}

	archives := map[*VirtualFile]bool{}
	var ordered []*VirtualFile
	for _, archive := range needsExtraction {
		if !archives[archive] {
			archives[archive] = true
			ordered = append(ordered, archive)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].NestingFactor() < ordered[j].NestingFactor()
	})

	for _, archive := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}

		sourcePath, err := resolvePath(archive)
		if err != nil {
			return err
		}

		scratchDir, err := c.newScratchDir()
		if err != nil {
			return err
		}
		handle.scratches = append(handle.scratches, scratchDir)

		if err := c.extractor.Extract(ctx, sourcePath, scratchDir); err != nil {
			return fmt.Errorf("%w: staging %s: %v", ErrExtractionFailed, archive.FullPath(), err)
		}

		for _, child := range archive.Children {
			childPath, err := joinStagedPath(scratchDir, child.Name)
			if err != nil {
				return err
			}
			child.StagedPath = childPath
			handle.touched = append(handle.touched, child)
		}
	}

	for _, f := range files {
		if _, err := resolvePath(f); err != nil {
			return err
		}
	}

	return nil
}

// resolvePath returns the path at which node's bytes can currently be
// read: its on-disk Name if it is a root, or its StagedPath once an
// ancestor archive has been extracted.
func resolvePath(node *VirtualFile) (string, error) {
	if node.IsRoot() {
		return node.Name, nil
	}
	if node.StagedPath == "" {
		return "", fmt.Errorf("%w: %s has no staged path", ErrLookupMissing, node.FullPath())
	}
	return node.StagedPath, nil
}

func joinStagedPath(scratchDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty child name under %s", ErrIoError, scratchDir)
	}
	return filepath.Join(scratchDir, name), nil
}
