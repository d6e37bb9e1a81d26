// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wabbajack-tools/vfsindex/lib/vfspipeline"
)

// Analyze computes a VirtualFile for the file at onDiskPath. It hashes
// the stream, asks the ArchiveDetector whether it looks like a
// descendable container, and if so extracts it into a scratch directory
// and recursively analyzes every extracted file with parent set to the
// returned node. The scratch directory is deleted before Analyze
// returns, regardless of outcome.
//
// For a root (parent nil), LastModified is captured from the on-disk
// file's modification time; virtual children leave it unset.
//
// If parent is non-nil, the returned node is linked into parent.Children
// before Analyze returns (enforcing the sibling-name-uniqueness
// invariant).
//
// Archive extraction failure downgrades the node to a non-archive leaf;
// its own hash and size still stand. I/O or hashing errors are fatal and
// abort the containing analysis call.
func (c *Context) Analyze(ctx context.Context, parent *VirtualFile, onDiskPath, logicalName string) (*VirtualFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(onDiskPath)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIoError, onDiskPath, err)
	}

	hash, err := c.hashFile(onDiskPath)
	if err != nil {
		return nil, err
	}

	node := &VirtualFile{
		Name:      logicalName,
		Hash:      hash,
		HashValid: true,
		Size:      info.Size(),
		context:   c,
	}
	if parent == nil {
		node.LastModified = info.ModTime()
		node.HasLastModified = true
	}

	if c.detector.IsArchive(onDiskPath) {
		if err := c.descendArchive(ctx, node, onDiskPath); err != nil {
			if errors.Is(err, ErrExtractionFailed) {
				c.logger.Warn("archive extraction failed, treating as leaf file",
					"path", onDiskPath, "error", err)
				node.Children = nil
			} else {
				return nil, err
			}
		}
	}

	if parent != nil {
		if err := parent.addChild(node); err != nil {
			return nil, err
		}
	}

	return node, nil
}

func (c *Context) hashFile(path string) (Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: opening %s: %v", ErrIoError, path, err)
	}
	defer file.Close()

	hash, err := c.hasher.Hash(file)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: hashing %s: %v", ErrHashFailed, path, err)
	}
	return hash, nil
}

// descendArchive extracts archivePath into a fresh scratch directory,
// recursively Analyzes each extracted file with node as parent, and
// removes the scratch directory before returning. An extraction failure
// is returned wrapping ErrExtractionFailed; any other error is fatal.
func (c *Context) descendArchive(ctx context.Context, node *VirtualFile, archivePath string) error {
	scratchDir, err := c.newScratchDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratchDir)

	if err := c.extractor.Extract(ctx, archivePath, scratchDir); err != nil {
		return fmt.Errorf("%w: extracting %s: %v", ErrExtractionFailed, archivePath, err)
	}

	var entries []string
	err = filepath.WalkDir(scratchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		entries = append(entries, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: enumerating extracted tree %s: %v", ErrIoError, scratchDir, err)
	}

	for _, entryPath := range entries {
		rel, err := filepath.Rel(scratchDir, entryPath)
		if err != nil {
			return fmt.Errorf("%w: computing relative path under %s: %v", ErrIoError, scratchDir, err)
		}
		rel = filepath.ToSlash(rel)
		if _, err := c.Analyze(ctx, node, entryPath, rel); err != nil {
			return err
		}
	}
	return nil
}

// diskStateOf extracts the (size, mtime) pair the reuse gate compares
// against a stored VirtualFile.
func diskStateOf(info fs.FileInfo) DiskState {
	return DiskState{Size: info.Size(), LastModified: info.ModTime()}
}

// matchesDiskState reports whether stored is unchanged relative to
// state: equal size and equal last-modified time. No content comparison
// is ever performed.
func matchesDiskState(stored *VirtualFile, state DiskState) bool {
	return stored.HasLastModified && stored.Size == state.Size && stored.LastModified.Equal(state.LastModified)
}

// scanRoot implements the Analyzer pipeline (§4.2): filter the current
// Index to roots still present on disk, enumerate dir, reuse unchanged
// entries, analyze everything else concurrently, and return the full set
// to be integrated.
func (c *Context) scanRoot(ctx context.Context, dir string) ([]*VirtualFile, error) {
	if !filepath.IsAbs(dir) {
		return nil, fmt.Errorf("%w: %s", ErrNotAbsolutePath, dir)
	}

	snapshot := c.Index()

	surviving := make([]*VirtualFile, 0, len(snapshot.AllFiles))
	byPath := make(map[string]*VirtualFile, len(snapshot.AllFiles))
	for _, root := range snapshot.AllFiles {
		if _, err := os.Stat(root.Name); err == nil {
			surviving = append(surviving, root)
			byPath[root.Name] = root
		}
	}

	var toAnalyze []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if stored, ok := byPath[path]; ok {
			if info, statErr := d.Info(); statErr == nil && matchesDiskState(stored, diskStateOf(info)) {
				return nil
			}
		}
		toAnalyze = append(toAnalyze, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating %s: %v", ErrIoError, dir, err)
	}

	analyzed, err := vfspipeline.Run(ctx, toAnalyze, c.parallelism, c.queueDepth,
		func(ctx context.Context, path string) (*VirtualFile, error) {
			return c.Analyze(ctx, nil, path, path)
		})
	if err != nil {
		return nil, err
	}

	return append(surviving, analyzed...), nil
}
