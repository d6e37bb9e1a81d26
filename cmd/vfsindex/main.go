// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command vfsindex scans a directory into a content-addressed virtual
// file index, descending into archives, and writes the result to a
// binary cache file that a later run can load back in to skip
// re-hashing anything unchanged on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wabbajack-tools/vfsindex/lib/clock"
	"github.com/wabbajack-tools/vfsindex/lib/config"
	"github.com/wabbajack-tools/vfsindex/lib/vfs"
	"github.com/wabbajack-tools/vfsindex/lib/vfsarchive"
	"github.com/wabbajack-tools/vfsindex/lib/vfshash"
	"github.com/wabbajack-tools/vfsindex/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")

	var (
		root       string
		cachePath  string
		loadCache  bool
		stagingDir string
		configPath string
	)
	flag.StringVar(&root, "root", "", "directory to scan (required; a relative path is made absolute)")
	flag.StringVar(&cachePath, "cache", "", "cache file path (defaults to the configured cache.path)")
	flag.BoolVar(&loadCache, "load-cache", true, "load an existing cache file before scanning, if present")
	flag.StringVar(&stagingDir, "staging-dir", "", "scratch directory for archive descent (defaults to the configured staging.root)")
	flag.StringVar(&configPath, "config", "", "config file path (defaults to $VFSINDEX_CONFIG)")
	flag.Parse()

	if showVersion {
		fmt.Printf("vfsindex %s\n  Cache format: %d\n", version.Full(), vfs.CacheFormatVersion)
		return nil
	}
	if root == "" {
		return fmt.Errorf("-root is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving -root %s: %w", root, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("preparing configured directories: %w", err)
	}

	if cachePath == "" {
		cachePath = cfg.Cache.Path
	}
	if stagingDir == "" {
		stagingDir = cfg.Staging.Root
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vfsCtx := vfs.NewContext(
		vfshash.New(),
		vfsarchive.NewDetector(),
		vfsarchive.NewExtractor(),
		stagingDir,
		vfs.WithParallelism(cfg.Analysis.Parallelism),
		vfs.WithQueueDepth(cfg.Analysis.QueueDepth),
		vfs.WithLogger(logger),
		vfs.WithClock(clock.Real()),
	)

	if loadCache {
		if _, err := os.Stat(cachePath); err == nil {
			if err := vfsCtx.IntegrateFromFile(ctx, cachePath); err != nil {
				return fmt.Errorf("loading cache %s: %w", cachePath, err)
			}
			logger.Info("loaded existing cache", "path", cachePath, "files", len(vfsCtx.Index().AllFiles))
		}
	}

	logger.Info("scanning", "root", absRoot)
	if err := vfsCtx.AddRoot(ctx, absRoot); err != nil {
		return fmt.Errorf("scanning %s: %w", absRoot, err)
	}

	index := vfsCtx.Index()
	logger.Info("scan complete", "root", absRoot, "files", len(index.AllFiles))

	if err := vfsCtx.WriteToFile(cachePath); err != nil {
		return fmt.Errorf("writing cache %s: %w", cachePath, err)
	}
	logger.Info("wrote cache", "path", cachePath)

	return nil
}
