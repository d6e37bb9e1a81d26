// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// newScratchDir allocates a fresh, randomly named subdirectory under
// c.stagingRoot, used by both Analyze's archive descent and Stager.
// Directories are never reused across invocations.
func (c *Context) newScratchDir() (string, error) {
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("%w: generating scratch directory name: %v", ErrIoError, err)
	}

	dir := filepath.Join(c.stagingRoot, hex.EncodeToString(id))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating scratch directory %s: %v", ErrIoError, dir, err)
	}
	return dir, nil
}
