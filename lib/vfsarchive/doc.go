// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfsarchive provides the default [vfs.ArchiveDetector] and
// [vfs.ArchiveExtractor] used by vfsindex: zip files by way of
// archive/zip, and tar or tar.gz files by way of archive/tar and
// compress/gzip. No third-party archive library is used here: none of
// the retrieved reference projects pull one in, and the standard
// library's zip and tar packages cover the two container formats
// vfsindex needs to descend into.
package vfsarchive
