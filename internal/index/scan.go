// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pdiddy/paper-fetch/internal/manifest"
)

// ScanDir builds a skip-set from the filenames in dir, taking the second
// "_"-separated segment of each {prefix}_{id}_{name} file as its
// identifier. Names with fewer than three segments are ignored, as are
// hidden files and directories. A missing dir yields an empty set.
//
// Identifiers containing "_" cannot round-trip through a filename; the
// index is the authoritative record for those.
func ScanDir(dir string) (manifest.SkipSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return manifest.SkipSet{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	skip := manifest.SkipSet{}
	for _, e := range entries {
		if !isPaperFile(e) {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 3)
		if len(parts) < 3 || parts[1] == "" {
			continue
		}
		skip.Add(parts[1])
	}
	return skip, nil
}

// CountFiles returns the number of paper files in dir.
func CountFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if isPaperFile(e) {
			n++
		}
	}
	return n, nil
}

// isPaperFile excludes directories and dot-files, which covers the index
// database and in-progress temp files.
func isPaperFile(e fs.DirEntry) bool {
	return !e.IsDir() && !strings.HasPrefix(e.Name(), ".")
}
