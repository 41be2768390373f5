// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// ErrNoMatch is returned when a search finds nothing.
var ErrNoMatch = errors.New("fsutil: no matching files")

// FindFiles lists the regular files directly inside dir whose base name
// matches the shell pattern, e.g. "loweroutput_G4_W_*.txt". Subdirectories
// are not descended into. The result is sorted lexically.
func FindFiles(dir string, pattern string) ([]string, error) {
	if pattern == "" {
		panic("pattern must not be empty")
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("fsutil: pattern %q: %w", pattern, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, filepath.Join(dir, pattern))
	}

	sort.Strings(files)
	return files, nil
}

// Exists reports whether path names an existing regular file.
func Exists(fsys fs.StatFS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
