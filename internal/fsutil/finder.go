// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FindFilesByPattern recursively searches rootPath for regular files whose
// base name matches pattern (filepath.Match syntax, case-sensitive). A
// symlinked rootPath is followed, as are matching symlinks to regular files;
// symlinked subdirectories are not. The returned paths are joined onto
// rootPath as given and sorted lexically so callers get a stable launch
// order; correctness must not depend on it.
func FindFilesByPattern(rootPath string, pattern string) ([]string, error) {
	if pattern == "" {
		panic("pattern must not be empty")
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	walkRoot, err := filepath.EvalSymlinks(rootPath)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); !ok || !isRegularFile(path, d) {
			return nil
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.Join(rootPath, rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// isRegularFile reports whether d is a regular file or a symlink to one.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsEmptyDir reports whether dir has no entries. A directory that does not
// exist is reported as empty.
func IsEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

// Depth returns the number of path elements in rel, a slash- or
// separator-delimited relative path. "." and "" have depth 0.
func Depth(rel string) int {
	rel = filepath.Clean(rel)
	if rel == "." || rel == "" {
		return 0
	}
	n := 1
	for _, r := range rel {
		if r == filepath.Separator {
			n++
		}
	}
	return n
}
