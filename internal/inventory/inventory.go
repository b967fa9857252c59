// Package inventory enumerates the source files a maintenance run operates
// on. Discovery order is the walk order of filepath.WalkDir, which is
// deterministic (lexical within each directory), so every later stage that
// iterates the file set inherits a stable order.
package inventory

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"mender/internal/config"
)

// Collect walks root and returns the forward-slash relative paths of all
// source files, filtered by the configured extensions and exclude rules.
// Version-control and generated-content directories (any dot-prefixed
// directory, vendor, testdata) are skipped, as is mender's own output
// directory. The returned slice contains no duplicates.
//
// An unreadable root is the only fatal condition; unreadable subtrees
// surface through WalkDir's error and abort the walk the same way.
func Collect(root string, s *config.Settings) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.HasExtension(name) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("rel path %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)
		if s.IsExcluded(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: walk %s: %w", root, err)
	}
	return files, nil
}
