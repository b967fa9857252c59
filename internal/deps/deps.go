// Package deps maps each source file to the set of top-level modules it
// imports. The mapper is best-effort by contract: a file that cannot be
// read or parsed maps to the empty set, and one malformed file never
// aborts analysis of the rest.
package deps

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
)

// Map associates a relative file path with the sorted, deduplicated
// top-level names of its imports.
type Map map[string][]string

// Build parses every file under root and extracts its imports. Parse and
// read failures collapse to an empty entry at this boundary; the per-file
// work is in parseImports, which still reports them, so the collapse is a
// policy of Build rather than a silent discard.
func Build(root string, files []string) Map {
	m := make(Map, len(files))
	for _, f := range files {
		imports, err := parseImports(filepath.Join(root, f))
		if err != nil {
			m[f] = []string{}
			continue
		}
		m[f] = imports
	}
	return m
}

// parseImports returns the sorted set of top-level import names for one
// file, using an imports-only parse.
func parseImports(path string) ([]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	seen := make(map[string]bool)
	for _, imp := range file.Imports {
		p := strings.Trim(imp.Path.Value, `"`)
		seen[TopLevel(p)] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// TopLevel truncates an import path to its first segment: "net/http"
// becomes "net", "github.com/user/repo" becomes "github.com". Dotted
// segments are not split further.
func TopLevel(importPath string) string {
	if i := strings.IndexByte(importPath, '/'); i >= 0 {
		return importPath[:i]
	}
	return importPath
}

// Union returns the deduplicated, alphabetically sorted union of all
// dependency names in m.
func (m Map) Union() []string {
	seen := make(map[string]bool)
	for _, names := range m {
		for _, n := range names {
			seen[n] = true
		}
	}
	union := make([]string, 0, len(seen))
	for n := range seen {
		union = append(union, n)
	}
	sort.Strings(union)
	return union
}
