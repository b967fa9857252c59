// Package docgen emits the human-readable maintenance document: a
// markdown file with YAML frontmatter listing every inventoried file and
// the union of their dependencies. The document is regenerated from
// scratch on every run.
package docgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mender/internal/deps"
)

// DocFile is the document's name under the repository root.
const DocFile = "MAINTENANCE.md"

// docFrontmatter is the YAML block at the top of the document.
type docFrontmatter struct {
	Generator    string   `yaml:"generator"`
	FileCount    int      `yaml:"file_count"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// Write renders and overwrites the maintenance document under root,
// returning its path.
func Write(root string, files []string, depMap deps.Map) (string, error) {
	union := depMap.Union()

	fm, err := yaml.Marshal(docFrontmatter{
		Generator:    "mender",
		FileCount:    len(files),
		Dependencies: union,
	})
	if err != nil {
		return "", fmt.Errorf("docgen: marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString("# Maintenance Overview\n\n")
	buf.WriteString("## Files\n\n")
	for _, f := range files {
		fmt.Fprintf(&buf, "- %s\n", f)
	}
	buf.WriteString("\n## Dependencies\n\n")
	for _, d := range union {
		fmt.Fprintf(&buf, "- %s\n", d)
	}

	path := filepath.Join(root, DocFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("docgen: write %s: %w", path, err)
	}
	return path, nil
}
