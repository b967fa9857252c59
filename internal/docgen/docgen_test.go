package docgen_test

import (
	"os"
	"strings"
	"testing"

	"mender/internal/deps"
	"mender/internal/docgen"
)

func TestWriteListsFilesAndDependencyUnion(t *testing.T) {
	root := t.TempDir()
	files := []string{"a.go", "sub/b.go"}
	depMap := deps.Map{
		"a.go":     {"os", "fmt"},
		"sub/b.go": {"fmt", "net"},
	}

	path, err := docgen.Write(root, files, depMap)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)

	if !strings.HasPrefix(doc, "---\n") {
		t.Error("document missing YAML frontmatter")
	}
	for _, f := range files {
		if !strings.Contains(doc, "- "+f) {
			t.Errorf("document missing file entry %q", f)
		}
	}
	// Union deduplicated and sorted.
	idxFmt := strings.Index(doc, "- fmt")
	idxNet := strings.Index(doc, "- net")
	idxOs := strings.Index(doc, "- os")
	if idxFmt < 0 || idxNet < 0 || idxOs < 0 {
		t.Fatalf("document missing dependency entries:\n%s", doc)
	}
	if !(idxFmt < idxNet && idxNet < idxOs) {
		t.Errorf("dependencies not alphabetically sorted:\n%s", doc)
	}
	if strings.Count(doc, "- fmt") != 1 {
		t.Errorf("dependency union not deduplicated:\n%s", doc)
	}
}

func TestWriteOverwritesPreviousDoc(t *testing.T) {
	root := t.TempDir()
	if _, err := docgen.Write(root, []string{"old.go"}, deps.Map{"old.go": {"io"}}); err != nil {
		t.Fatal(err)
	}
	path, err := docgen.Write(root, []string{"new.go"}, deps.Map{"new.go": {}})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "old.go") {
		t.Error("previous run's content survived the overwrite")
	}
}

func TestWriteEmptyInventory(t *testing.T) {
	root := t.TempDir()
	path, err := docgen.Write(root, nil, deps.Map{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "file_count: 0") {
		t.Errorf("empty inventory doc missing zero file count:\n%s", data)
	}
}
