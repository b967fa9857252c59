// Package defects scans source files for a fixed set of defect patterns.
//
// Two checks run per file, always in the same order: a textual security
// check for unsafe dynamic-evaluation calls, then an AST-based complexity
// check for oversized functions. The split is deliberate: the security
// check is a raw substring match so it still fires on files too broken to
// parse, while the complexity check silently skips them.
package defects

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/ast/inspector"

	"mender/internal/config"
)

// Kind classifies a defect.
type Kind string

const (
	Security   Kind = "security"
	Complexity Kind = "complexity"
)

// Defect is one detected issue in one file.
type Defect struct {
	File    string `json:"file"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Report holds per-file defects in detection order. Files preserves the
// inventory's discovery order so iteration stays deterministic; ByFile has
// an entry for every file, possibly empty.
type Report struct {
	Files  []string
	ByFile map[string][]Defect
}

// Total returns the number of defects across all files.
func (r *Report) Total() int {
	n := 0
	for _, ds := range r.ByFile {
		n += len(ds)
	}
	return n
}

// Check inspects one file's raw text for defects of a single kind.
type Check interface {
	Name() string
	Inspect(file string, src []byte) []Defect
}

// Detector runs an ordered list of checks over a file set.
type Detector struct {
	checks []Check
}

// NewDetector builds the standard detector: security before complexity.
func NewDetector(s *config.Settings) *Detector {
	return &Detector{checks: []Check{
		&unsafeCallCheck{token: s.UnsafeCall},
		&funcLengthCheck{maxLines: s.MaxFuncLines},
	}}
}

// Scan reads each file under root and runs every check against it. An
// unreadable file yields an empty entry; detection never fails the batch.
func (d *Detector) Scan(root string, files []string) *Report {
	report := &Report{
		Files:  files,
		ByFile: make(map[string][]Defect, len(files)),
	}
	for _, f := range files {
		found := []Defect{}
		src, err := os.ReadFile(filepath.Join(root, f))
		if err == nil {
			for _, c := range d.checks {
				found = append(found, c.Inspect(f, src)...)
			}
		}
		report.ByFile[f] = found
	}
	return report
}

// unsafeCallCheck flags files containing a dynamic-evaluation call token.
// One defect per file, no matter how many call sites.
type unsafeCallCheck struct {
	token string
}

func (c *unsafeCallCheck) Name() string { return "unsafe-call" }

func (c *unsafeCallCheck) Inspect(file string, src []byte) []Defect {
	if !containsToken(src, c.token) {
		return nil
	}
	return []Defect{{
		File:    file,
		Kind:    Security,
		Message: fmt.Sprintf("unsafe %s call found", callName(c.token)),
	}}
}

// funcLengthCheck flags every function declaration whose source span
// exceeds maxLines. Functions are visited in pre-order, so defects come
// out in source order.
type funcLengthCheck struct {
	maxLines int
}

func (c *funcLengthCheck) Name() string { return "func-length" }

func (c *funcLengthCheck) Inspect(file string, src []byte) []Defect {
	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, src, 0)
	if err != nil {
		return nil
	}
	var found []Defect
	ins := inspector.New([]*ast.File{parsed})
	ins.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fd := n.(*ast.FuncDecl)
		span := fset.Position(fd.End()).Line - fset.Position(fd.Pos()).Line + 1
		if span > c.maxLines {
			found = append(found, Defect{
				File:    file,
				Kind:    Complexity,
				Message: fmt.Sprintf("function %q is too long (%d lines)", fd.Name.Name, span),
			})
		}
	})
	return found
}

func containsToken(src []byte, token string) bool {
	return token != "" && bytes.Contains(src, []byte(token))
}

// callName strips a trailing "(" from a call token for message text.
func callName(token string) string {
	if n := len(token); n > 0 && token[n-1] == '(' {
		return token[:n-1] + "()"
	}
	return token
}
