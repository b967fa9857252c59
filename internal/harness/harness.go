// Package harness establishes the repository's pass/fail ground truth.
//
// If the repository has a tests directory, an external test runner is
// invoked with a bounded timeout; otherwise every source file gets a
// parse-only compile check. Exactly one of the two strategies runs per
// invocation, and neither ever returns an error: runner spawn failures and
// timeouts are captured in the result itself.
package harness

import (
	"bytes"
	"context"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mender/internal/config"
)

// Mode names which strategy produced a Result.
type Mode string

const (
	// ModeRunner means the external test command ran.
	ModeRunner Mode = "runner"
	// ModeSyntax means the per-file parse check ran.
	ModeSyntax Mode = "syntax"
)

// FileError records one file that failed the parse check.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Result is the outcome of one harness invocation. Success is the only
// field guaranteed to be meaningful in both modes: Stdout/Stderr belong to
// ModeRunner, Errors to ModeSyntax.
type Result struct {
	Success bool        `json:"success"`
	Mode    Mode        `json:"mode"`
	Stdout  string      `json:"stdout,omitempty"`
	Stderr  string      `json:"stderr,omitempty"`
	Errors  []FileError `json:"errors,omitempty"`
}

// Run picks the strategy for root and executes it. files is the inventory
// used by the syntax fallback; the runner branch ignores it.
func Run(ctx context.Context, root string, files []string, s *config.Settings) Result {
	if info, err := os.Stat(filepath.Join(root, config.DefaultTestDir)); err == nil && info.IsDir() {
		return runCommand(ctx, root, s)
	}
	return syntaxCheck(root, files)
}

// runCommand executes the configured test command with root as the working
// directory. A spawn failure or timeout becomes a failed Result with the
// error text in Stderr; it never propagates.
func runCommand(ctx context.Context, root string, s *config.Settings) Result {
	ctx, cancel := context.WithTimeout(ctx, s.TestTimeout())
	defer cancel()

	parts := strings.Fields(s.TestCommand)
	if len(parts) == 0 {
		return Result{Success: false, Mode: ModeRunner, Stderr: "harness: empty test command"}
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Success: err == nil,
		Mode:    ModeRunner,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil && res.Stderr == "" {
		res.Stderr = err.Error()
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.Success = false
		res.Stderr = "harness: test command timed out: " + s.TestCommand
	}
	return res
}

// syntaxCheck parses every file and collects the failures.
func syntaxCheck(root string, files []string) Result {
	var errs []FileError
	fset := token.NewFileSet()
	for _, f := range files {
		if _, err := parser.ParseFile(fset, filepath.Join(root, f), nil, 0); err != nil {
			errs = append(errs, FileError{File: f, Error: err.Error()})
		}
	}
	return Result{Success: len(errs) == 0, Mode: ModeSyntax, Errors: errs}
}
