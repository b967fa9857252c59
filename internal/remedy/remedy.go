// Package remedy applies planned actions to the repository, the only
// stage in the pipeline that writes source files.
//
// Two documented limitations are kept on purpose: fix_eval is a pure
// textual substitution that does not prove the rewrite preserves
// semantics, and refactor_note appends its note on every run, so repeated
// runs accumulate duplicate notes. fix_eval is idempotent (replacing all
// occurrences is a fixed point); refactor_note is not.
package remedy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mender/internal/config"
	"mender/internal/plan"
)

// Change records one applied file mutation.
type Change struct {
	File   string `json:"file"`
	Update string `json:"update"`
}

// Apply executes each action in order against root. Mutations are not
// transactional: a failure partway through leaves earlier writes in place
// and aborts the run, per the pipeline's fatal-I/O policy.
func Apply(root string, actions []plan.Action, s *config.Settings) ([]Change, error) {
	changes := []Change{}
	for _, a := range actions {
		switch a.Kind {
		case plan.FixEval:
			if err := rewriteFile(root, a.File, func(text string) string {
				return strings.ReplaceAll(text, s.UnsafeCall, s.SafeCall)
			}); err != nil {
				return changes, fmt.Errorf("remedy: fix_eval %s: %w", a.File, err)
			}
			changes = append(changes, Change{File: a.File, Update: "unsafe call replaced"})
		case plan.RefactorNote:
			if err := rewriteFile(root, a.File, func(text string) string {
				return text + "\n" + s.Note + "\n"
			}); err != nil {
				return changes, fmt.Errorf("remedy: refactor_note %s: %w", a.File, err)
			}
			changes = append(changes, Change{File: a.File, Update: "refactor note added"})
		case plan.InvestigateTestFailure:
			// Signal only; recorded in the plan, acted on by nobody.
		}
	}
	return changes, nil
}

// rewriteFile reads, transforms, and overwrites one file.
func rewriteFile(root, file string, transform func(string) string) error {
	path := filepath.Join(root, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return os.WriteFile(path, []byte(transform(string(data))), 0o644)
}
