// Package plan turns detected defects and the pre-fix test outcome into an
// ordered list of remediation actions. The mapping is a fixed table, not a
// heuristic, so the plan is a pure deterministic function of its inputs.
package plan

import (
	"mender/internal/defects"
	"mender/internal/harness"
)

// ActionKind names a remediation.
type ActionKind string

const (
	// FixEval rewrites unsafe dynamic-evaluation calls to the configured
	// literal-parsing equivalent.
	FixEval ActionKind = "fix_eval"
	// RefactorNote appends a refactor note to a file with an oversized
	// function.
	RefactorNote ActionKind = "refactor_note"
	// InvestigateTestFailure is a whole-repository signal carrying no file.
	// Nothing acts on it; it only surfaces in the plan and report.
	InvestigateTestFailure ActionKind = "investigate_test_failure"
)

// Action is one planned remediation. File is empty for
// InvestigateTestFailure.
type Action struct {
	File string     `json:"file,omitempty"`
	Kind ActionKind `json:"action"`
}

// Build maps every defect to its action, iterating files in discovery
// order and defects in detection order, then appends a single
// InvestigateTestFailure entry if the pre-fix tests failed.
func Build(report *defects.Report, tests harness.Result) []Action {
	actions := []Action{}
	for _, f := range report.Files {
		for _, d := range report.ByFile[f] {
			switch d.Kind {
			case defects.Security:
				actions = append(actions, Action{File: f, Kind: FixEval})
			case defects.Complexity:
				actions = append(actions, Action{File: f, Kind: RefactorNote})
			}
		}
	}
	if !tests.Success {
		actions = append(actions, Action{Kind: InvestigateTestFailure})
	}
	return actions
}
