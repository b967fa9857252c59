// Package pipeline sequences one full maintenance run: inventory the
// repository, map dependencies, detect defects, establish a test baseline,
// plan and apply remediations, then regenerate the documentation and
// report artifacts with a second test pass for the after-state.
//
// The run is a single deterministic pass. No stage is skipped or retried,
// and each stage consumes only outputs of stages before it. Per-file parse
// failures and test failures are absorbed into the results; only I/O
// failures on the repository root itself abort the run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mender/internal/config"
	"mender/internal/defects"
	"mender/internal/deps"
	"mender/internal/docgen"
	"mender/internal/harness"
	"mender/internal/inventory"
	"mender/internal/plan"
	"mender/internal/remedy"
)

// ReportFile is the machine report's name inside the output directory.
const ReportFile = "report.json"

// Summary aggregates everything one run produced.
type Summary struct {
	Files        []string
	Dependencies deps.Map
	Defects      *defects.Report
	Plan         []plan.Action
	Changes      []remedy.Change
	TestsBefore  harness.Result
	TestsAfter   harness.Result
	DocPath      string
	ReportPath   string
}

// report is the persisted shape of .mender/report.json. Field order fixes
// the key order.
type report struct {
	Plan        []plan.Action   `json:"plan"`
	Changes     []remedy.Change `json:"changes"`
	TestsBefore harness.Result  `json:"tests_before"`
	TestsAfter  harness.Result  `json:"tests_after"`
}

// Run executes the full pipeline over root using settings loaded from the
// repository (or defaults).
func Run(ctx context.Context, root string) (*Summary, error) {
	s, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return RunWithSettings(ctx, root, s)
}

// RunWithSettings executes the full pipeline over root with explicit
// settings.
func RunWithSettings(ctx context.Context, root string, s *config.Settings) (*Summary, error) {
	files, err := inventory.Collect(root, s)
	if err != nil {
		return nil, err
	}

	depMap := deps.Build(root, files)
	defectReport := defects.NewDetector(s).Scan(root, files)
	before := harness.Run(ctx, root, files, s)
	actions := plan.Build(defectReport, before)

	changes, err := remedy.Apply(root, actions, s)
	if err != nil {
		return nil, err
	}

	docPath, err := docgen.Write(root, files, depMap)
	if err != nil {
		return nil, err
	}

	// The inventory is re-taken for the after-pass so the syntax fallback
	// sees the repository as remediation left it.
	afterFiles, err := inventory.Collect(root, s)
	if err != nil {
		return nil, err
	}
	after := harness.Run(ctx, root, afterFiles, s)

	sum := &Summary{
		Files:        files,
		Dependencies: depMap,
		Defects:      defectReport,
		Plan:         actions,
		Changes:      changes,
		TestsBefore:  before,
		TestsAfter:   after,
		DocPath:      docPath,
	}

	reportPath, err := writeReport(root, sum)
	if err != nil {
		return nil, err
	}
	sum.ReportPath = reportPath
	return sum, nil
}

// writeReport serializes the terminal report artifact, overwriting any
// previous run's.
func writeReport(root string, sum *Summary) (string, error) {
	dir := filepath.Join(root, config.OutputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(report{
		Plan:        sum.Plan,
		Changes:     sum.Changes,
		TestsBefore: sum.TestsBefore,
		TestsAfter:  sum.TestsAfter,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("pipeline: marshal report: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("pipeline: write %s: %w", path, err)
	}
	return path, nil
}
