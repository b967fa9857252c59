package remedy_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mender/internal/config"
	"mender/internal/plan"
	"mender/internal/remedy"
)

func defaults(t *testing.T) *config.Settings {
	t.Helper()
	s, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// fix_eval
// ---------------------------------------------------------------------------

func TestApplyFixEvalReplacesAllOccurrences(t *testing.T) {
	root := t.TempDir()
	write(t, root, "calc.go", `package calc

func compute() {
	a := eval("1+1")
	b := eval("2+2")
	_, _ = a, b
}
`)
	s := defaults(t)

	changes, err := remedy.Apply(root, []plan.Action{{File: "calc.go", Kind: plan.FixEval}}, s)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %v", changes)
	}

	text := read(t, root, "calc.go")
	if strings.Contains(text, s.UnsafeCall) {
		t.Errorf("unsafe token still present:\n%s", text)
	}
	if got := strings.Count(text, s.SafeCall); got != 2 {
		t.Errorf("safe token occurrences = %d, want 2", got)
	}
}

func TestApplyFixEvalIdempotent(t *testing.T) {
	root := t.TempDir()
	write(t, root, "calc.go", "package calc\n\nvar x = eval(\"2+2\")\n")
	s := defaults(t)
	actions := []plan.Action{{File: "calc.go", Kind: plan.FixEval}}

	if _, err := remedy.Apply(root, actions, s); err != nil {
		t.Fatal(err)
	}
	once := read(t, root, "calc.go")
	if _, err := remedy.Apply(root, actions, s); err != nil {
		t.Fatal(err)
	}
	twice := read(t, root, "calc.go")
	if once != twice {
		t.Errorf("second fix_eval changed the file:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

// ---------------------------------------------------------------------------
// refactor_note
// ---------------------------------------------------------------------------

func TestApplyRefactorNoteAppends(t *testing.T) {
	root := t.TempDir()
	write(t, root, "big.go", "package big\n")
	s := defaults(t)

	changes, err := remedy.Apply(root, []plan.Action{{File: "big.go", Kind: plan.RefactorNote}}, s)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(changes) != 1 || changes[0].File != "big.go" {
		t.Fatalf("changes = %v", changes)
	}
	if got := strings.Count(read(t, root, "big.go"), s.Note); got != 1 {
		t.Errorf("note occurrences = %d, want 1", got)
	}
}

func TestApplyRefactorNoteNotIdempotent(t *testing.T) {
	// Re-applying appends a second note. Accepted limitation, asserted here
	// so a future dedupe shows up as a deliberate behavior change.
	root := t.TempDir()
	write(t, root, "big.go", "package big\n")
	s := defaults(t)
	actions := []plan.Action{{File: "big.go", Kind: plan.RefactorNote}}

	if _, err := remedy.Apply(root, actions, s); err != nil {
		t.Fatal(err)
	}
	if _, err := remedy.Apply(root, actions, s); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(read(t, root, "big.go"), s.Note); got != 2 {
		t.Errorf("note occurrences after two runs = %d, want 2", got)
	}
}

// ---------------------------------------------------------------------------
// investigate_test_failure / errors
// ---------------------------------------------------------------------------

func TestApplyInvestigateIsNoOp(t *testing.T) {
	changes, err := remedy.Apply(t.TempDir(), []plan.Action{{Kind: plan.InvestigateTestFailure}}, defaults(t))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("investigate action produced changes: %v", changes)
	}
}

func TestApplyMissingFileIsFatal(t *testing.T) {
	root := t.TempDir()
	write(t, root, "ok.go", "package ok\nvar x = eval(\"1\")\n")
	actions := []plan.Action{
		{File: "ok.go", Kind: plan.FixEval},
		{File: "ghost.go", Kind: plan.FixEval},
	}

	changes, err := remedy.Apply(root, actions, defaults(t))
	if err == nil {
		t.Fatal("expected error for missing target file")
	}
	// Earlier writes stay applied: mutations are not transactional.
	if len(changes) != 1 || changes[0].File != "ok.go" {
		t.Errorf("changes before failure = %v, want the ok.go change", changes)
	}
}
