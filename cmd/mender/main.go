package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mender/internal/config"
	"mender/internal/pipeline"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "run",
		short: "Run one maintenance pass over a repository",
		usage: "mender run [root]",
		long: `Run the full maintenance pipeline over the repository at root
(default: current directory).

Inventories source files, maps dependencies, detects defects, runs the
test baseline, applies planned remediations, and writes MAINTENANCE.md
and .mender/report.json.
`,
		run: runRun,
	},
	{
		name:  "init",
		short: "Create .mender/settings.yaml interactively",
		usage: "mender init [root]",
		long: `Prompt for the basic settings and write .mender/settings.yaml
under root (default: current directory).

Fields left blank keep their defaults.
`,
		run: runInit,
	},
	{
		name:  "watch",
		short: "Re-run the pipeline whenever source files change",
		usage: "mender watch [root]",
		long: `Watch the repository for file changes and re-run the maintenance
pipeline after each burst of changes. Changes under .mender/ and to the
generated documentation are ignored.

Interrupt with Ctrl-C.
`,
		run: runWatchCmd,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "mender — automated repository maintenance\n\n")
	fmt.Fprintf(w, "Usage:\n  mender <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'mender help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "mender: unknown command %q\n\nRun 'mender help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'mender help' for usage.", args[0])
}

// rootArg resolves the optional root argument, defaulting to ".".
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func runRun(args []string) error {
	root := rootArg(args)
	sum, err := pipeline.Run(context.Background(), root)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, sum)
	return nil
}

func printSummary(w io.Writer, sum *pipeline.Summary) {
	fmt.Fprintf(w, "files: %d, defects: %d, actions: %d, changes: %d\n",
		len(sum.Files), sum.Defects.Total(), len(sum.Plan), len(sum.Changes))
	fmt.Fprintf(w, "tests before: %s, after: %s\n",
		passFail(sum.TestsBefore.Success), passFail(sum.TestsAfter.Success))
	fmt.Fprintf(w, "wrote %s\n", sum.DocPath)
	fmt.Fprintf(w, "wrote %s\n", sum.ReportPath)
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

// question describes one settings prompt for the init wizard.
type question struct {
	key    string
	prompt string
}

var initQuestions = []question{
	{key: "extensions", prompt: "Source extensions, comma-separated (default .go)"},
	{key: "test_command", prompt: "Test command (default 'go test ./...')"},
	{key: "exclude", prompt: "Exclude globs, comma-separated (default none)"},
}

func runInit(args []string) error {
	root := rootArg(args)

	answers, err := promptQuestions(initQuestions)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	s := &config.Settings{
		Extensions:  splitList(answers["extensions"]),
		TestCommand: strings.TrimSpace(answers["test_command"]),
		Exclude:     splitList(answers["exclude"]),
	}
	if err := s.Save(root); err != nil {
		return err
	}
	fmt.Printf("wrote %s/%s/settings.yaml\n", root, config.OutputDir)
	return nil
}

// splitList parses a comma-separated answer, dropping empty entries.
func splitList(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.prompt
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// promptQuestions runs the TUI and returns answers keyed by question.key.
func promptQuestions(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		answers[q.key] = final.inputs[i].Value()
	}
	return answers, nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
