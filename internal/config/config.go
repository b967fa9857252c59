// Package config loads mender settings from .mender/settings.yaml under the
// repository root. A missing settings file is not an error: every field has
// a documented default, so a bare repository is maintainable out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputDir is the per-repository directory mender owns: settings live in
// it and the machine report is written into it. Inventory never descends
// into it.
const OutputDir = ".mender"

// Defaults applied by Load when the settings file omits a field.
const (
	DefaultTestCommand  = "go test ./..."
	DefaultTestDir      = "tests"
	DefaultTestTimeout  = 30 * time.Second
	DefaultMaxFuncLines = 120
	DefaultUnsafeCall   = "eval("
	DefaultSafeCall     = "parseLiteral("
	DefaultNote         = "// TODO: refactor oversized function."
)

// Settings holds mender configuration from .mender/settings.yaml.
type Settings struct {
	// Extensions lists the source file extensions to inventory.
	// Default: [".go"].
	Extensions []string `yaml:"extensions"`

	// Exclude is a list of glob patterns for files mender should not read.
	// Patterns may be bare globs or wrapped in Read(...).
	// Example: ["Read(./gen/**)"]
	Exclude []string `yaml:"exclude"`

	// TestCommand is the external test runner invoked when the repository
	// has a tests directory. Default: "go test ./...".
	TestCommand string `yaml:"test_command"`

	// TestTimeoutSeconds bounds the external test runner. Default: 30.
	TestTimeoutSeconds int `yaml:"test_timeout_seconds"`

	// MaxFuncLines is the line span above which a function is reported as a
	// complexity defect. Default: 120.
	MaxFuncLines int `yaml:"max_func_lines"`

	// UnsafeCall is the dynamic-evaluation call token the security check
	// looks for. Default: "eval(".
	UnsafeCall string `yaml:"unsafe_call"`

	// SafeCall is the literal-parsing call token substituted for UnsafeCall
	// by the fix_eval remediation. Default: "parseLiteral(".
	SafeCall string `yaml:"safe_call"`

	// Note is the line appended to files flagged by the complexity check.
	Note string `yaml:"note"`
}

// Load reads .mender/settings.yaml relative to root and fills in defaults.
// Returns default settings (not an error) if the file does not exist.
func Load(root string) (*Settings, error) {
	path := filepath.Join(root, OutputDir, "settings.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s := &Settings{}
		s.applyDefaults()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	s.applyDefaults()
	return &s, nil
}

// Save writes s to .mender/settings.yaml under root, creating the output
// directory if needed.
func (s *Settings) Save(root string) error {
	dir := filepath.Join(root, OutputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal settings: %w", err)
	}
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if len(s.Extensions) == 0 {
		s.Extensions = []string{".go"}
	}
	if s.TestCommand == "" {
		s.TestCommand = DefaultTestCommand
	}
	if s.TestTimeoutSeconds <= 0 {
		s.TestTimeoutSeconds = int(DefaultTestTimeout / time.Second)
	}
	if s.MaxFuncLines <= 0 {
		s.MaxFuncLines = DefaultMaxFuncLines
	}
	if s.UnsafeCall == "" {
		s.UnsafeCall = DefaultUnsafeCall
	}
	if s.SafeCall == "" {
		s.SafeCall = DefaultSafeCall
	}
	if s.Note == "" {
		s.Note = DefaultNote
	}
}

// TestTimeout returns the runner timeout as a duration.
func (s *Settings) TestTimeout() time.Duration {
	return time.Duration(s.TestTimeoutSeconds) * time.Second
}

// HasExtension reports whether name carries one of the configured source
// extensions.
func (s *Settings) HasExtension(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range s.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsExcluded reports whether relPath (forward-slash, relative to root)
// matches any exclude rule. Safe to call on a nil *Settings receiver.
func (s *Settings) IsExcluded(relPath string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Exclude {
		if matchExcludePattern(parseExcludeRule(rule), relPath) {
			return true
		}
	}
	return false
}

// parseExcludeRule extracts the path glob from an exclude rule.
//
//	"Read(./gen/**)" → "gen/**"
//	"gen/**"         → "gen/**"
func parseExcludeRule(rule string) string {
	if strings.HasPrefix(rule, "Read(") && strings.HasSuffix(rule, ")") {
		rule = rule[5 : len(rule)-1]
	}
	return strings.TrimPrefix(rule, "./")
}

// matchExcludePattern reports whether path matches an exclude glob pattern.
//
// "prefix/**" matches the prefix directory itself and every path beneath it.
// All other patterns use filepath.Match semantics (single * does not cross /).
func matchExcludePattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
