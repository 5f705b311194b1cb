package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a splitter test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the dump text fed to the engine, verbatim.
	Input string `yaml:"input"`

	// DefaultDatabase overrides the database used for tables seen before
	// any USE. Empty means the engine default.
	DefaultDatabase string `yaml:"default_database,omitempty"`

	// Assertions validate the artifacts and diagnostics.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates artifacts or diagnostics.
type Assertion struct {
	// Type specifies the assertion type:
	// - "artifact_equals": artifact at Path has exactly Content
	// - "artifact_exists": artifact at Path was written
	// - "artifact_absent": artifact at Path was not written
	// - "artifact_count": Count artifacts were written, of Kind if set
	// - "diagnostic_count": Count diagnostics match Code and Severity
	Type string `yaml:"type"`

	// Path is the artifact path relative to the output root.
	Path string `yaml:"path,omitempty"`

	// Content is the expected artifact content (artifact_equals).
	Content string `yaml:"content,omitempty"`

	// Kind restricts artifact_count to "database" or "table".
	Kind string `yaml:"kind,omitempty"`

	// Code and Severity filter diagnostic_count. Empty matches any.
	Code     string `yaml:"code,omitempty"`
	Severity string `yaml:"severity,omitempty"`

	// Count is the expected number (artifact_count, diagnostic_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertArtifactEquals  = "artifact_equals"
	AssertArtifactExists  = "artifact_exists"
	AssertArtifactAbsent  = "artifact_absent"
	AssertArtifactCount   = "artifact_count"
	AssertDiagnosticCount = "diagnostic_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files in dir whose base name matches
// filter (a filepath.Match pattern; empty matches all), sorted by path.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(name, ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertArtifactEquals, AssertArtifactExists, AssertArtifactAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertArtifactCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for artifact_count", index)
		}
		switch a.Kind {
		case "", "database", "table":
		default:
			return fmt.Errorf("assertions[%d]: unknown artifact kind %q", index, a.Kind)
		}
	case AssertDiagnosticCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic_count", index)
		}
		switch a.Severity {
		case "", "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("assertions[%d]: unknown severity %q", index, a.Severity)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
