package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/protoboard/internal/engine"
)

// Scenario is one mutation script plus the assertions it must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the CUE catalog directory, relative to the scenario file.
	Catalog string `yaml:"catalog"`

	// Theme is the engine's default theme.
	Theme string `yaml:"theme,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a mutation envelope plus an optional expected failure.
type Step struct {
	engine.Envelope `yaml:",inline"`

	// ExpectError is the error code the step must fail with. A failing
	// step leaves the workspace as it was.
	ExpectError engine.ErrorCode `yaml:"expect_error,omitempty"`
}

// Assertion checks the final workspace.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Node is a node reference ("$button.0" or a literal id).
	Node string `yaml:"node,omitempty"`

	// Key is a property key, optionally "key.sub" for compound values.
	Key string `yaml:"key,omitempty"`

	// Expect is the expected value: component list for children, a literal
	// or {type, value} for property, a theme id for theme, board ids for
	// boards.
	Expect any `yaml:"expect,omitempty"`

	// Count is used by board_count and node_count.
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertChildren   = "children"
	AssertProperty   = "property"
	AssertAbsent     = "absent"
	AssertBoards     = "boards"
	AssertBoardCount = "board_count"
	AssertNodeCount  = "node_count"
	AssertHidden     = "hidden"
	AssertTheme      = "theme"
	AssertMissing    = "missing"
	AssertClean      = "clean"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if info, err := os.Stat(s.Catalog); err != nil || !info.IsDir() {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Envelope shape is checked up front; references resolve at run time.
	for i, step := range s.Steps {
		if _, err := step.Mutation(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
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

	needsNode := func() error {
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertHidden, AssertMissing:
		return needsNode()
	case AssertChildren:
		if err := needsNode(); err != nil {
			return err
		}
		if _, ok := a.Expect.([]any); !ok {
			return fmt.Errorf("assertions[%d]: expect must be a component list for children", index)
		}
	case AssertProperty:
		if err := needsNode(); err != nil {
			return err
		}
		if a.Key == "" || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: key and expect are required for property", index)
		}
	case AssertAbsent:
		if err := needsNode(); err != nil {
			return err
		}
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for absent", index)
		}
	case AssertTheme:
		if err := needsNode(); err != nil {
			return err
		}
		if _, ok := a.Expect.(string); !ok {
			return fmt.Errorf("assertions[%d]: expect must be a theme id for theme", index)
		}
	case AssertBoards:
		if _, ok := a.Expect.([]any); !ok {
			return fmt.Errorf("assertions[%d]: expect must be a list for boards", index)
		}
	case AssertBoardCount, AssertNodeCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertClean:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
