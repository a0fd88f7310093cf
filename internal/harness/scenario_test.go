package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/rules"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/theme-migration.yaml")
	require.NoError(t, err)

	assert.Equal(t, "theme-migration", s.Name)
	assert.Equal(t, filepath.Join("testdata", "catalog"), s.Catalog)
	assert.Equal(t, "light", s.Theme)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, rules.SetNodeProperty, s.Steps[1].Kind)
	assert.Equal(t, "$label", s.Steps[1].Node)
	assert.Equal(t, map[string]any{"type": "THEME_CATEGORICAL", "value": "@colors.customSea"}, s.Steps[1].Value)
	require.Len(t, s.Assertions, 3)
	assert.Equal(t, AssertProperty, s.Assertions[0].Type)
}

func TestLoadScenarioExpectError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/rejections.yaml")
	require.NoError(t, err)
	assert.Equal(t, engine.ErrCodeInvalidMove, s.Steps[1].ExpectError)
	assert.Empty(t, s.Steps[2].ExpectError)
}

func TestLoadScenarioRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"testdata/invalid/typo.yaml", "field assertion not found"},
		{"testdata/invalid/bad-step.yaml", "steps[0]"},
		{"testdata/invalid/does-not-exist.yaml", "failed to read scenario file"},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.file), func(t *testing.T) {
			_, err := LoadScenario(tt.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateScenario(t *testing.T) {
	valid := func() Scenario {
		return Scenario{
			Name:        "s",
			Description: "d",
			Catalog:     "testdata/catalog",
			Steps:       []Step{{Envelope: engine.Envelope{Kind: rules.AddBoard, Component: "label"}}},
			Assertions:  []Assertion{{Type: AssertClean}},
		}
	}
	require.NoError(t, validateScenario(ptr(valid())))

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no catalog", func(s *Scenario) { s.Catalog = "" }, "catalog is required"},
		{"catalog missing", func(s *Scenario) { s.Catalog = "testdata/nope" }, "catalog directory not found"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions[0].Type = "vibes" }, "unknown assertion type"},
		{"children without list", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertChildren, Node: "$label"}
		}, "component list"},
		{"property without key", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertProperty, Node: "$label", Expect: 1}
		}, "key and expect"},
		{"negative count", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertNodeCount, Count: intPtr(-1)}
		}, "count must be non-negative"},
		{"theme without node", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertTheme, Expect: "dark"}
		}, "node is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateScenario(&s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenariosEmptyDir(t *testing.T) {
	_, err := LoadScenarios(t.TempDir())
	assert.Error(t, err)
}

func TestLoadScenariosReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: [\n"), 0o644))
	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.yaml")
}

func ptr[T any](v T) *T { return &v }
