package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/protoboard/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	GoldenDir string
	Update    bool
}

// ScenarioResult holds the result of a single scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run mutation scenarios against their catalogs",
		Long: `Run every *.yaml scenario in a directory. Each scenario names its own
CUE catalog, dispatches its steps against an empty workspace with
sequential node ids, and checks its assertions.

The final outline of each scenario is compared with <name>.golden in the
golden directory, which defaults to a "golden" directory next to the
scenarios directory. Scenarios without a golden file pass on assertions
alone unless --update is given, which writes the file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (directory not found, invalid scenario file, etc.)

Examples:
  protoboard test ./testdata/scenarios
  protoboard test ./testdata/scenarios --update
  protoboard test ./scenarios --golden ./golden --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default <scenarios-dir>/../golden)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "write golden files from the current outlines")

	return cmd
}

func runTest(opts *TestOptions, cmd *cobra.Command, dir string) error {
	f := opts.formatter(cmd)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return f.Fail(ExitCommandError, ErrCodeScenarioSetup, "scenarios directory not found: "+dir, err)
	}

	scenarios, err := harness.LoadScenarios(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeScenarioSetup, "failed to load scenarios", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(scenarios))}
	w := cmd.OutOrStdout()
	for _, s := range scenarios {
		sr, err := runScenario(opts, s, goldenDir)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeScenarioSetup, "scenario "+s.Name, err)
		}
		result.Scenarios = append(result.Scenarios, sr)
		result.Total++
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if opts.Format != "json" {
			writeScenarioResult(w, sr)
		}
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

// runScenario runs one scenario and checks its outline against the golden
// file. The error covers setup failures only.
func runScenario(opts *TestOptions, s *harness.Scenario, goldenDir string) (ScenarioResult, error) {
	res, err := harness.Run(s, harness.WithLogger(opts.logger()))
	if err != nil {
		return ScenarioResult{}, err
	}
	sr := ScenarioResult{Name: s.Name, Pass: res.Pass, Errors: res.Errors}

	goldenPath := filepath.Join(goldenDir, s.Name+".golden")
	if opts.Update {
		if err := os.MkdirAll(goldenDir, 0o755); err != nil {
			return ScenarioResult{}, fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(goldenPath, []byte(res.Outline), 0o644); err != nil {
			return ScenarioResult{}, fmt.Errorf("failed to write golden file: %w", err)
		}
		return sr, nil
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		opts.logger().Debug("no golden file", "scenario", s.Name, "path", goldenPath)
	case err != nil:
		return ScenarioResult{}, fmt.Errorf("failed to read golden file: %w", err)
	case string(want) != res.Outline:
		sr.Pass = false
		sr.Errors = append(sr.Errors, "outline does not match golden file (run with --update to regenerate)")
	}
	return sr, nil
}

func writeScenarioResult(w io.Writer, sr ScenarioResult) {
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
