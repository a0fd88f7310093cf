package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/protoboard/internal/engine"
)

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Version  int64            `json:"version"`
	Findings []engine.Finding `json:"findings"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Audit the stored workspace for structural invariants",
		Long: `Audit the latest stored workspace: dangling references, instanceOf
cycles, one default Variant per board, children only where the level allows
them, and no node with two parents.

Exit codes:
  0 - No findings
  1 - One or more findings
  2 - Command error (database not found, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), rootOpts, cmd)
		},
	}
	return cmd
}

func runCheck(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	st, err := openStore(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ws, err := loadLatest(ctx, st)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load workspace", err)
	}

	findings := engine.Check(ws)
	if findings == nil {
		findings = []engine.Finding{}
	}

	if opts.Format == "json" {
		if err := f.Success(CheckResult{Version: ws.Version, Findings: findings}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, finding := range findings {
			fmt.Fprintf(w, "✗ %s\n", finding)
		}
		if len(findings) == 0 {
			fmt.Fprintf(w, "✓ version %d: no findings\n", ws.Version)
		}
	}

	if len(findings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d findings", len(findings)))
	}
	return nil
}
