package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/protoboard/internal/ir"
)

// ReplayResult holds the replay verification outcome.
type ReplayResult struct {
	Mutations       int    `json:"mutations"`
	StoredVersion   int64  `json:"stored_version"`
	ReplayVersion   int64  `json:"replay_version"`
	Matches         bool   `json:"matches"`
	StoredOutline   string `json:"stored_outline,omitempty"`
	ReplayedOutline string `json:"replayed_outline,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the workspace from the mutation log and verify it",
		Long: `Rebuild the workspace from an empty one by dispatching every logged
mutation in order, then compare the result with the latest stored snapshot.

Node ids are generated afresh during replay, so the comparison is made on
the id-free outline and the version number.

Exit codes:
  0 - Replay matches the stored workspace
  1 - Replay diverged from the stored workspace
  2 - Command error (database not found, catalog errors, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runReplay(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	eng, err := newEngine(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}

	st, err := openStore(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	records, err := st.Mutations(ctx, 0)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read mutation log", err)
	}

	stored, err := loadLatest(ctx, st)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load workspace", err)
	}

	replayed, err := st.Replay(ctx, eng)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeMutation, "replay failed", err)
	}

	storedOutline, replayedOutline := ir.Outline(stored), ir.Outline(replayed)
	result := ReplayResult{
		Mutations:     len(records),
		StoredVersion: stored.Version,
		ReplayVersion: replayed.Version,
		Matches:       storedOutline == replayedOutline && stored.Version == replayed.Version,
	}
	if !result.Matches {
		result.StoredOutline = storedOutline
		result.ReplayedOutline = replayedOutline
	}
	opts.logger().Debug("replay finished", "mutations", result.Mutations, "matches", result.Matches)

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		switch {
		case result.Mutations == 0 && result.Matches:
			fmt.Fprintln(w, "No mutations recorded.")
		case result.Matches:
			fmt.Fprintf(w, "✓ replayed %d mutations: v%d matches stored snapshot\n", result.Mutations, result.ReplayVersion)
		default:
			fmt.Fprintf(w, "✗ replayed %d mutations: v%d does not match stored v%d\n",
				result.Mutations, result.ReplayVersion, result.StoredVersion)
			fmt.Fprintln(w, "--- stored")
			fmt.Fprint(w, storedOutline)
			fmt.Fprintln(w, "--- replayed")
			fmt.Fprint(w, replayedOutline)
		}
	}

	if !result.Matches {
		return NewExitError(ExitFailure, "replay does not match stored snapshot")
	}
	return nil
}
