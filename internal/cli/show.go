package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Version int64
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Version   int64         `json:"version"`
	Digest    string        `json:"digest"`
	Outline   string        `json:"outline"`
	Workspace *ir.Workspace `json:"workspace"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts, Version: -1}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the outline of a stored workspace",
		Long: `Print the stored workspace as an indented outline of boards and nodes.

Text output omits node ids so it is stable across runs. JSON output also
carries the full snapshot.

Examples:
  protoboard show
  protoboard show --version 3
  protoboard show --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Version, "version", -1, "snapshot version to show (default latest)")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var ws *ir.Workspace
	if opts.Version >= 0 {
		snap, err := st.Snapshot(ctx, opts.Version)
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("version %d not found", opts.Version), err)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to load snapshot", err)
		}
		ws = snap.Workspace
	} else {
		ws, err = loadLatest(ctx, st)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to load workspace", err)
		}
	}

	outline := ir.Outline(ws)
	if opts.Format == "json" {
		digest, err := ir.Digest(ws)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to digest workspace", err)
		}
		return f.Success(ShowResult{Version: ws.Version, Digest: digest, Outline: outline, Workspace: ws})
	}

	w := cmd.OutOrStdout()
	if outline == "" {
		fmt.Fprintln(w, "Workspace is empty.")
		return nil
	}
	fmt.Fprintf(w, "# version %d\n", ws.Version)
	fmt.Fprint(w, outline)
	return nil
}
