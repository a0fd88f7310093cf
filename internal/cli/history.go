package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/protoboard/internal/store"
)

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Entries []store.Entry `json:"entries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored versions and the mutations that produced them",
		Long: `List every stored version, oldest first, with its snapshot digest and
the kinds of mutations logged under it. Versions produced inside a
multi-mutation apply have no snapshot of their own and show "-".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runHistory(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	st, err := openStore(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.History(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read history", err)
	}

	if opts.Format == "json" {
		return f.Success(HistoryResult{Entries: entries})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No versions recorded.")
		return nil
	}
	for _, e := range entries {
		digest := "-"
		if e.Digest != "" {
			digest = shortDigest(e.Digest)
		}
		kinds := make([]string, len(e.Kinds))
		for i, k := range e.Kinds {
			kinds[i] = string(k)
		}
		fmt.Fprintf(w, "v%-4d %-14s %s\n", e.Version, digest, strings.Join(kinds, ","))
	}
	return nil
}

// shortDigest trims a digest to its first 12 hex characters.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
