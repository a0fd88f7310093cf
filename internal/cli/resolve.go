package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Board bool
}

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Node       ir.NodeID      `json:"node,omitempty"`
	Board      ir.ComponentID `json:"board,omitempty"`
	Ref        string         `json:"ref,omitempty"`
	Properties ir.Properties  `json:"properties"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <node>",
		Short: "Print a node's effective properties",
		Long: `Resolve a node's effective properties by layering catalog defaults
under every node of its instanceOf chain.

The node may be a literal id or a "$component.i.j" reference. With --board
the argument names a component and the board's properties are resolved.

Examples:
  protoboard resolve '$card.1.0'
  protoboard resolve button --board
  protoboard resolve 0190e5a4-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Board, "board", false, "resolve a board instead of a node")

	return cmd
}

func runResolve(ctx context.Context, opts *ResolveOptions, cmd *cobra.Command, arg string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	eng, err := newEngine(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ws, err := loadLatest(ctx, st)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load workspace", err)
	}

	var result ResolveResult
	if opts.Board {
		result.Board = ir.ComponentID(arg)
		result.Properties, err = eng.Resolver().Board(ws, result.Board)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to resolve board "+arg, err)
		}
	} else {
		id, err := engine.Ref(ws, arg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "unknown node "+arg, err)
		}
		result.Node = id
		result.Ref = engine.RefOf(ws, id)
		result.Properties, err = eng.Resolver().Node(ws, id)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to resolve node "+arg, err)
		}
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	writeProperties(cmd.OutOrStdout(), result.Properties)
	return nil
}

// writeProperties prints one "key = TYPE payload" line per atomic value.
// Compound values print one line per sub-key.
func writeProperties(w io.Writer, props ir.Properties) {
	for _, key := range props.Keys() {
		switch v := props[key].(type) {
		case ir.Atomic:
			fmt.Fprintf(w, "%s = %s\n", key, formatAtomic(v))
		case ir.Compound:
			subs := make([]string, 0, len(v))
			for sub := range v {
				subs = append(subs, sub)
			}
			sort.Strings(subs)
			for _, sub := range subs {
				fmt.Fprintf(w, "%s.%s = %s\n", key, sub, formatAtomic(v[sub]))
			}
		}
	}
}

func formatAtomic(a ir.Atomic) string {
	switch a.Type {
	case ir.TypeEmpty, ir.TypeInherit:
		return string(a.Type)
	}
	payload, err := ir.MarshalCanonical(a.Value)
	if err != nil {
		return string(a.Type)
	}
	return fmt.Sprintf("%s %s", a.Type, payload)
}
