package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	DryRun bool
}

// Script is a mutation script file.
//
//	mutations:
//	  - {kind: add_board, component: card}
//	  - {kind: set_node_property, node: "$card.0", key: text, value: Hello}
type Script struct {
	Mutations []engine.Envelope `yaml:"mutations"`
}

// ApplyResult summarizes an apply run.
type ApplyResult struct {
	FromVersion int64  `json:"from_version"`
	Version     int64  `json:"version"`
	Applied     int    `json:"applied"`
	Changed     int    `json:"changed"`
	Digest      string `json:"digest"`
	Committed   bool   `json:"committed"`
	Outline     string `json:"outline,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Apply a mutation script to the stored workspace",
		Long: `Apply every mutation in a script to the latest stored workspace and
commit the result as a new snapshot.

Node references may be literal ids or "$component.i.j" paths, resolved
against the workspace as it stands before each mutation. Mutations that
policy rejects change nothing and are not logged. A mutation that fails an
invariant aborts the whole script and nothing is committed.

Exit codes:
  0 - Script applied (or nothing changed)
  1 - A mutation failed, or the workspace was committed concurrently
  2 - Command error (script unreadable, catalog or database errors)

Examples:
  protoboard apply edits.yaml
  protoboard apply edits.yaml --dry-run
  protoboard apply edits.yaml --db ./work.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "dispatch without committing; print the resulting outline")

	return cmd
}

// LoadScript reads a mutation script. Unknown fields are rejected.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var script Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(script.Mutations) == 0 {
		return nil, errors.New("script has no mutations")
	}
	return &script, nil
}

func runApply(ctx context.Context, opts *ApplyOptions, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)
	log := opts.logger()

	script, err := LoadScript(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeScript, "invalid script "+path, err)
	}

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

	result := ApplyResult{FromVersion: ws.Version}
	var records []store.Record
	for i, env := range script.Mutations {
		next, resolved, err := applyEnvelope(log, eng, ws, env)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeMutation,
				fmt.Sprintf("mutation %d (%s) failed", i, env.Kind), err)
		}
		result.Applied++
		if next == ws {
			log.Debug("mutation changed nothing", "index", i, "kind", env.Kind)
			continue
		}
		result.Changed++
		records = append(records, store.Record{Version: next.Version, Envelope: resolved.Portable(ws)})
		ws = next
	}

	result.Version = ws.Version
	result.Digest, err = ir.Digest(ws)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to digest workspace", err)
	}

	switch {
	case opts.DryRun:
		result.Outline = ir.Outline(ws)
	case result.Changed > 0:
		if err := st.Commit(ctx, result.FromVersion, ws, records); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return f.Fail(ExitFailure, ErrCodeConflict, "workspace was committed concurrently", err)
			}
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to commit snapshot", err)
		}
		result.Committed = true
		log.Info("snapshot committed", "version", ws.Version, "mutations", len(records))
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Applied %d mutations (%d changed): v%d -> v%d\n",
		result.Applied, result.Changed, result.FromVersion, result.Version)
	switch {
	case opts.DryRun:
		fmt.Fprintln(w, "Dry run: nothing committed")
		fmt.Fprint(w, result.Outline)
	case result.Committed:
		fmt.Fprintf(w, "Committed %s\n", result.Digest)
	default:
		fmt.Fprintln(w, "Nothing to commit")
	}
	return nil
}

// applyEnvelope resolves the envelope's references against ws and
// dispatches it. The resolved envelope is returned for logging.
func applyEnvelope(log *slog.Logger, eng *engine.Engine, ws *ir.Workspace, env engine.Envelope) (*ir.Workspace, engine.Envelope, error) {
	resolved, err := env.Resolve(ws)
	if err != nil {
		return nil, env, err
	}
	m, err := resolved.Mutation()
	if err != nil {
		return nil, env, err
	}
	log.Debug("dispatching", "mutation", engine.Describe(m))
	next, err := eng.Dispatch(ws, m)
	return next, resolved, err
}
