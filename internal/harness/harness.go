package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/protoboard/internal/catalog"
	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/testutil"
	"github.com/roach88/protoboard/internal/theme"
)

// Harness runs scenarios with a deterministic id generator.
type Harness struct {
	engine *engine.Engine
	logger *slog.Logger
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes engine warnings to l. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and validate the scenario's CUE catalog
//  2. Build an engine with sequential ids and the catalog's themes
//  3. Dispatch each step against a fresh workspace
//  4. Evaluate assertions against the final workspace
//
// The returned error covers setup failures only; step and assertion
// failures are reported in the Result.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	cat, err := catalog.Load(s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	h := &Harness{
		engine: engine.New(cat,
			engine.WithIDs(testutil.NewSequentialIDs("")),
			engine.WithThemes(theme.NewStatic(cat.Themes()), s.Theme),
			engine.WithLogger(cfg.logger),
		),
		logger: cfg.logger,
	}

	result := NewResult()
	ws := h.executeSteps(s.Steps, result)

	for _, msg := range EvaluateAssertions(h.engine, ws, s.Assertions) {
		result.AddError(msg)
	}
	result.Workspace = ws
	result.Outline = ir.Outline(ws)
	return result, nil
}

// executeSteps dispatches steps in order. An unexpected failure stops the
// run; assertions still see the workspace as it was at that point.
func (h *Harness) executeSteps(steps []Step, result *Result) *ir.Workspace {
	ws := ir.NewWorkspace()
	for i, step := range steps {
		trace := StepTrace{Index: i, Kind: step.Kind}

		next, err := h.dispatch(ws, step.Envelope)
		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected %s, got success", i, step.Kind, step.ExpectError))
		case step.ExpectError != "" && !engine.HasCode(err, step.ExpectError):
			result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %v", i, step.Kind, step.ExpectError, err))
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Kind, err))
		}

		if err != nil {
			trace.Error = err.Error()
			trace.Version = ws.Version
			result.Steps = append(result.Steps, trace)
			if step.ExpectError == "" {
				return ws
			}
			continue
		}

		trace.Changed = next != ws
		trace.Version = next.Version
		result.Steps = append(result.Steps, trace)
		h.logger.Debug("step applied", "step", i, "kind", step.Kind, "version", next.Version)
		ws = next
	}
	return ws
}

func (h *Harness) dispatch(ws *ir.Workspace, env engine.Envelope) (*ir.Workspace, error) {
	resolved, err := env.Resolve(ws)
	if err != nil {
		return nil, err
	}
	m, err := resolved.Mutation()
	if err != nil {
		return nil, err
	}
	return h.engine.Dispatch(ws, m)
}
