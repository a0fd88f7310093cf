package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(testutil.Catalog(),
		engine.WithIDs(testutil.NewSequentialIDs("")),
		engine.WithThemes(testutil.Themes(), "light"),
	)
}

// apply resolves, dispatches and logs envelopes the way the CLI does.
func apply(t *testing.T, e *engine.Engine, ws *ir.Workspace, envs ...engine.Envelope) (*ir.Workspace, []Record) {
	t.Helper()
	var records []Record
	for _, env := range envs {
		resolved, err := env.Resolve(ws)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", env.Kind, err)
		}
		m, err := resolved.Mutation()
		if err != nil {
			t.Fatalf("Mutation(%s) failed: %v", env.Kind, err)
		}
		next, err := e.Dispatch(ws, m)
		if err != nil {
			t.Fatalf("Dispatch(%s) failed: %v", env.Kind, err)
		}
		records = append(records, Record{Version: next.Version, Envelope: resolved.Portable(ws)})
		ws = next
	}
	return ws, records
}
