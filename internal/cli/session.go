package cli

import (
	"context"
	"errors"

	"github.com/roach88/protoboard/internal/catalog"
	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/store"
	"github.com/roach88/protoboard/internal/theme"
)

// openStore opens the configured database.
func openStore(opts *RootOptions) (*store.Store, error) {
	return store.Open(opts.Database)
}

// loadLatest returns the newest stored workspace, or an empty one when the
// database holds no snapshots yet.
func loadLatest(ctx context.Context, st *store.Store) (*ir.Workspace, error) {
	snap, err := st.Latest(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return ir.NewWorkspace(), nil
	}
	if err != nil {
		return nil, err
	}
	return snap.Workspace, nil
}

// newEngine loads the catalog and builds an engine configured from opts.
func newEngine(opts *RootOptions) (*engine.Engine, error) {
	cat, err := catalog.Load(opts.CatalogDir)
	if err != nil {
		return nil, err
	}
	return engine.New(cat,
		engine.WithThemes(theme.NewStatic(cat.Themes()), opts.Theme),
		engine.WithMaxSites(opts.MaxSites),
		engine.WithLogger(opts.logger()),
	), nil
}
