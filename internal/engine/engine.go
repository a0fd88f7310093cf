package engine

import (
	"log/slog"

	"github.com/roach88/protoboard/internal/catalog"
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/resolve"
	"github.com/roach88/protoboard/internal/rules"
	"github.com/roach88/protoboard/internal/theme"
)

// Engine dispatches mutations against a catalog and rule table.
type Engine struct {
	catalog      catalog.Catalog
	rules        *rules.Table
	ids          IDGenerator
	themes       theme.Provider
	defaultTheme string
	resolver     *resolve.Resolver
	migrator     *theme.Migrator
	maxSites     int
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for warnings and debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithIDs sets the node id generator. Default: UUIDv7Generator.
func WithIDs(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithRules replaces the rule table. Default: rules.Default().
func WithRules(t *rules.Table) Option {
	return func(e *Engine) {
		e.rules = t
	}
}

// WithThemes sets the theme provider and the theme assumed for nodes and
// boards that name none.
func WithThemes(p theme.Provider, defaultTheme string) Option {
	return func(e *Engine) {
		e.themes = p
		e.defaultTheme = defaultTheme
	}
}

// WithMaxSites bounds how many nodes one mutation may propagate to.
// Zero or less disables the bound. Default: DefaultMaxSites.
func WithMaxSites(n int) Option {
	return func(e *Engine) {
		e.maxSites = n
	}
}

// New creates an Engine over cat.
func New(cat catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		rules:    rules.Default(),
		ids:      UUIDv7Generator{},
		maxSites: DefaultMaxSites,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = resolve.New(cat, e.logger)
	e.migrator = theme.NewMigrator(e.logger)
	return e
}

// Resolver returns the property resolver the engine uses.
func (e *Engine) Resolver() *resolve.Resolver {
	return e.resolver
}

// Dispatch applies m to ws and returns the resulting snapshot.
//
// A mutation the rule table denies, or one that changes nothing, returns
// ws itself. Missing ids, cycles and malformed payloads return an error and
// leave ws untouched. The snapshot version increments once per dispatch
// that changes state.
func (e *Engine) Dispatch(ws *ir.Workspace, m Mutation) (*ir.Workspace, error) {
	d := newDraft(ws)
	d.quota = newQuota(m.Kind(), e.maxSites)

	var err error
	switch m := m.(type) {
	case AddBoard:
		err = e.addBoard(d, m)
	case AddVariant:
		err = e.addVariant(d, m)
	case DuplicateNode:
		err = e.duplicateNode(d, m)
	case InsertNode:
		err = e.insertNode(d, m)
	case MoveNode:
		err = e.moveNode(d, m)
	case RemoveBoard:
		err = e.removeBoard(d, ws, m)
	case ResetNodeProperty:
		err = e.resetNodeProperty(d, m)
	case ResetBoardProperty:
		err = e.resetBoardProperty(d, m)
	case SetBoardProperties:
		err = e.setBoardProperties(d, m)
	case SetBoardTheme:
		err = e.setBoardTheme(d, m)
	case SetNodeProperty:
		err = e.setNodeProperty(d, m)
	case SetNodeTheme:
		err = e.setNodeTheme(d, m)
	default:
		return nil, invalid("unsupported mutation %T", m)
	}
	if err != nil {
		return nil, err
	}

	next := d.commit()
	if next == ws {
		e.logger.Debug("mutation left workspace unchanged", "mutation", m.Kind())
	}
	return next, nil
}

// DispatchAll applies mutations in order, stopping at the first error.
func (e *Engine) DispatchAll(ws *ir.Workspace, ms ...Mutation) (*ir.Workspace, error) {
	cur := ws
	for _, m := range ms {
		next, err := e.Dispatch(cur, m)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// allowed consults the rule table and logs rejections.
func (e *Engine) allowed(m rules.MutationKind, entity rules.EntityKind) (rules.Rule, bool) {
	rule := e.rules.Lookup(m, entity)
	if !rule.Allowed {
		e.logger.Debug("mutation rejected by policy", "mutation", m, "entity", entity)
		return rule, false
	}
	return rule, true
}

func (e *Engine) newID() ir.NodeID {
	return ir.NodeID(e.ids.Generate())
}
