// Package resolve computes effective property sets.
//
// A node's effective properties are never stored: they are recomputed by
// merging catalog defaults, every ancestor along the instanceOf chain
// (most ancestral first) and the node's own overrides.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/protoboard/internal/catalog"
	"github.com/roach88/protoboard/internal/ir"
)

var (
	// ErrMissingNode is returned when an id does not name a stored node.
	ErrMissingNode = errors.New("missing node")
	// ErrMissingBoard is returned when a component has no board.
	ErrMissingBoard = errors.New("missing board")
	// ErrCycle is returned when an instanceOf chain revisits a node.
	ErrCycle = errors.New("instanceOf cycle")
)

// BoardDefaults is the fixed base layer for every board.
func BoardDefaults() ir.Properties {
	return ir.Properties{
		"background": ir.Compound{
			"color": ir.CategoricalToken("@colors.canvas"),
		},
		"gap": ir.OrdinalToken("@spacing.lg"),
		"padding": ir.Compound{
			"top":    ir.OrdinalToken("@spacing.lg"),
			"right":  ir.OrdinalToken("@spacing.lg"),
			"bottom": ir.OrdinalToken("@spacing.lg"),
			"left":   ir.OrdinalToken("@spacing.lg"),
		},
		"layout": ir.Preset("grid"),
	}
}

// Resolver merges property layers against a Catalog.
type Resolver struct {
	catalog catalog.Catalog
	logger  *slog.Logger
}

// New creates a Resolver. A nil logger uses slog.Default().
func New(cat catalog.Catalog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: cat, logger: logger}
}

// Board returns a board's effective properties.
func (r *Resolver) Board(ws ir.BoardSource, id ir.ComponentID) (ir.Properties, error) {
	b, ok := ws.Board(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBoard, id)
	}
	return ir.Merge(BoardDefaults(), b.Properties), nil
}

// Node returns a node's effective properties.
//
// A catalog miss is logged and degrades to the node's own stored
// properties; it is not an error.
func (r *Resolver) Node(ws ir.NodeSource, id ir.NodeID) (ir.Properties, error) {
	chain, err := Chain(ws, id)
	if err != nil {
		return nil, err
	}
	n := chain[0]

	schema, ok := r.catalog.Schema(n.Component)
	if !ok {
		r.logger.Warn("component schema not found, using stored properties",
			"component", n.Component,
			"node", n.ID)
		return ir.Merge(n.Properties), nil
	}

	layers := make([]ir.Properties, 0, len(chain)+1)
	layers = append(layers, schema.Defaults())
	for i := len(chain) - 1; i >= 0; i-- {
		layers = append(layers, chain[i].Properties)
	}
	return ir.Merge(layers...), nil
}

// Chain returns id's node followed by every node reached through
// instanceOf, ending at the ultimate Variant.
func Chain(ws ir.NodeSource, id ir.NodeID) ([]*ir.Node, error) {
	n, ok := ws.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingNode, id)
	}
	chain := []*ir.Node{n}
	seen := map[ir.NodeID]bool{n.ID: true}
	for n.InstanceOf != "" {
		next, ok := ws.Node(n.InstanceOf)
		if !ok {
			return nil, fmt.Errorf("%w: %s (instance_of of %s)", ErrMissingNode, n.InstanceOf, n.ID)
		}
		if seen[next.ID] {
			return nil, fmt.Errorf("%w: %s revisits %s", ErrCycle, id, next.ID)
		}
		seen[next.ID] = true
		chain = append(chain, next)
		n = next
	}
	return chain, nil
}

// ChainContains reports whether target appears on id's instanceOf chain,
// id itself included. Broken chains report false.
func ChainContains(ws ir.NodeSource, id, target ir.NodeID) bool {
	chain, err := Chain(ws, id)
	if err != nil {
		return false
	}
	for _, n := range chain {
		if n.ID == target {
			return true
		}
	}
	return false
}
