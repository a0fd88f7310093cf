package engine

import (
	"errors"
	"sort"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/resolve"
	"github.com/roach88/protoboard/internal/rules"
)

// errPrune tells the propagation engine that a site no longer matches the
// origin's structure. The branch is skipped; other sites still apply.
var errPrune = errors.New("structural mismatch")

// Site is one place an edit is applied: the node itself and the
// containment root whose subtree it was found in.
type Site struct {
	Root ir.NodeID
	Node ir.NodeID
	// Origin is true for the node the mutation named.
	Origin bool
}

// Outcome carries what an apply produced at a site so copies further down
// the instance chain can refer to it.
type Outcome struct {
	Created ir.NodeID
}

// applyFunc edits one site. It must tolerate being called on a node an
// earlier site already updated.
type applyFunc func(d *draft, site Site, prev Outcome) (Outcome, error)

type target struct {
	site Site
	// sources is the copy root's instanceOf chain up to the origin's
	// root, nearest first. The first one with an outcome supplies prev.
	sources []ir.NodeID
	depth   int
}

// propagate applies fn at origin and, depending on mode, at every
// structurally corresponding node.
func (e *Engine) propagate(d *draft, origin ir.NodeID, mode rules.Propagation, fn applyFunc) error {
	switch mode {
	case rules.PropagateDownstream:
		targets, err := e.downstreamTargets(d, origin)
		if err != nil {
			return err
		}
		return e.applyAll(d, targets, fn)
	case rules.PropagateBidirectional:
		targets, err := e.bidirectionalTargets(d, origin)
		if err != nil {
			return err
		}
		return e.applyAll(d, targets, fn)
	default:
		root, _, err := d.pathOf(origin)
		if err != nil {
			return err
		}
		_, err = fn(d, Site{Root: root, Node: origin, Origin: true}, Outcome{})
		return err
	}
}

// downstreamTargets lists origin plus the node at origin's path inside
// every copy of origin's containment root. Copies are ordered by how far
// down the instance chain they sit, so a copy is always visited after the
// node it was copied from.
func (e *Engine) downstreamTargets(d *draft, origin ir.NodeID) ([]target, error) {
	root, path, err := d.pathOf(origin)
	if err != nil {
		return nil, err
	}
	targets := []target{{site: Site{Root: root, Node: origin, Origin: true}}}

	for _, id := range d.NodeIDs() {
		if id == root {
			continue
		}
		chain, err := resolve.Chain(d, id)
		if err != nil {
			return nil, chainError(id, err)
		}
		depth := -1
		for i, n := range chain {
			if n.ID == root {
				depth = i
				break
			}
		}
		if depth <= 0 {
			continue
		}
		node, ok := FindByPath(d, id, path)
		if !ok {
			e.logger.Debug("propagation branch pruned",
				"origin", origin,
				"copy", id,
				"path", path)
			continue
		}
		sources := make([]ir.NodeID, 0, depth)
		for _, n := range chain[1 : depth+1] {
			sources = append(sources, n.ID)
		}
		targets = append(targets, target{
			site:    Site{Root: id, Node: node},
			sources: sources,
			depth:   depth,
		})
	}

	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].depth != targets[j].depth {
			return targets[i].depth < targets[j].depth
		}
		return targets[i].site.Root < targets[j].site.Root
	})
	return targets, nil
}

// bidirectionalTargets extends downstream propagation toward the canonical
// node: every node on origin's instanceOf chain is a seed, and each seed
// contributes its own downstream copies.
func (e *Engine) bidirectionalTargets(d *draft, origin ir.NodeID) ([]target, error) {
	chain, err := resolve.Chain(d, origin)
	if err != nil {
		return nil, chainError(origin, err)
	}
	var all []target
	for i, seed := range chain {
		ts, err := e.downstreamTargets(d, seed.ID)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			ts[0].site.Origin = false
		}
		all = append(all, ts...)
	}
	return all, nil
}

// applyAll runs fn over targets in order, visiting each node once.
func (e *Engine) applyAll(d *draft, targets []target, fn applyFunc) error {
	visited := make(map[ir.NodeID]bool, len(targets))
	outcomes := make(map[ir.NodeID]Outcome, len(targets))
	for _, t := range targets {
		if visited[t.site.Node] {
			continue
		}
		visited[t.site.Node] = true
		if d.quota != nil {
			if err := d.quota.Check(); err != nil {
				return err
			}
		}

		var prev Outcome
		for _, src := range t.sources {
			if o, ok := outcomes[src]; ok {
				prev = o
				break
			}
		}
		out, err := fn(d, t.site, prev)
		if errors.Is(err, errPrune) {
			e.logger.Debug("propagation site skipped",
				"root", t.site.Root,
				"node", t.site.Node,
				"reason", err)
			continue
		}
		if err != nil {
			return err
		}
		outcomes[t.site.Root] = out
	}
	return nil
}
