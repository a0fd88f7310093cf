package engine

import (
	"maps"
	"reflect"
	"slices"

	"github.com/roach88/protoboard/internal/ir"
)

// draft is a copy-on-write overlay over an immutable Workspace.
//
// Reads fall through to the base snapshot unless the id has been written in
// this draft. The first edit of a node or board clones it into the overlay;
// later edits in the same dispatch modify that private clone. A nil overlay
// entry marks a deletion. Discarding a draft leaves the base untouched.
type draft struct {
	base   *ir.Workspace
	nodes  map[ir.NodeID]*ir.Node
	boards map[ir.ComponentID]*ir.Board

	// parents caches the containment index. Structural edits reset it.
	parents map[ir.NodeID]ir.NodeID

	// quota is nil for drafts that only serve lookups.
	quota *quota
}

func newDraft(ws *ir.Workspace) *draft {
	return &draft{
		base:   ws,
		nodes:  make(map[ir.NodeID]*ir.Node),
		boards: make(map[ir.ComponentID]*ir.Board),
	}
}

// Node implements ir.NodeSource.
func (d *draft) Node(id ir.NodeID) (*ir.Node, bool) {
	if n, ok := d.nodes[id]; ok {
		return n, n != nil
	}
	return d.base.Node(id)
}

// Board implements ir.BoardSource.
func (d *draft) Board(id ir.ComponentID) (*ir.Board, bool) {
	if b, ok := d.boards[id]; ok {
		return b, b != nil
	}
	return d.base.Board(id)
}

// NodeIDs returns every live node id in sorted order.
func (d *draft) NodeIDs() []ir.NodeID {
	ids := make([]ir.NodeID, 0, len(d.base.ByID)+len(d.nodes))
	for id := range d.base.ByID {
		if n, ok := d.nodes[id]; ok && n == nil {
			continue
		}
		ids = append(ids, id)
	}
	for id, n := range d.nodes {
		if n == nil {
			continue
		}
		if _, inBase := d.base.ByID[id]; !inBase {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// BoardIDs returns every live board id in sorted order.
func (d *draft) BoardIDs() []ir.ComponentID {
	ids := make([]ir.ComponentID, 0, len(d.base.Boards)+len(d.boards))
	for id := range d.base.Boards {
		if b, ok := d.boards[id]; ok && b == nil {
			continue
		}
		ids = append(ids, id)
	}
	for id, b := range d.boards {
		if b == nil {
			continue
		}
		if _, inBase := d.base.Boards[id]; !inBase {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// mustNode returns a node or a MISSING_NODE error.
func (d *draft) mustNode(id ir.NodeID) (*ir.Node, error) {
	n, ok := d.Node(id)
	if !ok {
		return nil, missingNode(id)
	}
	return n, nil
}

// mustBoard returns a board or a MISSING_BOARD error.
func (d *draft) mustBoard(id ir.ComponentID) (*ir.Board, error) {
	b, ok := d.Board(id)
	if !ok {
		return nil, missingBoard(id)
	}
	return b, nil
}

// editNode returns a node that is private to this draft and safe to modify.
func (d *draft) editNode(id ir.NodeID) (*ir.Node, error) {
	if n, ok := d.nodes[id]; ok {
		if n == nil {
			return nil, missingNode(id)
		}
		return n, nil
	}
	n, ok := d.base.Node(id)
	if !ok {
		return nil, missingNode(id)
	}
	c := n.Clone()
	d.nodes[id] = c
	return c, nil
}

// editBoard returns a board that is private to this draft and safe to modify.
func (d *draft) editBoard(id ir.ComponentID) (*ir.Board, error) {
	if b, ok := d.boards[id]; ok {
		if b == nil {
			return nil, missingBoard(id)
		}
		return b, nil
	}
	b, ok := d.base.Board(id)
	if !ok {
		return nil, missingBoard(id)
	}
	c := b.Clone()
	d.boards[id] = c
	return c, nil
}

// putNode stores a newly created node. The draft takes ownership of n.
func (d *draft) putNode(n *ir.Node) {
	d.nodes[n.ID] = n
	d.parents = nil
}

func (d *draft) putBoard(b *ir.Board) {
	d.boards[b.ID] = b
}

func (d *draft) deleteNode(id ir.NodeID) {
	d.nodes[id] = nil
	d.parents = nil
}

func (d *draft) deleteBoard(id ir.ComponentID) {
	d.boards[id] = nil
}

// setChildren replaces a node's child list.
func (d *draft) setChildren(id ir.NodeID, children []ir.NodeID) error {
	n, err := d.editNode(id)
	if err != nil {
		return err
	}
	n.Children = children
	d.parents = nil
	return nil
}

// parentOf returns the containing node of id.
func (d *draft) parentOf(id ir.NodeID) (ir.NodeID, bool) {
	if d.parents == nil {
		d.parents = make(map[ir.NodeID]ir.NodeID)
		for _, pid := range d.NodeIDs() {
			p, _ := d.Node(pid)
			for _, c := range p.Children {
				d.parents[c] = pid
			}
		}
	}
	p, ok := d.parents[id]
	return p, ok
}

// subtree returns id followed by all of its descendants in pre-order.
// Dangling child references are skipped.
func (d *draft) subtree(id ir.NodeID) []ir.NodeID {
	var out []ir.NodeID
	var walk func(ir.NodeID)
	walk = func(id ir.NodeID) {
		n, ok := d.Node(id)
		if !ok {
			return
		}
		out = append(out, id)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(id)
	return out
}

// commit folds the overlay into a new Workspace. Unchanged entries keep
// sharing the base values. If nothing differs from the base, the base
// itself is returned.
func (d *draft) commit() *ir.Workspace {
	changed := false
	for id, n := range d.nodes {
		prev, ok := d.base.ByID[id]
		if n == nil {
			if ok {
				changed = true
				break
			}
			continue
		}
		if !ok || !reflect.DeepEqual(prev, n) {
			changed = true
			break
		}
	}
	if !changed {
		for id, b := range d.boards {
			prev, ok := d.base.Boards[id]
			if b == nil {
				if ok {
					changed = true
					break
				}
				continue
			}
			if !ok || !reflect.DeepEqual(prev, b) {
				changed = true
				break
			}
		}
	}
	if !changed {
		return d.base
	}

	ws := &ir.Workspace{
		Version:     d.base.Version + 1,
		Boards:      maps.Clone(d.base.Boards),
		ByID:        maps.Clone(d.base.ByID),
		CustomTheme: d.base.CustomTheme,
	}
	if ws.Boards == nil {
		ws.Boards = make(map[ir.ComponentID]*ir.Board)
	}
	if ws.ByID == nil {
		ws.ByID = make(map[ir.NodeID]*ir.Node)
	}
	for id, n := range d.nodes {
		if n == nil {
			delete(ws.ByID, id)
			continue
		}
		if prev, ok := d.base.ByID[id]; ok && reflect.DeepEqual(prev, n) {
			continue
		}
		ws.ByID[id] = n
	}
	for id, b := range d.boards {
		if b == nil {
			delete(ws.Boards, id)
			continue
		}
		if prev, ok := d.base.Boards[id]; ok && reflect.DeepEqual(prev, b) {
			continue
		}
		ws.Boards[id] = b
	}
	return ws
}

// defaultVariant returns the default Variant of a component's board.
func (d *draft) defaultVariant(id ir.ComponentID) (*ir.Node, bool) {
	b, ok := d.Board(id)
	if !ok {
		return nil, false
	}
	for _, vid := range b.Variants {
		if n, ok := d.Node(vid); ok && n.Kind == ir.KindDefaultVariant {
			return n, true
		}
	}
	return nil, false
}
