package engine

import (
	"slices"

	"github.com/roach88/protoboard/internal/ir"
)

// Path is a sequence of child indices from a containment root down to a
// node. The empty Path addresses the root itself.
type Path []int

// Tree is the read view the path resolver needs.
type Tree interface {
	ir.NodeSource
	NodeIDs() []ir.NodeID
}

// PathOf returns the containment root above id (normally the Variant that
// owns it) and the child-index path from that root to id.
func PathOf(t Tree, id ir.NodeID) (ir.NodeID, Path, error) {
	if d, ok := t.(*draft); ok {
		return d.pathOf(id)
	}
	return newDraft(workspaceOf(t)).pathOf(id)
}

// FindByPath walks root's children along path. It returns false the moment
// an index is out of range or a node along the way is missing; a diverged
// copy is not an error.
func FindByPath(src ir.NodeSource, root ir.NodeID, path Path) (ir.NodeID, bool) {
	cur, ok := src.Node(root)
	if !ok {
		return "", false
	}
	for _, idx := range path {
		if idx < 0 || idx >= len(cur.Children) {
			return "", false
		}
		next, ok := src.Node(cur.Children[idx])
		if !ok {
			return "", false
		}
		cur = next
	}
	return cur.ID, true
}

func (d *draft) pathOf(id ir.NodeID) (ir.NodeID, Path, error) {
	if _, err := d.mustNode(id); err != nil {
		return "", nil, err
	}
	var rev Path
	seen := map[ir.NodeID]bool{id: true}
	cur := id
	for {
		parent, ok := d.parentOf(cur)
		if !ok {
			break
		}
		if seen[parent] {
			return "", nil, &InvariantError{Code: ErrCodeCycleDetected, Message: "containment cycle", NodeID: parent}
		}
		seen[parent] = true
		p, _ := d.Node(parent)
		rev = append(rev, p.ChildIndex(cur))
		cur = parent
	}
	slices.Reverse(rev)
	if rev == nil {
		rev = Path{}
	}
	return cur, rev, nil
}

// isDescendant reports whether id lies strictly below ancestor.
func (d *draft) isDescendant(id, ancestor ir.NodeID) bool {
	seen := map[ir.NodeID]bool{}
	cur := id
	for {
		p, ok := d.parentOf(cur)
		if !ok || seen[p] {
			return false
		}
		if p == ancestor {
			return true
		}
		seen[p] = true
		cur = p
	}
}

// ancestors returns id and every containing node above it.
func (d *draft) ancestors(id ir.NodeID) []ir.NodeID {
	out := []ir.NodeID{id}
	seen := map[ir.NodeID]bool{id: true}
	cur := id
	for {
		p, ok := d.parentOf(cur)
		if !ok || seen[p] {
			return out
		}
		seen[p] = true
		out = append(out, p)
		cur = p
	}
}

func workspaceOf(t Tree) *ir.Workspace {
	if ws, ok := t.(*ir.Workspace); ok {
		return ws
	}
	ws := ir.NewWorkspace()
	for _, id := range t.NodeIDs() {
		n, _ := t.Node(id)
		ws.ByID[id] = n
	}
	return ws
}
