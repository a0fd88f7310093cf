package engine

import (
	"slices"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/resolve"
	"github.com/roach88/protoboard/internal/rules"
)

// instantiate creates an Instance of src whose children mirror src's
// children one for one, each an Instance of the corresponding child.
func (e *Engine) instantiate(d *draft, src ir.NodeID, origin ir.Origin) (ir.NodeID, error) {
	return e.instantiateSeen(d, src, origin, map[ir.NodeID]bool{})
}

func (e *Engine) instantiateSeen(d *draft, src ir.NodeID, origin ir.Origin, seen map[ir.NodeID]bool) (ir.NodeID, error) {
	if seen[src] {
		return "", &InvariantError{Code: ErrCodeCycleDetected, Message: "containment cycle", NodeID: src}
	}
	seen[src] = true
	defer delete(seen, src)

	s, err := d.mustNode(src)
	if err != nil {
		return "", err
	}
	n := &ir.Node{
		ID:         e.newID(),
		Component:  s.Component,
		Level:      s.Level,
		Kind:       ir.KindInstance,
		InstanceOf: src,
		Origin:     origin,
	}
	for _, c := range s.Children {
		cid, err := e.instantiateSeen(d, c, origin, seen)
		if err != nil {
			return "", err
		}
		n.Children = append(n.Children, cid)
	}
	d.putNode(n)
	return n.ID, nil
}

// deepCopy clones id and its descendants with fresh ids. Property values,
// kinds and instanceOf links are preserved.
func (e *Engine) deepCopy(d *draft, id ir.NodeID, seen map[ir.NodeID]bool) (ir.NodeID, error) {
	if seen[id] {
		return "", &InvariantError{Code: ErrCodeCycleDetected, Message: "containment cycle", NodeID: id}
	}
	seen[id] = true
	defer delete(seen, id)

	src, err := d.mustNode(id)
	if err != nil {
		return "", err
	}
	n := src.Clone()
	n.ID = e.newID()
	n.Children = nil
	for _, c := range src.Children {
		cid, err := e.deepCopy(d, c, seen)
		if err != nil {
			return "", err
		}
		n.Children = append(n.Children, cid)
	}
	d.putNode(n)
	return n.ID, nil
}

// copyOverrides writes from's stored properties onto to, pairing
// descendants by position.
func copyOverrides(d *draft, from, to ir.NodeID) error {
	f, err := d.mustNode(from)
	if err != nil {
		return err
	}
	t, err := d.mustNode(to)
	if err != nil {
		return err
	}
	if len(f.Properties) > 0 {
		edit, err := d.editNode(to)
		if err != nil {
			return err
		}
		edit.Properties = f.Properties.Clone()
	}
	for i := 0; i < len(f.Children) && i < len(t.Children); i++ {
		if err := copyOverrides(d, f.Children[i], t.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// insertIndex clamps idx into [0, n]. A negative index appends.
func insertIndex(idx, n int) int {
	if idx < 0 || idx > n {
		return n
	}
	return idx
}

func (e *Engine) duplicateNode(d *draft, m DuplicateNode) error {
	n, err := d.mustNode(m.Node)
	if err != nil {
		return err
	}
	rule, ok := e.allowed(rules.DuplicateNode, rules.EntityOf(n))
	if !ok {
		return nil
	}

	if n.IsVariant() {
		cid, err := e.deepCopy(d, n.ID, map[ir.NodeID]bool{})
		if err != nil {
			return err
		}
		c, err := d.editNode(cid)
		if err != nil {
			return err
		}
		c.Kind = ir.KindUserVariant
		if n.Name != "" {
			c.Name = n.Name + " copy"
		}
		b, err := d.editBoard(n.Component)
		if err != nil {
			return err
		}
		at := slices.Index(b.Variants, n.ID)
		b.Variants = slices.Insert(b.Variants, at+1, cid)
		return nil
	}

	return e.propagate(d, n.ID, rule.Propagation, func(d *draft, site Site, prev Outcome) (Outcome, error) {
		parent, ok := d.parentOf(site.Node)
		if !ok {
			if site.Origin {
				return Outcome{}, &InvariantError{Code: ErrCodeInvalidMutation, Message: "instance has no parent", NodeID: site.Node}
			}
			return Outcome{}, errPrune
		}

		var cid ir.NodeID
		if site.Origin || prev.Created == "" {
			cid, err = e.deepCopy(d, site.Node, map[ir.NodeID]bool{})
			if err != nil {
				return Outcome{}, err
			}
		} else {
			target, _ := d.Node(site.Node)
			cid, err = e.instantiate(d, prev.Created, target.Origin)
			if err != nil {
				return Outcome{}, err
			}
			if err := copyOverrides(d, site.Node, cid); err != nil {
				return Outcome{}, err
			}
		}

		p, _ := d.Node(parent)
		at := p.ChildIndex(site.Node)
		if err := d.setChildren(parent, slices.Insert(slices.Clone(p.Children), at+1, cid)); err != nil {
			return Outcome{}, err
		}
		return Outcome{Created: cid}, nil
	})
}

func (e *Engine) insertNode(d *draft, m InsertNode) error {
	if m.Source == "" && m.Component == "" {
		return invalid("insert_node needs a source or a component")
	}
	parent, err := d.mustNode(m.Parent)
	if err != nil {
		return err
	}
	rule, ok := e.allowed(rules.InsertNode, rules.EntityOf(parent))
	if !ok {
		return nil
	}
	if !parent.Level.AllowsChildren() {
		e.logger.Debug("insert rejected: parent level holds no children",
			"parent", parent.ID,
			"level", parent.Level)
		return nil
	}

	src := m.Source
	if src == "" {
		if err := e.ensureBoard(d, m.Component, map[ir.ComponentID]bool{}); err != nil {
			return err
		}
		dv, ok := d.defaultVariant(m.Component)
		if !ok {
			return missingBoard(m.Component)
		}
		src = dv.ID
	}
	if _, err := d.mustNode(src); err != nil {
		return err
	}
	if _, err := resolve.Chain(d, src); err != nil {
		return chainError(src, err)
	}
	if err := checkContainment(d, src, parent.ID); err != nil {
		return err
	}

	return e.propagate(d, parent.ID, rule.Propagation, func(d *draft, site Site, prev Outcome) (Outcome, error) {
		target, err := d.mustNode(site.Node)
		if err != nil {
			return Outcome{}, err
		}
		if !target.Level.AllowsChildren() {
			return Outcome{}, errPrune
		}

		from := src
		if !site.Origin && prev.Created != "" {
			from = prev.Created
		}
		cid, err := e.instantiate(d, from, ir.OriginManual)
		if err != nil {
			return Outcome{}, err
		}

		at := insertIndex(m.Index, len(target.Children))
		if err := d.setChildren(site.Node, slices.Insert(slices.Clone(target.Children), at, cid)); err != nil {
			return Outcome{}, err
		}
		return Outcome{Created: cid}, nil
	})
}

// checkContainment rejects inserting src under parent when some node in
// src's subtree derives from parent or one of its containers: the
// container would end up holding a copy of itself.
func checkContainment(d *draft, src, parent ir.NodeID) error {
	containers := d.ancestors(parent)
	for _, x := range d.subtree(src) {
		for _, a := range containers {
			if resolve.ChainContains(d, x, a) {
				return &InvariantError{
					Code:    ErrCodeCycleDetected,
					Message: "insert would place " + string(a) + " inside a copy of itself",
					NodeID:  src,
				}
			}
		}
	}
	return nil
}

func (e *Engine) moveNode(d *draft, m MoveNode) error {
	n, err := d.mustNode(m.Node)
	if err != nil {
		return err
	}
	rule, ok := e.allowed(rules.MoveNode, rules.EntityOf(n))
	if !ok {
		return nil
	}

	oldParent, ok := d.parentOf(n.ID)
	if !ok {
		return &InvariantError{Code: ErrCodeInvalidMove, Message: "node has no parent", NodeID: n.ID}
	}
	newParent := m.Parent
	if newParent == "" {
		newParent = oldParent
	}
	np, err := d.mustNode(newParent)
	if err != nil {
		return err
	}
	if !np.Level.AllowsChildren() {
		return &InvariantError{Code: ErrCodeInvalidMove, Message: "target level holds no children", NodeID: newParent}
	}
	if newParent == n.ID || d.isDescendant(newParent, n.ID) {
		return &InvariantError{Code: ErrCodeInvalidMove, Message: "cannot move a node into its own subtree", NodeID: n.ID}
	}

	nodeRoot, _, err := d.pathOf(n.ID)
	if err != nil {
		return err
	}
	destRoot, destPath, err := d.pathOf(newParent)
	if err != nil {
		return err
	}
	mode := rule.Propagation
	if nodeRoot != destRoot {
		e.logger.Debug("cross-root move applied at origin only",
			"node", n.ID,
			"from_root", nodeRoot,
			"to_root", destRoot)
		mode = rules.PropagateNone
	}

	return e.propagate(d, n.ID, mode, func(d *draft, site Site, _ Outcome) (Outcome, error) {
		dest := newParent
		if !site.Origin {
			var ok bool
			dest, ok = FindByPath(d, site.Root, destPath)
			if !ok {
				return Outcome{}, errPrune
			}
			dn, _ := d.Node(dest)
			if !dn.Level.AllowsChildren() || dest == site.Node || d.isDescendant(dest, site.Node) {
				return Outcome{}, errPrune
			}
		}

		from, ok := d.parentOf(site.Node)
		if !ok {
			return Outcome{}, errPrune
		}
		fn, _ := d.Node(from)
		remaining := slices.DeleteFunc(slices.Clone(fn.Children), func(c ir.NodeID) bool { return c == site.Node })
		if err := d.setChildren(from, remaining); err != nil {
			return Outcome{}, err
		}

		dn, _ := d.Node(dest)
		at := insertIndex(m.Index, len(dn.Children))
		if err := d.setChildren(dest, slices.Insert(slices.Clone(dn.Children), at, site.Node)); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, nil
	})
}
