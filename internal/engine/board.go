package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

func (e *Engine) addBoard(d *draft, m AddBoard) error {
	if _, ok := e.allowed(rules.AddBoard, rules.EntityBoard); !ok {
		return nil
	}
	return e.ensureBoard(d, m.Component, map[ir.ComponentID]bool{})
}

// ensureBoard creates the board for id if it is missing. Boards for every
// component in the schema's child structure are ensured first, so each
// child's default Variant exists before the parent instantiates it.
func (e *Engine) ensureBoard(d *draft, id ir.ComponentID, visiting map[ir.ComponentID]bool) error {
	if _, ok := d.Board(id); ok {
		return nil
	}
	if visiting[id] {
		return &InvariantError{Code: ErrCodeCycleDetected, Message: "component structure is cyclic", Component: id}
	}
	visiting[id] = true
	defer delete(visiting, id)

	schema, ok := e.catalog.Schema(id)
	if !ok {
		e.logger.Warn("component schema not found, creating empty board", "component", id)
		schema = &ir.ComponentSchema{Component: id, Label: string(id), Level: ir.LevelPrimitive}
	}
	for _, child := range schema.Children {
		if err := e.ensureBoard(d, child.Component, visiting); err != nil {
			return err
		}
	}

	variant := &ir.Node{
		ID:        e.newID(),
		Component: id,
		Level:     schema.Level,
		Kind:      ir.KindDefaultVariant,
		Name:      "Default",
		Origin:    ir.OriginSchema,
	}
	d.putNode(variant)

	var children []ir.NodeID
	for _, child := range schema.Children {
		src, ok := d.defaultVariant(child.Component)
		if !ok {
			return missingBoard(child.Component)
		}
		cid, err := e.instantiate(d, src.ID, ir.OriginSchema)
		if err != nil {
			return err
		}
		if len(child.Properties) > 0 {
			n, err := d.editNode(cid)
			if err != nil {
				return err
			}
			n.Properties = child.Properties.Clone()
		}
		children = append(children, cid)
	}
	if len(children) > 0 {
		if err := d.setChildren(variant.ID, children); err != nil {
			return err
		}
	}

	d.putBoard(&ir.Board{
		ID:       id,
		Label:    schema.Label,
		Order:    nextOrder(d),
		Variants: []ir.NodeID{variant.ID},
	})
	e.logger.Debug("board created", "component", id, "variant", variant.ID)
	return nil
}

func nextOrder(d *draft) int {
	next := 0
	for _, id := range d.BoardIDs() {
		b, _ := d.Board(id)
		if b.Order >= next {
			next = b.Order + 1
		}
	}
	return next
}

func (e *Engine) addVariant(d *draft, m AddVariant) error {
	b, err := d.mustBoard(m.Component)
	if err != nil {
		return err
	}
	if _, ok := e.allowed(rules.AddVariant, rules.EntityBoard); !ok {
		return nil
	}
	dv, ok := d.defaultVariant(m.Component)
	if !ok {
		return &InvariantError{Code: ErrCodeMissingNode, Message: "board has no default variant", Component: m.Component}
	}

	cid, err := e.deepCopy(d, dv.ID, map[ir.NodeID]bool{})
	if err != nil {
		return err
	}
	n, err := d.editNode(cid)
	if err != nil {
		return err
	}
	n.Kind = ir.KindUserVariant
	n.Name = m.Name
	if n.Name == "" {
		n.Name = fmt.Sprintf("Variant %d", len(b.Variants))
	}

	board, err := d.editBoard(m.Component)
	if err != nil {
		return err
	}
	board.Variants = append(board.Variants, cid)
	return nil
}

func (e *Engine) removeBoard(d *draft, orig *ir.Workspace, m RemoveBoard) error {
	b, err := d.mustBoard(m.Component)
	if err != nil {
		return err
	}
	rule, ok := e.allowed(rules.RemoveBoard, rules.EntityBoard)
	if !ok {
		return nil
	}

	deleted := make(map[ir.NodeID]bool)
	for _, vid := range b.Variants {
		for _, id := range d.subtree(vid) {
			deleted[id] = true
		}
	}

	// Orphans are found to a fixpoint: deleting an orphan's subtree can
	// orphan instances of the nodes inside it.
	for changed := true; changed; {
		changed = false
		for _, id := range d.NodeIDs() {
			if deleted[id] {
				continue
			}
			n, _ := d.Node(id)
			if n.InstanceOf == "" || !deleted[n.InstanceOf] {
				continue
			}
			changed = true
			switch rule.Removal.For(n.Origin) {
			case rules.RemoveHide:
				props, err := e.resolver.Node(orig, id)
				if err != nil {
					return chainError(id, err)
				}
				edit, err := d.editNode(id)
				if err != nil {
					return err
				}
				edit.Properties = props
				edit.InstanceOf = ""
				edit.Hidden = true
				e.logger.Debug("orphan hidden", "node", id, "component", m.Component)
			default:
				for _, sid := range d.subtree(id) {
					deleted[sid] = true
				}
				e.logger.Debug("orphan deleted", "node", id, "component", m.Component)
			}
		}
	}

	for _, id := range d.NodeIDs() {
		if deleted[id] {
			continue
		}
		n, _ := d.Node(id)
		if !slices.ContainsFunc(n.Children, func(c ir.NodeID) bool { return deleted[c] }) {
			continue
		}
		kept := slices.DeleteFunc(slices.Clone(n.Children), func(c ir.NodeID) bool { return deleted[c] })
		if err := d.setChildren(id, kept); err != nil {
			return err
		}
	}
	for id := range deleted {
		d.deleteNode(id)
	}
	d.deleteBoard(m.Component)
	return nil
}

func (e *Engine) resetBoardProperty(d *draft, m ResetBoardProperty) error {
	b, err := d.mustBoard(m.Component)
	if err != nil {
		return err
	}
	if _, ok := e.allowed(rules.ResetBoardProperty, rules.EntityBoard); !ok {
		return nil
	}
	props, removed := b.Properties.Without(m.Key, m.Sub)
	if !removed {
		return nil
	}
	edit, err := d.editBoard(m.Component)
	if err != nil {
		return err
	}
	edit.Properties = props
	return nil
}

func (e *Engine) setBoardProperties(d *draft, m SetBoardProperties) error {
	b, err := d.mustBoard(m.Component)
	if err != nil {
		return err
	}
	if err := m.Properties.Validate(); err != nil {
		return invalid("%v", err)
	}
	if _, ok := e.allowed(rules.SetBoardProperties, rules.EntityBoard); !ok {
		return nil
	}
	if len(b.Properties) == 0 && len(m.Properties) == 0 {
		return nil
	}
	edit, err := d.editBoard(m.Component)
	if err != nil {
		return err
	}
	edit.Properties = m.Properties.Clone()
	return nil
}

func (e *Engine) setBoardTheme(d *draft, m SetBoardTheme) error {
	b, err := d.mustBoard(m.Component)
	if err != nil {
		return err
	}
	if m.Theme != "" && e.themes != nil {
		if _, ok := e.themes.Theme(m.Theme, d.base); !ok {
			return invalid("unknown theme %q", m.Theme)
		}
	}
	if _, ok := e.allowed(rules.SetBoardTheme, rules.EntityBoard); !ok {
		return nil
	}
	if b.Theme == m.Theme {
		return nil
	}
	edit, err := d.editBoard(m.Component)
	if err != nil {
		return err
	}
	edit.Theme = m.Theme
	return nil
}
