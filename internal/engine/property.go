package engine

import (
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

func (e *Engine) resetNodeProperty(d *draft, m ResetNodeProperty) error {
	n, err := d.mustNode(m.Node)
	if err != nil {
		return err
	}
	rule, ok := e.allowed(rules.ResetNodeProperty, rules.EntityOf(n))
	if !ok {
		return nil
	}
	return e.propagate(d, n.ID, rule.Propagation, func(d *draft, site Site, _ Outcome) (Outcome, error) {
		cur, err := d.mustNode(site.Node)
		if err != nil {
			return Outcome{}, err
		}
		props, removed := cur.Properties.Without(m.Key, m.Sub)
		if !removed {
			return Outcome{}, nil
		}
		edit, err := d.editNode(site.Node)
		if err != nil {
			return Outcome{}, err
		}
		edit.Properties = props
		return Outcome{}, nil
	})
}

func (e *Engine) setNodeProperty(d *draft, m SetNodeProperty) error {
	n, err := d.mustNode(m.Node)
	if err != nil {
		return err
	}
	if m.Key == "" || m.Value == nil {
		return invalid("set_node_property requires a key and a value")
	}
	if err := (ir.Properties{m.Key: m.Value}).Validate(); err != nil {
		return invalid("%v", err)
	}
	rule, ok := e.allowed(rules.SetNodeProperty, rules.EntityOf(n))
	if !ok {
		return nil
	}
	return e.propagate(d, n.ID, rule.Propagation, func(d *draft, site Site, _ Outcome) (Outcome, error) {
		edit, err := d.editNode(site.Node)
		if err != nil {
			return Outcome{}, err
		}
		edit.Properties = edit.Properties.With(m.Key, m.Value)
		return Outcome{}, nil
	})
}
