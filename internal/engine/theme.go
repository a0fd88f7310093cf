package engine

import (
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

func (e *Engine) setNodeTheme(d *draft, m SetNodeTheme) error {
	n, err := d.mustNode(m.Node)
	if err != nil {
		return err
	}
	if e.themes == nil {
		return invalid("no theme provider configured")
	}
	next, ok := e.themes.Theme(m.Theme, d.base)
	if !ok {
		return invalid("unknown theme %q", m.Theme)
	}
	rule, ok := e.allowed(rules.SetNodeTheme, rules.EntityOf(n))
	if !ok {
		return nil
	}

	return e.propagate(d, n.ID, rule.Propagation, func(d *draft, site Site, _ Outcome) (Outcome, error) {
		prevID := e.effectiveTheme(d, site.Node)
		if prevID != m.Theme {
			prev, ok := e.themes.Theme(prevID, d.base)
			if ok {
				for _, id := range themeScope(d, site.Node) {
					cur, _ := d.Node(id)
					props, changed := e.migrator.Properties(cur.Properties, prev, next)
					if !changed {
						continue
					}
					edit, err := d.editNode(id)
					if err != nil {
						return Outcome{}, err
					}
					edit.Properties = props
				}
			} else {
				e.logger.Warn("previous theme not found, token references left unchanged",
					"node", site.Node,
					"theme", prevID)
			}
		}

		cur, err := d.mustNode(site.Node)
		if err != nil {
			return Outcome{}, err
		}
		if cur.Theme == m.Theme {
			return Outcome{}, nil
		}
		edit, err := d.editNode(site.Node)
		if err != nil {
			return Outcome{}, err
		}
		edit.Theme = m.Theme
		return Outcome{}, nil
	})
}

// effectiveTheme walks id and its containers for a theme override, then
// falls back to the owning board's theme and finally the engine default.
func (e *Engine) effectiveTheme(d *draft, id ir.NodeID) string {
	chain := d.ancestors(id)
	for _, a := range chain {
		if n, ok := d.Node(a); ok && n.Theme != "" {
			return n.Theme
		}
	}
	if top, ok := d.Node(chain[len(chain)-1]); ok {
		if b, ok := d.Board(top.Component); ok && b.Theme != "" {
			return b.Theme
		}
	}
	return e.defaultTheme
}

// themeScope returns id and the descendants that inherit its theme, i.e.
// stopping at any descendant with its own override.
func themeScope(d *draft, id ir.NodeID) []ir.NodeID {
	out := []ir.NodeID{id}
	var walk func(ir.NodeID)
	walk = func(p ir.NodeID) {
		n, ok := d.Node(p)
		if !ok {
			return
		}
		for _, c := range n.Children {
			cn, ok := d.Node(c)
			if !ok || cn.Theme != "" {
				continue
			}
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}
