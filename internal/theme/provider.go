// Package theme looks up themes and remaps token references when a node
// moves from one theme to another.
package theme

import (
	"github.com/roach88/protoboard/internal/ir"
)

// Provider resolves theme ids. The workspace is consulted for its custom
// theme.
type Provider interface {
	Theme(id string, ws *ir.Workspace) (*ir.Theme, bool)
}

// Static serves a fixed set of themes plus the workspace's custom theme.
type Static struct {
	themes map[string]*ir.Theme
}

// NewStatic creates a provider over themes keyed by id.
func NewStatic(themes map[string]*ir.Theme) *Static {
	s := &Static{themes: make(map[string]*ir.Theme, len(themes))}
	for id, t := range themes {
		s.themes[id] = t
	}
	return s
}

// Theme implements Provider. A workspace custom theme shadows a static
// theme with the same id.
func (s *Static) Theme(id string, ws *ir.Workspace) (*ir.Theme, bool) {
	if ws != nil && ws.CustomTheme != nil && ws.CustomTheme.ID == id {
		return ws.CustomTheme, true
	}
	t, ok := s.themes[id]
	return t, ok
}
