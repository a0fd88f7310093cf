// Package catalog supplies the canonical shape of every component kind: its
// level, default properties and default child structure. Schemas and themes
// are authored in CUE and compiled into ir types by Load or Compile.
package catalog

import (
	"fmt"
	"sort"

	"github.com/roach88/protoboard/internal/ir"
)

// Catalog looks up component schemas. A miss is reported with ok=false and
// is never fatal to callers that only read.
type Catalog interface {
	Schema(id ir.ComponentID) (*ir.ComponentSchema, bool)
}

// Static is an in-memory Catalog.
type Static struct {
	schemas map[ir.ComponentID]*ir.ComponentSchema
	themes  map[string]*ir.Theme
}

// New creates a Static catalog from schemas.
func New(schemas ...*ir.ComponentSchema) *Static {
	c := &Static{
		schemas: make(map[ir.ComponentID]*ir.ComponentSchema, len(schemas)),
		themes:  make(map[string]*ir.Theme),
	}
	for _, s := range schemas {
		c.schemas[s.Component] = s
	}
	return c
}

// Schema implements Catalog.
func (c *Static) Schema(id ir.ComponentID) (*ir.ComponentSchema, bool) {
	s, ok := c.schemas[id]
	return s, ok
}

// Components returns all component ids in sorted order.
func (c *Static) Components() []ir.ComponentID {
	ids := make([]ir.ComponentID, 0, len(c.schemas))
	for id := range c.schemas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddTheme registers a theme shipped with the catalog.
func (c *Static) AddTheme(t *ir.Theme) {
	c.themes[t.ID] = t
}

// Themes returns the catalog's themes keyed by id.
func (c *Static) Themes() map[string]*ir.Theme {
	out := make(map[string]*ir.Theme, len(c.themes))
	for id, t := range c.themes {
		out[id] = t
	}
	return out
}

// Validate checks levels, child references and child-structure cycles.
func (c *Static) Validate() error {
	for _, id := range c.Components() {
		s := c.schemas[id]
		if !s.Level.Valid() {
			return &CompileError{Field: "component." + string(id) + ".level", Message: fmt.Sprintf("unknown level %q", s.Level)}
		}
		if len(s.Children) > 0 && !s.Level.AllowsChildren() {
			return &CompileError{Field: "component." + string(id) + ".children", Message: fmt.Sprintf("level %s cannot hold children", s.Level)}
		}
		for i, child := range s.Children {
			if _, ok := c.schemas[child.Component]; !ok {
				return &CompileError{
					Field:   fmt.Sprintf("component.%s.children[%d]", id, i),
					Message: fmt.Sprintf("unknown component %q", child.Component),
				}
			}
			if err := child.Properties.Validate(); err != nil {
				return &CompileError{Field: fmt.Sprintf("component.%s.children[%d]", id, i), Message: err.Error()}
			}
		}
	}
	if cycle := FindCycle(c); len(cycle) > 0 {
		return &CompileError{Field: "children", Message: fmt.Sprintf("component structure is cyclic: %v", cycle)}
	}
	return nil
}

// FindCycle returns the first cycle in the component child graph, as a
// path that starts and ends with the same component, or nil.
func FindCycle(c *Static) []ir.ComponentID {
	const (
		white = iota
		grey
		black
	)
	color := make(map[ir.ComponentID]int, len(c.schemas))
	var stack []ir.ComponentID
	var found []ir.ComponentID

	var visit func(id ir.ComponentID) bool
	visit = func(id ir.ComponentID) bool {
		color[id] = grey
		stack = append(stack, id)
		if s, ok := c.schemas[id]; ok {
			for _, child := range s.Children {
				switch color[child.Component] {
				case grey:
					for i, sid := range stack {
						if sid == child.Component {
							found = append(append([]ir.ComponentID{}, stack[i:]...), child.Component)
							return true
						}
					}
				case white:
					if visit(child.Component) {
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range c.Components() {
		if color[id] == white && visit(id) {
			return found
		}
	}
	return nil
}
