package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

// Mutation is a sealed interface over every operation Dispatch accepts.
type Mutation interface {
	Kind() rules.MutationKind
	mutation()
}

// AddBoard ensures a board exists for Component, creating missing boards
// for its descendant components first.
type AddBoard struct {
	Component ir.ComponentID
}

// AddVariant duplicates a board's default Variant into a new userVariant.
type AddVariant struct {
	Component ir.ComponentID
	Name      string
}

// DuplicateNode deep-copies a node with fresh ids next to the original.
type DuplicateNode struct {
	Node ir.NodeID
}

// InsertNode places a new Instance of Source (or of Component's default
// Variant when Source is empty) into Parent at Index.
type InsertNode struct {
	Source    ir.NodeID
	Component ir.ComponentID
	Parent    ir.NodeID
	Index     int
}

// MoveNode relocates an Instance. An empty Parent keeps the current parent.
// Index is interpreted after the node is removed from its old position.
type MoveNode struct {
	Node   ir.NodeID
	Parent ir.NodeID
	Index  int
}

// RemoveBoard deletes a board, its Variants and their orphaned Instances.
type RemoveBoard struct {
	Component ir.ComponentID
}

// ResetNodeProperty unsets Key (or Key.Sub) on a node.
type ResetNodeProperty struct {
	Node ir.NodeID
	Key  string
	Sub  string
}

// ResetBoardProperty unsets Key (or Key.Sub) on a board.
type ResetBoardProperty struct {
	Component ir.ComponentID
	Key       string
	Sub       string
}

// SetBoardProperties replaces a board's property map.
type SetBoardProperties struct {
	Component  ir.ComponentID
	Properties ir.Properties
}

// SetBoardTheme assigns a board's theme. An empty Theme clears it.
type SetBoardTheme struct {
	Component ir.ComponentID
	Theme     string
}

// SetNodeProperty writes an override on a node.
type SetNodeProperty struct {
	Node  ir.NodeID
	Key   string
	Value ir.Value
}

// SetNodeTheme assigns a theme to a node and migrates its token references.
type SetNodeTheme struct {
	Node  ir.NodeID
	Theme string
}

func (AddBoard) Kind() rules.MutationKind           { return rules.AddBoard }
func (AddVariant) Kind() rules.MutationKind         { return rules.AddVariant }
func (DuplicateNode) Kind() rules.MutationKind      { return rules.DuplicateNode }
func (InsertNode) Kind() rules.MutationKind         { return rules.InsertNode }
func (MoveNode) Kind() rules.MutationKind           { return rules.MoveNode }
func (RemoveBoard) Kind() rules.MutationKind        { return rules.RemoveBoard }
func (ResetNodeProperty) Kind() rules.MutationKind  { return rules.ResetNodeProperty }
func (ResetBoardProperty) Kind() rules.MutationKind { return rules.ResetBoardProperty }
func (SetBoardProperties) Kind() rules.MutationKind { return rules.SetBoardProperties }
func (SetBoardTheme) Kind() rules.MutationKind      { return rules.SetBoardTheme }
func (SetNodeProperty) Kind() rules.MutationKind    { return rules.SetNodeProperty }
func (SetNodeTheme) Kind() rules.MutationKind       { return rules.SetNodeTheme }

func (AddBoard) mutation()           {}
func (AddVariant) mutation()         {}
func (DuplicateNode) mutation()      {}
func (InsertNode) mutation()         {}
func (MoveNode) mutation()           {}
func (RemoveBoard) mutation()        {}
func (ResetNodeProperty) mutation()  {}
func (ResetBoardProperty) mutation() {}
func (SetBoardProperties) mutation() {}
func (SetBoardTheme) mutation()      {}
func (SetNodeProperty) mutation()    {}
func (SetNodeTheme) mutation()       {}

// Envelope is the serialized form of a mutation used by scripts and
// scenarios. Fields not used by Kind are ignored.
type Envelope struct {
	Kind       rules.MutationKind `json:"kind" yaml:"kind"`
	Component  string             `json:"component,omitempty" yaml:"component,omitempty"`
	Node       string             `json:"node,omitempty" yaml:"node,omitempty"`
	Source     string             `json:"source,omitempty" yaml:"source,omitempty"`
	Parent     string             `json:"parent,omitempty" yaml:"parent,omitempty"`
	Index      int                `json:"index,omitempty" yaml:"index,omitempty"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Key        string             `json:"key,omitempty" yaml:"key,omitempty"`
	Sub        string             `json:"sub,omitempty" yaml:"sub,omitempty"`
	Theme      string             `json:"theme,omitempty" yaml:"theme,omitempty"`
	Value      any                `json:"value,omitempty" yaml:"value,omitempty"`
	Properties map[string]any     `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Mutation converts the envelope into a typed Mutation.
//
// Node, Source and Parent are taken as literal ids; callers resolve
// "$component.0.1" references with Ref beforehand.
func (e Envelope) Mutation() (Mutation, error) {
	switch e.Kind {
	case rules.AddBoard:
		if e.Component == "" {
			return nil, invalid("%s requires component", e.Kind)
		}
		return AddBoard{Component: ir.ComponentID(e.Component)}, nil
	case rules.AddVariant:
		if e.Component == "" {
			return nil, invalid("%s requires component", e.Kind)
		}
		return AddVariant{Component: ir.ComponentID(e.Component), Name: e.Name}, nil
	case rules.DuplicateNode:
		if e.Node == "" {
			return nil, invalid("%s requires node", e.Kind)
		}
		return DuplicateNode{Node: ir.NodeID(e.Node)}, nil
	case rules.InsertNode:
		if e.Parent == "" || (e.Source == "" && e.Component == "") {
			return nil, invalid("%s requires parent and source or component", e.Kind)
		}
		return InsertNode{
			Source:    ir.NodeID(e.Source),
			Component: ir.ComponentID(e.Component),
			Parent:    ir.NodeID(e.Parent),
			Index:     e.Index,
		}, nil
	case rules.MoveNode:
		if e.Node == "" {
			return nil, invalid("%s requires node", e.Kind)
		}
		return MoveNode{Node: ir.NodeID(e.Node), Parent: ir.NodeID(e.Parent), Index: e.Index}, nil
	case rules.RemoveBoard:
		if e.Component == "" {
			return nil, invalid("%s requires component", e.Kind)
		}
		return RemoveBoard{Component: ir.ComponentID(e.Component)}, nil
	case rules.ResetNodeProperty:
		if e.Node == "" || e.Key == "" {
			return nil, invalid("%s requires node and key", e.Kind)
		}
		return ResetNodeProperty{Node: ir.NodeID(e.Node), Key: e.Key, Sub: e.Sub}, nil
	case rules.ResetBoardProperty:
		if e.Component == "" || e.Key == "" {
			return nil, invalid("%s requires component and key", e.Kind)
		}
		return ResetBoardProperty{Component: ir.ComponentID(e.Component), Key: e.Key, Sub: e.Sub}, nil
	case rules.SetBoardProperties:
		if e.Component == "" {
			return nil, invalid("%s requires component", e.Kind)
		}
		props, err := decodeProperties(e.Properties)
		if err != nil {
			return nil, err
		}
		return SetBoardProperties{Component: ir.ComponentID(e.Component), Properties: props}, nil
	case rules.SetBoardTheme:
		if e.Component == "" {
			return nil, invalid("%s requires component", e.Kind)
		}
		return SetBoardTheme{Component: ir.ComponentID(e.Component), Theme: e.Theme}, nil
	case rules.SetNodeProperty:
		if e.Node == "" || e.Key == "" || e.Value == nil {
			return nil, invalid("%s requires node, key and value", e.Kind)
		}
		props, err := decodeProperties(map[string]any{e.Key: e.Value})
		if err != nil {
			return nil, err
		}
		return SetNodeProperty{Node: ir.NodeID(e.Node), Key: e.Key, Value: props[e.Key]}, nil
	case rules.SetNodeTheme:
		if e.Node == "" || e.Theme == "" {
			return nil, invalid("%s requires node and theme", e.Kind)
		}
		return SetNodeTheme{Node: ir.NodeID(e.Node), Theme: e.Theme}, nil
	}
	return nil, invalid("unknown mutation kind %q", e.Kind)
}

// decodeProperties converts generic decoded YAML/JSON into validated
// Properties by way of their JSON form.
func decodeProperties(raw map[string]any) (ir.Properties, error) {
	if raw == nil {
		return ir.Properties{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, invalid("encode properties: %v", err)
	}
	var props ir.Properties
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, invalid("decode properties: %v", err)
	}
	if err := props.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	return props, nil
}

// Describe renders a mutation for logs.
func Describe(m Mutation) string {
	return fmt.Sprintf("%s %+v", m.Kind(), m)
}
