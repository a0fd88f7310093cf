package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// ComponentID names a component kind (e.g. "button").
type ComponentID string

// NodeID identifies a Variant or Instance in the node store.
type NodeID string

// Level is the structural tier of a component.
type Level string

const (
	LevelPrimitive Level = "primitive"
	LevelElement   Level = "element"
	LevelPart      Level = "part"
	LevelModule    Level = "module"
	LevelFrame     Level = "frame"
	LevelScreen    Level = "screen"
)

var levelRank = map[Level]int{
	LevelPrimitive: 0,
	LevelElement:   1,
	LevelPart:      2,
	LevelModule:    3,
	LevelFrame:     4,
	LevelScreen:    5,
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Rank orders levels from primitive (0) to screen (5). Unknown levels rank -1.
func (l Level) Rank() int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return -1
}

// AllowsChildren reports whether nodes at this level may hold children.
func (l Level) AllowsChildren() bool {
	return l.Rank() > 0
}

// NodeKind tags how a node came to exist. It never changes after creation.
type NodeKind string

const (
	KindDefaultVariant NodeKind = "defaultVariant"
	KindUserVariant    NodeKind = "userVariant"
	KindInstance       NodeKind = "instance"
)

// Origin records whether an instance was created from a catalog schema or
// inserted by a user. It selects the removal behavior on board deletion.
type Origin string

const (
	OriginSchema Origin = "schema"
	OriginManual Origin = "manual"
)

// Board is the per-component container of Variants.
type Board struct {
	ID         ComponentID `json:"id"`
	Label      string      `json:"label"`
	Order      int         `json:"order"`
	Theme      string      `json:"theme,omitempty"`
	Variants   []NodeID    `json:"variants"`
	Properties Properties  `json:"properties,omitempty"`
}

// Clone returns a copy of b that can be modified without affecting b.
func (b *Board) Clone() *Board {
	c := *b
	c.Variants = slices.Clone(b.Variants)
	c.Properties = b.Properties.Clone()
	return &c
}

// Node is either a Variant (canonical configuration) or an Instance (a
// structural copy deferring to InstanceOf for unset properties).
type Node struct {
	ID         NodeID      `json:"id"`
	Component  ComponentID `json:"component"`
	Level      Level       `json:"level"`
	Kind       NodeKind    `json:"kind"`
	Name       string      `json:"name,omitempty"`
	InstanceOf NodeID      `json:"instance_of,omitempty"`
	Properties Properties  `json:"properties,omitempty"`
	Children   []NodeID    `json:"children,omitempty"`
	Theme      string      `json:"theme,omitempty"`
	Origin     Origin      `json:"origin,omitempty"`
	Hidden     bool        `json:"hidden,omitempty"`
}

// IsVariant reports whether n is a default or user Variant.
func (n *Node) IsVariant() bool {
	return n.Kind == KindDefaultVariant || n.Kind == KindUserVariant
}

// IsInstance reports whether n is an Instance.
func (n *Node) IsInstance() bool {
	return n.Kind == KindInstance
}

// Clone returns a copy of n that can be modified without affecting n.
func (n *Node) Clone() *Node {
	c := *n
	c.Children = slices.Clone(n.Children)
	c.Properties = n.Properties.Clone()
	return &c
}

// ChildIndex returns the position of id among n's children, or -1.
func (n *Node) ChildIndex(id NodeID) int {
	return slices.Index(n.Children, id)
}

// NodeSource looks up nodes by id.
type NodeSource interface {
	Node(id NodeID) (*Node, bool)
}

// BoardSource looks up boards by component.
type BoardSource interface {
	Board(id ComponentID) (*Board, bool)
}

// Workspace is an immutable snapshot of all boards and nodes.
//
// Snapshots share Board and Node values with their predecessors; callers
// produce new snapshots through the engine and never modify a Workspace
// after it has been returned.
type Workspace struct {
	Version     int64                  `json:"version"`
	Boards      map[ComponentID]*Board `json:"boards"`
	ByID        map[NodeID]*Node       `json:"by_id"`
	CustomTheme *Theme                 `json:"custom_theme,omitempty"`
}

// NewWorkspace creates an empty workspace at version 0.
func NewWorkspace() *Workspace {
	return &Workspace{
		Boards: make(map[ComponentID]*Board),
		ByID:   make(map[NodeID]*Node),
	}
}

// DecodeWorkspace parses a persisted snapshot.
func DecodeWorkspace(data []byte) (*Workspace, error) {
	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	if ws.Boards == nil {
		ws.Boards = make(map[ComponentID]*Board)
	}
	if ws.ByID == nil {
		ws.ByID = make(map[NodeID]*Node)
	}
	return &ws, nil
}

// Node returns the node with the given id.
func (ws *Workspace) Node(id NodeID) (*Node, bool) {
	n, ok := ws.ByID[id]
	return n, ok
}

// Board returns the board for the given component.
func (ws *Workspace) Board(id ComponentID) (*Board, bool) {
	b, ok := ws.Boards[id]
	return b, ok
}

// DefaultVariant returns the default Variant of a component's board.
func (ws *Workspace) DefaultVariant(id ComponentID) (*Node, bool) {
	b, ok := ws.Boards[id]
	if !ok {
		return nil, false
	}
	for _, vid := range b.Variants {
		if n, ok := ws.ByID[vid]; ok && n.Kind == KindDefaultVariant {
			return n, true
		}
	}
	return nil, false
}

// BoardIDs returns board ids ordered by Order, then id.
func (ws *Workspace) BoardIDs() []ComponentID {
	ids := make([]ComponentID, 0, len(ws.Boards))
	for id := range ws.Boards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		bi, bj := ws.Boards[ids[i]], ws.Boards[ids[j]]
		if bi.Order != bj.Order {
			return bi.Order < bj.Order
		}
		return ids[i] < ids[j]
	})
	return ids
}

// NodeIDs returns all node ids in sorted order.
func (ws *Workspace) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(ws.ByID))
	for id := range ws.ByID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
