// Package rules holds the static policy table consulted by every mutation
// handler: whether a mutation kind may target an entity kind, and how the
// resulting edit propagates across structural copies.
//
// The table is configuration data. Handlers never branch on entity kind
// themselves; they ask the table.
package rules

import "github.com/roach88/protoboard/internal/ir"

// MutationKind names a mutation.
type MutationKind string

const (
	AddBoard           MutationKind = "add_board"
	AddVariant         MutationKind = "add_variant"
	DuplicateNode      MutationKind = "duplicate_node"
	InsertNode         MutationKind = "insert_node"
	MoveNode           MutationKind = "move_node"
	RemoveBoard        MutationKind = "remove_board"
	ResetNodeProperty  MutationKind = "reset_node_property"
	ResetBoardProperty MutationKind = "reset_board_property"
	SetBoardProperties MutationKind = "set_board_properties"
	SetBoardTheme      MutationKind = "set_board_theme"
	SetNodeProperty    MutationKind = "set_node_property"
	SetNodeTheme       MutationKind = "set_node_theme"
)

// MutationKinds lists every mutation kind in declaration order.
var MutationKinds = []MutationKind{
	AddBoard, AddVariant, DuplicateNode, InsertNode, MoveNode, RemoveBoard,
	ResetNodeProperty, ResetBoardProperty, SetBoardProperties, SetBoardTheme,
	SetNodeProperty, SetNodeTheme,
}

// EntityKind is derived from an entity's structural shape.
type EntityKind string

const (
	EntityBoard          EntityKind = "board"
	EntityDefaultVariant EntityKind = "defaultVariant"
	EntityUserVariant    EntityKind = "userVariant"
	EntityInstance       EntityKind = "instance"
)

// EntityKinds lists every entity kind.
var EntityKinds = []EntityKind{EntityBoard, EntityDefaultVariant, EntityUserVariant, EntityInstance}

// EntityOf classifies a node. Boards are classified by the caller since
// they live in a separate map.
func EntityOf(n *ir.Node) EntityKind {
	switch n.Kind {
	case ir.KindDefaultVariant:
		return EntityDefaultVariant
	case ir.KindUserVariant:
		return EntityUserVariant
	default:
		return EntityInstance
	}
}

// Propagation controls whether an edit is replayed on corresponding nodes.
type Propagation string

const (
	PropagateNone          Propagation = "none"
	PropagateDownstream    Propagation = "downstream"
	PropagateBidirectional Propagation = "bidirectional"
)

// Removal selects what happens to an orphaned instance.
type Removal string

const (
	// RemoveDelete deletes the orphan and its descendants.
	RemoveDelete Removal = "delete"
	// RemoveHide detaches the orphan, snapshotting its resolved properties,
	// and marks it hidden.
	RemoveHide Removal = "hide"
)

// RemovalBehavior picks a Removal per instance origin.
type RemovalBehavior struct {
	Schema Removal
	Manual Removal
}

// For returns the removal for an instance of the given origin.
func (r RemovalBehavior) For(origin ir.Origin) Removal {
	if origin == ir.OriginSchema {
		return r.Schema
	}
	return r.Manual
}

// Rule is one table entry.
type Rule struct {
	Allowed     bool
	Propagation Propagation
	Removal     RemovalBehavior
}

// Entry binds a rule to a (mutation, entity) pair.
type Entry struct {
	Mutation MutationKind
	Entity   EntityKind
	Rule     Rule
}

type key struct {
	m MutationKind
	e EntityKind
}

// Table is an immutable rule lookup. Pairs absent from the table are denied.
type Table struct {
	rules map[key]Rule
}

// NewTable builds a table from entries. Later entries replace earlier ones.
func NewTable(entries ...Entry) *Table {
	t := &Table{rules: make(map[key]Rule, len(entries))}
	for _, e := range entries {
		t.rules[key{e.Mutation, e.Entity}] = e.Rule
	}
	return t
}

// Lookup returns the rule for a pair; unknown pairs yield a denying rule.
func (t *Table) Lookup(m MutationKind, e EntityKind) Rule {
	r, ok := t.rules[key{m, e}]
	if !ok {
		return Rule{Allowed: false, Propagation: PropagateNone}
	}
	return r
}

// IsAllowed reports whether m may target e.
func (t *Table) IsAllowed(m MutationKind, e EntityKind) bool {
	return t.Lookup(m, e).Allowed
}

// PropagationOf returns the propagation mode for m on e.
func (t *Table) PropagationOf(m MutationKind, e EntityKind) Propagation {
	r := t.Lookup(m, e)
	if r.Propagation == "" {
		return PropagateNone
	}
	return r.Propagation
}

// With returns a copy of t with the given entries applied on top.
func (t *Table) With(entries ...Entry) *Table {
	out := &Table{rules: make(map[key]Rule, len(t.rules)+len(entries))}
	for k, r := range t.rules {
		out.rules[k] = r
	}
	for _, e := range entries {
		out.rules[key{e.Mutation, e.Entity}] = e.Rule
	}
	return out
}

var (
	allow      = Rule{Allowed: true, Propagation: PropagateNone}
	downstream = Rule{Allowed: true, Propagation: PropagateDownstream}
	cascade    = Rule{Allowed: true, Propagation: PropagateBidirectional}
)

// DefaultEntries is the shipped policy.
var DefaultEntries = []Entry{
	{AddBoard, EntityBoard, allow},
	{AddVariant, EntityBoard, allow},
	{RemoveBoard, EntityBoard, Rule{
		Allowed:     true,
		Propagation: PropagateNone,
		Removal:     RemovalBehavior{Schema: RemoveDelete, Manual: RemoveDelete},
	}},
	{SetBoardProperties, EntityBoard, allow},
	{SetBoardTheme, EntityBoard, allow},
	{ResetBoardProperty, EntityBoard, allow},

	{DuplicateNode, EntityDefaultVariant, allow},
	{DuplicateNode, EntityUserVariant, allow},
	{DuplicateNode, EntityInstance, downstream},

	// insert_node is classified by the receiving parent.
	{InsertNode, EntityDefaultVariant, downstream},
	{InsertNode, EntityUserVariant, downstream},
	{InsertNode, EntityInstance, downstream},

	// Variants are anchored to their board.
	{MoveNode, EntityInstance, downstream},

	{ResetNodeProperty, EntityDefaultVariant, allow},
	{ResetNodeProperty, EntityUserVariant, allow},
	{ResetNodeProperty, EntityInstance, allow},

	{SetNodeProperty, EntityDefaultVariant, allow},
	{SetNodeProperty, EntityUserVariant, allow},
	{SetNodeProperty, EntityInstance, allow},

	{SetNodeTheme, EntityDefaultVariant, cascade},
	{SetNodeTheme, EntityUserVariant, cascade},
	{SetNodeTheme, EntityInstance, cascade},
}

// Default returns the shipped policy table.
func Default() *Table {
	return NewTable(DefaultEntries...)
}
