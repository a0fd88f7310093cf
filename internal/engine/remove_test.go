package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

func TestRemoveBoardCascadesToOrphans(t *testing.T) {
	e := newTestEngine(t)
	ws := screenWorkspace(t, e)
	button := ref(t, ws, "$button")
	cardButton := ref(t, ws, "$card.1")
	screenButton := ref(t, ws, "$screen.0.1")
	cardTitle := ref(t, ws, "$card.0")

	next := dispatch(t, e, ws, RemoveBoard{Component: "button"})

	assert.NotContains(t, next.Boards, ir.ComponentID("button"))
	for _, id := range []ir.NodeID{button, cardButton, screenButton} {
		assert.NotContains(t, next.ByID, id)
	}
	assert.Equal(t, []ir.ComponentID{"label"}, childComponents(t, next, "$card"))
	assert.Equal(t, []ir.ComponentID{"label"}, childComponents(t, next, "$screen.0"))

	// Unrelated boards and nodes are shared untouched.
	for _, id := range []ir.ComponentID{"label", "icon", "screen"} {
		assert.Same(t, ws.Boards[id], next.Boards[id])
	}
	assert.Same(t, ws.ByID[cardTitle], next.ByID[cardTitle])
	assert.Same(t, ws.ByID[ref(t, ws, "$icon")], next.ByID[ref(t, ws, "$icon")])
	assert.Empty(t, Check(next))
}

func TestRemoveLeafBoardDeletesEveryInstance(t *testing.T) {
	e := newTestEngine(t)
	ws := screenWorkspace(t, e)

	next := dispatch(t, e, ws, RemoveBoard{Component: "icon"})

	for _, id := range next.NodeIDs() {
		assert.NotEqual(t, ir.ComponentID("icon"), next.ByID[id].Component, "node %s survived", id)
	}
	assert.Equal(t, []ir.ComponentID{"label"}, childComponents(t, next, "$button"))
	assert.Equal(t, []ir.ComponentID{"label"}, childComponents(t, next, "$screen.0.1"))
	assert.Empty(t, Check(next))
}

func TestRemoveBoardHidesManualInstances(t *testing.T) {
	table := rules.Default().With(rules.Entry{
		Mutation: rules.RemoveBoard,
		Entity:   rules.EntityBoard,
		Rule: rules.Rule{
			Allowed:     true,
			Propagation: rules.PropagateNone,
			Removal:     rules.RemovalBehavior{Schema: rules.RemoveDelete, Manual: rules.RemoveHide},
		},
	})
	e := newTestEngine(t, WithRules(table))
	ws := screenWorkspace(t, e)
	ws = dispatch(t, e, ws, InsertNode{Component: "icon", Parent: ref(t, ws, "$screen"), Index: 0})
	manual := ref(t, ws, "$screen.0")
	ws = dispatch(t, e, ws, SetNodeProperty{Node: manual, Key: "size", Value: ir.Exact(ir.Int(32))})

	next := dispatch(t, e, ws, RemoveBoard{Component: "icon"})

	hidden, ok := next.Node(manual)
	require.True(t, ok)
	assert.True(t, hidden.Hidden)
	assert.Empty(t, hidden.InstanceOf)
	assert.Equal(t, ir.KindInstance, hidden.Kind)
	assert.Equal(t, ir.Properties{
		"glyph": ir.Preset("star"),
		"size":  ir.Exact(ir.Int(32)),
	}, hidden.Properties)

	// Schema-originated icons are still deleted.
	assert.Equal(t, []ir.ComponentID{"label"}, childComponents(t, next, "$button"))
	assert.Empty(t, Check(next))
}

func TestRemoveBoardPolicyNoop(t *testing.T) {
	e := newTestEngine(t, WithRules(rules.NewTable()))
	ws := dispatch(t, newTestEngine(t), ir.NewWorkspace(), AddBoard{Component: "button"})

	next, err := e.Dispatch(ws, RemoveBoard{Component: "button"})
	require.NoError(t, err)
	assert.Same(t, ws, next)
}
