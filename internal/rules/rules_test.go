package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/protoboard/internal/ir"
)

func TestDefaultTableLookups(t *testing.T) {
	table := Default()

	tests := []struct {
		m       MutationKind
		e       EntityKind
		allowed bool
		prop    Propagation
	}{
		{AddBoard, EntityBoard, true, PropagateNone},
		{MoveNode, EntityInstance, true, PropagateDownstream},
		{MoveNode, EntityDefaultVariant, false, PropagateNone},
		{MoveNode, EntityUserVariant, false, PropagateNone},
		{InsertNode, EntityDefaultVariant, true, PropagateDownstream},
		{DuplicateNode, EntityUserVariant, true, PropagateNone},
		{SetNodeTheme, EntityInstance, true, PropagateBidirectional},
		{RemoveBoard, EntityInstance, false, PropagateNone},
		{AddVariant, EntityInstance, false, PropagateNone},
	}

	for _, tt := range tests {
		t.Run(string(tt.m)+"/"+string(tt.e), func(t *testing.T) {
			assert.Equal(t, tt.allowed, table.IsAllowed(tt.m, tt.e))
			assert.Equal(t, tt.prop, table.PropagationOf(tt.m, tt.e))
		})
	}
}

func TestRemovalBehavior(t *testing.T) {
	r := Default().Lookup(RemoveBoard, EntityBoard)
	assert.Equal(t, RemoveDelete, r.Removal.For(ir.OriginSchema))
	assert.Equal(t, RemoveDelete, r.Removal.For(ir.OriginManual))

	mixed := RemovalBehavior{Schema: RemoveHide, Manual: RemoveDelete}
	assert.Equal(t, RemoveHide, mixed.For(ir.OriginSchema))
	assert.Equal(t, RemoveDelete, mixed.For(""))
}

func TestWithOverridesWithoutMutatingBase(t *testing.T) {
	base := Default()
	locked := base.With(Entry{SetNodeProperty, EntityInstance, Rule{Allowed: false}})

	assert.False(t, locked.IsAllowed(SetNodeProperty, EntityInstance))
	assert.True(t, base.IsAllowed(SetNodeProperty, EntityInstance))
	assert.True(t, locked.IsAllowed(SetNodeProperty, EntityUserVariant))
}

func TestEntityOf(t *testing.T) {
	assert.Equal(t, EntityDefaultVariant, EntityOf(&ir.Node{Kind: ir.KindDefaultVariant}))
	assert.Equal(t, EntityUserVariant, EntityOf(&ir.Node{Kind: ir.KindUserVariant}))
	assert.Equal(t, EntityInstance, EntityOf(&ir.Node{Kind: ir.KindInstance, InstanceOf: "x"}))
}

func TestEveryBoardMutationHasAnEntry(t *testing.T) {
	table := Default()
	for _, m := range []MutationKind{AddBoard, AddVariant, RemoveBoard, SetBoardProperties, SetBoardTheme, ResetBoardProperty} {
		assert.True(t, table.IsAllowed(m, EntityBoard), m)
	}
}
