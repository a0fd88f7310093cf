// Package harness runs YAML mutation scenarios against a real engine.
//
// A scenario names a CUE catalog directory, a list of mutation steps and a
// list of assertions over the final workspace:
//
//	name: move-propagates
//	description: Reordering a button's children reorders every copy.
//	catalog: ../catalog
//	theme: light
//	steps:
//	  - {kind: add_board, component: card}
//	  - {kind: move_node, node: "$button.0", index: 1}
//	assertions:
//	  - {type: children, node: "$card.1", expect: [icon, label]}
//
// Node references in steps and assertions are resolved against the
// workspace as it stands when they are used, so "$card.1" always names the
// card's second child at that point of the run. Ids come from a sequential
// generator, making runs reproducible; golden files compare the id-free
// outline of the final workspace.
package harness
