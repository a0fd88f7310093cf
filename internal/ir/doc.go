// Package ir provides the data model for protoboard workspaces.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - A Workspace is an immutable snapshot. Boards and Nodes reachable from a
//     Workspace are shared between snapshots and MUST NOT be mutated in place.
//   - Instances store only overridden properties; effective values are always
//     computed by walking instance_of, never stored.
//   - Property values are typed: the Atomic type tag determines the payload shape.
//   - All JSON tags use snake_case
package ir
