// Package store provides SQLite-backed persistence for protoboard workspaces.
//
// The store keeps two tables:
//   - snapshots: the canonical JSON of a workspace at a committed version,
//     with its content digest
//   - mutations: the ordered log of mutation envelopes that produced each
//     version
//
// Snapshots are immutable. Commit names the version its workspace was
// built from and fails with ErrConflict when the store has moved past that
// version, so two writers working from the same base cannot interleave.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// All ordering uses the version and seq columns, never timestamps.
package store
