// Package engine applies mutations to immutable workspace snapshots.
//
// Dispatch is the only entry point. Each call consults the rule table,
// runs one handler against a copy-on-write draft of the input snapshot and,
// per the rule's propagation mode, replays the edit on every node that sits
// at the same child-index path inside a copy of the edited Variant.
//
// Dispatch never modifies its input. A rejected or failed mutation returns
// the input snapshot (or an error) and the draft is discarded. A successful
// one returns a new snapshot that shares every untouched Board and Node
// with its predecessor.
//
// The engine is synchronous and holds no locks. Callers that share an
// Engine across goroutines serialize Dispatch calls themselves.
package engine
