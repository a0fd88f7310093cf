package ir

// Version constants for the snapshot format and engine.
const (
	// SnapshotFormat is the persisted workspace format version.
	SnapshotFormat = "1"

	// EngineVersion is the protoboard engine version.
	EngineVersion = "0.1.0"
)
