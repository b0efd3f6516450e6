package ir

// Version constants for the IR schema and engine.
const (
	// IRVersion is the descriptor schema version.
	IRVersion = "1"

	// EngineVersion is the synchronizer version recorded with each run.
	EngineVersion = "0.1.0"
)
