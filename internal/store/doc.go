// Package store provides the SQLite run ledger for synchronisation runs.
//
// Each run records:
//   - Input: the descriptor list, as canonical JSON, with its content hash
//   - Options: the engine settings the run used
//   - Output: the flattened outputs, as canonical JSON, with their hash
//   - Conditions and final descriptor states
//
// # Critical Patterns
//
// Logical ordering: runs are ordered by seq (ledger position), never by
// timestamps. Run ids are UUIDv7 and sort by creation as well.
//
// Deterministic query results: every list query orders by
// seq ASC, id ASC COLLATE BINARY.
//
// Replay: a stored run is re-synchronised from its stored input and options;
// the replay matches when output hash and descriptor states are identical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed by internal/ir using RFC 8785 canonical JSON
// and SHA-256 with domain separation.
package store
