// Package store keeps the extraction history of shank programs in SQLite.
//
// Each extraction is recorded as a run:
//   - runs: one row per extraction, keyed by a UUIDv7 with a logical seq
//   - instruction_sets: the content hash of every set the run produced
//   - variants: the wire discriminant and hash of every variant
//
// Comparing the variants of the latest run with a fresh build reports
// drift: a variant whose discriminant bytes changed, or one that disappeared.
// Either breaks clients built against the earlier program.
//
// # Ordering
//
// Runs are ordered by seq, never by timestamps. Queries returning more than
// one run use ORDER BY seq ASC, id COLLATE BINARY ASC. Variants come back in
// set order, then declaration order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Hashes are computed by internal/ir from the canonical JSON of the set.
package store
