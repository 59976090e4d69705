// Package store provides the SQLite run journal.
//
// Each sweep writes one row to runs when it starts and updates it when it
// ends; every completed fetch adds one row to fetches. The journal is
// append-only history for operators (pagesweep history). A run never reads
// it back, so deleting the database loses history but never affects a sweep.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fetch rows are ordered by seq, the per-run fetch counter. Run rows are
// ordered by started_at, then id; run ids are UUIDv7, so both agree.
package store
