// Package journal provides SQLite-backed storage for change feeds.
//
// A session groups the events observed on one tracking context. Each change
// row keeps the event's path, op, method and the serialized property, old
// and new values. The graph itself is never stored.
//
// # Ordering
//
//   - Rows are keyed by (session_id, seq); seq is the context's logical
//     clock, never a timestamp
//   - Reads are ORDER BY seq ASC, so a feed reads back exactly as it was
//     observed
//   - Re-recording an event with an existing (session_id, seq) is a no-op
//
// # Value encoding
//
// Values are stored in the serializer's JSON form. Values JSON cannot carry
// (NaN, the infinities) fall back to YAML; values neither format carries
// (big integers) are stored as display text. The value_format column records
// which encoding a row uses.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
