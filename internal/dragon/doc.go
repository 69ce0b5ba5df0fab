// Package dragon generates the vertices of the dragon curve on demand.
//
// The curve starts as the unit segment (0,0)-(1,0). Each generation rotates
// every existing vertex by 90° about the current endpoint and appends the
// result in reverse order, doubling the number of segments:
//
//   - [Store]: append-only vertex buffer plus extremal index sequences
//   - [Point], [Box]: plain 2D value types
//   - [PathSink]: the move-to/line-to surface polylines are emitted into
//
// # Parametric time
//
// Queries take a fractional parametric time τ ≥ 0. The integer part selects
// the segment [⌊τ⌋, ⌊τ⌋+1] and the fractional part interpolates along it.
// The store grows itself whenever a query reaches past the buffered vertices.
//
// # Thread Safety
//
// Store is safe for concurrent use. Growth takes an exclusive lock; queries
// that do not need growth only take a read lock. Call [Store.Grow] with the
// largest τ that will be queried before fanning work out to goroutines.
package dragon
