// Package cache memoizes query results on disk.
//
// A logical query is fingerprinted into a stable key (SHA-256 over its rendered statement and
// bindings), and the rows it produced are stored as one file named by that key under the
// cache root. Key features:
//   - Deterministic keys that survive process restarts
//   - Read-before-execute lookup with a Hit / Miss / Corrupt outcome; corrupt entries are
//     recomputed and overwritten
//   - Best-effort persistence: a failed write never fails the read path
//   - ClearAll removes only files whose names look like cache keys
//
// Entries are never expired or evicted; the cache grows until cleared.
package cache
