// Package repositories implements SQLite persistence for match results and run history.
//
// Key Implementations:
//   - [MatchRepository] : Match cache keyed by normalized descriptor and matching parameters
//   - [RunRepository] : Import run history with summary counts
//
// The match cache only ever stores successful resolutions; a miss today may be
// a hit tomorrow once the library grows, so negative results are never
// persisted. Cached rows are verified against the live catalog before use, so
// stale item IDs degrade to a fresh fuzzy match rather than a bad write.
package repositories
