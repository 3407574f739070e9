// Package store persists the DCA engine's state in SQLite.
//
// Three tables: plans (one row per account, mutated only by the versioned
// CommitPlan compare-and-swap), used_seeds (consumed randomness seeds,
// keyed by seed hash for replay detection) and attempts (the journal of
// terminal trigger attempt outcomes).
package store
