// Package ident computes content-addressed identities for the DCA engine.
//
// Proposals and randomness seeds are identified by SHA-256 hashes over
// canonical JSON with domain separation. Canonical serialization guarantees
// that the same logical value always hashes to the same identity, which is
// what makes double-commit detection and seed-replay detection reliable.
package ident
