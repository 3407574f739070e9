package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProposal = "dca/proposal/v1"
	DomainSeed     = "dca/seed/v1"
)

// HashWithDomain computes a SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProposalID computes the content-addressed identity of a ledger proposal.
//
// The ID is a pure function of the plan owner, the version the proposal was
// derived from, the proposed remaining total and the trigger timestamp. Two
// attempts that would produce the same debit against the same plan state get
// the same ID, which is what makes double-commit detection stable.
func ProposalID(owner string, baseVersion int64, newTotal uint64, triggeredAt int64) (string, error) {
	obj := map[string]any{
		"owner":        owner,
		"base_version": baseVersion,
		"new_total":    newTotal,
		"triggered_at": triggeredAt,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ProposalID: failed to marshal: %w", err)
	}

	return HashWithDomain(DomainProposal, canonical), nil
}

// SeedHash computes the identity under which a randomness seed is recorded
// in the used-seeds ledger. Replaying the same seed bytes against any later
// attempt produces the same hash and is rejected.
func SeedHash(seed []byte) string {
	return HashWithDomain(DomainSeed, seed)
}
