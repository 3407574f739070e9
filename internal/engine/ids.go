package engine

import "github.com/google/uuid"

// IDGenerator generates unique attempt IDs for trigger requests.
// Implemented by UUIDv7Generator (production) and testutil.FixedIDGenerator.
//
// The attempt ID doubles as the randomness request ID, which is what binds
// a seed to one specific attempt.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 attempt IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time - helpful when reading the attempt journal.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
