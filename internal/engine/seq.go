package engine

import "sync/atomic"

// Sequencer is a monotonic logical counter stamping journal entries.
//
// All journaled attempt outcomes carry a strictly increasing seq number so
// the journal replays in a deterministic order regardless of wall-clock
// resolution.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a sequencer starting at 0.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer starting at a specific value.
// Used to resume past the highest journaled seq after a restart.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and increments the counter.
// Calls are linearizable - each call returns a unique, increasing value.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}
