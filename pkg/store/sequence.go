package store

import "sync"

// Sequencer tags fetches per view with monotonic numbers.
// A response is accepted only when its number is newer than the last accepted one for that view,
// so a slow response can never overwrite the result of a later request.
type Sequencer struct {
	mu       sync.Mutex
	issued   map[View]uint64
	applied  map[View]uint64
	discards uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{
		issued:  make(map[View]uint64),
		applied: make(map[View]uint64),
	}
}

// Begin issues the next sequence number for view.
func (s *Sequencer) Begin(view View) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[view]++
	return s.issued[view]
}

// Accept records seq as applied when it is newer than the last applied number.
// Stale numbers are rejected and counted.
func (s *Sequencer) Accept(view View, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied[view] {
		s.discards++
		return false
	}
	s.applied[view] = seq
	return true
}

// Latest reports whether seq is the newest number issued for view.
func (s *Sequencer) Latest(view View, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued[view] == seq
}

// Discarded counts rejected responses.
func (s *Sequencer) Discarded() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discards
}
