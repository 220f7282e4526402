package selection

import "sync/atomic"

type guardState int32

const (
	guardIdle guardState = iota
	guardSyncing
)

// RenderFunc is invoked with the refreshed target group after a propagation.
// Sync requests issued from inside it are dropped.
type RenderFunc func(side Side, g SelectorGroup)

// Synchronizer keeps the two selector groups of one dashboard aligned.
// Its guard is a two-state machine (Idle, Syncing) and protects nothing but propagation.
type Synchronizer struct {
	machine *Machine
	state   atomic.Int32
	dropped atomic.Int64

	// OnRender re-renders the target group; OnDrop observes dropped requests.
	OnRender RenderFunc
	OnDrop   func(from Side)
}

// NewSynchronizer creates an idle synchronizer.
func NewSynchronizer(machine *Machine) *Synchronizer {
	return &Synchronizer{machine: machine}
}

// acquire moves Idle -> Syncing. The returned release restores Idle and must run on every exit path.
func (s *Synchronizer) acquire() (release func(), ok bool) {
	if !s.state.CompareAndSwap(int32(guardIdle), int32(guardSyncing)) {
		return nil, false
	}
	return func() { s.state.Store(int32(guardIdle)) }, true
}

// Syncing reports whether a propagation is in progress.
func (s *Synchronizer) Syncing() bool {
	return guardState(s.state.Load()) == guardSyncing
}

// Dropped counts requests discarded because a propagation was in progress.
func (s *Synchronizer) Dropped() int64 {
	return s.dropped.Load()
}

// Propagate copies the group on side from into the other group, refreshes the target's
// valid children and re-renders it. Requests arriving mid-propagation are dropped, not queued.
func (s *Synchronizer) Propagate(sel *DualSelection, from Side, known []int) bool {
	release, ok := s.acquire()
	if !ok {
		s.dropped.Add(1)
		if s.OnDrop != nil {
			s.OnDrop(from)
		}
		return false
	}
	defer release()

	src := *sel.Group(from)
	dst := sel.Group(from.Other())

	if !src.HasTerm() {
		*dst = SelectorGroup{}
	} else {
		s.machine.ChooseParent(dst, known, src.Term)
		if src.HasSession() {
			s.machine.ChooseChild(dst, known, src.Session)
		} else {
			dst.Session = 0
		}
	}

	if s.OnRender != nil {
		s.OnRender(from.Other(), *dst)
	}
	return true
}
