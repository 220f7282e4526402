package engine

import (
	"context"
	"fmt"

	"assembly-dashboard-be/pkg/store"
)

// SessionStore finds the session an event is addressed to.
type SessionStore interface {
	Get(sessionID string) (*store.Session, bool)
}

// Result is the reply to one dispatched event.
type Result struct {
	Outcome  Outcome
	Snapshot store.Snapshot
}

// AppliedFunc observes every applied event. It runs on the dispatcher goroutine.
type AppliedFunc func(s *store.Session, ev Event, out Outcome)

type job struct {
	sessionID string
	run       func(*store.Session) (Outcome, error)
	event     Event
	reply     chan reply
}

type reply struct {
	result Result
	err    error
}

// Dispatcher serializes every mutation of every session through one typed channel
// consumed by a single goroutine. Each job runs to completion before the next starts.
type Dispatcher struct {
	engine   *Engine
	sessions SessionStore
	jobs     chan job
	done     chan struct{}

	OnApplied AppliedFunc
}

// NewDispatcher creates a dispatcher. Run must be started before Dispatch is used.
func NewDispatcher(engine *Engine, sessions SessionStore, buffer int) *Dispatcher {
	if buffer < 0 {
		buffer = 0
	}
	return &Dispatcher{
		engine:   engine,
		sessions: sessions,
		jobs:     make(chan job, buffer),
		done:     make(chan struct{}),
	}
}

// Run consumes jobs until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.jobs:
			j.reply <- d.execute(j)
		}
	}
}

func (d *Dispatcher) execute(j job) (r reply) {
	defer func() {
		if p := recover(); p != nil {
			r = reply{err: fmt.Errorf("dashboard %s: panic while applying event: %v", j.sessionID, p)}
		}
	}()

	s, ok := d.sessions.Get(j.sessionID)
	if !ok {
		return reply{err: fmt.Errorf("%w: %s", ErrSessionNotFound, j.sessionID)}
	}
	out, err := j.run(s)
	if err != nil {
		return reply{err: err}
	}
	if j.event != nil && d.OnApplied != nil {
		d.OnApplied(s, j.event, out)
	}
	return reply{result: Result{Outcome: out, Snapshot: s.Snapshot()}}
}

// Dispatch applies ev to the session and waits for the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, ev Event) (Result, error) {
	return d.submit(ctx, job{
		sessionID: sessionID,
		event:     ev,
		run:       func(s *store.Session) (Outcome, error) { return d.engine.Apply(s, ev) },
	})
}

// Do runs fn on the dispatcher goroutine, for reads and fetch results that touch session state.
func (d *Dispatcher) Do(ctx context.Context, sessionID string, fn func(*store.Session) error) (store.Snapshot, error) {
	res, err := d.submit(ctx, job{
		sessionID: sessionID,
		run: func(s *store.Session) (Outcome, error) {
			return Outcome{}, fn(s)
		},
	})
	return res.Snapshot, err
}

func (d *Dispatcher) submit(ctx context.Context, j job) (Result, error) {
	j.reply = make(chan reply, 1)
	select {
	case d.jobs <- j:
	case <-d.done:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.result, r.err
	case <-d.done:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
