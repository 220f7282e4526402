package engine

import (
	"errors"
	"fmt"
	"slices"

	"assembly-dashboard-be/pkg/dashboard/filter"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/store"
)

var (
	ErrUnknownEvent       = errors.New("unknown event")
	ErrInvalidSide        = errors.New("invalid selector side")
	ErrInvalidFilterField = errors.New("invalid filter field")
	ErrSessionNotFound    = errors.New("dashboard session not found")
	ErrStopped            = errors.New("dispatcher stopped")
)

// RecapViews are refreshed whenever the primary selection changes.
var RecapViews = []store.View{store.ViewText, store.ViewPeople, store.ViewData}

// Outcome reports what an event did to the session.
type Outcome struct {
	// Changed is false when the event was ignored (invalid pick, no-op).
	Changed bool `json:"changed"`
	// Synced is true when the change was propagated to the other selector group.
	Synced bool `json:"synced"`
	// Refetch lists the views whose data must be fetched again.
	Refetch []store.View `json:"refetch,omitempty"`
}

// Engine applies events to sessions. It holds no session state itself.
type Engine struct {
	machine *selection.Machine
}

func New(machine *selection.Machine) *Engine {
	return &Engine{machine: machine}
}

// Machine exposes the selection machine.
func (e *Engine) Machine() *selection.Machine {
	return e.machine
}

// Apply runs ev to completion against s.
// Invalid selections are corrected silently; only malformed events return an error.
func (e *Engine) Apply(s *store.Session, ev Event) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	switch ev := ev.(type) {
	case ParentChanged:
		out, err = e.parentChanged(s, ev)
	case ChildChanged:
		out, err = e.childChanged(s, ev)
	case FilterChanged:
		out, err = e.filterChanged(s, ev)
	case RevealRequested:
		if !ev.View.Valid() {
			return Outcome{}, fmt.Errorf("%w: %q", store.ErrUnknownView, ev.View)
		}
		s.Reveal.Reveal(string(ev.View))
		out = Outcome{Changed: true}
	case TabSwitched:
		if !ev.View.Valid() {
			return Outcome{}, fmt.Errorf("%w: %q", store.ErrUnknownView, ev.View)
		}
		if s.ActiveTab == ev.View {
			break
		}
		s.ActiveTab = ev.View
		s.Reveal.Reset()
		out = Outcome{Changed: true, Refetch: []store.View{ev.View}}
	case SessionsLoaded:
		out = e.sessionsLoaded(s, ev)
	case nil:
		return Outcome{}, ErrUnknownEvent
	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	if err != nil {
		return Outcome{}, err
	}
	if out.Changed {
		s.Touch()
	}
	return out, nil
}

func (e *Engine) parentChanged(s *store.Session, ev ParentChanged) (Outcome, error) {
	if !ev.Side.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidSide, ev.Side)
	}
	before := s.Selection
	e.machine.ChooseParent(s.Selection.Group(ev.Side), s.Known, ev.Term)
	return e.selectionChanged(s, ev.Side, before), nil
}

func (e *Engine) childChanged(s *store.Session, ev ChildChanged) (Outcome, error) {
	if !ev.Side.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidSide, ev.Side)
	}
	before := s.Selection
	if !e.machine.ChooseChild(s.Selection.Group(ev.Side), s.Known, ev.Session) {
		return Outcome{}, nil
	}
	return e.selectionChanged(s, ev.Side, before), nil
}

func (e *Engine) selectionChanged(s *store.Session, side selection.Side, before selection.DualSelection) Outcome {
	synced := s.Sync.Propagate(&s.Selection, side, s.Known)
	if s.Selection == before {
		return Outcome{Synced: synced}
	}
	s.Reveal.Reset()
	return Outcome{Changed: true, Synced: synced, Refetch: slices.Clone(RecapViews)}
}

func (e *Engine) filterChanged(s *store.Session, ev FilterChanged) (Outcome, error) {
	if !ev.View.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", store.ErrUnknownView, ev.View)
	}
	if ev.Field != "" {
		if allowed, ok := ev.View.FilterField(); !ok || ev.Field != allowed {
			return Outcome{}, fmt.Errorf("%w: %q on view %q", ErrInvalidFilterField, ev.Field, ev.View)
		}
	}
	next := filter.Spec{
		Category: filter.Categorical{Field: ev.Field, Value: ev.Value},
		Text:     ev.Text,
	}
	if s.Filters[ev.View] == next {
		return Outcome{}, nil
	}
	s.Filters[ev.View] = next
	s.Reveal.ResetView(string(ev.View))
	return Outcome{Changed: true}, nil
}

func (e *Engine) sessionsLoaded(s *store.Session, ev SessionsLoaded) Outcome {
	known := slices.Clone(ev.Known)
	slices.Sort(known)
	known = slices.Compact(known)

	before := s.Selection
	s.Known = known
	e.machine.Repair(&s.Selection.Primary, known)
	e.machine.Repair(&s.Selection.Secondary, known)
	if s.Selection == before {
		return Outcome{Changed: true}
	}
	s.Reveal.Reset()
	return Outcome{Changed: true, Refetch: slices.Clone(RecapViews)}
}
