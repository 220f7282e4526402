package engine

import (
	"encoding/json"
	"fmt"

	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/store"
)

// Kind identifies an event variant on the wire.
type Kind string

const (
	KindParentChanged   Kind = "parent_changed"
	KindChildChanged    Kind = "child_changed"
	KindFilterChanged   Kind = "filter_changed"
	KindRevealRequested Kind = "reveal_requested"
	KindTabSwitched     Kind = "tab_switched"
	KindSessionsLoaded  Kind = "sessions_loaded"
)

// Event is one discrete input to a dashboard session.
type Event interface {
	Kind() Kind
}

// ParentChanged is a term pick on one selector group.
type ParentChanged struct {
	Side selection.Side `json:"side"`
	Term int            `json:"term"`
}

// ChildChanged is a session pick on one selector group.
type ChildChanged struct {
	Side    selection.Side `json:"side"`
	Session int            `json:"session"`
}

// FilterChanged replaces the filter of one view.
type FilterChanged struct {
	View  store.View    `json:"view"`
	Field records.Field `json:"field,omitempty"`
	Value string        `json:"value,omitempty"`
	Text  string        `json:"text,omitempty"`
}

// RevealRequested asks for one more page of a view.
type RevealRequested struct {
	View store.View `json:"view"`
}

// TabSwitched activates another view.
type TabSwitched struct {
	View store.View `json:"view"`
}

// SessionsLoaded replaces the known session list after a fetch.
type SessionsLoaded struct {
	Known []int `json:"known"`
}

// Internal reports whether k is raised by the server only. Session lists come from the
// data source, never from clients.
func (k Kind) Internal() bool {
	return k == KindSessionsLoaded
}

func (ParentChanged) Kind() Kind   { return KindParentChanged }
func (ChildChanged) Kind() Kind    { return KindChildChanged }
func (FilterChanged) Kind() Kind   { return KindFilterChanged }
func (RevealRequested) Kind() Kind { return KindRevealRequested }
func (TabSwitched) Kind() Kind     { return KindTabSwitched }
func (SessionsLoaded) Kind() Kind  { return KindSessionsLoaded }

// Decode builds the typed event named by kind from its JSON payload.
func Decode(kind Kind, payload json.RawMessage) (Event, error) {
	var ev Event
	switch kind {
	case KindParentChanged:
		ev = &ParentChanged{}
	case KindChildChanged:
		ev = &ChildChanged{}
	case KindFilterChanged:
		ev = &FilterChanged{}
	case KindRevealRequested:
		ev = &RevealRequested{}
	case KindTabSwitched:
		ev = &TabSwitched{}
	case KindSessionsLoaded:
		ev = &SessionsLoaded{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
	}

	switch e := ev.(type) {
	case *ParentChanged:
		return *e, nil
	case *ChildChanged:
		return *e, nil
	case *FilterChanged:
		return *e, nil
	case *RevealRequested:
		return *e, nil
	case *TabSwitched:
		return *e, nil
	case *SessionsLoaded:
		return *e, nil
	}
	return ev, nil
}
