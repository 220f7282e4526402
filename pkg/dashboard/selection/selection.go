package selection

import (
	"slices"

	"assembly-dashboard-be/pkg/dashboard/hierarchy"
)

// Side names one of the two selector groups.
type Side string

const (
	Primary   Side = "primary"
	Secondary Side = "secondary"
)

// Valid reports whether s names a selector group.
func (s Side) Valid() bool {
	return s == Primary || s == Secondary
}

// Other returns the opposite group.
func (s Side) Other() Side {
	if s == Primary {
		return Secondary
	}
	return Primary
}

// SelectorGroup is one term/session picker. Zero means "none" for both fields.
// Invariant: when Session is set, TermOf(Session) == Term.
type SelectorGroup struct {
	Term    int `json:"term,omitempty"`
	Session int `json:"session,omitempty"`
}

func (g SelectorGroup) HasTerm() bool    { return g.Term > 0 }
func (g SelectorGroup) HasSession() bool { return g.Session > 0 }

// DualSelection holds the primary and secondary pickers.
type DualSelection struct {
	Primary   SelectorGroup `json:"primary"`
	Secondary SelectorGroup `json:"secondary"`
}

// Group returns a pointer to the group on side s.
func (d *DualSelection) Group(s Side) *SelectorGroup {
	if s == Secondary {
		return &d.Secondary
	}
	return &d.Primary
}

// Consistent reports whether both groups denote the same pair.
func (d DualSelection) Consistent() bool {
	return d.Primary == d.Secondary
}

// Machine applies the selection transitions. It keeps no per-session state.
type Machine struct {
	resolver *hierarchy.Resolver
}

// NewMachine creates a selection machine over the given term table.
func NewMachine(resolver *hierarchy.Resolver) *Machine {
	return &Machine{resolver: resolver}
}

// Resolver exposes the term table used by the machine.
func (m *Machine) Resolver() *hierarchy.Resolver {
	return m.resolver
}

// Children lists the sessions selectable under term.
func (m *Machine) Children(known []int, term int) []int {
	if term <= 0 {
		return []int{}
	}
	return m.resolver.SessionsOf(known, term)
}

// Init selects the latest mapped session and its term.
// Sessions outside every range are skipped; with none left the group stays empty.
func (m *Machine) Init(known []int) SelectorGroup {
	best := SelectorGroup{}
	for _, s := range known {
		term, ok := m.resolver.TermOf(s)
		if !ok {
			continue
		}
		if s > best.Session {
			best = SelectorGroup{Term: term, Session: s}
		}
	}
	return best
}

// ChooseParent sets the term and repairs the session: the previous one if still valid,
// else the largest valid child, else none.
func (m *Machine) ChooseParent(g *SelectorGroup, known []int, term int) {
	g.Term = term
	children := m.Children(known, term)
	if g.Session > 0 && slices.Contains(children, g.Session) {
		return
	}
	if len(children) == 0 {
		g.Session = 0
		return
	}
	g.Session = children[len(children)-1]
}

// ChooseChild sets the session when it is a valid child of the current term.
// Invalid writes are ignored and reported as false.
func (m *Machine) ChooseChild(g *SelectorGroup, known []int, session int) bool {
	if !slices.Contains(m.Children(known, g.Term), session) {
		return false
	}
	g.Session = session
	return true
}

// Repair re-establishes the group invariant after the known session list changed.
func (m *Machine) Repair(g *SelectorGroup, known []int) {
	if !g.HasTerm() {
		*g = m.Init(known)
		return
	}
	m.ChooseParent(g, known, g.Term)
}
