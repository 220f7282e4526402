package store

import (
	"errors"
	"time"

	"assembly-dashboard-be/pkg/dashboard/filter"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/reveal"
	"assembly-dashboard-be/pkg/dashboard/selection"
)

// View names one tab of the dashboard.
type View string

const (
	ViewText   View = "text"
	ViewPeople View = "people"
	ViewData   View = "data"
	ViewTrend  View = "trend"
	ViewLaw    View = "law"
	ViewSpeech View = "speech"
)

var ErrUnknownView = errors.New("unknown view")

// Views lists every tab in display order.
func Views() []View {
	return []View{ViewText, ViewPeople, ViewData, ViewTrend, ViewLaw, ViewSpeech}
}

// filterFields is the categorical field of each list view. Other views filter by text only.
var filterFields = map[View]records.Field{
	ViewText:   records.FieldCommittee,
	ViewPeople: records.FieldParty,
	ViewData:   records.FieldCommittee,
}

// FilterField returns the categorical filter field of v.
func (v View) FilterField() (records.Field, bool) {
	f, ok := filterFields[v]
	return f, ok
}

// Valid reports whether v is a known tab.
func (v View) Valid() bool {
	for _, known := range Views() {
		if v == known {
			return true
		}
	}
	return false
}

// Session represents one dashboard's state in memory.
// It is owned by the dispatcher goroutine; nothing else mutates it.
type Session struct {
	ID string `json:"id"`

	// Known is the sorted session list the selectors choose from.
	Known []int `json:"known"`

	Selection selection.DualSelection `json:"selection"`
	ActiveTab View                    `json:"active_tab"`
	Filters   map[View]filter.Spec    `json:"filters"`

	Reveal *reveal.Tracker         `json:"-"`
	Sync   *selection.Synchronizer `json:"-"`
	Fetch  *Sequencer              `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session with both selector groups on the latest mapped session.
func NewSession(id string, known []int, machine *selection.Machine, pageSize int) *Session {
	initial := machine.Init(known)
	now := time.Now()
	return &Session{
		ID:        id,
		Known:     append([]int(nil), known...),
		Selection: selection.DualSelection{Primary: initial, Secondary: initial},
		ActiveTab: ViewText,
		Filters:   make(map[View]filter.Spec),
		Reveal:    reveal.NewTracker(pageSize),
		Sync:      selection.NewSynchronizer(machine),
		Fetch:     NewSequencer(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Filter returns the filter of view (zero spec when unset).
func (s *Session) Filter(v View) filter.Spec {
	return s.Filters[v]
}

// Touch marks the session as modified.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// Snapshot is the read-only projection handed to the rendering layer.
type Snapshot struct {
	ID        string                  `json:"id"`
	Selection selection.DualSelection `json:"selection"`
	ActiveTab View                    `json:"active_tab"`
	Filters   map[View]filter.Spec    `json:"filters"`
	Reveal    map[string]int          `json:"reveal"`
	PageSize  int                     `json:"page_size"`
	Known     []int                   `json:"known"`
	Dropped   int64                   `json:"dropped_sync_requests"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Snapshot copies the session state so callers cannot mutate it.
func (s *Session) Snapshot() Snapshot {
	filters := make(map[View]filter.Spec, len(s.Filters))
	for k, v := range s.Filters {
		filters[k] = v
	}
	return Snapshot{
		ID:        s.ID,
		Selection: s.Selection,
		ActiveTab: s.ActiveTab,
		Filters:   filters,
		Reveal:    s.Reveal.Snapshot(),
		PageSize:  s.Reveal.PageSize(),
		Known:     append([]int(nil), s.Known...),
		Dropped:   s.Sync.Dropped(),
		UpdatedAt: s.UpdatedAt,
	}
}
