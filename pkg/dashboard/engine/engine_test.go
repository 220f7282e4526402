package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var known = []int{360, 370, 380, 400, 415, 420}

func newEngine() *Engine {
	return New(selection.NewMachine(hierarchy.MustResolver(hierarchy.DefaultTermRanges())))
}

func newSession(e *Engine) *store.Session {
	return store.NewSession("s1", known, e.Machine(), 20)
}

func TestParentChangedPropagates(t *testing.T) {
	e := newEngine()
	s := newSession(e)

	out, err := e.Apply(s, ParentChanged{Side: selection.Primary, Term: 21})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.True(t, out.Synced)
	assert.Equal(t, RecapViews, out.Refetch)
	want := selection.SelectorGroup{Term: 21, Session: 400}
	assert.Equal(t, want, s.Selection.Primary)
	assert.Equal(t, want, s.Selection.Secondary)
}

func TestParentChangedWithNoChildren(t *testing.T) {
	e := newEngine()
	s := newSession(e)

	_, err := e.Apply(s, ParentChanged{Side: selection.Secondary, Term: 19})
	require.NoError(t, err)
	assert.Equal(t, selection.SelectorGroup{Term: 19}, s.Selection.Secondary)
	assert.Equal(t, selection.SelectorGroup{Term: 19}, s.Selection.Primary)
}

func TestChildChangedIgnoresInvalidPick(t *testing.T) {
	e := newEngine()
	s := newSession(e)
	before := s.Selection

	out, err := e.Apply(s, ChildChanged{Side: selection.Primary, Session: 380})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, before, s.Selection)

	out, err = e.Apply(s, ChildChanged{Side: selection.Primary, Session: 415})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 415, s.Selection.Secondary.Session)
}

func TestSelectionChangeResetsReveal(t *testing.T) {
	e := newEngine()
	s := newSession(e)

	_, err := e.Apply(s, RevealRequested{View: store.ViewPeople})
	require.NoError(t, err)
	assert.Equal(t, 40, s.Reveal.Shown(string(store.ViewPeople)))

	_, err = e.Apply(s, ChildChanged{Side: selection.Secondary, Session: 415})
	require.NoError(t, err)
	assert.Equal(t, 20, s.Reveal.Shown(string(store.ViewPeople)))
}

func TestFilterChangedResetsOnlyThatView(t *testing.T) {
	e := newEngine()
	s := newSession(e)
	s.Reveal.Reveal(string(store.ViewText))
	s.Reveal.Reveal(string(store.ViewData))

	ev := FilterChanged{View: store.ViewText, Field: records.FieldCommittee, Value: "국방위원회", Text: "예산"}
	out, err := e.Apply(s, ev)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 20, s.Reveal.Shown(string(store.ViewText)))
	assert.Equal(t, 40, s.Reveal.Shown(string(store.ViewData)))
	assert.Equal(t, "국방위원회", s.Filter(store.ViewText).Category.Value)

	out, err = e.Apply(s, ev)
	require.NoError(t, err)
	assert.False(t, out.Changed)
}

func TestFilterChangedRejectsFieldOutsideView(t *testing.T) {
	e := newEngine()
	s := newSession(e)

	tests := []struct {
		name string
		ev   FilterChanged
	}{
		{"party on text", FilterChanged{View: store.ViewText, Field: records.FieldParty, Value: "DPK"}},
		{"committee on people", FilterChanged{View: store.ViewPeople, Field: records.FieldCommittee, Value: "국방위원회"}},
		{"any field on trend", FilterChanged{View: store.ViewTrend, Field: records.FieldCategory, Value: "경제"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Apply(s, tt.ev)
			assert.ErrorIs(t, err, ErrInvalidFilterField)
		})
	}
	assert.Empty(t, s.Filters)

	out, err := e.Apply(s, FilterChanged{View: store.ViewTrend, Text: "예산"})
	require.NoError(t, err)
	assert.True(t, out.Changed)
}

func TestTabSwitchedToActiveTabKeepsReveal(t *testing.T) {
	e := newEngine()
	s := newSession(e)
	s.Reveal.Reveal(string(store.ViewText))
	s.Reveal.Reveal(string(store.ViewText))
	require.Equal(t, 60, s.Reveal.Shown(string(store.ViewText)))

	out, err := e.Apply(s, TabSwitched{View: store.ViewText})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Empty(t, out.Refetch)
	assert.Equal(t, 60, s.Reveal.Shown(string(store.ViewText)))
}

func TestTabSwitchedResetsReveal(t *testing.T) {
	e := newEngine()
	s := newSession(e)
	s.Reveal.Reveal(string(store.ViewText))

	out, err := e.Apply(s, TabSwitched{View: store.ViewTrend})
	require.NoError(t, err)
	assert.Equal(t, []store.View{store.ViewTrend}, out.Refetch)
	assert.Equal(t, store.ViewTrend, s.ActiveTab)
	assert.Empty(t, s.Reveal.Snapshot())
}

func TestSessionsLoadedRepairsSelection(t *testing.T) {
	e := newEngine()
	s := newSession(e)

	out, err := e.Apply(s, SessionsLoaded{Known: []int{390, 360, 390}})
	require.NoError(t, err)
	assert.Equal(t, []int{360, 390}, s.Known)
	assert.Equal(t, RecapViews, out.Refetch)
	assert.Equal(t, selection.SelectorGroup{Term: 22}, s.Selection.Primary)
}

func TestApplyRejectsMalformedEvents(t *testing.T) {
	e := newEngine()
	s := newSession(e)

	_, err := e.Apply(s, ParentChanged{Side: "left", Term: 21})
	assert.ErrorIs(t, err, ErrInvalidSide)

	_, err = e.Apply(s, RevealRequested{View: "nope"})
	assert.ErrorIs(t, err, store.ErrUnknownView)

	_, err = e.Apply(s, nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecode(t *testing.T) {
	ev, err := Decode(KindChildChanged, json.RawMessage(`{"side":"secondary","session":415}`))
	require.NoError(t, err)
	assert.Equal(t, ChildChanged{Side: selection.Secondary, Session: 415}, ev)

	_, err = Decode("explode", nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Decode(KindTabSwitched, json.RawMessage(`{"view":`))
	assert.Error(t, err)
}

type mapStore struct {
	mu sync.Mutex
	m  map[string]*store.Session
}

func (m *mapStore) Get(id string) (*store.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.m[id]
	return s, ok
}

func TestDispatcherSerializesEvents(t *testing.T) {
	e := newEngine()
	s := newSession(e)
	d := NewDispatcher(e, &mapStore{m: map[string]*store.Session{"s1": s}}, 8)

	var applied []Kind
	d.OnApplied = func(_ *store.Session, ev Event, _ Outcome) { applied = append(applied, ev.Kind()) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(ctx, "s1", RevealRequested{View: store.ViewText})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := d.Do(ctx, "s1", func(*store.Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 20+50*20, snap.Reveal[string(store.ViewText)])
	assert.Len(t, applied, 50)
}

func TestDispatcherUnknownSessionAndPanics(t *testing.T) {
	e := newEngine()
	d := NewDispatcher(e, &mapStore{m: map[string]*store.Session{"s1": newSession(e)}}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	_, err := d.Dispatch(ctx, "missing", TabSwitched{View: store.ViewLaw})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = d.Do(ctx, "s1", func(*store.Session) error { panic("boom") })
	assert.Error(t, err)

	res, err := d.Dispatch(ctx, "s1", TabSwitched{View: store.ViewLaw})
	require.NoError(t, err)
	assert.Equal(t, store.ViewLaw, res.Snapshot.ActiveTab)

	cancel()
	assert.Eventually(t, func() bool {
		_, err := d.Dispatch(context.Background(), "s1", TabSwitched{View: store.ViewText})
		return err == ErrStopped
	}, time.Second, 10*time.Millisecond)
}
