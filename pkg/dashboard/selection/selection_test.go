package selection

import (
	"testing"

	"assembly-dashboard-be/pkg/dashboard/hierarchy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var known = []int{353, 370, 379, 400, 414, 415, 416, 900000}

func newMachine() *Machine {
	return NewMachine(hierarchy.MustResolver([]hierarchy.TermRange{
		{Term: 20, First: 353, Last: 378},
		{Term: 21, First: 379, Last: 414},
		{Term: 22, First: 415, Last: 500},
		{Term: 23, First: 501, Last: 600},
	}))
}

func TestInitPicksLatestMappedSession(t *testing.T) {
	m := newMachine()

	// 900000 has no term and must not be selected.
	assert.Equal(t, SelectorGroup{Term: 22, Session: 416}, m.Init(known))
	assert.Equal(t, SelectorGroup{}, m.Init(nil))
	assert.Equal(t, SelectorGroup{}, m.Init([]int{1, 2}))
}

func TestChooseParent(t *testing.T) {
	m := newMachine()

	t.Run("previous session kept when still valid", func(t *testing.T) {
		g := SelectorGroup{Term: 21, Session: 400}
		m.ChooseParent(&g, known, 21)
		assert.Equal(t, SelectorGroup{Term: 21, Session: 400}, g)
	})

	t.Run("largest child when previous is invalid", func(t *testing.T) {
		g := SelectorGroup{Term: 22, Session: 416}
		m.ChooseParent(&g, known, 20)
		assert.Equal(t, SelectorGroup{Term: 20, Session: 370}, g)
	})

	t.Run("none when the term has no sessions", func(t *testing.T) {
		g := SelectorGroup{Term: 22, Session: 416}
		m.ChooseParent(&g, known, 23)
		assert.Equal(t, SelectorGroup{Term: 23}, g)
		assert.False(t, g.HasSession())
	})
}

func TestChooseChildIgnoresInvalidWrites(t *testing.T) {
	m := newMachine()
	g := SelectorGroup{Term: 21, Session: 414}

	assert.True(t, m.ChooseChild(&g, known, 379))
	assert.Equal(t, 379, g.Session)

	assert.False(t, m.ChooseChild(&g, known, 416))
	assert.Equal(t, SelectorGroup{Term: 21, Session: 379}, g)

	assert.False(t, m.ChooseChild(&g, known, 401))
	assert.Equal(t, SelectorGroup{Term: 21, Session: 379}, g)
}

func TestRepair(t *testing.T) {
	m := newMachine()

	g := SelectorGroup{Term: 21, Session: 401}
	m.Repair(&g, known)
	assert.Equal(t, SelectorGroup{Term: 21, Session: 414}, g)

	empty := SelectorGroup{}
	m.Repair(&empty, known)
	assert.Equal(t, SelectorGroup{Term: 22, Session: 416}, empty)
}

func TestPropagateCopiesAndRefreshes(t *testing.T) {
	m := newMachine()
	s := NewSynchronizer(m)

	var rendered []SelectorGroup
	s.OnRender = func(side Side, g SelectorGroup) {
		assert.Equal(t, Secondary, side)
		rendered = append(rendered, g)
	}

	sel := DualSelection{
		Primary:   SelectorGroup{Term: 20, Session: 353},
		Secondary: SelectorGroup{Term: 22, Session: 416},
	}
	require.True(t, s.Propagate(&sel, Primary, known))

	assert.True(t, sel.Consistent())
	assert.Equal(t, SelectorGroup{Term: 20, Session: 353}, sel.Secondary)
	assert.Len(t, rendered, 1)
	assert.False(t, s.Syncing())
}

func TestPropagateIsIdempotent(t *testing.T) {
	s := NewSynchronizer(newMachine())
	sel := DualSelection{Primary: SelectorGroup{Term: 21, Session: 400}}

	require.True(t, s.Propagate(&sel, Primary, known))
	once := sel.Secondary
	require.True(t, s.Propagate(&sel, Primary, known))

	assert.Equal(t, once, sel.Secondary)
}

func TestPropagateDropsReentrantRequests(t *testing.T) {
	s := NewSynchronizer(newMachine())

	var drops []Side
	s.OnDrop = func(from Side) { drops = append(drops, from) }

	sel := DualSelection{
		Primary:   SelectorGroup{Term: 21, Session: 379},
		Secondary: SelectorGroup{Term: 22, Session: 415},
	}

	var nested bool
	var before DualSelection
	s.OnRender = func(side Side, g SelectorGroup) {
		// The secondary widget echoes its change back; the guard must swallow it.
		before = sel
		nested = s.Propagate(&sel, side, known)
		assert.Equal(t, before, sel)
	}

	require.True(t, s.Propagate(&sel, Primary, known))
	assert.False(t, nested)
	assert.Equal(t, []Side{Secondary}, drops)
	assert.Equal(t, int64(1), s.Dropped())
	assert.True(t, sel.Consistent())
	assert.False(t, s.Syncing())
}

func TestPropagateReleasesGuardOnPanic(t *testing.T) {
	s := NewSynchronizer(newMachine())
	s.OnRender = func(Side, SelectorGroup) { panic("render failed") }

	sel := DualSelection{Primary: SelectorGroup{Term: 21, Session: 379}}
	assert.Panics(t, func() { s.Propagate(&sel, Primary, known) })
	assert.False(t, s.Syncing())

	s.OnRender = nil
	assert.True(t, s.Propagate(&sel, Secondary, known))
}

func TestPropagateEmptySourceClearsTarget(t *testing.T) {
	s := NewSynchronizer(newMachine())
	sel := DualSelection{Secondary: SelectorGroup{Term: 22, Session: 416}}

	require.True(t, s.Propagate(&sel, Primary, known))
	assert.Equal(t, SelectorGroup{}, sel.Secondary)
}
