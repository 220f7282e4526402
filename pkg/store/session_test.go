package store

import (
	"testing"

	"assembly-dashboard-be/pkg/dashboard/filter"
	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/selection"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionSelectsLatest(t *testing.T) {
	m := selection.NewMachine(hierarchy.MustResolver(hierarchy.DefaultTermRanges()))
	s := NewSession("abc", []int{400, 420, 9999}, m, 0)

	want := selection.SelectorGroup{Term: 22, Session: 420}
	assert.Equal(t, want, s.Selection.Primary)
	assert.Equal(t, want, s.Selection.Secondary)
	assert.Equal(t, ViewText, s.ActiveTab)
	assert.Equal(t, 20, s.Reveal.PageSize())
}

func TestSnapshotIsDetached(t *testing.T) {
	m := selection.NewMachine(hierarchy.MustResolver(hierarchy.DefaultTermRanges()))
	s := NewSession("abc", []int{400}, m, 10)
	s.Filters[ViewPeople] = filter.Spec{Text: "kim"}

	snap := s.Snapshot()
	snap.Filters[ViewPeople] = filter.Spec{Text: "lee"}
	snap.Known[0] = 1

	assert.Equal(t, "kim", s.Filter(ViewPeople).Text)
	assert.Equal(t, []int{400}, s.Known)
	assert.Equal(t, 10, snap.PageSize)
}

func TestViewValid(t *testing.T) {
	assert.True(t, ViewLaw.Valid())
	assert.False(t, View("chart").Valid())
}

func TestSequencerDiscardsStaleResponses(t *testing.T) {
	seq := NewSequencer()
	first := seq.Begin(ViewText)
	second := seq.Begin(ViewText)
	other := seq.Begin(ViewPeople)

	assert.Equal(t, uint64(1), other)
	assert.True(t, seq.Latest(ViewText, second))
	assert.False(t, seq.Latest(ViewText, first))

	assert.True(t, seq.Accept(ViewText, second))
	assert.False(t, seq.Accept(ViewText, first))
	assert.False(t, seq.Accept(ViewText, second))
	assert.True(t, seq.Accept(ViewPeople, other))
	assert.Equal(t, uint64(2), seq.Discarded())
}
