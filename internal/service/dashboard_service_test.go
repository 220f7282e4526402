package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/pkg/dashboard/engine"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/events"
	"assembly-dashboard-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatch(t *testing.T, svc IDashboardService, id string, kind engine.Kind, payload interface{}) *dto.DispatchEventResponse {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	res, err := svc.Dispatch(context.Background(), id, &dto.DispatchEventRequest{Kind: kind, Payload: raw})
	require.NoError(t, err)
	return res
}

func TestCreateSelectsLatestSession(t *testing.T) {
	recap := NewRecapService(fixtureRepo(fixtureSource()), testTables(), logger.NewNopLogger())
	h := newDashboardHarness(t, recap, 20)

	state, err := h.service.Create(context.Background())
	require.NoError(t, err)

	snap := state.Dashboard
	assert.Equal(t, []int{370, 380, 415, 416}, snap.Known)
	assert.Equal(t, selection.SelectorGroup{Term: 22, Session: 416}, snap.Selection.Primary)
	assert.True(t, snap.Selection.Consistent())
	assert.Equal(t, []int{20, 21, 22}, state.Options[selection.Primary].Terms)
	assert.Equal(t, []int{415, 416}, state.Options[selection.Secondary].Sessions)

	assert.Equal(t, []string{events.DashboardSessionCreated, events.DashboardEventApplied}, h.publisher.types())
	assert.Equal(t, 1, h.sessions.Count())
}

func TestCreateSurvivesMissingSessionList(t *testing.T) {
	src := fixtureSource()
	src.Fail("people_recap", errors.New("upstream down"))
	h := newDashboardHarness(t, NewRecapService(fixtureRepo(src), testTables(), logger.NewNopLogger()), 20)

	state, err := h.service.Create(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Dashboard.Known)
	assert.False(t, state.Dashboard.Selection.Primary.HasTerm())

	src.Fail("people_recap", nil)
	res, err := h.service.ReloadSessions(context.Background(), state.Dashboard.ID)
	require.NoError(t, err)
	assert.Equal(t, 416, res.State.Dashboard.Selection.Primary.Session)
	assert.Len(t, res.Outcome.Refetch, 3)
}

func TestDispatchPropagatesToOtherSide(t *testing.T) {
	recap := NewRecapService(fixtureRepo(fixtureSource()), testTables(), logger.NewNopLogger())
	h := newDashboardHarness(t, recap, 20)
	state, err := h.service.Create(context.Background())
	require.NoError(t, err)
	id := state.Dashboard.ID

	res := dispatch(t, h.service, id, engine.KindParentChanged, engine.ParentChanged{Side: selection.Secondary, Term: 21})
	assert.True(t, res.Outcome.Changed)
	assert.True(t, res.Outcome.Synced)
	assert.Equal(t, []store.View{store.ViewText, store.ViewPeople, store.ViewData}, res.Outcome.Refetch)
	assert.Equal(t, selection.SelectorGroup{Term: 21, Session: 380}, res.State.Dashboard.Selection.Primary)
	assert.Equal(t, []int{380}, res.State.Options[selection.Primary].Sessions)

	// 415 is not a child of term 21: ignored.
	res = dispatch(t, h.service, id, engine.KindChildChanged, engine.ChildChanged{Side: selection.Primary, Session: 415})
	assert.False(t, res.Outcome.Changed)
	assert.Equal(t, 380, res.State.Dashboard.Selection.Secondary.Session)
}

func TestDispatchRejectsBadInput(t *testing.T) {
	recap := NewRecapService(fixtureRepo(fixtureSource()), testTables(), logger.NewNopLogger())
	h := newDashboardHarness(t, recap, 20)
	state, err := h.service.Create(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name   string
		id     string
		kind   engine.Kind
		raw    string
		status int
	}{
		{"unknown kind", state.Dashboard.ID, "exploded", `{}`, 400},
		{"malformed payload", state.Dashboard.ID, engine.KindParentChanged, `{"term":"x"}`, 400},
		{"bad side", state.Dashboard.ID, engine.KindParentChanged, `{"side":"left","term":22}`, 400},
		{"bad view", state.Dashboard.ID, engine.KindTabSwitched, `{"view":"chart"}`, 400},
		{"server-only kind", state.Dashboard.ID, engine.KindSessionsLoaded, `{"known":[1,2]}`, 400},
		{"filter field of another view", state.Dashboard.ID, engine.KindFilterChanged, `{"view":"text","field":"party","value":"DPK"}`, 400},
		{"missing dashboard", "nope", engine.KindTabSwitched, `{"view":"law"}`, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.service.Dispatch(context.Background(), tt.id, &dto.DispatchEventRequest{Kind: tt.kind, Payload: json.RawMessage(tt.raw)})
			var serr *serverutils.StatusError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.status, serr.Status)
		})
	}
}

func TestLoadViewAppliesFilterAndReveal(t *testing.T) {
	recap := NewRecapService(fixtureRepo(fixtureSource()), testTables(), logger.NewNopLogger())
	h := newDashboardHarness(t, recap, 1)
	ctx := context.Background()
	state, err := h.service.Create(ctx)
	require.NoError(t, err)
	id := state.Dashboard.ID
	dispatch(t, h.service, id, engine.KindChildChanged, engine.ChildChanged{Side: selection.Primary, Session: 415})

	view, err := h.service.LoadView(ctx, id, store.ViewText)
	require.NoError(t, err)
	assert.Equal(t, 415, view.Session)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 2, view.Matched)
	assert.Equal(t, 1, view.Shown)
	assert.True(t, view.HasMore)
	assert.Equal(t, []string{"법제사법위원회", "기획재정위원회"}, view.Options)

	dispatch(t, h.service, id, engine.KindRevealRequested, engine.RevealRequested{View: store.ViewText})
	view, err = h.service.LoadView(ctx, id, store.ViewText)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Shown)
	assert.False(t, view.HasMore)

	dispatch(t, h.service, id, engine.KindFilterChanged, engine.FilterChanged{
		View: store.ViewText, Field: records.FieldCommittee, Value: "기획재정위원회",
	})
	view, err = h.service.LoadView(ctx, id, store.ViewText)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.Matched)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "세법 개정", view.Rows[0].Text("요약"))

	_, err = h.service.LoadView(ctx, id, store.ViewTrend)
	var serr *serverutils.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 400, serr.Status)
}

func TestLoadViewIsolatesFailures(t *testing.T) {
	src := fixtureSource()
	h := newDashboardHarness(t, NewRecapService(fixtureRepo(src), testTables(), logger.NewNopLogger()), 20)
	ctx := context.Background()
	state, err := h.service.Create(ctx)
	require.NoError(t, err)
	id := state.Dashboard.ID

	src.Fail("people_recap", errors.New("boom"))
	people, err := h.service.LoadView(ctx, id, store.ViewPeople)
	require.NoError(t, err)
	assert.Contains(t, people.Error, "boom")
	assert.Empty(t, people.Rows)

	text, err := h.service.LoadView(ctx, id, store.ViewText)
	require.NoError(t, err)
	assert.Empty(t, text.Error)
	assert.Equal(t, 1, text.Total)

	assert.Contains(t, h.publisher.types(), events.DashboardFetchFailed)
}

// gatedRecap blocks the first Rows call until gate is closed.
type gatedRecap struct {
	IRecapService
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gatedRecap) Rows(ctx context.Context, view store.View, session int) ([]records.Record, error) {
	if g.calls.Add(1) == 1 {
		<-g.gate
	}
	return g.IRecapService.Rows(ctx, view, session)
}

func TestLoadViewDiscardsStaleResponses(t *testing.T) {
	recap := &gatedRecap{
		IRecapService: NewRecapService(fixtureRepo(fixtureSource()), testTables(), logger.NewNopLogger()),
		gate:          make(chan struct{}),
	}
	h := newDashboardHarness(t, recap, 20)
	ctx := context.Background()
	state, err := h.service.Create(ctx)
	require.NoError(t, err)
	id := state.Dashboard.ID

	slow := make(chan *dto.ViewResponse, 1)
	go func() {
		res, err := h.service.LoadView(ctx, id, store.ViewText)
		if err == nil {
			slow <- res
		}
		close(slow)
	}()
	require.Eventually(t, func() bool { return recap.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	fast, err := h.service.LoadView(ctx, id, store.ViewText)
	require.NoError(t, err)
	assert.False(t, fast.Stale)
	assert.Equal(t, uint64(2), fast.Sequence)

	close(recap.gate)
	old := <-slow
	require.NotNil(t, old)
	assert.True(t, old.Stale)
	assert.Equal(t, uint64(1), old.Sequence)
	assert.Empty(t, old.Rows)
	assert.Contains(t, h.publisher.types(), events.DashboardStaleDiscarded)
}

func TestCloseRemovesDashboard(t *testing.T) {
	recap := NewRecapService(fixtureRepo(fixtureSource()), testTables(), logger.NewNopLogger())
	h := newDashboardHarness(t, recap, 20)
	ctx := context.Background()
	state, err := h.service.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, h.service.Close(ctx, state.Dashboard.ID))
	_, err = h.service.State(ctx, state.Dashboard.ID)
	var serr *serverutils.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 404, serr.Status)
	assert.Error(t, h.service.Close(ctx, state.Dashboard.ID))
}
