package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/repository/implementation"
	"assembly-dashboard-be/internal/repository/memory"
	"assembly-dashboard-be/internal/service"
	"assembly-dashboard-be/pkg/dashboard/engine"
	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/datasource"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	src := datasource.NewMemorySource()
	src.Put("text_recap", []records.Record{
		{"회차": "415회", "위원회": "법제사법위원회"},
		{"회차": "416회", "위원회": "국방위원회"},
	})
	src.Put("people_recap", []records.Record{{"회차": "416회", "party": "DPK"}})
	src.Put("data_request_recap", []records.Record{})
	src.Put("trend2", []records.Record{
		{"year": 2024, "quarter": 1, "label_l2": "경제", "rows": 2, "docs": 1, "session": 415},
		{"year": 2024, "quarter": 2, "label_l2": "국방", "rows": 1, "docs": 1, "session": 416},
	})
	src.Put("speeches", []records.Record{
		{"speech_id": 1, "date": "2024-01-10", "speech_text": "예산 심사", "speech_order": 1},
	})

	tables := config.Tables{
		Trend:            "trend2",
		TextRecap:        "text_recap",
		PeopleRecap:      "people_recap",
		DataRequestRecap: "data_request_recap",
		Speeches:         "speeches",
	}
	repo := implementation.NewAssemblyRepository(src)
	resolver := hierarchy.MustResolver(hierarchy.DefaultTermRanges())
	machine := selection.NewMachine(resolver)
	sessions := memory.NewSessionRepository(time.Minute, nil)
	dispatcher := engine.NewDispatcher(engine.New(machine), sessions, 8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dispatcher.Run(ctx)

	log := logger.NewNopLogger()
	recap := service.NewRecapService(repo, tables, log)
	trend := service.NewTrendService(repo, tables, resolver)
	dashboard := service.NewDashboardService(sessions, dispatcher, machine, recap, nil, 20, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewDashboardController(dashboard, trend).RegisterRoutes(api)
	NewRecapController(recap).RegisterRoutes(api)
	NewTrendController(trend).RegisterRoutes(api)
	NewSpeechController(service.NewSpeechService(repo, tables, 100)).RegisterRoutes(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestDashboardLifecycle(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/dashboard/sessions", "")
	require.Equal(t, http.StatusCreated, status)
	var state dto.DashboardStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &state))
	id := state.Dashboard.ID
	require.NotEmpty(t, id)
	assert.Equal(t, selection.SelectorGroup{Term: 22, Session: 416}, state.Dashboard.Selection.Primary)

	status, env = do(t, app, http.MethodPost, "/api/dashboard/sessions/"+id+"/events",
		`{"kind":"child_changed","payload":{"side":"secondary","session":415}}`)
	require.Equal(t, http.StatusOK, status)
	var res dto.DispatchEventResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Outcome.Synced)
	assert.Equal(t, 415, res.State.Dashboard.Selection.Primary.Session)

	status, env = do(t, app, http.MethodGet, "/api/dashboard/sessions/"+id+"/views/text", "")
	require.Equal(t, http.StatusOK, status)
	var view dto.ViewResponse
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, "법제사법위원회", view.Rows[0].Text("위원회"))

	status, _ = do(t, app, http.MethodDelete, "/api/dashboard/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodGet, "/api/dashboard/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestDashboardRejectsBadEvents(t *testing.T) {
	app := newTestApp(t)
	_, env := do(t, app, http.MethodPost, "/api/dashboard/sessions", "")
	var state dto.DashboardStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &state))
	base := "/api/dashboard/sessions/" + state.Dashboard.ID

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"missing kind", base + "/events", `{"payload":{}}`, http.StatusBadRequest},
		{"unknown kind", base + "/events", `{"kind":"explode","payload":{}}`, http.StatusBadRequest},
		{"not json", base + "/events", `{`, http.StatusBadRequest},
		{"bad view", base + "/events", `{"kind":"tab_switched","payload":{"view":"chart"}}`, http.StatusBadRequest},
		{"server-only kind", base + "/events", `{"kind":"sessions_loaded","payload":{"known":[1,2]}}`, http.StatusBadRequest},
		{"unknown dashboard", "/api/dashboard/sessions/nope/events", `{"kind":"tab_switched","payload":{"view":"law"}}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, app, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
		})
	}
}

func TestComposeThenSeries(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/dashboard/query",
		`{"group":"l2","period":{"recent":2},"mode":"share"}`)
	require.Equal(t, http.StatusOK, status)
	var composed dto.ComposeQueryResponse
	require.NoError(t, json.Unmarshal(env.Data, &composed))
	assert.Equal(t, "group=l2&recent=2&mode=share", composed.Query)

	status, env = do(t, app, http.MethodGet, "/api/trend2/series?"+composed.Query, "")
	require.Equal(t, http.StatusOK, status)
	var series dto.TrendSeriesResponse
	require.NoError(t, json.Unmarshal(env.Data, &series))
	assert.Equal(t, []string{"2024-Q1", "2024-Q2"}, series.Series.Periods)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, series.Series.Matrix)

	status, _ = do(t, app, http.MethodGet, "/api/trend2/series?group=l2", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecapAndSessions(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[415,416]`, string(env.Data))

	status, env = do(t, app, http.MethodGet, "/api/recap/text?session_no=416", "")
	require.Equal(t, http.StatusOK, status)
	var rows []records.Record
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 1)

	status, _ = do(t, app, http.MethodGet, "/api/recap/chart", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, app, http.MethodGet, "/api/recap/overview?session_no=416", "")
	require.Equal(t, http.StatusOK, status)
	var overview dto.OverviewResponse
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, 1, overview.Views["people"].Total)
}

func TestSpeechSearchValidation(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/api/speech/search", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "Keyword")

	status, _ = do(t, app, http.MethodGet, "/api/speech/search?kw=x&start=2024-13-01", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, app, http.MethodGet, "/api/speech/search?kw=%EC%98%88%EC%82%B0&include_series=false", "")
	require.Equal(t, http.StatusOK, status)
	var res dto.SpeechSearchResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Len(t, res.Speeches, 1)
	assert.Empty(t, res.Series)
}
