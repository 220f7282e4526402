package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"assembly-dashboard-be/pkg/dashboard/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValues(t *testing.T) {
	p := Params{
		Select:  "회차,party",
		Filters: []Filter{Eq("회차", "415회"), In("party", "A", "B"), NotNull("date"), Ilike("text", "*예산*")},
		Order:   []Order{{Column: "date", Desc: true}, {Column: "id"}},
		Limit:   50,
		Offset:  100,
	}
	v := p.Values()

	assert.Equal(t, "회차,party", v.Get("select"))
	assert.Equal(t, "eq.415회", v.Get("회차"))
	assert.Equal(t, "in.(A,B)", v.Get("party"))
	assert.Equal(t, "not.is.null", v.Get("date"))
	assert.Equal(t, "ilike.*예산*", v.Get("text"))
	assert.Equal(t, "date.desc,id.asc", v.Get("order"))
	assert.Equal(t, "50", v.Get("limit"))
	assert.Equal(t, "100", v.Get("offset"))
	assert.Equal(t, "*", Params{}.Values().Get("select"))
}

func TestParamsKeyIsOrderIndependent(t *testing.T) {
	a := Params{Filters: []Filter{Eq("a", "1"), Eq("b", "2")}}
	b := Params{Filters: []Filter{Eq("b", "2"), Eq("a", "1")}}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Params{Filters: []Filter{Eq("a", "1")}}.Key())
}

func TestPostgRESTClientSelect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/text_recap", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "eq.415회", r.URL.Query().Get("회차"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"회차":"415회","count":3}]`)
	}))
	defer srv.Close()

	c := NewPostgRESTClient(srv.URL+"/", "secret", time.Second)
	rows, err := c.Select(context.Background(), "text_recap", Params{Filters: []Filter{Eq("회차", "415회")}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	n, ok := records.SafeInt(rows[0]["count"])
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestPostgRESTClientFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"column does not exist"}`)
	}))
	defer srv.Close()

	c := NewPostgRESTClient(srv.URL, "secret", time.Second)
	_, err := c.Select(context.Background(), "law2", Params{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "law2", fe.Table)
	assert.Equal(t, http.StatusBadRequest, fe.Status)
	assert.Contains(t, fe.Body, "column does not exist")
}

func TestPostgRESTClientNotConfigured(t *testing.T) {
	_, err := NewPostgRESTClient("", "", 0).Select(context.Background(), "trend2", Params{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func numbered(n int) []records.Record {
	rows := make([]records.Record, n)
	for i := range rows {
		rows[i] = records.Record{"id": i}
	}
	return rows
}

func TestSelectAllPages(t *testing.T) {
	src := NewMemorySource()
	src.Put("speeches", numbered(2500))

	rows, err := SelectAll(context.Background(), src, "speeches", Params{}, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2500)

	capped, err := SelectAll(context.Background(), src, "speeches", Params{}, 1200)
	require.NoError(t, err)
	assert.Len(t, capped, 1200)
	assert.Equal(t, 1199, capped[1199]["id"])
}

func TestMemorySourceFilters(t *testing.T) {
	src := NewMemorySource()
	src.Put("t", []records.Record{
		{"session": 410, "party": "A", "text": "예산 심사", "date": "2024-01-02"},
		{"session": 415, "party": "B", "text": "국정감사", "date": nil},
		{"session": 420, "party": "A", "text": "추가 예산", "date": "2024-03-02"},
	})
	ctx := context.Background()

	rows, err := src.Select(ctx, "t", Params{Filters: []Filter{Gte("session", "415")}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = src.Select(ctx, "t", Params{Filters: []Filter{Ilike("text", "*예산*"), NotNull("date")}, Order: []Order{{Column: "session", Desc: true}}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 420, rows[0]["session"])

	rows, err = src.Select(ctx, "t", Params{Select: "party", Filters: []Filter{In("party", "B")}})
	require.NoError(t, err)
	assert.Equal(t, []records.Record{{"party": "B"}}, rows)

	_, err = src.Select(ctx, "missing", Params{})
	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

type countingSource struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (c *countingSource) Select(ctx context.Context, table string, params Params) ([]records.Record, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if c.err != nil {
		return nil, c.err
	}
	return []records.Record{{"table": table}}, nil
}

type recorder struct {
	mu           sync.Mutex
	hits, misses int
	fetches      int
}

func (r *recorder) ObserveFetch(string, error, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
}
func (r *recorder) CacheHit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}
func (r *recorder) CacheMiss(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func TestCachedSourceCollapsesMisses(t *testing.T) {
	next := &countingSource{gate: make(chan struct{})}
	rec := &recorder{}
	c := NewCachedSource(next, time.Minute, rec)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := c.Select(context.Background(), "trend2", Params{})
			assert.NoError(t, err)
			assert.Len(t, rows, 1)
		}()
	}
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.misses == 10
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	_, err := c.Select(context.Background(), "trend2", Params{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.fetches)
}

func TestCachedSourceDoesNotCacheFailures(t *testing.T) {
	next := &countingSource{err: errors.New("boom")}
	c := NewCachedSource(next, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Select(context.Background(), "law2", Params{})
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestFetchErrorMessage(t *testing.T) {
	err := &FetchError{Table: "law2", Status: 500, Body: "down"}
	assert.True(t, strings.Contains(err.Error(), "status 500"))
	assert.Equal(t, "select law2: timeout", (&FetchError{Table: "law2", Body: "timeout"}).Error())
}
