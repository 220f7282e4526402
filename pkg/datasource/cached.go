package datasource

import (
	"context"
	"time"

	"assembly-dashboard-be/pkg/dashboard/records"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Recorder observes selects. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveFetch(table string, err error, elapsed time.Duration)
	CacheHit(table string)
	CacheMiss(table string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, error, time.Duration) {}
func (nopRecorder) CacheHit(string)                           {}
func (nopRecorder) CacheMiss(string)                          {}

// CachedSource memoizes successful selects for ttl and collapses concurrent identical misses
// into one upstream call. Failures are never cached.
type CachedSource struct {
	next     Source
	cache    *cache.Cache
	group    singleflight.Group
	recorder Recorder
}

// NewCachedSource wraps next. A nil recorder disables observation.
func NewCachedSource(next Source, ttl time.Duration, recorder Recorder) *CachedSource {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CachedSource{
		next:     next,
		cache:    cache.New(ttl, 2*ttl),
		recorder: recorder,
	}
}

func (c *CachedSource) Select(ctx context.Context, table string, params Params) ([]records.Record, error) {
	key := table + "?" + params.Key()
	if x, found := c.cache.Get(key); found {
		c.recorder.CacheHit(table)
		return x.([]records.Record), nil
	}
	c.recorder.CacheMiss(table)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		start := time.Now()
		rows, err := c.next.Select(ctx, table, params)
		c.recorder.ObserveFetch(table, err, time.Since(start))
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, rows, cache.DefaultExpiration)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]records.Record), nil
}

// Flush drops every cached batch.
func (c *CachedSource) Flush() {
	c.cache.Flush()
}
