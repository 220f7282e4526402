package metrics

import (
	"errors"
	"time"

	"assembly-dashboard-be/pkg/datasource"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_fetch_total",
		Help: "Data source selects by table and result",
	}, []string{"table", "result"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_fetch_duration_seconds",
		Help:    "Data source select latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"table"})

	cacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cache_total",
		Help: "Batch cache lookups by table and outcome",
	}, []string{"table", "outcome"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_events_total",
		Help: "Dispatched dashboard events by kind and whether they changed state",
	}, []string{"kind", "changed"})

	syncDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_sync_dropped_total",
		Help: "Selector sync requests dropped because a propagation was in progress",
	})

	staleDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_stale_responses_total",
		Help: "Fetch responses discarded because a newer request for the view was applied",
	}, []string{"view"})

	viewFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_view_failures_total",
		Help: "View loads that degraded to an error placeholder",
	}, []string{"view"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_active_sessions",
		Help: "Dashboard sessions held in memory",
	})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_ws_clients",
		Help: "Connected websocket listeners on this instance",
	})
)

// Recorder exports data source observations to Prometheus.
type Recorder struct{}

var _ datasource.Recorder = Recorder{}

func (Recorder) ObserveFetch(table string, err error, elapsed time.Duration) {
	fetchDuration.WithLabelValues(table).Observe(elapsed.Seconds())
	fetchTotal.WithLabelValues(table, fetchResult(err)).Inc()
}

func (Recorder) CacheHit(table string)  { cacheTotal.WithLabelValues(table, "hit").Inc() }
func (Recorder) CacheMiss(table string) { cacheTotal.WithLabelValues(table, "miss").Inc() }

func fetchResult(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *datasource.FetchError
	if errors.As(err, &fe) && fe.Status > 0 {
		if fe.Status >= 500 {
			return "upstream_error"
		}
		return "client_error"
	}
	return "error"
}

// EventApplied counts one dispatched event.
func EventApplied(kind string, changed bool) {
	label := "false"
	if changed {
		label = "true"
	}
	eventsTotal.WithLabelValues(kind, label).Inc()
}

func SyncDropped()               { syncDropped.Inc() }
func StaleDiscarded(view string) { staleDiscarded.WithLabelValues(view).Inc() }
func ViewFailed(view string)     { viewFailures.WithLabelValues(view).Inc() }
func SessionOpened()             { activeSessions.Inc() }
func SessionClosed()             { activeSessions.Dec() }
func ClientConnected()           { wsClients.Inc() }
func ClientDisconnected()        { wsClients.Dec() }
