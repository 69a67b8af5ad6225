package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/courseledger-backend/internal/platform/envutil"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	ledgerUpserts    *CounterVec
	completionEvents *CounterVec
	cacheLookups     *CounterVec
	degraded         *CounterVec

	integrityVerdicts *CounterVec
	integrityFailOpen *CounterVec

	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process-wide metrics, or nil when metrics are disabled.
// Every method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cl_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cl_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:       NewGauge("cl_api_inflight_requests", "In-flight API requests."),
		ledgerUpserts:     NewCounterVec("cl_ledger_upserts_total", "Progress upserts by item kind/result.", []string{"kind", "result"}),
		completionEvents:  NewCounterVec("cl_completion_events_total", "Records that turned completed, by item kind.", []string{"kind"}),
		cacheLookups:      NewCounterVec("cl_snapshot_cache_lookups_total", "Completion snapshot cache lookups by result.", []string{"result"}),
		degraded:          NewCounterVec("cl_dashboard_degraded_total", "Dashboard responses served zeroed after a store error.", []string{"view"}),
		integrityVerdicts: NewCounterVec("cl_integrity_verdicts_total", "Integrity checks by tutor mode.", []string{"mode"}),
		integrityFailOpen: NewCounterVec("cl_integrity_fail_open_total", "Integrity checks that fell back to the permissive verdict.", []string{"reason"}),
		redisUp:           NewGauge("cl_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing:         NewGauge("cl_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, f := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.ledgerUpserts, m.completionEvents, m.cacheLookups, m.degraded,
		m.integrityVerdicts, m.integrityFailOpen,
		m.redisUp, m.redisPing,
	} {
		if err := f.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Add(1)
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Add(-1)
	}
}

func (m *Metrics) IncLedgerUpsert(kind, result string) {
	if m != nil {
		m.ledgerUpserts.Inc(kind, result)
	}
}

func (m *Metrics) IncCompletionEvent(kind string) {
	if m != nil {
		m.completionEvents.Inc(kind)
	}
}

func (m *Metrics) IncCacheLookup(result string) {
	if m != nil {
		m.cacheLookups.Inc(result)
	}
}

func (m *Metrics) IncDegraded(view string) {
	if m != nil {
		m.degraded.Inc(view)
	}
}

func (m *Metrics) IncIntegrityVerdict(mode string) {
	if m != nil {
		m.integrityVerdicts.Inc(mode)
	}
}

func (m *Metrics) IncIntegrityFailOpen(reason string) {
	if m != nil {
		m.integrityFailOpen.Inc(reason)
	}
}

// StartRedisCollector pings rdb on an interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *goredis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
