package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	apiErrors      *CounterVec
	symptomLogs    *CounterVec
	classification *CounterVec
	predictions    *CounterVec
	trendRefresh   *CounterVec
	trendDuration  *HistogramVec
	trendSubjects  *Gauge
	cacheRequests  *CounterVec
	dbStats        *GaugeVec
	redisUp        *Gauge
	redisPing      *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current is nil until Init runs with metrics enabled. Every method on a nil
// *Metrics is a no-op.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool, scrapeInterval time.Duration) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New(scrapeInterval)
		if log != nil {
			log.Info("Metrics enabled", "scrape_interval", instance.scrapeInterval.String())
		}
	})
	return instance
}

// New builds an unregistered collector set.
func New(scrapeInterval time.Duration) *Metrics {
	if scrapeInterval <= 0 {
		scrapeInterval = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("rm_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"rm_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:    NewGauge("rm_api_inflight_requests", "In-flight API requests."),
		apiErrors:      NewCounterVec("rm_api_errors_total", "API error responses by code.", []string{"code"}),
		symptomLogs:    NewCounterVec("rm_symptom_logs_total", "Symptom records accepted, by exercise flag.", []string{"exercise_done"}),
		classification: NewCounterVec("rm_classifications_total", "Rule classifications by result/tier.", []string{"classification", "tier"}),
		predictions:    NewCounterVec("rm_predictions_total", "Predictions served by source/result.", []string{"source", "result"}),
		trendRefresh:   NewCounterVec("rm_trend_refresh_total", "Scheduled trend refresh runs by status.", []string{"status"}),
		trendDuration: NewHistogramVec(
			"rm_trend_refresh_duration_seconds",
			"Scheduled trend refresh duration in seconds.",
			[]string{"status"},
			[]float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		),
		trendSubjects: NewGauge("rm_trend_refresh_subjects", "Subjects refreshed by the last trend refresh."),
		cacheRequests: NewCounterVec("rm_cache_requests_total", "Analysis cache lookups by kind/result.", []string{"kind", "result"}),
		dbStats:       NewGaugeVec("rm_db_stats", "database/sql pool statistics.", []string{"stat"}),
		redisUp:       NewGauge("rm_redis_up", "1 when the last Redis ping succeeded."),
		redisPing:     NewGauge("rm_redis_ping_seconds", "Latency of the last Redis ping."),

		scrapeInterval: scrapeInterval,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.symptomLogs, m.classification, m.predictions,
		m.trendRefresh, m.trendDuration, m.trendSubjects,
		m.cacheRequests, m.dbStats, m.redisUp, m.redisPing,
	}
	for _, c := range writers {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) IncAPIError(code string) {
	if m == nil {
		return
	}
	m.apiErrors.Inc(code)
}

func (m *Metrics) IncSymptomLog(exerciseDone bool) {
	if m == nil {
		return
	}
	m.symptomLogs.Inc(strconv.FormatBool(exerciseDone))
}

func (m *Metrics) IncClassification(tag string, tier int) {
	if m == nil {
		return
	}
	m.classification.Inc(tag, strconv.Itoa(tier))
}

func (m *Metrics) IncPrediction(source, result string) {
	if m == nil {
		return
	}
	m.predictions.Inc(source, result)
}

func (m *Metrics) ObserveTrendRefresh(refreshed int, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.trendRefresh.Inc(status)
	m.trendDuration.Observe(dur.Seconds(), status)
	m.trendSubjects.Set(float64(refreshed))
}

func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.Inc(kind, result)
}

// StartDBCollector samples the connection pool until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings addr on every scrape interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *goredis.Options) {
	if m == nil || opts == nil || strings.TrimSpace(opts.Addr) == "" {
		return
	}
	rdb := goredis.NewClient(opts)
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
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
