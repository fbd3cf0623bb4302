package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP, cache, database and engine metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	optimizerDuration prometheus.Histogram
	optimizerNodes    prometheus.Counter
	optimizerPruned   prometheus.Counter
	unassignedGroups  prometheus.Counter
	placementDrafts   *prometheus.CounterVec
	conflictsFound    *prometheus.CounterVec
	roomDecisions     *prometheus.CounterVec
	moveOutcomes      *prometheus.CounterVec

	optimizerRuns        uint64
	conflictCount        uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	optimizerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_optimizer_duration_seconds",
		Help:    "Wall time of teacher assignment searches",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	})

	optimizerNodes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_optimizer_nodes_total",
		Help: "Search nodes explored by the teacher optimizer",
	})

	optimizerPruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_optimizer_pruned_total",
		Help: "Branches cut by the optimizer upper bound",
	})

	unassignedGroups := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_unassigned_groups_total",
		Help: "Groups left without a teacher candidate",
	})

	placementDrafts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_placement_results_total",
		Help: "Session placement outcomes",
	}, []string{"outcome"})

	conflictsFound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_conflicts_detected_total",
		Help: "Conflicts reported by detection scans",
	}, []string{"kind"})

	roomDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_room_decisions_total",
		Help: "Room assignment decisions by status",
	}, []string{"status"})

	moveOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_moves_total",
		Help: "Session move requests by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, dbQueryDuration, goroutines,
		optimizerDuration, optimizerNodes, optimizerPruned, unassignedGroups, placementDrafts, conflictsFound, roomDecisions, moveOutcomes)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,

		optimizerDuration: optimizerDuration,
		optimizerNodes:    optimizerNodes,
		optimizerPruned:   optimizerPruned,
		unassignedGroups:  unassignedGroups,
		placementDrafts:   placementDrafts,
		conflictsFound:    conflictsFound,
		roomDecisions:     roomDecisions,
		moveOutcomes:      moveOutcomes,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveOptimizerRun records one branch-and-bound search.
func (m *MetricsService) ObserveOptimizerRun(nodes, pruned, unassigned int, duration time.Duration) {
	if m == nil {
		return
	}
	m.optimizerDuration.Observe(duration.Seconds())
	m.optimizerNodes.Add(float64(nodes))
	m.optimizerPruned.Add(float64(pruned))
	m.unassignedGroups.Add(float64(unassigned))
	atomic.AddUint64(&m.optimizerRuns, 1)
}

// RecordPlacement counts placed drafts and shortfalls.
func (m *MetricsService) RecordPlacement(placed, omitted int) {
	if m == nil {
		return
	}
	m.placementDrafts.WithLabelValues("placed").Add(float64(placed))
	m.placementDrafts.WithLabelValues("omitted").Add(float64(omitted))
}

// RecordConflicts counts detected conflicts per kind.
func (m *MetricsService) RecordConflicts(byKind map[models.ConflictKind]int) {
	if m == nil {
		return
	}
	for kind, n := range byKind {
		m.conflictsFound.WithLabelValues(string(kind)).Add(float64(n))
		atomic.AddUint64(&m.conflictCount, uint64(n))
	}
}

// RecordRoomDecision counts one room assignment outcome.
func (m *MetricsService) RecordRoomDecision(status string) {
	if m == nil {
		return
	}
	m.roomDecisions.WithLabelValues(status).Inc()
}

// RecordMove counts one move outcome (applied, rejected, dry_run).
func (m *MetricsService) RecordMove(outcome string) {
	if m == nil {
		return
	}
	m.moveOutcomes.WithLabelValues(outcome).Inc()
}

// Snapshot returns aggregated counters for the readiness endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		OptimizerRuns:            atomic.LoadUint64(&m.optimizerRuns),
		ConflictsDetected:        atomic.LoadUint64(&m.conflictCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
