package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Sync metrics
	SyncFlushes        *prometheus.CounterVec
	SyncDuration       *prometheus.HistogramVec
	SyncEntityFailures *prometheus.CounterVec

	// Canvas metrics
	OverlapRepairs prometheus.Counter
	UndoRestores   prometheus.Counter
	Promotions     prometheus.Counter

	// Repository metrics
	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SyncFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_flushes_total",
				Help:      "Sync flushes by change kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_flush_duration_seconds",
				Help:      "Sync flush duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		SyncEntityFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_entity_failures_total",
				Help:      "Entities skipped during content reconciliation",
			},
			[]string{"entity"},
		),
		OverlapRepairs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overlap_repairs_total",
				Help:      "Nodes moved by overlap repair",
			},
		),
		UndoRestores: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "undo_restores_total",
				Help:      "Undo snapshots restored",
			},
		),
		Promotions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "temp_promotions_total",
				Help:      "Temporary plot points promoted",
			},
		),
		DBOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_operations_total",
				Help:      "Total number of database operations",
			},
			[]string{"operation", "status"},
		),
		DBDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_operation_duration_seconds",
				Help:      "Database operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.SyncFlushes,
		c.SyncDuration,
		c.SyncEntityFailures,
		c.OverlapRepairs,
		c.UndoRestores,
		c.Promotions,
		c.DBOperations,
		c.DBDuration,
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordFlush records one sync flush
func (c *Collector) RecordFlush(kind string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.SyncFlushes.WithLabelValues(kind, outcome).Inc()
	c.SyncDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordEntityFailure counts a skipped entity
func (c *Collector) RecordEntityFailure(entity string) {
	if c == nil {
		return
	}
	c.SyncEntityFailures.WithLabelValues(entity).Inc()
}

// RecordDBOperation records a repository call
func (c *Collector) RecordDBOperation(operation string, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.DBOperations.WithLabelValues(operation, status).Inc()
	c.DBDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// AddRepairs counts nodes moved by overlap repair
func (c *Collector) AddRepairs(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.OverlapRepairs.Add(float64(n))
}

// IncUndo counts an undo restore
func (c *Collector) IncUndo() {
	if c != nil {
		c.UndoRestores.Inc()
	}
}

// IncPromotion counts a temp entity promotion
func (c *Collector) IncPromotion() {
	if c != nil {
		c.Promotions.Inc()
	}
}
