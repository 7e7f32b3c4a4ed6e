// Package metrics exposes sync pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"archie-core-shopify-sync/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricJobsTotal          = "sync_jobs_total"
	MetricSegmentsTotal      = "sync_segments_total"
	MetricRecordsTotal       = "sync_records_total"
	MetricFetchAttemptsTotal = "shopify_fetch_attempts_total"
	MetricQueueRegistrySize  = "sync_queue_registry_size"
)

// Collector implements ports.SyncMetrics on a private registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Collector struct {
	registry *prometheus.Registry

	jobsTotal          *prometheus.CounterVec
	segmentsTotal      *prometheus.CounterVec
	recordsTotal       *prometheus.CounterVec
	fetchAttemptsTotal *prometheus.CounterVec
	queueRegistrySize  prometheus.Gauge
}

// NewCollector registers the sync collectors plus the Go and process collectors
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricJobsTotal,
			Help: "Sync invocations by type and outcome.",
		}, []string{"type", "outcome"}),
		segmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSegmentsTotal,
			Help: "Finished sync segments by segment and final status.",
		}, []string{"segment", "status"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecordsTotal,
			Help: "Records upserted by segment.",
		}, []string{"segment"}),
		fetchAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFetchAttemptsTotal,
			Help: "Upstream page requests by outcome.",
		}, []string{"outcome"}),
		queueRegistrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricQueueRegistrySize,
			Help: "Number of per-tenant queues the consumer listens on.",
		}),
	}

	registry.MustRegister(
		c.jobsTotal,
		c.segmentsTotal,
		c.recordsTotal,
		c.fetchAttemptsTotal,
		c.queueRegistrySize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveJob(jobType, outcome string) {
	c.jobsTotal.WithLabelValues(jobType, outcome).Inc()
}

func (c *Collector) ObserveSegment(segment domain.Segment, status domain.SyncRunStatus, records int) {
	c.segmentsTotal.WithLabelValues(string(segment), string(status)).Inc()
	if records > 0 {
		c.recordsTotal.WithLabelValues(string(segment)).Add(float64(records))
	}
}

func (c *Collector) ObserveFetchAttempt(outcome string) {
	c.fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetQueueRegistrySize(size int) {
	c.queueRegistrySize.Set(float64(size))
}
