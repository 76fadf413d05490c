// Package metrics exposes reminder delivery and run metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records reminder engine activity. It satisfies reminder.Recorder.
type Collector struct {
	deliveries  *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tandem_reminder_deliveries_total",
			Help: "Reminder deliveries by category, channel and outcome.",
		}, []string{"category", "channel", "outcome"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tandem_reminder_fetch_errors_total",
			Help: "Failed entity queries during reminder scans.",
		}, []string{"category"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tandem_reminder_runs_total",
			Help: "Completed reminder runs by kind.",
		}, []string{"kind"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tandem_reminder_run_duration_seconds",
			Help:    "Wall time of reminder runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.deliveries,
		c.fetchErrors,
		c.runs,
		c.runDuration,
	)

	return c
}

func (c *Collector) RecordDelivery(category, channel, outcome string) {
	c.deliveries.WithLabelValues(category, channel, outcome).Inc()
}

func (c *Collector) RecordFetchError(category string) {
	c.fetchErrors.WithLabelValues(category).Inc()
}

func (c *Collector) RecordRun(kind string, duration time.Duration) {
	c.runs.WithLabelValues(kind).Inc()
	c.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RegisterConnectionGauge publishes the live websocket connection count.
func RegisterConnectionGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tandem_websocket_connections",
		Help: "Open real-time connections.",
	}, func() float64 {
		return float64(count())
	}))
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
