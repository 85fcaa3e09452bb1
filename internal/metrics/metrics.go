// Package metrics exposes Prometheus counters for sweeps, checks and alerts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Alert delivery results.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Recorder owns a registry so tests can create independent instances.
type Recorder struct {
	registry *prometheus.Registry

	Sweeps        prometheus.Counter
	SweepDuration prometheus.Histogram
	Checks        *prometheus.CounterVec
	FetchFailures prometheus.Counter
	Alerts        *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoalert_sweeps_total",
			Help: "Total number of completed sweeps over all workers",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoalert_sweep_duration_seconds",
			Help:    "Duration of a full sweep in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
		}),
		Checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geoalert_checks_total",
			Help: "Worker checks by zone status",
		}, []string{"status"}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoalert_fetch_failures_total",
			Help: "Status fetches that failed or returned an unusable payload",
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geoalert_alerts_total",
			Help: "Alerts by kind and delivery result",
		}, []string{"kind", "result"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Sweeps,
		r.SweepDuration,
		r.Checks,
		r.FetchFailures,
		r.Alerts,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
