// Package metrics exposes refresh-cycle metrics for Prometheus.
package metrics

import (
	"net/http"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "posko"

// Recorder holds the collectors for pipeline runs on a private registry.
type Recorder struct {
	registry       *prometheus.Registry
	refreshes      *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	sourceRows     *prometheus.GaugeVec
	records        prometheus.Gauge
	issues         prometheus.Gauge
	lastSuccess    prometheus.Gauge
	duration       prometheus.Histogram
}

// NewRecorder creates and registers the collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Pipeline runs by outcome (ok, auth_error, error).",
		}, []string{"outcome"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_failures_total",
			Help:      "Source fetches that failed and contributed no rows.",
		}, []string{"source"}),
		sourceRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Rows contributed by each source in the last run.",
		}, []string{"source"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records in the last unified table.",
		}),
		issues: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flagged_issues",
			Help:      "Flagged issue rows in the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of completed runs.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	r.registry.MustRegister(
		r.refreshes,
		r.sourceFailures,
		r.sourceRows,
		r.records,
		r.issues,
		r.lastSuccess,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records the outcome of one run. err is the error Run returned.
func (r *Recorder) Observe(res *pipeline.Result, err error) {
	if err != nil {
		outcome := "error"
		if common.IsFatal(err) {
			outcome = "auth_error"
		}
		r.refreshes.WithLabelValues(outcome).Inc()
		return
	}

	r.refreshes.WithLabelValues("ok").Inc()
	r.records.Set(float64(res.Table.Len()))
	r.issues.Set(float64(len(res.Summary.Issues)))
	r.duration.Observe(res.Duration.Seconds())
	r.lastSuccess.Set(float64(res.StartedAt.Unix()))

	for _, s := range res.Sources {
		if !s.OK() {
			r.sourceFailures.WithLabelValues(s.SourceID).Inc()
		}
		r.sourceRows.WithLabelValues(s.SourceID).Set(float64(s.Rows))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
