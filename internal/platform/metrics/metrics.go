// Package metrics exposes Prometheus instrumentation for the forecast service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_data"
	OutcomeError        = "error"
)

// Metrics holds all collectors of the service.
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec   // labels: interval, outcome
	PipelineDuration *prometheus.HistogramVec // labels: interval
	TrainingDuration prometheus.Histogram
	FinalLoss        prometheus.Gauge
	Degenerate       prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result=hit|miss
	HTTPRequests     *prometheus.CounterVec // labels: route, method, status
	HTTPDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry, which keeps tests independent of the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_pipeline_runs_total",
			Help: "Forecast pipeline runs by outcome",
		}, []string{"interval", "outcome"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forecast_pipeline_duration_seconds",
			Help:    "End-to-end duration of a forecast pipeline run",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"interval"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_training_duration_seconds",
			Help:    "Model training time",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		FinalLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_training_final_loss",
			Help: "Last epoch loss of the most recent training run",
		}),
		Degenerate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_degenerate_metric_total",
			Help: "Results whose percentage difference was undefined",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "method"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.PipelineRuns, m.PipelineDuration, m.TrainingDuration, m.FinalLoss,
		m.Degenerate, m.CacheLookups, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// ObserveCacheLookup records a result cache lookup.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// ObservePipeline records one pipeline run.
func (m *Metrics) ObservePipeline(interval, outcome string, d time.Duration) {
	m.PipelineRuns.WithLabelValues(interval, outcome).Inc()
	m.PipelineDuration.WithLabelValues(interval).Observe(d.Seconds())
}

// ObserveTraining records a finished training run.
func (m *Metrics) ObserveTraining(d time.Duration, lossHistory []float64) {
	m.TrainingDuration.Observe(d.Seconds())
	if n := len(lossHistory); n > 0 {
		m.FinalLoss.Set(lossHistory[n-1])
	}
}

// ObserveDegenerate counts a result with an undefined percentage difference.
func (m *Metrics) ObserveDegenerate() { m.Degenerate.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
