package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitekicker"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration      *prom.HistogramVec
	buildDuration      prom.Histogram
	stageResults       *prom.CounterVec
	buildOutcome       *prom.CounterVec
	cacheLookups       *prom.CounterVec
	derivativeDuration prom.Histogram
	poolSize           prom.Gauge
	entries            *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual site build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "derivative_cache_lookups_total",
			Help:      "Image derivative cache lookups by result",
		}, []string{"result"}),
		derivativeDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "derivative_duration_seconds",
			Help:      "Time spent generating one image derivative",
			Buckets:   prom.DefBuckets,
		}),
		poolSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_size",
			Help:      "Number of derivative workers used by the last build",
		}),
		entries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Entries built by the last build",
		}, []string{"state"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.cacheLookups, pr.derivativeDuration, pr.poolSize, pr.entries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(result CacheLabel) {
	if p == nil {
		return
	}
	p.cacheLookups.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveDerivativeDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.derivativeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWorkerPoolSize(n int) {
	if p == nil {
		return
	}
	p.poolSize.Set(float64(n))
}

func (p *PrometheusRecorder) SetEntries(total, degraded int) {
	if p == nil {
		return
	}
	p.entries.WithLabelValues("total").Set(float64(total))
	p.entries.WithLabelValues("degraded").Set(float64(degraded))
}
