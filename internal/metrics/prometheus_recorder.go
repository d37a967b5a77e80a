package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	stageDuration     *prom.HistogramVec
	runDuration       prom.Histogram
	runOutcome        *prom.CounterVec
	categoryDocuments *prom.GaugeVec
	linkOutcomes      *prom.CounterVec
	collisions        prom.Gauge
}

// NewPrometheusRecorder constructs and registers the build metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "deepcrawl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "deepcrawl",
			Name:      "run_duration_seconds",
			Help:      "Total build run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "deepcrawl",
			Name:      "run_outcomes_total",
			Help:      "Build runs by final outcome",
		}, []string{"outcome"}),
		categoryDocuments: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "deepcrawl",
			Name:      "category_documents",
			Help:      "Documents per category in the last run",
		}, []string{"category"}),
		linkOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "deepcrawl",
			Name:      "link_outcomes_total",
			Help:      "Link rewrite outcomes",
		}, []string{"outcome"}),
		collisions: prom.NewGauge(prom.GaugeOpts{
			Namespace: "deepcrawl",
			Name:      "path_collisions",
			Help:      "Canonical path collisions disambiguated in the last run",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.runOutcome,
		pr.categoryDocuments, pr.linkOutcomes, pr.collisions)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetCategoryDocuments(category string, n int) {
	if p == nil || p.categoryDocuments == nil {
		return
	}
	p.categoryDocuments.WithLabelValues(category).Set(float64(n))
}

func (p *PrometheusRecorder) AddLinkOutcome(outcome string, n int) {
	if p == nil || p.linkOutcomes == nil {
		return
	}
	p.linkOutcomes.WithLabelValues(outcome).Add(float64(n))
}

func (p *PrometheusRecorder) SetCollisions(n int) {
	if p == nil || p.collisions == nil {
		return
	}
	p.collisions.Set(float64(n))
}
