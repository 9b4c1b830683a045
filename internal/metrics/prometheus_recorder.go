package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "cottarelease"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	stepDuration     *prom.HistogramVec
	stepResults      *prom.CounterVec
	releaseDuration  prom.Histogram
	releaseOutcome   *prom.CounterVec
	transferDuration *prom.HistogramVec
	transferRetries  *prom.CounterVec
	buildNumber      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "step_duration_seconds",
		Help:      "Duration of individual release steps",
		Buckets:   prom.DefBuckets,
	}, []string{"step"})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "step_results_total",
		Help:      "Release step results by outcome",
	}, []string{"step", "result"})
	pr.releaseDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "release_duration_seconds",
		Help:      "Total release run duration",
		Buckets:   prom.ExponentialBuckets(1, 2, 10),
	})
	pr.releaseOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "release_outcomes_total",
		Help:      "Release runs by final status",
	}, []string{"outcome"})
	pr.transferDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "transfer_duration_seconds",
		Help:      "Duration of individual remote transfers",
		Buckets:   prom.ExponentialBuckets(0.25, 2, 10),
	}, []string{"transfer", "result"})
	pr.transferRetries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "transfer_retries_total",
		Help:      "Remote transfer retries",
	}, []string{"transfer"})
	pr.buildNumber = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "build_number",
		Help:      "Build number of the last release run",
	})
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.releaseDuration, pr.releaseOutcome,
		pr.transferDuration, pr.transferRetries, pr.buildNumber)
	return pr
}

// Registry returns the registry holding the metrics.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveReleaseDuration(d time.Duration) {
	if p == nil || p.releaseDuration == nil {
		return
	}
	p.releaseDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncReleaseOutcome(outcome OutcomeLabel) {
	if p == nil || p.releaseOutcome == nil {
		return
	}
	p.releaseOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveTransferDuration(transfer string, d time.Duration, success bool) {
	if p == nil || p.transferDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.transferDuration.WithLabelValues(transfer, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTransferRetry(transfer string) {
	if p == nil || p.transferRetries == nil {
		return
	}
	p.transferRetries.WithLabelValues(transfer).Inc()
}

func (p *PrometheusRecorder) SetBuildNumber(n int) {
	if p == nil || p.buildNumber == nil {
		return
	}
	p.buildNumber.Set(float64(n))
}

// WriteTextfile writes the gathered metrics to path in the textfile
// collector format. The write is atomic.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
