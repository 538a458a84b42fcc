// Package prom exports inference metrics in the Prometheus format.
package prom

import (
	"time"

	"gamesage/internal/domain/inference"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder struct {
	runs       *prometheus.CounterVec
	failures   *prometheus.CounterVec
	rulesFired prometheus.Counter
	duration   prometheus.Histogram
}

// NewRecorder registers the inference collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesage_inference_runs_total",
				Help: "Completed inference runs by termination state",
			},
			[]string{"termination"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesage_inference_failures_total",
				Help: "Inference requests that produced no result",
			},
			[]string{"reason"},
		),
		rulesFired: f.NewCounter(prometheus.CounterOpts{
			Name: "gamesage_rules_fired_total",
			Help: "Rule firings across all runs",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gamesage_inference_duration_seconds",
			Help:    "Wall time of inference runs",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (r *Recorder) RecordRun(termination inference.Termination, rulesFired int, elapsed time.Duration) {
	r.runs.WithLabelValues(string(termination)).Inc()
	r.rulesFired.Add(float64(max(rulesFired, 0)))
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) RecordFailure(reason string) {
	r.failures.WithLabelValues(reason).Inc()
}
