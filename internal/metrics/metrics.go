// Package metrics exposes prometheus collectors for optimization runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/prospector/internal/optimization"
)

const namespace = "prospector"

// Collector records evaluations, restarts and run outcomes. It satisfies
// neldermead.Observer.
type Collector struct {
	Evaluations prometheus.Counter
	Restarts    *prometheus.CounterVec
	Runs        prometheus.Counter
	RunEvals    prometheus.Histogram
	BestValue   prometheus.Gauge
}

// NewCollector creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective function evaluations performed.",
		}),
		Restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Completed simplex restarts by stop reason.",
		}, []string{"reason"}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished optimization runs.",
		}),
		RunEvals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_evaluations",
			Help:      "Evaluations spent per run.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
		}),
		BestValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_best_value",
			Help:      "Lowest value found by the most recent run.",
		}),
	}

	if reg != nil {
		reg.MustRegister(c.Evaluations, c.Restarts, c.Runs, c.RunEvals, c.BestValue)
	}
	return c
}

// ObserveEvaluation counts one objective call.
func (c *Collector) ObserveEvaluation(float64) {
	c.Evaluations.Inc()
}

// ObserveRestart counts a finished restart under its stop reason.
func (c *Collector) ObserveRestart(rec optimization.RestartRecord) {
	c.Restarts.WithLabelValues(string(rec.StopReason)).Inc()
}

// ObserveRun records the totals of a finished run.
func (c *Collector) ObserveRun(result *optimization.Result) {
	c.Runs.Inc()
	c.RunEvals.Observe(float64(result.Evaluations))
	if best, ok := result.Best(); ok {
		c.BestValue.Set(best.ValueAtBestPoint)
	}
}
