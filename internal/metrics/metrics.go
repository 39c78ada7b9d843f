// ============================================================================
// Drone Dispatch Metrics - Prometheus
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collects and exposes search progress as Prometheus metrics
//
// Metrics:
//
//   1. Counters (labelled by strategy):
//      - dispatch_search_steps_total: mutation steps or generations run
//      - dispatch_search_accepted_total: moves accepted as current state
//      - dispatch_search_improvements_total: best schedule replacements
//      - dispatch_runs_total: planner runs, also labelled by outcome
//      - dispatch_population_dead_ends_total: population builds that
//        stopped with demand left (unlabelled)
//
//   2. Histograms:
//      - dispatch_population_build_seconds: parallel construction of
//        generation zero
//      - dispatch_run_seconds: end-to-end planner run time
//
//   3. Gauges (labelled by strategy):
//      - dispatch_best_fitness: fitness of the best schedule seen
//      - dispatch_current_fitness: fitness of the current search state
//      - dispatch_population_distinct: different schedules in the last
//        population built (unlabelled)
//
// Example queries:
//
//   # acceptance ratio of annealing
//   rate(dispatch_search_accepted_total{strategy="annealing"}[1m])
//     / rate(dispatch_search_steps_total{strategy="annealing"}[1m])
//
//   # 95th percentile population build time
//   histogram_quantile(0.95, dispatch_population_build_seconds_bucket)
//
// HTTP endpoint:
//   /metrics, default port 9090
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records search progress. It satisfies search.Observer.
type Collector struct {
	steps        *prometheus.CounterVec
	accepted     *prometheus.CounterVec
	improvements *prometheus.CounterVec
	runs         *prometheus.CounterVec
	deadEnds     prometheus.Counter

	populationBuild prometheus.Histogram
	runDuration     prometheus.Histogram

	bestFitness    *prometheus.GaugeVec
	currentFitness *prometheus.GaugeVec
	distinct       prometheus.Gauge
}

// NewCollector creates a collector and registers it with reg, or with the
// default registerer when reg is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_search_steps_total",
			Help: "Total number of search steps or generations executed",
		}, []string{"strategy"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_search_accepted_total",
			Help: "Total number of moves accepted as the current state",
		}, []string{"strategy"}),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_search_improvements_total",
			Help: "Total number of times the best schedule changed",
		}, []string{"strategy"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_runs_total",
			Help: "Total number of planner runs",
		}, []string{"strategy", "outcome"}),
		deadEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_population_dead_ends_total",
			Help: "Total number of population builds that stopped with demand left",
		}),
		populationBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_population_build_seconds",
			Help:    "Time to build the initial population in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_run_seconds",
			Help:    "Planner run time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dispatch_best_fitness",
			Help: "Fitness of the best schedule found",
		}, []string{"strategy"}),
		currentFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dispatch_current_fitness",
			Help: "Fitness of the current search state",
		}, []string{"strategy"}),
		distinct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_population_distinct",
			Help: "Number of different schedules in the last population built",
		}),
	}

	reg.MustRegister(
		c.steps,
		c.accepted,
		c.improvements,
		c.runs,
		c.deadEnds,
		c.populationBuild,
		c.runDuration,
		c.bestFitness,
		c.currentFitness,
		c.distinct,
	)

	return c
}

// OnStep records one search step.
func (c *Collector) OnStep(strategy string, _ int, current float64, accepted bool) {
	c.steps.WithLabelValues(strategy).Inc()
	c.currentFitness.WithLabelValues(strategy).Set(current)
	if accepted {
		c.accepted.WithLabelValues(strategy).Inc()
	}
}

// OnImprovement records a new best schedule.
func (c *Collector) OnImprovement(strategy string, _ int, best float64) {
	c.improvements.WithLabelValues(strategy).Inc()
	c.bestFitness.WithLabelValues(strategy).Set(best)
}

// OnPopulation records the build time, diversity and dead ends of a
// freshly built population.
func (c *Collector) OnPopulation(_, distinct, deadEnds int, elapsed time.Duration) {
	c.populationBuild.Observe(elapsed.Seconds())
	c.distinct.Set(float64(distinct))
	c.deadEnds.Add(float64(deadEnds))
}

// RecordRun records a finished planner run.
func (c *Collector) RecordRun(strategy string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.runs.WithLabelValues(strategy, outcome).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// Handler serves the metrics of gatherer, or of the default gatherer when
// gatherer is nil.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on port and blocks.
//
// Parameters:
//   - port: HTTP port
//
// Returns:
//   - error: listen or serve failure
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(nil))
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
