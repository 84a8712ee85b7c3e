// Registers:
//
//	#revenue_runs_total{outcome}
//	#revenue_records_read_total
//	#revenue_records_matched_total
//	#revenue_intervals_priced_total{action}
//
// The API server exposes them on /metrics next to the go_* and process_* collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	runs           *prometheus.CounterVec
	recordsRead    prometheus.Counter
	recordsMatched prometheus.Counter
	intervals      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revenue_runs_total",
				Help: "Number of revenue calculations by outcome",
			},
			[]string{"outcome"},
		),
		recordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revenue_records_read_total",
			Help: "Dispatch log rows decoded",
		}),
		recordsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revenue_records_matched_total",
			Help: "Dispatch log rows on the requested date",
		}),
		intervals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revenue_intervals_priced_total",
				Help: "Dispatch intervals priced, by action",
			},
			[]string{"action"},
		),
	}
	m.registry.MustRegister(
		m.runs,
		m.recordsRead,
		m.recordsMatched,
		m.intervals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RunFinished(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordsRead(n int) {
	if m == nil {
		return
	}
	m.recordsRead.Add(float64(n))
}

func (m *Metrics) RecordsMatched(n int) {
	if m == nil {
		return
	}
	m.recordsMatched.Add(float64(n))
}

func (m *Metrics) IntervalPriced(action string) {
	if m == nil {
		return
	}
	m.intervals.WithLabelValues(action).Inc()
}
