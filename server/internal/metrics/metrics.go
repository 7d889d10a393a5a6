// Package metrics exposes ingestion and store health as Prometheus collectors
// and reads them back for the stats command.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes recorded on queuewatch_fetch_total.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Store operations recorded on queuewatch_store_errors_total.
const (
	OpAppend = "append"
	OpRead   = "read"
)

// Metric names shared with Summarize.
const (
	nameCycles    = "queuewatch_cycles_total"
	nameFetch     = "queuewatch_fetch_total"
	nameFetchDur  = "queuewatch_fetch_duration_seconds"
	nameIngested  = "queuewatch_samples_ingested_total"
	nameExcluded  = "queuewatch_samples_excluded_total"
	nameStoreErrs = "queuewatch_store_errors_total"
	nameOpenRides = "queuewatch_open_rides"
)

// Metrics holds the queuewatch collectors. A nil *Metrics is valid and
// records nothing, so callers need no guards.
type Metrics struct {
	cycles      prometheus.Counter
	fetches     *prometheus.CounterVec
	fetchDur    *prometheus.HistogramVec
	ingested    prometheus.Counter
	excluded    prometheus.Counter
	storeErrors *prometheus.CounterVec
	openRides   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: nameCycles,
			Help: "Ingestion cycles completed.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: nameFetch,
			Help: "Park feed fetches by outcome.",
		}, []string{"park", "outcome"}),
		fetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    nameFetchDur,
			Help:    "Park feed fetch latency, including decode.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 9),
		}, []string{"park"}),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: nameIngested,
			Help: "Ride samples appended to the history store.",
		}),
		excluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: nameExcluded,
			Help: "Feed rides skipped by the exclusion list.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: nameStoreErrs,
			Help: "History store failures by operation.",
		}, []string{"op"}),
		openRides: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: nameOpenRides,
			Help: "Open rides in the latest batch.",
		}),
	}
	reg.MustRegister(m.cycles, m.fetches, m.fetchDur, m.ingested, m.excluded, m.storeErrors, m.openRides)
	return m
}

// ObserveFetch records one park fetch.
func (m *Metrics) ObserveFetch(park string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	m.fetches.WithLabelValues(park, outcome).Inc()
	m.fetchDur.WithLabelValues(park).Observe(seconds)
}

// AddIngested counts samples appended and rides excluded for one park.
func (m *Metrics) AddIngested(appended, excluded int) {
	if m == nil {
		return
	}
	m.ingested.Add(float64(appended))
	m.excluded.Add(float64(excluded))
}

// StoreError counts one failed store operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// CycleDone records a finished cycle and the open-ride count of its batch.
func (m *Metrics) CycleDone(open int) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.openRides.Set(float64(open))
}
