package metrics

import (
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Summary is the subset of a queuewatch /metrics page the stats command shows.
type Summary struct {
	Cycles       float64
	FetchOK      float64
	FetchFailed  float64
	Ingested     float64
	Excluded     float64
	StoreErrors  float64
	OpenRides    float64
	FailedByPark map[string]float64
}

// Summarize parses a Prometheus text exposition from r. Families the page
// does not carry count as zero.
func Summarize(r io.Reader) (*Summary, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("metrics: parse text: %w", err)
	}

	s := &Summary{
		Cycles:       sumFamily(mfs[nameCycles], nil),
		Ingested:     sumFamily(mfs[nameIngested], nil),
		Excluded:     sumFamily(mfs[nameExcluded], nil),
		StoreErrors:  sumFamily(mfs[nameStoreErrs], nil),
		OpenRides:    sumFamily(mfs[nameOpenRides], nil),
		FetchOK:      sumFamily(mfs[nameFetch], map[string]string{"outcome": OutcomeOK}),
		FetchFailed:  sumFamily(mfs[nameFetch], map[string]string{"outcome": OutcomeFailed}),
		FailedByPark: make(map[string]float64),
	}
	if mf := mfs[nameFetch]; mf != nil {
		for _, m := range mf.GetMetric() {
			if label(m, "outcome") == OutcomeFailed {
				s.FailedByPark[label(m, "park")] += value(m)
			}
		}
	}
	return s, nil
}

// sumFamily adds up every sample in mf whose labels include match.
// Returns 0 if mf is nil (metric not present on the page).
func sumFamily(mf *dto.MetricFamily, match map[string]string) float64 {
	if mf == nil {
		return 0
	}
	var total float64
outer:
	for _, m := range mf.GetMetric() {
		for k, v := range match {
			if label(m, k) != v {
				continue outer
			}
		}
		total += value(m)
	}
	return total
}

func value(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
