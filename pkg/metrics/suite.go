package metrics

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/Sumatoshi-tech/featstat/pkg/halstead"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// Snapshot errors.
var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrMissingMetric = errors.New("missing metric")
)

// Suite bundles one value series per tracked metric.
// The zero value is an empty suite.
type Suite struct {
	series [metricCount]values.Series
}

// Snapshot is the exported projection of a suite: metric name to summary.
type Snapshot map[string]values.Summary

// NewSuite creates an empty suite.
func NewSuite() *Suite {
	return &Suite{}
}

// SuiteFromRecord seeds a suite with one entry per metric taken from a
// record's metrics object. Missing, null or non-numeric entries become
// undefined values; derived metrics are undefined when any Halstead base
// count is.
func SuiteFromRecord(record gjson.Result) *Suite {
	suite := &Suite{}
	acc, countsOK := HalsteadCounts(record)

	for m := range metricCount {
		def := catalog[m]

		var v values.Value

		switch {
		case def.derive == nil:
			v = numberAt(record, def.MetricPath)
		case countsOK:
			v = def.derive(acc)
		default:
			v = values.Undefined()
		}

		suite.series[m].Append(v)
	}

	return suite
}

// HalsteadCounts builds a single-observation accumulator from a record's
// four Halstead base counts. It reports false when any count is not a number.
func HalsteadCounts(record gjson.Result) (halstead.Accumulator, bool) {
	var counts [4]float64

	for i, m := range []Metric{UOperators, Operators, UOperands, Operands} {
		num, ok := numberAt(record, m.Path()).Get()
		if !ok {
			return halstead.Accumulator{}, false
		}

		counts[i] = num
	}

	return halstead.New(counts[0], counts[1], counts[2], counts[3]), true
}

func numberAt(record gjson.Result, path string) values.Value {
	res := record.Get(path)
	if res.Type != gjson.Number {
		return values.Undefined()
	}

	return values.Of(res.Float())
}

// Series returns the series of metric m.
func (s *Suite) Series(m Metric) *values.Series {
	return &s.series[m]
}

// Merge appends every series of other to the matching series of s.
func (s *Suite) Merge(other *Suite) {
	if other == nil {
		return
	}

	for m := range metricCount {
		s.series[m].Merge(&other.series[m])
	}
}

// Snapshot projects every series to its summary.
func (s *Suite) Snapshot() Snapshot {
	snap := make(Snapshot, metricCount)

	for m := range metricCount {
		snap[catalog[m].MetricName] = s.series[m].Summary()
	}

	return snap
}

// SuiteFromSnapshot rebuilds a suite from its exported form. The snapshot
// must contain exactly the catalog's metric names.
func SuiteFromSnapshot(snap Snapshot) (*Suite, error) {
	suite := &Suite{}

	for name, summary := range snap {
		m, ok := Parse(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
		}

		suite.series[m] = *values.SeriesFromSummary(summary)
	}

	for m := range metricCount {
		if _, ok := snap[catalog[m].MetricName]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingMetric, catalog[m].MetricName)
		}
	}

	return suite, nil
}
