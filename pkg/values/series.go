package values

import (
	"slices"

	"github.com/Sumatoshi-tech/featstat/pkg/alg/stats"
)

// Series is an ordered, append-only sequence of optional numbers collected
// for one metric of one bucket. The zero value is an empty series.
type Series struct {
	entries []Value
}

// NewSeries returns a series seeded with the given entries.
func NewSeries(entries ...Value) *Series {
	return &Series{entries: slices.Clone(entries)}
}

// Merge appends all raw entries of other, undefined markers included.
func (s *Series) Merge(other *Series) {
	if other == nil {
		return
	}

	s.entries = append(s.entries, other.entries...)
}

// Append adds a single entry.
func (s *Series) Append(v Value) {
	s.entries = append(s.entries, v)
}

// Raw returns a copy of every entry, including undefined ones.
func (s *Series) Raw() []Value {
	return slices.Clone(s.entries)
}

// Len returns the number of raw entries.
func (s *Series) Len() int {
	return len(s.entries)
}

// Filtered returns the defined entries in their original order.
func (s *Series) Filtered() []float64 {
	out := make([]float64, 0, len(s.entries))

	for _, v := range s.entries {
		if num, ok := v.Get(); ok {
			out = append(out, num)
		}
	}

	return out
}

// Sum returns the sum of the defined entries.
func (s *Series) Sum() float64 {
	return stats.Sum(s.Filtered())
}

// Count returns the number of defined entries.
func (s *Series) Count() int {
	count := 0

	for _, v := range s.entries {
		if v.Defined() {
			count++
		}
	}

	return count
}

// Average returns Sum()/Count(), or undefined for a series without defined entries.
func (s *Series) Average() Value {
	mean, ok := stats.Mean(s.Filtered())
	if !ok {
		return Undefined()
	}

	return Of(mean)
}

// Summary is the exported projection of a series.
type Summary struct {
	Values  []float64 `json:"values"  yaml:"values"`
	Average Value     `json:"average" yaml:"average"`
	Count   int       `json:"count"   yaml:"count"`
}

// Summary projects the series to its defined values, average and count.
func (s *Series) Summary() Summary {
	return Summary{
		Values:  s.Filtered(),
		Average: s.Average(),
		Count:   s.Count(),
	}
}

// SeriesFromSummary rebuilds a series from an exported summary. Only the
// defined values survive export, so the result contains no undefined entries.
func SeriesFromSummary(sum Summary) *Series {
	entries := make([]Value, len(sum.Values))

	for i, num := range sum.Values {
		entries[i] = Of(num)
	}

	return &Series{entries: entries}
}
