// Package stats provides core statistical functions for numerical analysis.
package stats

import (
	"cmp"
	"math"
	"slices"
)

const percentileMedian = 0.5

// Sum returns the sum of all elements in values.
// Returns the zero value of T for an empty slice.
func Sum[T cmp.Ordered](values []T) T {
	var result T

	for _, v := range values {
		result += v
	}

	return result
}

// Mean returns the arithmetic mean of values and whether it is defined.
// The mean of an empty slice is undefined.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	return Sum(values) / float64(len(values)), true
}

// Percentile interpolates the p-th quantile (p in [0, 1]) between the two
// closest order statistics. It is undefined for an empty slice. values is
// left unsorted.
func Percentile(values []float64, p float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := slices.Sorted(slices.Values(values))
	pos := p * float64(len(sorted)-1)
	below := math.Floor(pos)
	i := int(below)

	if i+1 >= len(sorted) {
		return sorted[i], true
	}

	return sorted[i] + (pos-below)*(sorted[i+1]-sorted[i]), true
}

// Median is the 0.5 quantile.
func Median(values []float64) (float64, bool) {
	return Percentile(values, percentileMedian)
}

// Ranks assigns 1-based ranks to values, giving tied values the average of
// the ranks they span. It also returns the tie term Σ(t³ − t) over every
// group of t tied values, used to correct rank-test variances.
func Ranks(values []float64) (ranks []float64, tieTerm float64) {
	count := len(values)
	order := make([]int, count)

	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})

	ranks = make([]float64, count)

	for start := 0; start < count; {
		end := start + 1
		for end < count && values[order[end]] == values[order[start]] {
			end++
		}

		avg := float64(start+end+1) / 2

		for _, idx := range order[start:end] {
			ranks[idx] = avg
		}

		if ties := float64(end - start); ties > 1 {
			tieTerm += ties*ties*ties - ties
		}

		start = end
	}

	return ranks, tieTerm
}
