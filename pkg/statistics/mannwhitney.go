// Package statistics compares feature-present and feature-absent samples
// with the Mann-Whitney U test and corrects the resulting p-values for
// multiple comparisons.
package statistics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Sumatoshi-tech/featstat/pkg/alg/stats"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// ErrEmptySample is returned when a rank test receives an empty sample.
var ErrEmptySample = errors.New("empty sample")

// continuityCorrection is subtracted from |U − μ| before normalization.
const continuityCorrection = 0.5

// MannWhitneyResult holds the outcome of a two-sided Mann-Whitney U test.
type MannWhitneyResult struct {
	// U1 is the U statistic of the first sample.
	U1 float64
	// Z is the continuity-corrected normal score of max(U1, U2).
	Z float64
	// PValue is the two-sided p-value, undefined when every value is tied.
	PValue values.Value
	// Proportion is U1 / (n1 · n2); 0.5 means no difference.
	Proportion values.Value
}

// MannWhitneyU runs the two-sided Mann-Whitney U test on x and y using the
// normal approximation with tie-corrected variance and a continuity
// correction of 0.5 applied to max(U1, U2).
func MannWhitneyU(x, y []float64) (MannWhitneyResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return MannWhitneyResult{}, ErrEmptySample
	}

	n1 := float64(len(x))
	n2 := float64(len(y))
	total := n1 + n2

	combined := make([]float64, 0, len(x)+len(y))
	combined = append(combined, x...)
	combined = append(combined, y...)

	ranks, tieTerm := stats.Ranks(combined)
	rankSum := stats.Sum(ranks[:len(x)])

	u1 := rankSum - n1*(n1+1)/2
	u2 := n1*n2 - u1
	bigU := math.Max(u1, u2)

	result := MannWhitneyResult{
		U1:         u1,
		PValue:     values.Undefined(),
		Proportion: proportion(u1, n1, n2),
	}

	mean := n1 * n2 / 2
	variance := n1 * n2 / 12 * ((total + 1) - tieTerm/(total*(total-1)))

	if variance <= 0 || math.IsNaN(variance) {
		return result, nil
	}

	result.Z = (bigU - mean - continuityCorrection) / math.Sqrt(variance)

	p := 2 * distuv.UnitNormal.Survival(result.Z)
	result.PValue = values.Of(math.Min(p, 1))

	return result, nil
}

func proportion(u1, n1, n2 float64) values.Value {
	if n1 == 0 || n2 == 0 {
		return values.Undefined()
	}

	return values.Of(u1 / (n1 * n2))
}
