package statistics

import (
	"errors"
	"math"

	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// ErrAlreadyCorrected is returned when a correction is applied twice.
var ErrAlreadyCorrected = errors.New("results are already corrected")

// Bonferroni multiplies every defined p-value by the number of
// (feature, metric) pairs in the grid and caps the product at 1. Pairs that
// were skipped still count toward the factor. Cells with an undefined
// p-value keep an undefined corrected p-value.
func Bonferroni(results *Results) error {
	if results.corrected {
		return ErrAlreadyCorrected
	}

	factor := float64(results.Size())

	for _, byMetric := range results.grid {
		for _, byTest := range byMetric {
			for test, cell := range byTest {
				cell.CorrectedPValue = correct(cell.PValue, factor)
				byTest[test] = cell
			}
		}
	}

	results.corrected = true

	return nil
}

func correct(p values.Value, factor float64) values.Value {
	raw, ok := p.Get()
	if !ok {
		return values.Undefined()
	}

	return values.Of(math.Min(raw*factor, 1))
}
