// Package halstead derives the Halstead software-science suite from operator
// and operand counts and accumulates those counts across code units.
package halstead

import (
	"math"

	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// Halstead formula constants.
const (
	// TimeConstant is the Stroud number used in time-to-program estimation (18 moments per second).
	TimeConstant = 18.0
	// BugConstant is the number of elementary mental discriminations per delivered bug.
	BugConstant = 3000.0
	// BugExponent is the exponent applied to effort in the delivered bugs estimation.
	BugExponent = 2.0 / 3.0
	// DifficultyDivisor is used in the difficulty formula: n1/2 * (N2/n2).
	DifficultyDivisor = 2.0
)

// Accumulator holds the four Halstead base counters and the number of
// observations merged into it. Every derived quantity is recomputed from the
// counters on each call; nothing derived is stored.
type Accumulator struct {
	distinctOperators float64 // η1
	totalOperators    float64 // N1
	distinctOperands  float64 // η2
	totalOperands     float64 // N2
	observations      float64
}

// New creates an accumulator for a single observation. The observation count
// is 1 when any counter is nonzero and 0 otherwise.
func New(distinctOperators, totalOperators, distinctOperands, totalOperands float64) Accumulator {
	acc := Accumulator{
		distinctOperators: distinctOperators,
		totalOperators:    totalOperators,
		distinctOperands:  distinctOperands,
		totalOperands:     totalOperands,
	}

	if distinctOperators+totalOperators+distinctOperands+totalOperands > 0 {
		acc.observations = 1
	}

	return acc
}

// Merge adds other's counters and observation count to acc.
func (acc *Accumulator) Merge(other Accumulator) {
	acc.distinctOperators += other.distinctOperators
	acc.totalOperators += other.totalOperators
	acc.distinctOperands += other.distinctOperands
	acc.totalOperands += other.totalOperands
	acc.observations += other.observations
}

// DistinctOperators returns η1.
func (acc Accumulator) DistinctOperators() float64 { return acc.distinctOperators }

// TotalOperators returns N1.
func (acc Accumulator) TotalOperators() float64 { return acc.totalOperators }

// DistinctOperands returns η2.
func (acc Accumulator) DistinctOperands() float64 { return acc.distinctOperands }

// TotalOperands returns N2.
func (acc Accumulator) TotalOperands() float64 { return acc.totalOperands }

// Observations returns the summed observation count.
func (acc Accumulator) Observations() float64 { return acc.observations }

// Length returns N1 + N2.
func (acc Accumulator) Length() values.Value {
	return values.Of(acc.totalOperators + acc.totalOperands)
}

// Vocabulary returns η1 + η2.
func (acc Accumulator) Vocabulary() values.Value {
	return values.Of(acc.distinctOperators + acc.distinctOperands)
}

// EstimatedLength returns η1·log2(η1) + η2·log2(η2). Undefined unless both η are positive.
func (acc Accumulator) EstimatedLength() values.Value {
	if acc.distinctOperators <= 0 || acc.distinctOperands <= 0 {
		return values.Undefined()
	}

	return values.Of(acc.distinctOperators*math.Log2(acc.distinctOperators) +
		acc.distinctOperands*math.Log2(acc.distinctOperands))
}

// PurityRatio returns EstimatedLength / Length.
func (acc Accumulator) PurityRatio() values.Value {
	estimated, ok := acc.EstimatedLength().Get()
	if !ok {
		return values.Undefined()
	}

	length, _ := acc.Length().Get()
	if length == 0 {
		return values.Undefined()
	}

	return values.Of(estimated / length)
}

// Volume returns Length · log2(Vocabulary), measured in bits.
func (acc Accumulator) Volume() values.Value {
	vocabulary, _ := acc.Vocabulary().Get()
	if vocabulary <= 0 {
		return values.Undefined()
	}

	length, _ := acc.Length().Get()

	return values.Of(length * math.Log2(vocabulary))
}

// Difficulty returns (η1/2) · (N2/η2). Undefined unless both η are positive.
func (acc Accumulator) Difficulty() values.Value {
	if acc.distinctOperators <= 0 || acc.distinctOperands <= 0 {
		return values.Undefined()
	}

	return values.Of((acc.distinctOperators / DifficultyDivisor) * (acc.totalOperands / acc.distinctOperands))
}

// Level returns 1 / Difficulty.
func (acc Accumulator) Level() values.Value {
	difficulty, ok := acc.Difficulty().Get()
	if !ok || difficulty == 0 {
		return values.Undefined()
	}

	return values.Of(1 / difficulty)
}

// Effort returns Difficulty · Volume.
func (acc Accumulator) Effort() values.Value {
	difficulty, ok := acc.Difficulty().Get()
	if !ok {
		return values.Undefined()
	}

	volume, ok := acc.Volume().Get()
	if !ok {
		return values.Undefined()
	}

	return values.Of(difficulty * volume)
}

// Time returns Effort / 18, in seconds.
func (acc Accumulator) Time() values.Value {
	effort, ok := acc.Effort().Get()
	if !ok {
		return values.Undefined()
	}

	return values.Of(effort / TimeConstant)
}

// Bugs returns Effort^(2/3) / 3000, the estimated number of delivered bugs.
func (acc Accumulator) Bugs() values.Value {
	effort, ok := acc.Effort().Get()
	if !ok || effort < 0 {
		return values.Undefined()
	}

	return values.Of(math.Pow(effort, BugExponent) / BugConstant)
}

// Average returns an accumulator whose counters are divided by the
// observation count. An accumulator without observations averages to zero.
func (acc Accumulator) Average() Accumulator {
	if acc.observations == 0 {
		return Accumulator{}
	}

	return Accumulator{
		distinctOperators: acc.distinctOperators / acc.observations,
		totalOperators:    acc.totalOperators / acc.observations,
		distinctOperands:  acc.distinctOperands / acc.observations,
		totalOperands:     acc.totalOperands / acc.observations,
		observations:      acc.observations,
	}
}
