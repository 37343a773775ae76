package halstead

import "github.com/Sumatoshi-tech/featstat/pkg/values"

// Snapshot is the exported form of an accumulator: its counters together
// with every derived quantity.
type Snapshot struct {
	Observations      float64      `json:"n"                        yaml:"n"`
	DistinctOperators float64      `json:"n1"                       yaml:"n1"`
	TotalOperators    float64      `json:"N1"                       yaml:"N1"`
	DistinctOperands  float64      `json:"n2"                       yaml:"n2"`
	TotalOperands     float64      `json:"N2"                       yaml:"N2"`
	Length            values.Value `json:"length"                   yaml:"length"`
	EstimatedLength   values.Value `json:"estimated_program_length" yaml:"estimated_program_length"`
	PurityRatio       values.Value `json:"purity_ratio"             yaml:"purity_ratio"`
	Vocabulary        values.Value `json:"vocabulary"               yaml:"vocabulary"`
	Volume            values.Value `json:"volume"                   yaml:"volume"`
	Difficulty        values.Value `json:"difficulty"               yaml:"difficulty"`
	Level             values.Value `json:"level"                    yaml:"level"`
	Effort            values.Value `json:"effort"                   yaml:"effort"`
	Time              values.Value `json:"time"                     yaml:"time"`
	Bugs              values.Value `json:"bugs"                     yaml:"bugs"`
}

// Snapshot evaluates every derived quantity of acc.
func (acc Accumulator) Snapshot() Snapshot {
	return Snapshot{
		Observations:      acc.observations,
		DistinctOperators: acc.distinctOperators,
		TotalOperators:    acc.totalOperators,
		DistinctOperands:  acc.distinctOperands,
		TotalOperands:     acc.totalOperands,
		Length:            acc.Length(),
		EstimatedLength:   acc.EstimatedLength(),
		PurityRatio:       acc.PurityRatio(),
		Vocabulary:        acc.Vocabulary(),
		Volume:            acc.Volume(),
		Difficulty:        acc.Difficulty(),
		Level:             acc.Level(),
		Effort:            acc.Effort(),
		Time:              acc.Time(),
		Bugs:              acc.Bugs(),
	}
}
