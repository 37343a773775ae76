package analyzer

import (
	"fmt"

	"github.com/Sumatoshi-tech/featstat/internal/record"
	"github.com/Sumatoshi-tech/featstat/pkg/features"
	"github.com/Sumatoshi-tech/featstat/pkg/mapping"
)

// Merged counts the records one file contributed, by experiment.
type Merged map[string]int

// Add accumulates other into m.
func (m Merged) Add(other Merged) {
	for name, n := range other {
		m[name] += n
	}
}

// AnalyzeFile folds one decoded result file into exps:
//   - every node whose token classifies to a feature goes to that feature's
//     bucket of the nodes experiment;
//   - every non-unit rca record goes to the spaces experiment and every unit
//     record to the units experiment, once per feature, into the presence
//     bucket when a finding of that feature lies inside its span and into
//     the absence bucket otherwise.
func AnalyzeFile(exps *mapping.Experiments, file *record.File) (Merged, error) {
	nodes, spaces, units, err := targets(exps)
	if err != nil {
		return nil, err
	}

	merged := Merged{}

	for _, node := range file.Nodes {
		feature, ok := features.Classify(node.Name)
		if !ok {
			continue
		}

		err = nodes.MergeBucket(feature.Name(), mapping.BucketFromRecord(node.Data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mapping.ExperimentNodes, err)
		}

		merged[mapping.ExperimentNodes]++
	}

	for _, space := range file.Spaces {
		target, name := spaces, mapping.ExperimentSpaces
		if space.Unit() {
			target, name = units, mapping.ExperimentUnits
		}

		presence := features.Presence(file.Findings, space.Span)
		bucket := mapping.BucketFromRecord(space.Data)

		for _, feature := range features.All() {
			key := feature.AbsenceName()
			if presence.Has(feature) {
				key = feature.Name()
			}

			err = target.MergeBucket(key, bucket)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}

		merged[name]++
	}

	return merged, nil
}

func targets(exps *mapping.Experiments) (*mapping.Mapping, *mapping.Mapping, *mapping.Mapping, error) {
	nodes, okNodes := exps.Get(mapping.ExperimentNodes)
	spaces, okSpaces := exps.Get(mapping.ExperimentSpaces)
	units, okUnits := exps.Get(mapping.ExperimentUnits)

	if !okNodes || !okSpaces || !okUnits {
		return nil, nil, nil, fmt.Errorf("%w: experiments %v", mapping.ErrKeyMismatch, exps.Names())
	}

	return nodes, spaces, units, nil
}
