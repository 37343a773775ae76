package mapping

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/featstat/pkg/halstead"
)

// Experiment names.
const (
	// ExperimentNodes groups syntax-tree node measurements by the feature their token represents.
	ExperimentNodes = "nodes"
	// ExperimentSpaces splits code-space measurements by feature presence.
	ExperimentSpaces = "spaces"
	// ExperimentUnits splits file-level unit measurements by feature presence.
	ExperimentUnits = "units"
)

// Experiments is the named set of mappings filled by one aggregation run.
type Experiments struct {
	mappings map[string]*Mapping
}

// NewExperiments creates the empty experiment set every worker starts from.
func NewExperiments() *Experiments {
	return &Experiments{mappings: map[string]*Mapping{
		ExperimentNodes:  PerFeature(),
		ExperimentSpaces: PresencePairs(),
		ExperimentUnits:  PresencePairs(),
	}}
}

// Names returns the experiment names in sorted order.
func (e *Experiments) Names() []string {
	return slices.Sorted(maps.Keys(e.mappings))
}

// Get returns the mapping of the named experiment.
func (e *Experiments) Get(name string) (*Mapping, bool) {
	m, ok := e.mappings[name]

	return m, ok
}

// Merge folds every mapping of other into e. Both sets must contain the
// same experiments with the same bucket layouts; layouts are checked before
// anything is merged so a mismatch leaves e untouched.
func (e *Experiments) Merge(other *Experiments) error {
	if len(e.mappings) != len(other.mappings) {
		return fmt.Errorf("%w: experiments %v vs %v", ErrKeyMismatch, e.Names(), other.Names())
	}

	for name, mapping := range e.mappings {
		theirs, ok := other.mappings[name]
		if !ok {
			return fmt.Errorf("%w: experiment %s missing", ErrKeyMismatch, name)
		}

		if mapping.state == Finalized {
			return fmt.Errorf("experiment %s: %w", name, ErrFinalized)
		}

		if !sameKeys(mapping.buckets, theirs.buckets) {
			return fmt.Errorf("experiment %s: %w", name, ErrKeyMismatch)
		}
	}

	for name, mapping := range e.mappings {
		err := mapping.Merge(other.mappings[name])
		if err != nil {
			return fmt.Errorf("experiment %s: %w", name, err)
		}
	}

	return nil
}

// Finalize makes every mapping read-only.
func (e *Experiments) Finalize() {
	for _, mapping := range e.mappings {
		mapping.Finalize()
	}
}

// Snapshot exports every experiment: experiment → bucket → metric → summary.
func (e *Experiments) Snapshot() map[string]Snapshot {
	snap := make(map[string]Snapshot, len(e.mappings))

	for name, mapping := range e.mappings {
		snap[name] = mapping.Snapshot()
	}

	return snap
}

// HalsteadSnapshot exports every experiment's averaged Halstead suites.
func (e *Experiments) HalsteadSnapshot() map[string]map[string]halstead.Snapshot {
	snap := make(map[string]map[string]halstead.Snapshot, len(e.mappings))

	for name, mapping := range e.mappings {
		snap[name] = mapping.HalsteadSnapshot()
	}

	return snap
}
