package statistics

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// Test names used as keys of a metric's result map.
const (
	// TestMannWhitneyU compares the full present and absent samples.
	TestMannWhitneyU = "mann_whitney_u"
	// TestMannWhitneyUSameSampleSize compares both samples subsampled to the smaller size.
	TestMannWhitneyUSameSampleSize = "mann_whitney_u_same_sample_size"
)

// Cell is the outcome of one test for one (feature, metric) pair.
type Cell struct {
	Statistic       float64      `json:"statistic"         yaml:"statistic"`
	PValue          values.Value `json:"p_value"           yaml:"p_value"`
	Proportion      values.Value `json:"proportion"        yaml:"proportion"`
	CorrectedPValue values.Value `json:"corrected_p_value" yaml:"corrected_p_value"`
	NPresent        int          `json:"n_present"         yaml:"n_present"`
	NAbsent         int          `json:"n_absent"          yaml:"n_absent"`
	MedianPresent   values.Value `json:"median_present"    yaml:"median_present"`
	MedianAbsent    values.Value `json:"median_absent"     yaml:"median_absent"`
}

// Grid is the exported result layout: feature → metric → test → cell.
// Skipped pairs keep an empty test map so the grid size survives a round trip.
type Grid map[string]map[string]map[string]Cell

// document is the persisted form of Results. Corrected is stored explicitly
// because a corrected grid whose p-values are all undefined looks the same
// as an uncorrected one.
type document struct {
	Corrected bool `json:"corrected" yaml:"corrected"`
	Grid      Grid `json:"grid"      yaml:"grid"`
}

// Results holds the test outcomes of every (feature, metric) pair.
type Results struct {
	features  []string
	metrics   []string
	grid      Grid
	corrected bool
}

// NewResults creates an empty grid over the given features and metrics.
func NewResults(featureNames, metricNames []string) *Results {
	grid := make(Grid, len(featureNames))

	for _, f := range featureNames {
		grid[f] = make(map[string]map[string]Cell, len(metricNames))

		for _, m := range metricNames {
			grid[f][m] = map[string]Cell{}
		}
	}

	return &Results{
		features: slices.Clone(featureNames),
		metrics:  slices.Clone(metricNames),
		grid:     grid,
	}
}

// FromGrid rebuilds results from their exported layout. Feature and metric
// names are sorted.
func FromGrid(grid Grid, corrected bool) *Results {
	featureNames := slices.Sorted(maps.Keys(grid))
	metricSet := map[string]struct{}{}

	for _, byMetric := range grid {
		for m := range byMetric {
			metricSet[m] = struct{}{}
		}
	}

	r := NewResults(featureNames, slices.Sorted(maps.Keys(metricSet)))

	for f, byMetric := range grid {
		for m, byTest := range byMetric {
			for test, cell := range byTest {
				r.grid[f][m][test] = cell
			}
		}
	}

	r.corrected = corrected

	return r
}

// Features returns the feature names of the grid.
func (r *Results) Features() []string { return slices.Clone(r.features) }

// Metrics returns the metric names of the grid.
func (r *Results) Metrics() []string { return slices.Clone(r.metrics) }

// Size is the number of (feature, metric) pairs, tested or not.
func (r *Results) Size() int { return len(r.features) * len(r.metrics) }

// Corrected reports whether a multiple-comparison correction was applied.
func (r *Results) Corrected() bool { return r.corrected }

// Set stores the outcome of test for the (feature, metric) pair.
func (r *Results) Set(feature, metric, test string, cell Cell) error {
	byMetric, ok := r.grid[feature]
	if !ok {
		return fmt.Errorf("%w: feature %s", ErrUnknownPair, feature)
	}

	byTest, ok := byMetric[metric]
	if !ok {
		return fmt.Errorf("%w: metric %s", ErrUnknownPair, metric)
	}

	byTest[test] = cell

	return nil
}

// Get returns the outcome of test for the (feature, metric) pair.
func (r *Results) Get(feature, metric, test string) (Cell, bool) {
	cell, ok := r.grid[feature][metric][test]

	return cell, ok
}

// Count returns how many pairs carry an outcome for test.
func (r *Results) Count(test string) int {
	count := 0

	for _, byMetric := range r.grid {
		for _, byTest := range byMetric {
			if _, ok := byTest[test]; ok {
				count++
			}
		}
	}

	return count
}

// Grid returns the exported layout.
func (r *Results) Grid() Grid {
	return r.grid
}

func (r *Results) document() document {
	return document{Corrected: r.corrected, Grid: r.grid}
}

// MarshalJSON implements json.Marshaler.
func (r *Results) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.document())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Results) UnmarshalJSON(data []byte) error {
	var doc document

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return err
	}

	*r = *FromGrid(doc.Grid, doc.Corrected)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r *Results) MarshalYAML() (any, error) {
	return r.document(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Results) UnmarshalYAML(node *yaml.Node) error {
	var doc document

	err := node.Decode(&doc)
	if err != nil {
		return err
	}

	*r = *FromGrid(doc.Grid, doc.Corrected)

	return nil
}
