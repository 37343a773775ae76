package statistics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/featstat/pkg/features"
	"github.com/Sumatoshi-tech/featstat/pkg/mapping"
	"github.com/Sumatoshi-tech/featstat/pkg/metrics"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

func TestMannWhitneyU_SeparatedSamples(t *testing.T) {
	t.Parallel()

	got, err := MannWhitneyU([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, got.U1, 1e-12)
	assert.InDelta(t, 0.0, got.Proportion.Or(-1), 1e-12)
	assert.InDelta(t, 0.0809, got.PValue.Or(-1), 1e-3)

	swapped, err := MannWhitneyU([]float64{4, 5, 6}, []float64{1, 2, 3})
	require.NoError(t, err)

	assert.InDelta(t, 9.0, swapped.U1, 1e-12)
	assert.InDelta(t, 1.0, swapped.Proportion.Or(-1), 1e-12)
	assert.InDelta(t, got.PValue.Or(-1), swapped.PValue.Or(-2), 1e-12)
}

func TestMannWhitneyU_IdenticalDistributions(t *testing.T) {
	t.Parallel()

	got, err := MannWhitneyU([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	assert.InDelta(t, 8.0, got.U1, 1e-12)
	assert.InDelta(t, 0.5, got.Proportion.Or(-1), 1e-12)
	assert.InDelta(t, 1.0, got.PValue.Or(-1), 1e-12)
}

func TestMannWhitneyU_AllTiedHasUndefinedPValue(t *testing.T) {
	t.Parallel()

	got, err := MannWhitneyU([]float64{7, 7}, []float64{7, 7, 7})
	require.NoError(t, err)

	assert.False(t, got.PValue.Defined())
	assert.InDelta(t, 0.5, got.Proportion.Or(-1), 1e-12)
}

func TestMannWhitneyU_EmptySample(t *testing.T) {
	t.Parallel()

	_, err := MannWhitneyU(nil, []float64{1})
	require.ErrorIs(t, err, ErrEmptySample)

	_, err = MannWhitneyU([]float64{1}, []float64{})
	require.ErrorIs(t, err, ErrEmptySample)
}

func spacesWith(t *testing.T, feature features.Feature, present, absent []float64) *mapping.Mapping {
	t.Helper()

	spaces := mapping.PresencePairs()

	add := func(key string, sloc []float64) {
		for _, v := range sloc {
			record := gjson.Parse(`{"loc": {"sloc": ` + values.Of(v).String() + `}}`)
			require.NoError(t, spaces.MergeBucket(key, mapping.BucketFromRecord(record)))
		}
	}

	add(feature.Name(), present)
	add(feature.AbsenceName(), absent)
	spaces.Finalize()

	return spaces
}

func TestComparer_OnlyPopulatedPairsAreTested(t *testing.T) {
	t.Parallel()

	spaces := spacesWith(t, features.Async, []float64{10, 12, 14}, []float64{1, 2, 3, 4})

	results, err := NewComparer().Compare(spaces)
	require.NoError(t, err)

	assert.Equal(t, features.Count()*metrics.Count(), results.Size())
	assert.Equal(t, 1, results.Count(TestMannWhitneyU))
	assert.Zero(t, results.Count(TestMannWhitneyUSameSampleSize))

	cell, ok := results.Get("async", "sloc", TestMannWhitneyU)
	require.True(t, ok)
	assert.Equal(t, 3, cell.NPresent)
	assert.Equal(t, 4, cell.NAbsent)
	assert.InDelta(t, 12.0, cell.Statistic, 1e-12)
	assert.InDelta(t, 1.0, cell.Proportion.Or(-1), 1e-12)
	assert.InDelta(t, 12.0, cell.MedianPresent.Or(-1), 1e-12)
	assert.InDelta(t, 2.5, cell.MedianAbsent.Or(-1), 1e-12)
	assert.False(t, cell.CorrectedPValue.Defined())

	_, ok = results.Get("unsafe", "sloc", TestMannWhitneyU)
	assert.False(t, ok)
}

func TestComparer_SameSampleSizeIsReproducible(t *testing.T) {
	t.Parallel()

	spaces := spacesWith(t, features.Macros, []float64{5, 6, 7, 8, 9, 10}, []float64{1, 2})

	first, err := NewComparer(WithSameSampleSize(42)).Compare(spaces)
	require.NoError(t, err)

	second, err := NewComparer(WithSameSampleSize(42)).Compare(spaces)
	require.NoError(t, err)

	a, ok := first.Get("macros", "sloc", TestMannWhitneyUSameSampleSize)
	require.True(t, ok)

	b, ok := second.Get("macros", "sloc", TestMannWhitneyUSameSampleSize)
	require.True(t, ok)

	assert.Equal(t, 2, a.NPresent)
	assert.Equal(t, 2, a.NAbsent)
	assert.Equal(t, a, b)
	assert.InDelta(t, 4.0, a.Statistic, 1e-12)
}

func TestComparer_MissingBucket(t *testing.T) {
	t.Parallel()

	_, err := NewComparer().Compare(mapping.New("async"))
	require.ErrorIs(t, err, ErrMissingBucket)
}

func TestBonferroni(t *testing.T) {
	t.Parallel()

	results := NewResults(
		[]string{"f1", "f2", "f3", "f4", "f5"},
		[]string{"m1", "m2", "m3"},
	)

	require.NoError(t, results.Set("f1", "m1", TestMannWhitneyU, Cell{PValue: values.Of(0.01)}))
	require.NoError(t, results.Set("f2", "m2", TestMannWhitneyU, Cell{PValue: values.Of(0.10)}))
	require.NoError(t, results.Set("f3", "m3", TestMannWhitneyU, Cell{PValue: values.Undefined()}))

	require.NoError(t, Bonferroni(results))
	assert.True(t, results.Corrected())

	low, _ := results.Get("f1", "m1", TestMannWhitneyU)
	assert.InDelta(t, 0.15, low.CorrectedPValue.Or(-1), 1e-12)
	assert.InDelta(t, 0.01, low.PValue.Or(-1), 1e-12)

	capped, _ := results.Get("f2", "m2", TestMannWhitneyU)
	assert.InDelta(t, 1.0, capped.CorrectedPValue.Or(-1), 1e-12)

	undefined, _ := results.Get("f3", "m3", TestMannWhitneyU)
	assert.False(t, undefined.CorrectedPValue.Defined())

	require.ErrorIs(t, Bonferroni(results), ErrAlreadyCorrected)
	assert.InDelta(t, 0.15, low.CorrectedPValue.Or(-1), 1e-12)
}

func TestResults_SetUnknownPair(t *testing.T) {
	t.Parallel()

	results := NewResults([]string{"async"}, []string{"sloc"})

	require.ErrorIs(t, results.Set("macros", "sloc", TestMannWhitneyU, Cell{}), ErrUnknownPair)
	require.ErrorIs(t, results.Set("async", "lloc", TestMannWhitneyU, Cell{}), ErrUnknownPair)
}

func TestResults_JSONKeepsSkippedPairs(t *testing.T) {
	t.Parallel()

	results := NewResults([]string{"async", "unsafe"}, []string{"sloc", "lloc"})
	require.NoError(t, results.Set("async", "sloc", TestMannWhitneyU, Cell{
		Statistic: 3, PValue: values.Of(0.2), Proportion: values.Of(0.75), NPresent: 2, NAbsent: 2,
	}))

	data, err := json.Marshal(results)
	require.NoError(t, err)

	parsed := gjson.ParseBytes(data)
	assert.False(t, parsed.Get("corrected").Bool())
	assert.InDelta(t, 0.2, parsed.Get("grid.async.sloc.mann_whitney_u.p_value").Float(), 1e-12)
	assert.Equal(t, gjson.Null, parsed.Get("grid.async.sloc.mann_whitney_u.corrected_p_value").Type)
	assert.True(t, parsed.Get("grid.unsafe.lloc").IsObject())

	var restored Results
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, 4, restored.Size())
	assert.False(t, restored.Corrected())

	require.NoError(t, Bonferroni(&restored))

	data, err = json.Marshal(&restored)
	require.NoError(t, err)

	var corrected Results
	require.NoError(t, json.Unmarshal(data, &corrected))
	assert.True(t, corrected.Corrected())
	require.ErrorIs(t, Bonferroni(&corrected), ErrAlreadyCorrected)
}

func TestResults_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	results := NewResults([]string{"async"}, []string{"sloc"})
	require.NoError(t, results.Set("async", "sloc", TestMannWhitneyU, Cell{PValue: values.Of(0.5), NPresent: 1}))

	data, err := yaml.Marshal(results)
	require.NoError(t, err)

	var restored Results
	require.NoError(t, yaml.Unmarshal(data, &restored))

	cell, ok := restored.Get("async", "sloc", TestMannWhitneyU)
	require.True(t, ok)
	assert.InDelta(t, 0.5, cell.PValue.Or(-1), 1e-12)
	assert.Equal(t, 1, cell.NPresent)
	assert.False(t, cell.CorrectedPValue.Defined())
}

func TestResults_CorrectedWithOnlyUndefinedPValuesStaysCorrected(t *testing.T) {
	t.Parallel()

	spaces := spacesWith(t, features.Unsafe, []float64{7, 7}, []float64{7, 7, 7})

	results, err := NewComparer().Compare(spaces)
	require.NoError(t, err)

	cell, ok := results.Get("unsafe", "sloc", TestMannWhitneyU)
	require.True(t, ok)
	require.False(t, cell.PValue.Defined())

	require.NoError(t, Bonferroni(results))

	for name, codec := range map[string]struct {
		marshal   func(any) ([]byte, error)
		unmarshal func([]byte, any) error
	}{
		"json": {json.Marshal, json.Unmarshal},
		"yaml": {yaml.Marshal, yaml.Unmarshal},
	} {
		data, err := codec.marshal(results)
		require.NoError(t, err, name)

		var restored Results
		require.NoError(t, codec.unmarshal(data, &restored), name)

		assert.True(t, restored.Corrected(), name)
		require.ErrorIs(t, Bonferroni(&restored), ErrAlreadyCorrected, name)
	}
}
