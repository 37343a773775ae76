package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/featstat/pkg/statistics"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

func TestSignificance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    values.Value
		want string
	}{
		{values.Of(0.0005), "***"},
		{values.Of(0.001), "**"},
		{values.Of(0.009), "**"},
		{values.Of(0.04), "*"},
		{values.Of(0.05), "."},
		{values.Of(0.2), "-"},
		{values.Undefined(), "-"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Significance(tt.p), tt.p.String())
	}
}

func TestDecision(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DecisionRejected, Decision(values.Of(0.01), 0.05))
	assert.Equal(t, DecisionNotRejected, Decision(values.Of(0.05), 0.05))
	assert.Equal(t, DecisionUndefined, Decision(values.Undefined(), 0.05))
}

func sampleResults(t *testing.T) *statistics.Results {
	t.Helper()

	results := statistics.NewResults([]string{"async", "unsafe"}, []string{"sloc", "cyclomatic"})

	require.NoError(t, results.Set("async", "sloc", statistics.TestMannWhitneyU, statistics.Cell{
		Statistic:     12,
		PValue:        values.Of(0.0001),
		Proportion:    values.Of(0.75),
		NPresent:      4,
		NAbsent:       8,
		MedianPresent: values.Of(42),
		MedianAbsent:  values.Of(17.5),
	}))
	require.NoError(t, results.Set("unsafe", "cyclomatic", statistics.TestMannWhitneyU, statistics.Cell{
		Statistic:  3,
		PValue:     values.Of(0.3),
		Proportion: values.Of(0.5),
		NPresent:   2,
		NAbsent:    3,
	}))
	require.NoError(t, statistics.Bonferroni(results))

	return results
}

func TestFormatter_Render(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewFormatter(Config{Alpha: 0.05}).Render(&buf, sampleResults(t)))

	out := buf.String()
	assert.Contains(t, out, "async")
	assert.Contains(t, out, "unsafe")
	assert.Contains(t, out, "== mann_whitney_u ==")
	assert.Contains(t, out, "4/8")
	assert.Contains(t, out, "42/17.5")
	assert.Contains(t, out, "n/a/n/a")
	assert.Contains(t, out, "0.0004")
	assert.Contains(t, out, DecisionRejected)
	assert.Contains(t, out, DecisionNotRejected)
	assert.Contains(t, out, "***")
	assert.Contains(t, out, "skipped: 1")
	assert.NotContains(t, out, "\x1b[")
}

func TestFormatter_RenderColored(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewFormatter(Config{Alpha: 0.05, Color: true}).Render(&buf, sampleResults(t)))
	assert.True(t, strings.Contains(buf.String(), "\x1b["))
}

func TestFormatter_OtherTest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := NewFormatter(Config{Alpha: 0.05, Test: statistics.TestMannWhitneyUSameSampleSize})
	require.NoError(t, f.Render(&buf, sampleResults(t)))

	assert.Contains(t, buf.String(), "== mann_whitney_u_same_sample_size ==")
	assert.Contains(t, buf.String(), "skipped: 2")
	assert.NotContains(t, buf.String(), DecisionRejected)
}
