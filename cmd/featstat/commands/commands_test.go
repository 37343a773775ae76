package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Sumatoshi-tech/featstat/pkg/config"
)

func resultFile(end int, async bool) string {
	data := fmt.Sprintf(`{"halstead": {"n1": 3, "N1": 5, "n2": 2, "N2": 4}, "loc": {"sloc": %d}}`, end)

	finder := "[]"
	if async {
		finder = `[{"name": "await", "start_line": 2, "end_line": 3}]`
	}

	return fmt.Sprintf(`{
  "node": [{"name": "identifier", "data": %s}],
  "rca": [{"kind": "unit", "start_line": 1, "end_line": %d, "data": %s}],
  "finder": %s
}`, data, end, data, finder)
}

type workspace struct {
	base       string
	configPath string
}

func newWorkspace(t *testing.T, extra string) workspace {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "featstat.yaml")

	content := fmt.Sprintf("data:\n  base_path: %s\nlogging:\n  level: error\n%s", base, extra)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return workspace{base: base, configPath: configPath}
}

func (w workspace) write(t *testing.T, repo, name, content string) {
	t.Helper()

	dir := filepath.Join(w.base, "res", "acme", repo)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func (w workspace) output(t *testing.T, name string) gjson.Result {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(w.base, "analyzer", name))
	require.NoError(t, err)

	return gjson.ParseBytes(data)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestAnalyzeCommand_WritesOutputsAndSummary(t *testing.T) {
	t.Parallel()

	metricsFile := filepath.Join(t.TempDir(), "featstat.prom")
	w := newWorkspace(t, fmt.Sprintf("telemetry:\n  metrics_file: %s\n", metricsFile))
	w.write(t, "widgets", "a.rs.json", resultFile(20, true))
	w.write(t, "widgets", "b.rs.json", resultFile(10, false))

	out, err := execute(t, NewAnalyzeCommand(),
		"--config", w.configPath, "-w", "2", "--summary", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "2 files, 2 aggregated, 0 skipped")
	assert.Contains(t, out, "== mann_whitney_u ==")
	assert.NotContains(t, out, "mann_whitney_u_same_sample_size")
	assert.Contains(t, out, "async")

	results := w.output(t, "results.json")
	assert.InDelta(t, 20.0, results.Get("spaces.async.sloc.average").Float(), 1e-9)

	corrected := w.output(t, "corrected_statistic_tests.json")
	assert.True(t, corrected.Get("grid.async.sloc.mann_whitney_u.corrected_p_value").Exists())

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "featstat_files_processed")
}

func TestAnalyzeCommand_SummaryShowsSameSampleSizeTest(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, "")
	w.write(t, "widgets", "a.rs.json", resultFile(20, true))
	w.write(t, "widgets", "b.rs.json", resultFile(10, false))

	out, err := execute(t, NewAnalyzeCommand(),
		"--config", w.configPath, "--same-sample-size", "--summary", "--no-color")
	require.NoError(t, err)

	full := strings.Index(out, "== mann_whitney_u ==")
	same := strings.Index(out, "== mann_whitney_u_same_sample_size ==")

	require.NotEqual(t, -1, full)
	require.NotEqual(t, -1, same)
	assert.Less(t, full, same)
}

func TestAnalyzeCommand_NothingToAnalyze(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, "")
	require.NoError(t, os.MkdirAll(filepath.Join(w.base, "res"), 0o755))

	out, err := execute(t, NewAnalyzeCommand(), "--config", w.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no output produced")
}

func TestAnalyzeCommand_InvalidFlag(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, "")

	_, err := execute(t, NewAnalyzeCommand(), "--config", w.configPath, "-w", "-1")
	require.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestAnalyzeCommand_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-n", "3", "--same-sample-size"}))

	cfg := config.Default()
	cfg.Analysis.Workers = 5

	ac := &AnalyzeCommand{repoCount: 3, sameSampleSize: true, workers: 0}
	ac.apply(cmd, cfg)

	assert.Equal(t, 3, cfg.Analysis.RepoCount)
	assert.True(t, cfg.Analysis.SameSampleSize)
	assert.Equal(t, 5, cfg.Analysis.Workers)
}

func TestTestAndCorrectCommands(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, "")
	w.write(t, "widgets", "a.rs.json", resultFile(20, true))
	w.write(t, "widgets", "b.rs.json", resultFile(10, false))

	_, err := execute(t, NewAnalyzeCommand(), "--config", w.configPath)
	require.NoError(t, err)

	out, err := execute(t, NewTestCommand(), "--config", w.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "feature/metric pairs")

	out, err = execute(t, NewCorrectCommand(), "--config", w.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "corrected")

	corrected := w.output(t, "corrected_statistic_tests.json")
	assert.True(t, corrected.Get("grid.async.sloc.mann_whitney_u.corrected_p_value").Exists())
}

func TestTestCommand_NoResults(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, "")

	out, err := execute(t, NewTestCommand(), "--config", w.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no output produced")
}
