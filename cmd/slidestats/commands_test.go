package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spboyer/slidestats/internal/reporting"
	"github.com/spboyer/slidestats/internal/slidingstats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command inside an empty working directory so no
// stray .slidestats.yaml is picked up.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResults(t *testing.T, out string) []reporting.Result {
	t.Helper()
	var results []reporting.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results), "output: %s", out)
	return results
}

func writeSeries(t *testing.T, dir, name string, values []float64) string {
	t.Helper()
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round(math.Sin(float64(i)/5)*1000) / 100
	}
	return out
}

func TestBatch_JSON(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "s.txt", []float64{1, 2, 3, 4, 5})

	out, err := runCLI(t, dir, "batch", p, "-m", "2", "-f", "json")
	require.NoError(t, err)

	results := decodeResults(t, out)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "batch", r.Mode)
	assert.Equal(t, 2, r.Window)
	assert.Equal(t, 5, r.Samples)
	assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5}, r.Mean)
	require.Len(t, r.Variance, 4)
	for _, v := range r.Variance {
		assert.InDelta(t, 0.25, v, 1e-12)
	}
	assert.Nil(t, r.Std)
}

func TestBatch_Std(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "s.txt", []float64{1, 3, 1, 3})

	out, err := runCLI(t, dir, "batch", p, "-m", "2", "-f", "json", "--std")
	require.NoError(t, err)

	r := decodeResults(t, out)[0]
	assert.Nil(t, r.Variance)
	require.Len(t, r.Std, 3)
	for _, v := range r.Std {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestBatch_Table(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "s.txt", []float64{1, 2, 3, 4, 5})

	out, err := runCLI(t, dir, "batch", p, "-m", "2", "-f", "table", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "(batch)")
	assert.Contains(t, out, "variance")
	assert.Contains(t, out, "4.5")
	assert.NotContains(t, out, "1.5")
}

func TestBatch_UsesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".slidestats.yaml"), []byte(`
window: 3
input:
  options:
    column: value
output:
  format: json
`), 0o644))
	p := filepath.Join(dir, "s.csv")
	require.NoError(t, os.WriteFile(p, []byte("ts,value\n0,1\n1,2\n2,3\n3,4\n"), 0o644))

	out, err := runCLI(t, dir, "batch", p)
	require.NoError(t, err)

	r := decodeResults(t, out)[0]
	assert.Equal(t, 3, r.Window)
	assert.Equal(t, []float64{2, 3}, r.Mean)
}

func TestBatch_ExplicitConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("window: 4\noutput:\n  format: json\n"), 0o644))
	p := writeSeries(t, dir, "s.txt", []float64{1, 2, 3, 4, 5})

	out, err := runCLI(t, dir, "--config", cfg, "batch", p)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 3.5}, decodeResults(t, out)[0].Mean)
}

func TestBatch_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".slidestats.yaml"), []byte("window: 3\n"), 0o644))
	p := writeSeries(t, dir, "s.txt", []float64{1, 2, 3, 4, 5})

	out, err := runCLI(t, dir, "batch", p, "-m", "5", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, decodeResults(t, out)[0].Mean)
}

func TestBatch_Errors(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "s.txt", []float64{1, 2, 3})

	_, err := runCLI(t, dir, "batch", p, "-m", "4")
	require.ErrorIs(t, err, slidingstats.ErrInvalidWindowSize)

	_, err = runCLI(t, dir, "batch", p, "-f", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, err = runCLI(t, dir, "batch", p, "--input-format", "parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")

	_, err = runCLI(t, dir, "batch", filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = runCLI(t, dir, "batch")
	require.Error(t, err)
}

func TestBatch_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".slidestats.yaml"), []byte("window: -1\n"), 0o644))
	p := writeSeries(t, dir, "s.txt", []float64{1, 2, 3})

	_, err := runCLI(t, dir, "batch", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/window")
}

func TestStream_MatchesBatchTail(t *testing.T) {
	dir := t.TempDir()
	values := wave(300)
	p := writeSeries(t, dir, "s.txt", values)

	out, err := runCLI(t, dir, "stream", p, "-m", "10", "--initial", "50", "--chunks", "1,3,11,80", "-f", "json")
	require.NoError(t, err)

	r := decodeResults(t, out)[0]
	assert.Equal(t, "stream", r.Mode)
	assert.Equal(t, 300, r.Samples)
	require.Len(t, r.Mean, 41)
	assert.Equal(t, 300-10+1-41, r.Offset)
	assert.Positive(t, r.Chunks)
	assert.Positive(t, r.Strategies["full_recompute"])
	assert.Positive(t, r.Strategies["incremental_then_residual"])

	wantMean, wantVar, err := slidingstats.SlidingMeanVar(values, 10)
	require.NoError(t, err)
	for i := range r.Mean {
		assert.InDelta(t, wantMean[r.Offset+i], r.Mean[i], 1e-8)
		assert.InDelta(t, wantVar[r.Offset+i], r.Variance[i], 1e-6)
	}
}

func TestStream_DefaultInitial(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "s.txt", wave(40))

	out, err := runCLI(t, dir, "stream", p, "-m", "4", "-f", "json", "--std")
	require.NoError(t, err)

	r := decodeResults(t, out)[0]
	// initial = max(window, n/4) = 10 → 7 retained windows
	assert.Len(t, r.Mean, 7)
	assert.Len(t, r.Std, 7)
	assert.Nil(t, r.Variance)
}

func TestStream_WindowLongerThanInitial(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "s.txt", wave(40))

	_, err := runCLI(t, dir, "stream", p, "-m", "8", "--initial", "5")
	require.ErrorIs(t, err, slidingstats.ErrInvalidWindowSize)
}

func TestVerify_Passes(t *testing.T) {
	dir := t.TempDir()
	a := writeSeries(t, dir, "a.txt", wave(120))
	b := writeSeries(t, dir, "b.txt", wave(77))

	out, err := runCLI(t, dir, "verify", a, b, "-m", "6", "--chunks", "2,5,40", "-f", "json")
	require.NoError(t, err)

	results := decodeResults(t, out)
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].Source)
	assert.Equal(t, b, results[1].Source)
	for _, r := range results {
		assert.Equal(t, "verify", r.Mode)
		require.NotNil(t, r.Passed)
		assert.True(t, *r.Passed)
		require.NotNil(t, r.MaxDeviation)
		assert.Less(t, *r.MaxDeviation, 1e-6)
	}
}

func TestVerify_Std(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "a.txt", wave(60))

	out, err := runCLI(t, dir, "verify", p, "-m", "5", "--std", "-f", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "verify: PASS")
}

func TestMaxDeviation(t *testing.T) {
	assert.Equal(t, 0.0, maxDeviation([]float64{1, 2}, []float64{1, 2}))
	assert.InDelta(t, 0.5, maxDeviation([]float64{0.5}, []float64{1}), 1e-12)
	assert.InDelta(t, 0.1, maxDeviation([]float64{100}, []float64{110}), 1e-12)
	assert.True(t, math.IsInf(maxDeviation([]float64{1}, nil), 1))
}

func TestVerify_JUnit(t *testing.T) {
	dir := t.TempDir()
	p := writeSeries(t, dir, "a.txt", wave(90))
	report := filepath.Join(dir, "verify.xml")

	_, err := runCLI(t, dir, "verify", p, "-m", "7", "-f", "json", "--junit", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testsuite name="slidestats verify" tests="1" failures="0"`)
	assert.Contains(t, string(data), p)
}
