package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
)

const compoundsTSV = "Compound_Id\tActivity\tSmiles\n" +
	"C1\t90\tc1ccccc1O\n" +
	"C2\t85\tc1ccccc1N\n" +
	"C3\t40\tc1ccccc1C\n" +
	"C4\t10\tCCCCCC\n"

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "compounds.tsv")
	require.NoError(t, os.WriteFile(path, []byte(compoundsTSV), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func runArgs(input, outDir string, extra ...string) []string {
	args := []string{"run", "--input", input, "--out-dir", outDir,
		"--act-col", "Activity", "--top-n", "2", "--num-sim", "1", "--cutoff", "0.2"}
	return append(args, extra...)
}

func TestRun_WritesExports(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	outDir := filepath.Join(dir, "out")
	report := filepath.Join(dir, "report.html")

	out, err := execute(t, append(runArgs(input, outDir, "--html", report), "-o", "json")...)
	require.NoError(t, err)

	var summary RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Actives)
	assert.Len(t, summary.Files, 5)

	dataset, err := os.ReadFile(filepath.Join(outDir, "dataset.tsv"))
	require.NoError(t, err)
	assert.Equal(t, compoundsTSV, string(dataset))

	mst := readLines(t, filepath.Join(outDir, "dataset_mst.tsv"))
	assert.Equal(t, "Compound_Id\tActivity\tSmiles\tX\tY", mst[0])
	assert.Len(t, mst, summary.Compounds+1)

	edges := readLines(t, filepath.Join(outDir, "edges.tsv"))
	assert.Len(t, edges, summary.Compounds)

	selection := readLines(t, filepath.Join(outDir, "selection.tsv"))
	require.Len(t, selection, 3)
	assert.Equal(t, "Compound_Id\tActivity\tSmiles", selection[0])
	assert.ElementsMatch(t, []string{"C1\t90\tc1ccccc1O", "C2\t85\tc1ccccc1N"}, selection[1:])

	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), `class="mst-chart"`)
	assert.Contains(t, string(html), "mst-tooltips")
	assert.NotContains(t, string(html), "/static/")
}

func TestRun_SelectFlag(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	_, err := execute(t, runArgs(input, dir, "--select", "1")...)
	require.NoError(t, err)
	selection := readLines(t, filepath.Join(dir, "selection.tsv"))
	assert.Len(t, selection, 2)

	_, err = execute(t, runArgs(input, dir, "--select", "99")...)
	assert.Error(t, err)
}

func TestRun_TextOutput(t *testing.T) {
	plainOutput(t)
	dir := t.TempDir()
	input := writeInput(t, dir)

	out, err := execute(t, runArgs(input, dir, "--top-n", "10")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Top N active was set to 4, the number of rows in the file.")
	assert.Contains(t, out, "wrote "+filepath.Join(dir, "edges.tsv"))
}

func TestRun_InputErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	_, err := execute(t, "run", "--input", input, "--out-dir", dir, "--act-col", "pIC50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Activity column pIC50 not found in the file.")
	assert.Contains(t, err.Error(), "Available columns: Compound_Id, Activity, Smiles")

	_, err = execute(t, runArgs(input, dir, "--top-n", "0")...)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "Available columns")

	_, err = execute(t, "run", "--input", filepath.Join(dir, "missing.tsv"), "--act-col", "Activity")
	assert.Error(t, err)

	_, err = execute(t, "run", "--act-col", "Activity")
	assert.Error(t, err, "--input is required")
}

func TestRun_SimilarityFlag(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	out, err := execute(t, append(runArgs(input, dir, "--similarity", "dice"), "-o", "json")...)
	require.NoError(t, err)
	var summary RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Actives)

	_, err = execute(t, runArgs(input, dir, "--similarity", "cosine")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown similarity metric cosine.")
}

func TestRun_Remote(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Metrics.Enabled = false
	a, err := newApp(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer a.close()
	server := httptest.NewServer(a.router)
	defer server.Close()

	dir := t.TempDir()
	input := writeInput(t, dir)

	out, err := execute(t, append(runArgs(input, dir, "--server", server.URL, "--select", "1,0"), "-o", "json")...)
	require.NoError(t, err)
	var summary RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Actives)
	assert.Len(t, summary.Files, 4)

	dataset, err := os.ReadFile(filepath.Join(dir, "dataset.tsv"))
	require.NoError(t, err)
	assert.Equal(t, compoundsTSV, string(dataset))
	assert.Len(t, readLines(t, filepath.Join(dir, "selection.tsv")), 3)

	_, err = execute(t, "run", "--input", input, "--out-dir", dir, "--server", server.URL, "--act-col", "pIC50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pIC50")

	_, err = execute(t, runArgs(input, dir, "--server", server.URL, "--html", filepath.Join(dir, "r.html"))...)
	assert.Error(t, err)
}
