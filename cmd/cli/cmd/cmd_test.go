package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmap-analysis/internal/testutil"
	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/model"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	// Keeps the default ./storage directory and config lookup out of the source tree.
	testutil.Chdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	a := &app{}
	root := a.rootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	a.close()
	return stdout.String(), stderr.String(), err
}

func sampleFile(t *testing.T) string {
	t.Helper()
	return testutil.WriteSampleMap(t, t.TempDir(), "app.map")
}

func TestMemoryCommand(t *testing.T) {
	path := sampleFile(t)

	out, _, err := run(t, "memory", "-i", path)
	require.NoError(t, err)
	assert.Contains(t, out, "FLASH")
	assert.Contains(t, out, "RAM")
	assert.Contains(t, out, "24.11")

	out, _, err = run(t, "memory", "-i", path, "--json")
	require.NoError(t, err)
	got := testutil.DecodeJSON[struct {
		Regions []model.MemoryRegion `json:"regions"`
		Stats   model.MemoryStats    `json:"stats"`
	}](t, []byte(out))
	assert.Equal(t, testutil.SampleRegions(), got.Regions)
	assert.Equal(t, uint64(testutil.SampleTotalBytes), got.Stats.Total)
}

func TestSymbolsCommand(t *testing.T) {
	out, _, err := run(t, "symbols", "-i", sampleFile(t), "--json")
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleSymbols(), testutil.DecodeJSON[[]model.Symbol](t, []byte(out)))

	text := testutil.NewMapBuilder().
		SymbolsByName().
		SymbolRow("isr", "0x100", "CODE", ".text.isr").
		SymbolRow("plain", "0x300", "CODE").
		String()
	path := testutil.WriteFile(t, t.TempDir(), "sections.map", text)

	out, _, err = run(t, "symbols", "-i", path, "--section", ".text", "--json")
	require.NoError(t, err)
	symbols := testutil.DecodeJSON[[]model.Symbol](t, []byte(out))
	require.Len(t, symbols, 1)
	assert.Equal(t, "isr", symbols[0].Name)
}

func TestSectionsCommand(t *testing.T) {
	out, _, err := run(t, "sections", "-i", sampleFile(t), "--output-section", ".bss")
	require.NoError(t, err)
	assert.Contains(t, out, ".bss.buffer")
	assert.NotContains(t, out, ".text.main")
	assert.Contains(t, out, "1 sections")
}

func TestStatsCommand(t *testing.T) {
	out, _, err := run(t, "stats", "-i", sampleFile(t), "--json")
	require.NoError(t, err)

	stats := testutil.DecodeJSON[model.MemoryStats](t, []byte(out))
	assert.Equal(t, uint64(testutil.SampleUsedBytes), stats.Used)
	assert.InDelta(t, 24.107, stats.Percentage, 0.001)
}

func TestFindCommand(t *testing.T) {
	path := sampleFile(t)

	out, _, err := run(t, "find", "-i", path, "main")
	require.NoError(t, err)
	assert.Contains(t, out, "Address: 0x08001234")
	assert.Contains(t, out, fmt.Sprintf("Defined: %s:%d", path, testutil.SampleMainLine))

	out, _, err = run(t, "find", "-i", path, "--address-only", "buffer")
	require.NoError(t, err)
	assert.Equal(t, "0x20000000\n", out)

	_, _, err = run(t, "find", "-i", path, "Main")
	require.Error(t, err)
	assert.Equal(t, 3, apperrors.ExitCode(err))
	assert.Contains(t, err.Error(), `symbol "Main" not found`)

	_, _, err = run(t, "find", "-i", path)
	assert.Error(t, err)
}

func TestInspect_MissingFile(t *testing.T) {
	_, _, err := run(t, "memory", "-i", filepath.Join(t.TempDir(), "missing.map"))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	_, _, err = run(t, "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestAnalyzeCommand(t *testing.T) {
	path := sampleFile(t)
	outDir := t.TempDir()

	out, _, err := run(t, "analyze", "-i", path, "-o", outDir, "--json")
	require.NoError(t, err)

	resp := testutil.DecodeJSON[model.AnalysisResponse](t, []byte(out))
	assert.Equal(t, filepath.Join(outDir, "report.json"), resp.ReportFile)
	assert.True(t, testutil.FileExists(t, filepath.Join(outDir, "report.json")))
	assert.True(t, testutil.FileExists(t, filepath.Join(outDir, "report.json.gz")))
	testutil.AssertSampleReport(t, resp.Report)
}

func TestAnalyzeCommand_Persist(t *testing.T) {
	dir := t.TempDir()
	configFile := testutil.WriteFile(t, dir, "config.yaml", fmt.Sprintf(`
database:
  enabled: true
  type: sqlite
  sqlite_path: %s
storage:
  type: local
  local_path: %s
`, filepath.Join(dir, "reports.db"), filepath.Join(dir, "storage")))

	out, _, err := run(t, "--config", configFile, "analyze", "-i", sampleFile(t), "-o", "", "--persist", "--publish", "--json")
	require.NoError(t, err)

	resp := testutil.DecodeJSON[model.AnalysisResponse](t, []byte(out))
	assert.Positive(t, resp.ReportID)
	assert.Empty(t, resp.ReportFile)
	assert.True(t, strings.HasPrefix(resp.PublishedKey, "reports/"))
	assert.True(t, testutil.FileExists(t, filepath.Join(dir, "storage", filepath.FromSlash(resp.PublishedKey))))
}

func TestAnalyzeCommand_PersistWithoutDatabase(t *testing.T) {
	_, _, err := run(t, "analyze", "-i", sampleFile(t), "-o", "", "--persist")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
}

func TestBatchCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WriteSampleMap(t, root, "a/app.map")
	testutil.WriteSampleMap(t, root, "b/boot.map")
	testutil.WriteFile(t, root, "b/notes.txt", "not a map")
	outDir := t.TempDir()

	out, _, err := run(t, "batch", "-d", root, "-o", outDir, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 analyzed, 0 failed")
	assert.True(t, testutil.FileExists(t, filepath.Join(outDir, "a", "app", "report.json")))
	assert.True(t, testutil.FileExists(t, filepath.Join(outDir, "b", "boot", "report.json")))

	out, _, err = run(t, "batch", "-d", root, "--pattern", "a/*.map", "-o", "", "--json")
	require.NoError(t, err)
	results := testutil.DecodeJSON[[]model.BatchResult](t, []byte(out))
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(root, "a", "app.map"), results[0].Input)
}

func TestBatchCommand_Failures(t *testing.T) {
	root := t.TempDir()
	testutil.WriteSampleMap(t, root, "app.map")
	testutil.WriteFile(t, root, "empty.map", "")

	out, _, err := run(t, "batch", "-d", root, "-o", "")
	require.Error(t, err)
	assert.Equal(t, 1, apperrors.ExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 map files failed")
	assert.Contains(t, out, "FAILED")

	_, _, err = run(t, "batch", "-d", root, "--pattern", "**/*.elf")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version dev")
	assert.Contains(t, out, "Go Version:")
}

func TestServeCommand_MissingFile(t *testing.T) {
	_, _, err := run(t, "serve", "-i", filepath.Join(t.TempDir(), "missing.map"))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRoot_InvalidConfig(t *testing.T) {
	configFile := testutil.WriteFile(t, t.TempDir(), "config.yaml", "batch:\n  workers: 0\n")

	_, _, err := run(t, "--config", configFile, "stats", "-i", sampleFile(t))
	require.Error(t, err)
	assert.Equal(t, 2, apperrors.ExitCode(err))
}
