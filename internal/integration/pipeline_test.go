package integration

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmap-analysis/internal/analyzer"
	"github.com/linkmap-analysis/internal/repository"
	"github.com/linkmap-analysis/internal/testutil"
	"github.com/linkmap-analysis/internal/webui"
	"github.com/linkmap-analysis/pkg/config"
	"github.com/linkmap-analysis/pkg/model"
)

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromReader("yaml", []byte(fmt.Sprintf(`
database:
  enabled: true
  type: sqlite
  sqlite_path: %s
storage:
  type: local
  local_path: %s
batch:
  workers: 2
`, filepath.Join(dir, "db", "reports.db"), filepath.Join(dir, "storage"))))
	require.NoError(t, err)
	return cfg
}

// TestFullAnalysisPipeline runs a build tree through discovery, batch
// analysis, persistence and publishing, then reads everything back.
func TestFullAnalysisPipeline(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, dir)

	buildDir := filepath.Join(dir, "build")
	testutil.WriteSampleMap(t, buildDir, "app/app.map")
	rebuilt := testutil.NewMapBuilder().
		MemoryHeader().
		MemoryRow("FLASH", 0x2000, 0x200, 0, 0x2E00, 0x5000).
		String()
	testutil.WriteFile(t, buildDir, "boot/boot.map", rebuilt)

	ana, deps, err := analyzer.NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer deps.Close()

	ctx := context.Background()

	// Step 1: discover the map files
	inputs, err := analyzer.Discover(ctx, buildDir, cfg.Batch.Pattern)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	// Step 2: analyze them in parallel
	outDir := filepath.Join(dir, "reports")
	results := ana.AnalyzeBatch(ctx, inputs, analyzer.BatchOptions{
		Root:      buildDir,
		OutputDir: outDir,
		Persist:   true,
		Publish:   true,
		Workers:   cfg.Batch.Workers,
	})
	require.Len(t, results, 2)
	assert.Zero(t, analyzer.CountFailed(results))

	appResp := results[0].Response
	require.NotNil(t, appResp)
	testutil.AssertSampleReport(t, appResp.Report)

	// Step 3: the compressed report holds the same data as the pretty one
	gz, err := os.ReadFile(filepath.Join(outDir, "app", "app", "report.json.gz"))
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)

	fromGz := testutil.DecodeJSON[model.MapReport](t, plain)
	fromJSON := testutil.DecodeJSON[model.MapReport](t, []byte(testutil.ReadFile(t, appResp.ReportFile)))
	assert.Equal(t, fromJSON.Regions, fromGz.Regions)
	assert.Equal(t, fromJSON.Digest, fromGz.Digest)

	// Step 4: the published copy is in storage
	ok, err := deps.Storage.Exists(ctx, appResp.PublishedKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// Step 5: the database holds both reports
	repo := deps.Repositories.Report
	summaries, err := repo.ListReports(ctx, repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, summaries, 2)

	stored, err := repo.GetReport(ctx, appResp.ReportID)
	require.NoError(t, err)
	assert.Equal(t, appResp.Report.Regions, stored.Regions)
	assert.Equal(t, appResp.Report.Symbols, stored.Symbols)

	history, err := repo.RegionHistory(ctx, inputs[1], "FLASH", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, uint64(0x2200), history[0].Used())

	// Step 6: a second run is served from the cache and stored once
	again, err := ana.Analyze(ctx, &model.AnalysisRequest{Input: inputs[0], Persist: true})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, appResp.ReportID, again.ReportID)
	assert.Equal(t, int64(1), deps.Cache.Stats().Hits)
}

// TestServeAnalyzedFile checks that the HTTP API and the analyzer agree on a
// map file.
func TestServeAnalyzedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, dir)
	cfg.Database.Enabled = false

	path := testutil.WriteSampleMap(t, dir, "app.map")

	ana, deps, err := analyzer.NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer deps.Close()

	resp, err := ana.Analyze(context.Background(), &model.AnalysisRequest{Input: path})
	require.NoError(t, err)

	srv := httptest.NewServer(webui.NewServer(path, webui.Options{Parser: deps.Parser, Cache: deps.Cache}).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/report")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	served := testutil.DecodeJSON[model.MapReport](t, body)

	assert.Equal(t, resp.Report.Digest, served.Digest)
	assert.Equal(t, resp.Report.Stats, served.Stats)
	// The analyzer filled the cache; the server reused its entry.
	assert.Equal(t, int64(1), deps.Cache.Stats().Hits)
}
