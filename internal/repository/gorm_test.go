package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

func testReport(source, digest string, ramUsed uint64) *model.MapReport {
	regions := []model.MemoryRegion{
		{Name: "FLASH", Code: 0x1000, Data: 0x200, Total: 0x5000},
		{Name: "RAM", Data: ramUsed, Total: 0x2000},
	}
	return &model.MapReport{
		Source:  source,
		Digest:  digest,
		Regions: regions,
		Symbols: []model.Symbol{
			{Name: "main", Address: "0x80000100", Space: "code", Section: ".text.main"},
		},
		Sections: []model.Section{
			{File: "main.o", Name: ".text.main", Size: 0x40, Offset: 0x100, OutputSection: ".text"},
		},
		Stats:    model.NewMemoryStats(regions),
		ParsedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGormReportRepository_SaveAndGet(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))
	ctx := context.Background()

	report := testReport("build/app.map", "aaaa", 0x400)
	id, err := repo.SaveReport(ctx, report)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := repo.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, report.Source, got.Source)
	assert.Equal(t, report.Regions, got.Regions)
	assert.Equal(t, report.Symbols, got.Symbols)
	assert.Equal(t, report.Sections, got.Sections)
	assert.Equal(t, report.Stats, got.Stats)
	assert.True(t, report.ParsedAt.Equal(got.ParsedAt))
}

func TestGormReportRepository_SaveIsIdempotentPerDigest(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))
	ctx := context.Background()

	first, err := repo.SaveReport(ctx, testReport("app.map", "aaaa", 0x400))
	require.NoError(t, err)

	again, err := repo.SaveReport(ctx, testReport("app.map", "aaaa", 0x400))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	changed, err := repo.SaveReport(ctx, testReport("app.map", "bbbb", 0x800))
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestGormReportRepository_ConcurrentSavesStoreOneRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReportRepository(db)
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.SaveReport(ctx, testReport("app.map", "aaaa", 0x400))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var reports, regions int64
	require.NoError(t, db.Model(&MapReportRecord{}).Count(&reports).Error)
	require.NoError(t, db.Model(&MemoryRegionRecord{}).Count(&regions).Error)
	assert.Equal(t, int64(1), reports)
	assert.Equal(t, int64(2), regions)
}

func TestGormReportRepository_UniqueSourceDigest(t *testing.T) {
	db := setupTestDB(t)

	record, err := newReportRecord(testReport("app.map", "aaaa", 0x400))
	require.NoError(t, err)
	record.Regions = nil
	require.NoError(t, db.Create(record).Error)

	dup, err := newReportRecord(testReport("app.map", "aaaa", 0x400))
	require.NoError(t, err)
	dup.Regions = nil
	assert.Error(t, db.Create(dup).Error)
}

func TestGormReportRepository_SaveNil(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))

	_, err := repo.SaveReport(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
}

func TestGormReportRepository_GetNotFound(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.GetReport(ctx, 999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "report not found")

	_, err = repo.GetLatestBySource(ctx, "missing.map")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormReportRepository_GetLatestBySource(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.SaveReport(ctx, testReport("app.map", "aaaa", 0x400))
	require.NoError(t, err)
	_, err = repo.SaveReport(ctx, testReport("other.map", "cccc", 0x100))
	require.NoError(t, err)
	_, err = repo.SaveReport(ctx, testReport("app.map", "bbbb", 0x800))
	require.NoError(t, err)

	latest, err := repo.GetLatestBySource(ctx, "app.map")
	require.NoError(t, err)
	assert.Equal(t, "bbbb", latest.Digest)
}

func TestGormReportRepository_ListReports(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))
	ctx := context.Background()

	for _, digest := range []string{"d1", "d2", "d3"} {
		_, err := repo.SaveReport(ctx, testReport("app.map", digest, 0x400))
		require.NoError(t, err)
	}
	_, err := repo.SaveReport(ctx, testReport("boot.map", "b1", 0x10))
	require.NoError(t, err)

	t.Run("All", func(t *testing.T) {
		list, err := repo.ListReports(ctx, ListOptions{})
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "b1", list[0].Digest)
		assert.Equal(t, 2, list[0].RegionCount)
		assert.Equal(t, 1, list[0].SymbolCount)
	})

	t.Run("BySourceWithPaging", func(t *testing.T) {
		list, err := repo.ListReports(ctx, ListOptions{Source: "app.map", Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "d2", list[0].Digest)
		assert.Equal(t, "d1", list[1].Digest)
		assert.Equal(t, uint64(0x1000+0x200+0x400), list[0].Stats.Used)
	})
}

func TestGormReportRepository_DeleteReport(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReportRepository(db)
	ctx := context.Background()

	id, err := repo.SaveReport(ctx, testReport("app.map", "aaaa", 0x400))
	require.NoError(t, err)

	var regions int64
	require.NoError(t, db.Model(&MemoryRegionRecord{}).Where("report_id = ?", id).Count(&regions).Error)
	assert.Equal(t, int64(2), regions)

	require.NoError(t, repo.DeleteReport(ctx, id))

	require.NoError(t, db.Model(&MemoryRegionRecord{}).Where("report_id = ?", id).Count(&regions).Error)
	assert.Zero(t, regions)

	err = repo.DeleteReport(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormReportRepository_RegionHistory(t *testing.T) {
	repo := NewGormReportRepository(setupTestDB(t))
	ctx := context.Background()

	for i, digest := range []string{"d1", "d2", "d3"} {
		_, err := repo.SaveReport(ctx, testReport("app.map", digest, uint64(0x100*(i+1))))
		require.NoError(t, err)
	}

	history, err := repo.RegionHistory(ctx, "app.map", "RAM", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "d3", history[0].Digest)
	assert.Equal(t, uint64(0x300), history[0].Used())
	assert.Equal(t, uint64(0x2000), history[0].Total)
	assert.Equal(t, "d2", history[1].Digest)

	none, err := repo.RegionHistory(ctx, "app.map", "SRAM2", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
