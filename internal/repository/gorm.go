package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/model"
)

// GormReportRepository implements ReportRepository using GORM.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository.
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// SaveReport stores report together with its region rows. A report whose
// source and digest are already stored is not inserted again; the ID of the
// stored row is returned instead.
func (r *GormReportRepository) SaveReport(ctx context.Context, report *model.MapReport) (int64, error) {
	if report == nil {
		return 0, apperrors.New(apperrors.CodeInvalidInput, "report is nil")
	}

	record, err := newReportRecord(report)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to encode report", err)
	}
	regions := record.Regions
	record.Regions = nil

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique index on (source, digest) settles concurrent saves.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "digest"}},
			DoNothing: true,
		}).Omit("Regions").Create(record)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var existing MapReportRecord
			if err := tx.Select("id").
				Where("source = ? AND digest = ?", report.Source, report.Digest).
				First(&existing).Error; err != nil {
				return err
			}
			record.ID = existing.ID
			return nil
		}

		if len(regions) == 0 {
			return nil
		}
		for i := range regions {
			regions[i].ReportID = record.ID
		}
		return tx.Create(&regions).Error
	})
	if err != nil {
		return 0, dbError("failed to save report", err)
	}
	return record.ID, nil
}

// GetReport retrieves a report by its ID.
func (r *GormReportRepository) GetReport(ctx context.Context, id int64) (*model.MapReport, error) {
	var record MapReportRecord

	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("report not found: %d", id))
		}
		return nil, dbError("failed to get report", err)
	}

	return record.ToModel()
}

// GetLatestBySource retrieves the newest report stored for source.
func (r *GormReportRepository) GetLatestBySource(ctx context.Context, source string) (*model.MapReport, error) {
	var record MapReportRecord

	err := r.db.WithContext(ctx).
		Where("source = ?", source).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "no report for source: "+source)
		}
		return nil, dbError("failed to get latest report", err)
	}

	return record.ToModel()
}

// ListReports returns report summaries, newest first.
func (r *GormReportRepository) ListReports(ctx context.Context, opts ListOptions) ([]ReportSummary, error) {
	var records []MapReportRecord

	query := r.db.WithContext(ctx).Order("id DESC")
	if opts.Source != "" {
		query = query.Where("source = ?", opts.Source)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, dbError("failed to list reports", err)
	}

	result := make([]ReportSummary, len(records))
	for i := range records {
		result[i] = records[i].ToSummary()
	}
	return result, nil
}

// DeleteReport removes a report and its region rows.
func (r *GormReportRepository) DeleteReport(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&MemoryRegionRecord{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&MapReportRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("report not found: %d", id))
		}
		return dbError("failed to delete report", err)
	}
	return nil
}

// RegionHistory returns the usage of region across the reports of source.
func (r *GormReportRepository) RegionHistory(ctx context.Context, source, region string, limit int) ([]RegionUsage, error) {
	var rows []RegionUsage

	query := r.db.WithContext(ctx).
		Table("map_memory_regions").
		Select("map_reports.id AS report_id, map_reports.digest, map_memory_regions.code, " +
			"map_memory_regions.data, map_memory_regions.reserved, map_memory_regions.free, map_memory_regions.total").
		Joins("JOIN map_reports ON map_reports.id = map_memory_regions.report_id").
		Where("map_reports.source = ? AND map_memory_regions.name = ?", source, region).
		Order("map_reports.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, dbError("failed to query region history", err)
	}
	return rows, nil
}

func dbError(message string, err error) error {
	return apperrors.Wrap(apperrors.CodeDatabaseError, message, err)
}
