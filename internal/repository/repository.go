// Package repository stores analyzed map reports in a SQL database.
package repository

import (
	"context"
	"time"

	"github.com/linkmap-analysis/pkg/model"
)

// ReportRepository persists map reports.
type ReportRepository interface {
	// SaveReport stores report and returns its ID. Saving a report whose
	// source and digest are already stored returns the existing ID.
	SaveReport(ctx context.Context, report *model.MapReport) (int64, error)

	// GetReport retrieves a report by its ID.
	GetReport(ctx context.Context, id int64) (*model.MapReport, error)

	// GetLatestBySource retrieves the most recently stored report of source.
	GetLatestBySource(ctx context.Context, source string) (*model.MapReport, error)

	// ListReports returns report summaries, newest first.
	ListReports(ctx context.Context, opts ListOptions) ([]ReportSummary, error)

	// DeleteReport removes a report and its region rows.
	DeleteReport(ctx context.Context, id int64) error

	// RegionHistory returns the usage of one memory region across the stored
	// reports of source, newest first.
	RegionHistory(ctx context.Context, source, region string, limit int) ([]RegionUsage, error)
}

// ListOptions filters ListReports. Zero values mean no filter.
type ListOptions struct {
	Source string
	Limit  int
	Offset int
}

// ReportSummary is a stored report without its records.
type ReportSummary struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	model.Summary
}

// RegionUsage is one region row of a stored report.
type RegionUsage struct {
	ReportID int64  `json:"report_id"`
	Digest   string `json:"digest"`
	Code     uint64 `json:"code"`
	Data     uint64 `json:"data"`
	Reserved uint64 `json:"reserved"`
	Free     uint64 `json:"free"`
	Total    uint64 `json:"total"`
}

// Used returns the bytes taken by code, data and reserved space.
func (u RegionUsage) Used() uint64 {
	return u.Code + u.Data + u.Reserved
}
