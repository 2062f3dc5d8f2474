package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linkmap-analysis/pkg/model"
)

// MapReportRecord represents the map_reports table. Payload holds the full
// report as JSON; the counters are kept as columns for listing.
type MapReportRecord struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Source       string    `gorm:"column:source;type:varchar(512);uniqueIndex:uniq_source_digest"`
	Digest       string    `gorm:"column:digest;type:varchar(32);uniqueIndex:uniq_source_digest"`
	RegionCount  int       `gorm:"column:region_count"`
	SymbolCount  int       `gorm:"column:symbol_count"`
	SectionCount int       `gorm:"column:section_count"`
	UsedBytes    uint64    `gorm:"column:used_bytes"`
	TotalBytes   uint64    `gorm:"column:total_bytes"`
	Percentage   float64   `gorm:"column:percentage"`
	Payload      JSONField `gorm:"column:payload;type:json"`
	ParsedAt     time.Time `gorm:"column:parsed_at"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	Regions []MemoryRegionRecord `gorm:"foreignKey:ReportID"`
}

// TableName returns the table name for MapReportRecord.
func (MapReportRecord) TableName() string {
	return "map_reports"
}

// MemoryRegionRecord represents the map_memory_regions table.
type MemoryRegionRecord struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ReportID int64  `gorm:"column:report_id;index"`
	Name     string `gorm:"column:name;type:varchar(128);index"`
	Code     uint64 `gorm:"column:code"`
	Data     uint64 `gorm:"column:data"`
	Reserved uint64 `gorm:"column:reserved"`
	Free     uint64 `gorm:"column:free"`
	Total    uint64 `gorm:"column:total"`
}

// TableName returns the table name for MemoryRegionRecord.
func (MemoryRegionRecord) TableName() string {
	return "map_memory_regions"
}

// newReportRecord converts a report into its table rows.
func newReportRecord(report *model.MapReport) (*MapReportRecord, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	record := &MapReportRecord{
		Source:       report.Source,
		Digest:       report.Digest,
		RegionCount:  len(report.Regions),
		SymbolCount:  len(report.Symbols),
		SectionCount: len(report.Sections),
		UsedBytes:    report.Stats.Used,
		TotalBytes:   report.Stats.Total,
		Percentage:   report.Stats.Percentage,
		Payload:      payload,
		ParsedAt:     report.ParsedAt,
	}

	for _, r := range report.Regions {
		record.Regions = append(record.Regions, MemoryRegionRecord{
			Name:     r.Name,
			Code:     r.Code,
			Data:     r.Data,
			Reserved: r.Reserved,
			Free:     r.Free,
			Total:    r.Total,
		})
	}
	return record, nil
}

// ToModel decodes the stored report.
func (r *MapReportRecord) ToModel() (*model.MapReport, error) {
	if len(r.Payload) == 0 {
		return nil, fmt.Errorf("report %d has no payload", r.ID)
	}

	var report model.MapReport
	if err := json.Unmarshal(r.Payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %d: %w", r.ID, err)
	}
	return &report, nil
}

// ToSummary returns the listing form of the record.
func (r *MapReportRecord) ToSummary() ReportSummary {
	return ReportSummary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Summary: model.Summary{
			Source:       r.Source,
			Digest:       r.Digest,
			RegionCount:  r.RegionCount,
			SymbolCount:  r.SymbolCount,
			SectionCount: r.SectionCount,
			Stats: model.MemoryStats{
				Used:       r.UsedBytes,
				Total:      r.TotalBytes,
				Percentage: r.Percentage,
			},
		},
	}
}

// JSONField is a JSON column stored as raw bytes.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = []byte(v)
	default:
		return errors.New("unsupported type for JSONField")
	}
	return nil
}
