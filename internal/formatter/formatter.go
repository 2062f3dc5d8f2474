// Package formatter renders map reports for the command line.
package formatter

import (
	"fmt"
	"io"
	"sort"

	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/utils"
)

// ReportFormatter writes the parts of a map report to w.
type ReportFormatter interface {
	// Name returns the name used to select the formatter, e.g. "text".
	Name() string

	FormatMemory(w io.Writer, regions []model.MemoryRegion, stats model.MemoryStats) error
	FormatSymbols(w io.Writer, symbols []model.Symbol) error
	FormatSections(w io.Writer, sections []model.Section) error
	FormatStats(w io.Writer, stats model.MemoryStats) error
	FormatReport(w io.Writer, report *model.MapReport) error
	FormatBatch(w io.Writer, results []model.BatchResult) error
}

// Registry manages formatter instances.
type Registry struct {
	formatters map[string]ReportFormatter
}

// NewRegistry creates a registry holding the text and JSON formatters.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[string]ReportFormatter)}
	r.Register(NewTextFormatter())
	r.Register(NewJSONFormatter())
	return r
}

// Register registers a formatter under its name.
func (r *Registry) Register(f ReportFormatter) {
	r.formatters[f.Name()] = f
}

// Get returns the formatter called name.
func (r *Registry) Get(name string) (ReportFormatter, error) {
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.Names())
	}
	return f, nil
}

// Names returns the registered formatter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formatters))
	for n := range r.formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LogResponse writes a summary of an analysis to log.
func LogResponse(resp *model.AnalysisResponse, log utils.Logger) {
	if resp == nil || resp.Report == nil {
		return
	}
	report := resp.Report

	log.Info("=== Analysis Results ===")
	log.Info("Source:    %s", report.Source)
	log.Info("Digest:    %s", report.Digest)
	log.Info("Regions:   %d", len(report.Regions))
	log.Info("Symbols:   %d", len(report.Symbols))
	log.Info("Sections:  %d", len(report.Sections))
	log.Info("Usage:     %s", usage(report.Stats))
	if resp.Cached {
		log.Info("Cached:    yes")
	}

	if resp.ReportFile != "" || resp.PublishedKey != "" || resp.ReportID != 0 {
		log.Info("=== Output ===")
	}
	if resp.ReportFile != "" {
		log.Info("  report:     %s", resp.ReportFile)
		log.Info("  compressed: %s", resp.CompressedFile)
	}
	if resp.PublishedKey != "" {
		log.Info("  published:  %s", resp.PublishedKey)
	}
	if resp.ReportID != 0 {
		log.Info("  report id:  %d", resp.ReportID)
	}
}
