package formatter

import (
	"io"

	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/writer"
)

// JSONFormatter writes pretty printed JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns "json".
func (f *JSONFormatter) Name() string {
	return "json"
}

func writeJSON[T any](w io.Writer, v T) error {
	return writer.NewPrettyJSONWriter[T]().Write(v, w)
}

// FormatMemory writes {"regions": [...], "stats": {...}}.
func (f *JSONFormatter) FormatMemory(w io.Writer, regions []model.MemoryRegion, stats model.MemoryStats) error {
	if regions == nil {
		regions = []model.MemoryRegion{}
	}
	return writeJSON(w, struct {
		Regions []model.MemoryRegion `json:"regions"`
		Stats   model.MemoryStats    `json:"stats"`
	}{regions, stats})
}

// FormatSymbols writes the symbols as an array.
func (f *JSONFormatter) FormatSymbols(w io.Writer, symbols []model.Symbol) error {
	if symbols == nil {
		symbols = []model.Symbol{}
	}
	return writeJSON(w, symbols)
}

// FormatSections writes the sections as an array.
func (f *JSONFormatter) FormatSections(w io.Writer, sections []model.Section) error {
	if sections == nil {
		sections = []model.Section{}
	}
	return writeJSON(w, sections)
}

// FormatStats writes the stats object.
func (f *JSONFormatter) FormatStats(w io.Writer, stats model.MemoryStats) error {
	return writeJSON(w, stats)
}

// FormatReport writes the whole report.
func (f *JSONFormatter) FormatReport(w io.Writer, report *model.MapReport) error {
	return writeJSON(w, report)
}

// FormatBatch writes the batch results as an array.
func (f *JSONFormatter) FormatBatch(w io.Writer, results []model.BatchResult) error {
	if results == nil {
		results = []model.BatchResult{}
	}
	return writeJSON(w, results)
}
