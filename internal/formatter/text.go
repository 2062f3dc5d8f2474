package formatter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/linkmap-analysis/pkg/model"
)

// TextFormatter renders tables for terminals.
type TextFormatter struct{}

// NewTextFormatter creates a TextFormatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Name returns "text".
func (f *TextFormatter) Name() string {
	return "text"
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

// size renders a byte count as hex with a human readable suffix.
func size(n uint64) string {
	return fmt.Sprintf("0x%X (%s)", n, humanize.IBytes(n))
}

func usage(s model.MemoryStats) string {
	return fmt.Sprintf("%s of %s (%.2f%%)", humanize.IBytes(s.Used), humanize.IBytes(s.Total), s.Percentage)
}

// FormatMemory writes one row per region and a totals footer.
func (f *TextFormatter) FormatMemory(w io.Writer, regions []model.MemoryRegion, stats model.MemoryStats) error {
	if len(regions) == 0 {
		_, err := fmt.Fprintln(w, "No memory usage found.")
		return err
	}

	table := newTable(w, "Region", "Code", "Data", "Reserved", "Free", "Total", "Used %")
	for _, r := range regions {
		table.Append([]string{
			r.Name,
			size(r.Code),
			size(r.Data),
			size(r.Reserved),
			size(r.Free),
			size(r.Total),
			fmt.Sprintf("%.2f", r.Percentage()),
		})
	}
	table.SetFooter([]string{"", "", "", "", "Used", humanize.IBytes(stats.Used), fmt.Sprintf("%.2f", stats.Percentage)})
	table.Render()
	return nil
}

// FormatSymbols writes one row per symbol.
func (f *TextFormatter) FormatSymbols(w io.Writer, symbols []model.Symbol) error {
	if len(symbols) == 0 {
		_, err := fmt.Fprintln(w, "No symbols found.")
		return err
	}

	table := newTable(w, "Name", "Address", "Space", "Section")
	for _, s := range symbols {
		table.Append([]string{s.Name, s.Address, s.Space, s.Section})
	}
	table.Render()
	_, err := fmt.Fprintf(w, "%d symbols\n", len(symbols))
	return err
}

// FormatSections writes one row per linked section.
func (f *TextFormatter) FormatSections(w io.Writer, sections []model.Section) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintln(w, "No linked sections found.")
		return err
	}

	table := newTable(w, "File", "Section", "Size", "Offset", "Output Section")
	var total uint64
	for _, s := range sections {
		total += s.Size
		table.Append([]string{
			s.File,
			s.Name,
			size(s.Size),
			fmt.Sprintf("0x%08X", s.Offset),
			s.OutputSection,
		})
	}
	table.SetFooter([]string{"", strconv.Itoa(len(sections)) + " sections", humanize.IBytes(total), "", ""})
	table.Render()
	return nil
}

// FormatStats writes the whole-program usage.
func (f *TextFormatter) FormatStats(w io.Writer, stats model.MemoryStats) error {
	table := newTable(w, "Used", "Total", "Used %")
	table.Append([]string{size(stats.Used), size(stats.Total), fmt.Sprintf("%.2f", stats.Percentage)})
	table.Render()
	return nil
}

// FormatReport writes every part of report.
func (f *TextFormatter) FormatReport(w io.Writer, report *model.MapReport) error {
	fmt.Fprintf(w, "Source: %s\nDigest: %s\nUsage:  %s\n\n", report.Source, report.Digest, usage(report.Stats))

	steps := []func() error{
		func() error { return f.FormatMemory(w, report.Regions, report.Stats) },
		func() error { return f.FormatSections(w, report.Sections) },
		func() error { return f.FormatSymbols(w, report.Symbols) },
	}
	for i, step := range steps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// FormatBatch writes one row per batch input.
func (f *TextFormatter) FormatBatch(w io.Writer, results []model.BatchResult) error {
	table := newTable(w, "Input", "Status", "Used", "Used %", "Detail")
	failed := 0
	for _, r := range results {
		if r.Error != "" || r.Response == nil || r.Response.Report == nil {
			failed++
			table.Append([]string{r.Input, "FAILED", "", "", r.Error})
			continue
		}

		stats := r.Response.Report.Stats
		detail := r.Response.ReportFile
		if r.Response.Cached {
			detail = "cached " + detail
		}
		table.Append([]string{r.Input, "OK", humanize.IBytes(stats.Used), fmt.Sprintf("%.2f", stats.Percentage), detail})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "%d analyzed, %d failed\n", len(results)-failed, failed)
	return err
}
