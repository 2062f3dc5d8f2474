package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmap-analysis/pkg/model"
)

// Expected contents of the sample map file.
const (
	SampleRegionCount  = 2
	SampleSymbolCount  = 4
	SampleSectionCount = 3
	SampleUsedBytes    = 6912
	SampleTotalBytes   = 28672
	SampleMainLine     = 46
)

// SampleRegions returns the memory regions of the sample map file.
func SampleRegions() []model.MemoryRegion {
	return []model.MemoryRegion{
		{Name: "FLASH", Code: 0x1000, Data: 0x200, Reserved: 0x0, Free: 0x3E00, Total: 0x5000},
		{Name: "RAM", Code: 0x0, Data: 0x800, Reserved: 0x100, Free: 0x1700, Total: 0x2000},
	}
}

// SampleSymbols returns the symbols of the sample map file.
func SampleSymbols() []model.Symbol {
	return []model.Symbol{
		{Name: "_start", Address: "0x08000000", Space: "CODE"},
		{Name: "buffer", Address: "0x20000000", Space: "DATA"},
		{Name: "main", Address: "0x08001234", Space: "DATA"},
		{Name: "uninit", Address: "0x20000400", Space: ""},
	}
}

// SampleSections returns the linked sections of the sample map file.
func SampleSections() []model.Section {
	return []model.Section{
		{File: "cstart.o", Name: ".text.cstart", Size: 0x40, Offset: 0x08000000, OutputSection: ".text.cstart"},
		{File: "main.o", Name: ".text.main", Size: 0x120, Offset: 0x08000100, OutputSection: ".text"},
		{File: "main.o", Name: ".bss.buffer", Size: 0x200, Offset: 0x20000000, OutputSection: ".bss"},
	}
}

// AssertSampleReport asserts that report holds the records of the sample map file.
func AssertSampleReport(t *testing.T, report *model.MapReport) {
	t.Helper()
	require.NotNil(t, report)

	assert.Equal(t, SampleRegions(), report.Regions)
	assert.Equal(t, SampleSymbols(), report.Symbols)
	assert.Equal(t, SampleSections(), report.Sections)
	assert.Equal(t, uint64(SampleUsedBytes), report.Stats.Used)
	assert.Equal(t, uint64(SampleTotalBytes), report.Stats.Total)
	assert.InDelta(t, 24.107, report.Stats.Percentage, 0.001)
	assert.Len(t, report.Digest, 16)
}

// AssertJSONEqual asserts that two JSON strings are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()
	assert.JSONEq(t, expected, actual)
}

// DecodeJSON unmarshals data into a value of type T, failing the test on error.
func DecodeJSON[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}
