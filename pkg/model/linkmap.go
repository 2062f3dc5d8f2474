// Package model defines the records extracted from linker map files and the
// report types passed between the parser, analyzer and persistence layers.
package model

// MemoryRegion is one row of the "Memory usage in bytes" table.
// Total is expected to be at least Code+Data+Reserved, but nothing enforces it.
type MemoryRegion struct {
	Name     string `json:"name"`
	Code     uint64 `json:"code"`
	Data     uint64 `json:"data"`
	Reserved uint64 `json:"reserved"`
	Free     uint64 `json:"free"`
	Total    uint64 `json:"total"`
}

// Used returns the bytes of the region taken by code, data and reserved space.
func (r MemoryRegion) Used() uint64 {
	return r.Code + r.Data + r.Reserved
}

// Percentage returns Used as a percentage of Total, or 0 for an empty region.
func (r MemoryRegion) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Used()) / float64(r.Total) * 100
}

// Symbol is one row of the name-sorted symbol listing.
//
// Address keeps the lexical form found in the map file (e.g. "0x08001234")
// so that callers can search for it in the original text.
type Symbol struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Space   string `json:"space"`
	Section string `json:"section,omitempty"`
}

// Section is a linked section from the "Link Result" table: an input section
// of an object file and the output section it was placed into.
type Section struct {
	File          string `json:"file"`
	Name          string `json:"name"`
	Size          uint64 `json:"size"`
	Offset        uint64 `json:"offset"`
	OutputSection string `json:"output_section"`
}

// MemoryStats is the whole-program memory usage derived from all regions.
type MemoryStats struct {
	Used       uint64  `json:"used"`
	Total      uint64  `json:"total"`
	Percentage float64 `json:"percentage"`
}

// NewMemoryStats folds regions into a MemoryStats. Percentage is 0 when the
// summed total is 0.
func NewMemoryStats(regions []MemoryRegion) MemoryStats {
	var stats MemoryStats
	for _, r := range regions {
		stats.Used += r.Used()
		stats.Total += r.Total
	}
	if stats.Total > 0 {
		stats.Percentage = float64(stats.Used) / float64(stats.Total) * 100
	}
	return stats
}
