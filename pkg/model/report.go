package model

import (
	"strings"
	"time"
)

// MapReport holds everything extracted from one map file.
type MapReport struct {
	// Source identifies where the map file came from (path or storage key).
	Source string `json:"source"`

	// Digest is the xxhash64 of the map file text, in hex.
	Digest string `json:"digest"`

	Regions  []MemoryRegion `json:"regions"`
	Symbols  []Symbol       `json:"symbols"`
	Sections []Section      `json:"sections"`
	Stats    MemoryStats    `json:"stats"`

	// Bytes is the size of the map file text.
	Bytes    int       `json:"bytes"`
	ParsedAt time.Time `json:"parsed_at"`
}

// IsEmpty reports whether no record of any kind was extracted.
func (r *MapReport) IsEmpty() bool {
	return len(r.Regions) == 0 && len(r.Symbols) == 0 && len(r.Sections) == 0
}

// Region returns the region with the given name.
func (r *MapReport) Region(name string) (MemoryRegion, bool) {
	for _, reg := range r.Regions {
		if reg.Name == name {
			return reg, true
		}
	}
	return MemoryRegion{}, false
}

// SectionsByOutput returns the linked sections placed into an output section
// whose name contains substr. An empty substr returns all sections.
func (r *MapReport) SectionsByOutput(substr string) []Section {
	if substr == "" {
		return r.Sections
	}
	result := make([]Section, 0)
	for _, s := range r.Sections {
		if strings.Contains(s.OutputSection, substr) {
			result = append(result, s)
		}
	}
	return result
}

// Summary is the compact form of a report stored alongside the full JSON.
type Summary struct {
	Source       string      `json:"source"`
	Digest       string      `json:"digest"`
	RegionCount  int         `json:"region_count"`
	SymbolCount  int         `json:"symbol_count"`
	SectionCount int         `json:"section_count"`
	Stats        MemoryStats `json:"stats"`
}

// Summarize returns the summary of the report.
func (r *MapReport) Summarize() Summary {
	return Summary{
		Source:       r.Source,
		Digest:       r.Digest,
		RegionCount:  len(r.Regions),
		SymbolCount:  len(r.Symbols),
		SectionCount: len(r.Sections),
		Stats:        r.Stats,
	}
}
