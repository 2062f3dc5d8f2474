package linkmap

import (
	"strings"

	"github.com/linkmap-analysis/pkg/model"
)

// TotalMemoryStats sums the usage of every memory region.
// An empty table gives zero stats, not an error.
func (d *Document) TotalMemoryStats() model.MemoryStats {
	return model.NewMemoryStats(d.ParseMemoryUsage())
}

// FindSymbol returns the symbol with exactly the given name.
func (d *Document) FindSymbol(name string) (model.Symbol, bool) {
	for _, s := range d.ParseSymbols() {
		if s.Name == name {
			return s, true
		}
	}
	return model.Symbol{}, false
}

// SymbolAddress returns the address of the symbol with exactly the given name,
// as written in the map file.
func (d *Document) SymbolAddress(name string) (string, bool) {
	s, ok := d.FindSymbol(name)
	if !ok {
		return "", false
	}
	return s.Address, true
}

// SymbolsInSection returns the symbols whose section column contains substr.
// Symbols without a section column never match.
func (d *Document) SymbolsInSection(substr string) []model.Symbol {
	result := make([]model.Symbol, 0)
	for _, s := range d.ParseSymbols() {
		if s.Section != "" && strings.Contains(s.Section, substr) {
			result = append(result, s)
		}
	}
	return result
}

// SymbolOffset returns the document offset of the start of the row that
// defines name in the name-sorted listing.
func (d *Document) SymbolOffset(name string) (int, bool) {
	for _, r := range d.symbolRows() {
		if r.symbol.Name == name {
			return r.offset, true
		}
	}
	return 0, false
}

// Location is where a symbol is defined in the map file.
type Location struct {
	Symbol model.Symbol `json:"symbol"`
	Offset int          `json:"offset"`
	Line   int          `json:"line"`
}

// Locate returns the symbol with the given name and the position of its row.
func (d *Document) Locate(name string) (Location, bool) {
	for _, r := range d.symbolRows() {
		if r.symbol.Name == name {
			return Location{
				Symbol: r.symbol,
				Offset: r.offset,
				Line:   d.LineOf(r.offset),
			}, true
		}
	}
	return Location{}, false
}
