package linkmap

import (
	"github.com/linkmap-analysis/pkg/model"
)

// ParseMemoryUsage returns the rows of the memory usage table in document
// order. The header and total rows are left out; a region name that repeats
// yields one region per row.
func (d *Document) ParseMemoryUsage() []model.MemoryRegion {
	regions := make([]model.MemoryRegion, 0)

	block, ok := d.FindBlock(MemoryUsageTitle)
	if !ok {
		return regions
	}

	for _, r := range extractRows(block, memoryRowPattern) {
		name := r.fields[0]
		if name == memoryHeaderName || name == memoryTotalName {
			continue
		}

		v, ok := parseHexFields(r.fields[1:6])
		if !ok {
			continue
		}

		regions = append(regions, model.MemoryRegion{
			Name:     name,
			Code:     v[0],
			Data:     v[1],
			Reserved: v[2],
			Free:     v[3],
			Total:    v[4],
		})
	}

	return regions
}

// symbolsBlock returns the name-sorted symbol listing. The address-sorted
// listing that follows repeats the same symbols and is excluded.
func (d *Document) symbolsBlock() (Block, bool) {
	return d.Slice(SymbolsByNameMarker, SymbolsByAddressMarker)
}

// symbolRow is a symbol together with the document offset of its row.
type symbolRow struct {
	symbol model.Symbol
	offset int
}

// symbolRows extracts the name-sorted listing, keeping the first row seen for
// each name.
func (d *Document) symbolRows() []symbolRow {
	unique := newOrderedUnique[string, symbolRow]()

	block, ok := d.symbolsBlock()
	if !ok {
		return unique.values()
	}

	for _, r := range extractRows(block, symbolRowPattern) {
		name := r.fields[0]
		if name == symbolHeaderName {
			continue
		}

		unique.add(name, symbolRow{
			symbol: model.Symbol{
				Name:    name,
				Address: r.fields[1],
				Space:   r.fields[2],
				Section: r.fields[3],
			},
			offset: r.offset,
		})
	}

	return unique.values()
}

// ParseSymbols returns the symbols of the name-sorted listing in document
// order, one per distinct name. On duplicates the first row wins.
func (d *Document) ParseSymbols() []model.Symbol {
	rows := d.symbolRows()
	symbols := make([]model.Symbol, len(rows))
	for i, r := range rows {
		symbols[i] = r.symbol
	}
	return symbols
}

// ParseSections returns the linked sections of the link result table in
// document order. Annotation rows, whose file column reads "[in]", are left out.
func (d *Document) ParseSections() []model.Section {
	sections := make([]model.Section, 0)

	block, ok := d.FindBlock(LinkResultTitle)
	if !ok {
		return sections
	}

	for _, r := range extractRows(block, sectionRowPattern) {
		file := r.fields[0]
		if file == annotationFile {
			continue
		}

		v, ok := parseHexFields(r.fields[2:4])
		if !ok {
			continue
		}

		sections = append(sections, model.Section{
			File:          file,
			Name:          r.fields[1],
			Size:          v[0],
			Offset:        v[1],
			OutputSection: r.fields[4],
		})
	}

	return sections
}
