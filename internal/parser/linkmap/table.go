package linkmap

import (
	"regexp"
	"strconv"
	"strings"
)

// field is the pattern of one table column. Capturing fields produce one
// entry in row.fields; skip fields produce none.
type field string

const (
	// fieldHex is a 0x-prefixed run of hex digits. Requiring the prefix keeps
	// names such as "FACE" from being read as numbers.
	fieldHex field = `(0x[0-9a-fA-F]+)`

	// fieldToken is a single blank-free word, e.g. an object file name.
	fieldToken field = `([^|\s]+)`

	// fieldIdent is a C identifier.
	fieldIdent field = `([A-Za-z_]\w*)`

	// fieldName is non-empty free text; internal blanks are kept.
	fieldName field = `([^|\s][^|\r\n]*?)`

	// fieldText is free text that may be empty.
	fieldText field = `([^|\r\n]*?)`

	// fieldSkip is a column that is matched but not captured.
	fieldSkip field = `[^|\r\n]*?`
)

// rowExpr returns the expression of a table row made of the given columns.
// Rows start a line with '|', columns are separated by '|' and surrounding
// blanks are not captured.
func rowExpr(fields ...field) string {
	var b strings.Builder
	b.WriteString(`(?m)^[ \t]*\|`)
	for _, f := range fields {
		b.WriteString(`[ \t]*`)
		b.WriteString(string(f))
		b.WriteString(`[ \t]*\|`)
	}
	return b.String()
}

// optionalColumn returns the expression of a trailing column that may be
// missing from a row.
func optionalColumn(f field) string {
	return `(?:[ \t]*` + string(f) + `[ \t]*\|)?`
}

var (
	// | FLASH | 0x1000 | 0x200 | 0x0 | 0x3E00 | 0x5000 |
	memoryRowPattern = regexp.MustCompile(rowExpr(fieldName, fieldHex, fieldHex, fieldHex, fieldHex, fieldHex))

	// | main | 0x08001234 | DATA |
	// | main | 0x08001234 | DATA | .text.main |
	symbolRowPattern = regexp.MustCompile(rowExpr(fieldIdent, fieldHex, fieldText) + optionalColumn(fieldText))

	// | obj.o | .text.main | 0x00000120 | 0x08000100 | .text | 0x00000000 |
	sectionRowPattern = regexp.MustCompile(rowExpr(fieldToken, fieldName, fieldHex, fieldHex, fieldText, fieldSkip))
)

// Values of the first column that mark non-data rows.
const (
	memoryHeaderName = "Memory"
	memoryTotalName  = "Total"
	symbolHeaderName = "Name"
	annotationFile   = "[in]"
)

// row is a matched table row: its captured columns, in order, and the
// document offset of the start of its line. Optional columns that did not
// match are empty strings.
type row struct {
	fields []string
	offset int
}

// extractRows applies a row pattern over a block.
func extractRows(b Block, re *regexp.Regexp) []row {
	matches := re.FindAllStringSubmatchIndex(b.Text, -1)
	rows := make([]row, 0, len(matches))

	for _, m := range matches {
		fields := make([]string, 0, len(m)/2-1)
		for i := 2; i+1 < len(m); i += 2 {
			if m[i] < 0 {
				fields = append(fields, "")
				continue
			}
			fields = append(fields, b.Text[m[i]:m[i+1]])
		}
		rows = append(rows, row{fields: fields, offset: b.Absolute(m[0])})
	}

	return rows
}

// parseHex converts a 0x-prefixed hex field. The row patterns only capture
// valid hex text, so a failure means the value overflows 64 bits; callers
// skip the row.
func parseHex(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseHexFields converts consecutive hex fields, failing on the first bad one.
func parseHexFields(fields []string) ([]uint64, bool) {
	values := make([]uint64, len(fields))
	for i, f := range fields {
		v, ok := parseHex(f)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// orderedUnique keeps the first value added for each key, in insertion order.
type orderedUnique[K comparable, V any] struct {
	seen  map[K]struct{}
	items []V
}

func newOrderedUnique[K comparable, V any]() *orderedUnique[K, V] {
	return &orderedUnique[K, V]{
		seen:  make(map[K]struct{}),
		items: make([]V, 0),
	}
}

// add appends v unless key was seen before. Returns whether v was kept.
func (o *orderedUnique[K, V]) add(key K, v V) bool {
	if _, ok := o.seen[key]; ok {
		return false
	}
	o.seen[key] = struct{}{}
	o.items = append(o.items, v)
	return true
}

// values returns the kept values.
func (o *orderedUnique[K, V]) values() []V {
	return o.items
}
