// Package linkmap extracts memory usage, symbols and linked sections from the
// text map file written by an embedded toolchain's object linker.
//
// A map file is a sequence of banner-delimited blocks:
//
//	*****************  Memory usage in bytes  *****************
//
//	| Memory | Code   | Data  | Reserved | Free   | Total  |
//	|=======================================================|
//	| FLASH  | 0x1000 | 0x200 | 0x0      | 0x3E00 | 0x5000 |
//
// Every extraction is computed from the immutable document text on each call.
// A missing block or an unmatched row is never an error: it only yields fewer
// records.
package linkmap

import (
	"regexp"
	"strings"

	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/utils"
)

// Titles and markers of the blocks the document knows how to read.
const (
	MemoryUsageTitle = "Memory usage in bytes"
	LinkResultTitle  = "Link Result"

	SymbolsByNameMarker    = "* Symbols (sorted on name)"
	SymbolsByAddressMarker = "* Symbols (sorted on address)"
)

// nextBannerPattern matches any line that starts with an asterisk run. It
// terminates a block, whatever the title of the following block is.
var nextBannerPattern = regexp.MustCompile(`(?m)^\*+`)

// Document is the text of one map file.
// It is safe for concurrent use since nothing in it is ever mutated.
type Document struct {
	text  string
	clock utils.Clock
}

// Option configures a Document or a Cache.
type Option func(*options)

type options struct {
	clock utils.Clock
}

// WithClock sets the clock that stamps ParsedAt on reports.
func WithClock(clock utils.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: utils.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDocument creates a Document over the full text of a map file.
func NewDocument(text string, opts ...Option) *Document {
	o := buildOptions(opts)
	return &Document{text: text, clock: o.clock}
}

// Text returns the document text.
func (d *Document) Text() string {
	return d.text
}

// Len returns the size of the document in bytes.
func (d *Document) Len() int {
	return len(d.text)
}

// Block is a slice of the document together with the byte offset at which it
// starts, so that positions found inside Text can be mapped back onto the
// whole document.
type Block struct {
	Text   string
	Offset int
}

// Absolute converts an offset relative to the block into a document offset.
func (b Block) Absolute(rel int) int {
	return b.Offset + rel
}

// FindBlock returns the text between the banner line carrying title and the
// next banner line, or the end of the document. The title is matched case
// insensitively and any run of whitespace in it matches any run of blanks.
func (d *Document) FindBlock(title string) (Block, bool) {
	banner := bannerPattern(title)
	if banner == nil {
		return Block{}, false
	}

	loc := banner.FindStringIndex(d.text)
	if loc == nil {
		return Block{}, false
	}

	start := loc[1]
	end := len(d.text)
	if next := nextBannerPattern.FindStringIndex(d.text[start:]); next != nil {
		end = start + next[0]
	}

	return Block{Text: d.text[start:end], Offset: start}, true
}

// Slice returns the text from the first occurrence of the literal start
// marker up to the first following occurrence of the literal end marker. An
// empty or absent end marker extends the slice to the end of the document.
// The slice includes the start marker.
func (d *Document) Slice(start, end string) (Block, bool) {
	if start == "" {
		return Block{}, false
	}

	i := strings.Index(d.text, start)
	if i < 0 {
		return Block{}, false
	}

	text := d.text[i:]
	if end != "" {
		if j := strings.Index(text[len(start):], end); j >= 0 {
			text = text[:len(start)+j]
		}
	}

	return Block{Text: text, Offset: i}, true
}

// LineOf returns the 1-based line number holding the byte at offset.
// Offsets outside the document are clamped.
func (d *Document) LineOf(offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	return strings.Count(d.text[:offset], "\n") + 1
}

// Report extracts every record kind and assembles them into a report.
// The regions are parsed once and reused for the stats.
func (d *Document) Report(source string) *model.MapReport {
	regions := d.ParseMemoryUsage()

	return &model.MapReport{
		Source:   source,
		Digest:   Digest(d.text),
		Regions:  regions,
		Symbols:  d.ParseSymbols(),
		Sections: d.ParseSections(),
		Stats:    model.NewMemoryStats(regions),
		Bytes:    len(d.text),
		ParsedAt: d.clock.Now(),
	}
}

// bannerPattern builds the pattern of the banner line for title, or returns
// nil for a blank title.
func bannerPattern(title string) *regexp.Regexp {
	words := strings.Fields(title)
	if len(words) == 0 {
		return nil
	}

	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}

	return regexp.MustCompile(`(?im)^[ \t]*\*+[ \t]*` + strings.Join(words, `[ \t]+`) + `[ \t]*\*+[ \t]*\r?$`)
}
