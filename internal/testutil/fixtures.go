// Package testutil provides utilities for testing.
package testutil

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

//go:embed testdata/sample.map
var sampleMap string

// SampleMap returns the text of the sample map file shared by the tests.
//
// It holds two memory regions (FLASH, RAM) plus header and total rows, four
// link result rows of which one is an [in] annotation, and a name-sorted
// symbol listing with a duplicate "main" followed by an address-sorted
// listing that carries one extra symbol.
func SampleMap() string {
	return sampleMap
}

// SampleMapReader returns a reader over the sample map file.
func SampleMapReader() io.Reader {
	return strings.NewReader(sampleMap)
}

// WriteSampleMap writes the sample map file into dir and returns its path.
func WriteSampleMap(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, sampleMap)
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

// MapBuilder assembles map file text block by block.
type MapBuilder struct {
	b strings.Builder
}

// NewMapBuilder creates an empty MapBuilder.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{}
}

// Banner writes a block banner line for title.
func (m *MapBuilder) Banner(title string) *MapBuilder {
	fmt.Fprintf(&m.b, "\n********************  %s  ********************\n\n", title)
	return m
}

// Line writes a raw line.
func (m *MapBuilder) Line(s string) *MapBuilder {
	m.b.WriteString(s)
	m.b.WriteByte('\n')
	return m
}

// Row writes a pipe-delimited table row.
func (m *MapBuilder) Row(cells ...string) *MapBuilder {
	return m.Line("| " + strings.Join(cells, " | ") + " |")
}

// MemoryHeader writes the memory usage banner and table header.
func (m *MapBuilder) MemoryHeader() *MapBuilder {
	return m.Banner("Memory usage in bytes").
		Row("Memory", "Code", "Data", "Reserved", "Free", "Total").
		Line("|=======================================================|")
}

// MemoryRow writes one memory usage row with values in hex.
func (m *MapBuilder) MemoryRow(name string, code, data, reserved, free, total uint64) *MapBuilder {
	return m.Row(name, hex(code), hex(data), hex(reserved), hex(free), hex(total))
}

// SymbolsByName writes the marker that opens the name-sorted symbol listing.
func (m *MapBuilder) SymbolsByName() *MapBuilder {
	return m.Line("* Symbols (sorted on name)").
		Line("===========================").
		Row("Name", "Address", "Space")
}

// SymbolsByAddress writes the marker that opens the address-sorted listing.
func (m *MapBuilder) SymbolsByAddress() *MapBuilder {
	return m.Line("* Symbols (sorted on address)").
		Line("==============================")
}

// SymbolRow writes one symbol row. extra cells are appended after the space.
func (m *MapBuilder) SymbolRow(name, address, space string, extra ...string) *MapBuilder {
	return m.Row(append([]string{name, address, space}, extra...)...)
}

// LinkResultHeader writes the link result banner and table header.
func (m *MapBuilder) LinkResultHeader() *MapBuilder {
	return m.Banner("Link Result").
		Row("[in] File", "[in] Section", "[in] Size (MAU)", "[out] Offset", "[out] Section", "[out] Size (MAU)").
		Line("|=======================================================================================|")
}

// SectionRow writes one link result row.
func (m *MapBuilder) SectionRow(file, name string, size, offset uint64, output string) *MapBuilder {
	return m.Row(file, name, fmt.Sprintf("0x%08x", size), fmt.Sprintf("0x%08x", offset), output, fmt.Sprintf("0x%08x", size))
}

// String returns the text built so far.
func (m *MapBuilder) String() string {
	return m.b.String()
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%X", v)
}

// Chdir changes the working directory to dir for the rest of the test and
// restores the previous one when the test finishes.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory %s: %v", prev, err)
		}
	})
}
