// Package writer writes analysis reports as JSON, plain or compressed.
package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/linkmap-analysis/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file, creating parent directories.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	file, err := create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := w.Write(data, file); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	return file.Close()
}

// CompressedWriter writes data as compact JSON compressed with its compressor.
type CompressedWriter[T any] struct {
	compressor compression.Compressor
}

// NewCompressedWriter creates a writer compressing with c.
func NewCompressedWriter[T any](c compression.Compressor) *CompressedWriter[T] {
	return &CompressedWriter[T]{compressor: c}
}

// WriteResult contains statistics about the written file.
type WriteResult struct {
	Path           string
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// Write writes the compressed JSON to the writer.
func (w *CompressedWriter[T]) Write(data T, writer io.Writer) (*WriteResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}

	compressed, err := w.compressor.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if _, err := writer.Write(compressed); err != nil {
		return nil, fmt.Errorf("failed to write compressed data: %w", err)
	}

	result := &WriteResult{
		JSONSize:       int64(buf.Len()),
		CompressedSize: int64(len(compressed)),
	}
	if result.JSONSize > 0 {
		result.CompressionPct = float64(result.CompressedSize) / float64(result.JSONSize) * 100
	}
	return result, nil
}

// WriteToFile writes the compressed JSON to path and returns statistics
// about the output.
func (w *CompressedWriter[T]) WriteToFile(data T, path string) (*WriteResult, error) {
	file, err := create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	result, err := w.Write(data, file)
	if err != nil {
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	result.Path = path
	return result, nil
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}
