package model

import "time"

// SourceKind tells the analyzer where to read a map file from.
type SourceKind int

const (
	// SourceLocal reads the map file from the local filesystem.
	SourceLocal SourceKind = iota
	// SourceStorage downloads the map file from the configured object storage.
	SourceStorage
)

// String returns the string representation of SourceKind.
func (k SourceKind) String() string {
	switch k {
	case SourceLocal:
		return "local"
	case SourceStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// AnalysisRequest describes one map file to analyze.
type AnalysisRequest struct {
	// Input is a local path or a storage key, depending on Kind.
	Input string
	Kind  SourceKind

	// OutputDir receives report.json and report.json.gz. Empty skips writing.
	OutputDir string

	// Persist stores the report through the configured repository.
	Persist bool

	// Publish uploads the JSON report next to the input in object storage.
	Publish bool
}

// AnalysisResponse is the outcome of one analysis.
type AnalysisResponse struct {
	Report *MapReport `json:"report"`

	// ReportID is the repository ID when the report was persisted.
	ReportID int64 `json:"report_id,omitempty"`

	// ReportFile is the path of the written pretty JSON report.
	ReportFile string `json:"report_file,omitempty"`

	// CompressedFile is the path of the gzipped JSON report.
	CompressedFile string `json:"compressed_file,omitempty"`

	// PublishedKey is the storage key the report was uploaded to.
	PublishedKey string `json:"published_key,omitempty"`

	// Cached is true when the parse was served from the report cache.
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration"`
}

// BatchResult pairs a batch input with its response or error.
type BatchResult struct {
	Input    string            `json:"input"`
	Response *AnalysisResponse `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}
