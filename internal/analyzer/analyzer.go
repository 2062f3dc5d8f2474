// Package analyzer runs the map file pipeline: fetch, decompress, parse,
// persist, write and publish.
package analyzer

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/linkmap-analysis/internal/parser"
	"github.com/linkmap-analysis/internal/repository"
	"github.com/linkmap-analysis/internal/storage"
	"github.com/linkmap-analysis/pkg/compression"
	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/telemetry"
	"github.com/linkmap-analysis/pkg/utils"
	"github.com/linkmap-analysis/pkg/writer"
)

const (
	// ReportFileName is the pretty JSON report written to the output dir.
	ReportFileName = "report.json"
	// CompressedReportFileName is the gzipped JSON report.
	CompressedReportFileName = "report.json.gz"
	// ReportKeyPrefix prefixes the storage keys of published reports.
	ReportKeyPrefix = "reports"
)

// Analyzer analyzes map files.
type Analyzer interface {
	// Analyze fetches the map file named by req and analyzes it.
	Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error)

	// AnalyzeFromReader analyzes the map file read from r. req.Input names it.
	AnalyzeFromReader(ctx context.Context, req *model.AnalysisRequest, r io.Reader) (*model.AnalysisResponse, error)

	// Name returns the name of this analyzer.
	Name() string
}

// cachingParser is implemented by parsers that can tell a cache hit.
type cachingParser interface {
	ParseCached(ctx context.Context, source string, reader io.Reader) (*model.MapReport, bool, error)
}

// MapAnalyzer is the Analyzer for linker map files.
type MapAnalyzer struct {
	parser  parser.Parser
	storage storage.Storage
	repo    repository.ReportRepository
	logger  utils.Logger
	clock   utils.Clock
}

// Option configures a MapAnalyzer.
type Option func(*MapAnalyzer)

// WithStorage sets the object storage used for storage inputs and publishing.
func WithStorage(s storage.Storage) Option {
	return func(a *MapAnalyzer) { a.storage = s }
}

// WithRepository sets the repository reports are persisted to.
func WithRepository(r repository.ReportRepository) Option {
	return func(a *MapAnalyzer) { a.repo = r }
}

// WithLogger sets the logger.
func WithLogger(l utils.Logger) Option {
	return func(a *MapAnalyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock sets the clock used for durations.
func WithClock(c utils.Clock) Option {
	return func(a *MapAnalyzer) {
		if c != nil {
			a.clock = c
		}
	}
}

// New creates a MapAnalyzer parsing with p.
func New(p parser.Parser, opts ...Option) *MapAnalyzer {
	a := &MapAnalyzer{
		parser: p,
		logger: &utils.NullLogger{},
		clock:  utils.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the name of this analyzer.
func (a *MapAnalyzer) Name() string {
	return "linkmap"
}

// Analyze fetches the map file named by req and analyzes it.
func (a *MapAnalyzer) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	if err := a.validate(req); err != nil {
		return nil, err
	}

	timer := utils.NewTimer("analyze", a.clock)

	stop := timer.Start("fetch")
	fetchCtx, span := telemetry.StartSpan(ctx, "linkmap.fetch",
		attribute.String("linkmap.source", req.Input),
		attribute.String("linkmap.source_kind", req.Kind.String()))
	rc, err := a.open(fetchCtx, req)
	telemetry.RecordError(span, err)
	span.End()
	stop()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return a.analyze(ctx, req, rc, timer)
}

// AnalyzeFromReader analyzes the map file read from r.
func (a *MapAnalyzer) AnalyzeFromReader(ctx context.Context, req *model.AnalysisRequest, r io.Reader) (*model.AnalysisResponse, error) {
	if err := a.validate(req); err != nil {
		return nil, err
	}
	return a.analyze(ctx, req, r, utils.NewTimer("analyze", a.clock))
}

func (a *MapAnalyzer) analyze(ctx context.Context, req *model.AnalysisRequest, r io.Reader, timer *utils.Timer) (*model.AnalysisResponse, error) {
	log := a.logger.WithField("source", req.Input)
	resp := &model.AnalysisResponse{}

	report, cached, err := a.parse(ctx, req.Input, r, timer)
	if err != nil {
		return nil, err
	}
	resp.Report = report
	resp.Cached = cached

	if report.IsEmpty() {
		log.Warn("no memory, symbol or section records found")
	}

	if req.Persist {
		stop := timer.Start("persist")
		resp.ReportID, err = a.persist(ctx, report)
		stop()
		if err != nil {
			return nil, err
		}
	}

	if req.OutputDir != "" {
		stop := timer.Start("write")
		err = a.writeReports(report, req.OutputDir, resp)
		stop()
		if err != nil {
			return nil, err
		}
	}

	if req.Publish {
		stop := timer.Start("publish")
		resp.PublishedKey, err = a.publish(ctx, report)
		stop()
		if err != nil {
			return nil, err
		}
	}

	resp.Duration = timer.Total()
	timer.Log(log)
	log.Info("analyzed map file: %d regions, %d symbols, %d sections, %.2f%% used",
		len(report.Regions), len(report.Symbols), len(report.Sections), report.Stats.Percentage)

	return resp, nil
}

func (a *MapAnalyzer) validate(req *model.AnalysisRequest) error {
	switch {
	case req == nil || strings.TrimSpace(req.Input) == "":
		return apperrors.New(apperrors.CodeInvalidInput, "input is required")
	case a.parser == nil:
		return apperrors.New(apperrors.CodeConfigError, "no parser configured")
	case (req.Kind == model.SourceStorage || req.Publish) && a.storage == nil:
		return apperrors.Wrap(apperrors.CodeConfigError, "cannot analyze "+req.Input, ErrNoStorage)
	case req.Persist && a.repo == nil:
		return apperrors.Wrap(apperrors.CodeConfigError, "cannot analyze "+req.Input, ErrNoRepository)
	}
	return nil
}

func (a *MapAnalyzer) open(ctx context.Context, req *model.AnalysisRequest) (io.ReadCloser, error) {
	switch req.Kind {
	case model.SourceStorage:
		rc, err := a.storage.Download(ctx, req.Input)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, err
			}
			return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to download "+req.Input, err)
		}
		return rc, nil
	case model.SourceLocal:
		f, err := os.Open(req.Input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperrors.Wrap(apperrors.CodeNotFound, "map file not found: "+req.Input, err)
			}
			return nil, apperrors.Wrap(apperrors.CodeReadError, "failed to open "+req.Input, err)
		}
		return f, nil
	default:
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("unknown source kind: %d", req.Kind))
	}
}

func (a *MapAnalyzer) parse(ctx context.Context, source string, r io.Reader, timer *utils.Timer) (*model.MapReport, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "linkmap.parse", attribute.String("linkmap.source", source))
	defer span.End()
	defer timer.Start("parse")()

	dr, kind, err := compression.NewReader(r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, apperrors.Wrap(apperrors.CodeReadError, "failed to decompress "+source, err)
	}
	defer dr.Close()
	span.SetAttributes(attribute.String("linkmap.compression", kind.String()))

	var (
		report *model.MapReport
		cached bool
	)
	if cp, ok := a.parser.(cachingParser); ok {
		report, cached, err = cp.ParseCached(ctx, source, dr)
	} else {
		report, err = a.parser.Parse(ctx, source, dr)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, parseError(source, err)
	}

	if report.Bytes == 0 {
		err := apperrors.New(apperrors.CodeEmptyFile, "map file is empty: "+source)
		telemetry.RecordError(span, err)
		return nil, false, err
	}

	span.SetAttributes(
		attribute.Bool("linkmap.cached", cached),
		attribute.Int("linkmap.regions", len(report.Regions)),
		attribute.Int("linkmap.symbols", len(report.Symbols)),
		attribute.Int("linkmap.sections", len(report.Sections)),
	)
	return report, cached, nil
}

func parseError(source string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, parser.ErrInputTooLarge):
		return apperrors.Wrap(apperrors.CodeTooLarge, "map file too large: "+source, err)
	default:
		return apperrors.Wrap(apperrors.CodeReadError, "failed to read "+source, err)
	}
}

func (a *MapAnalyzer) persist(ctx context.Context, report *model.MapReport) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "linkmap.persist", attribute.String("linkmap.source", report.Source))
	defer span.End()

	id, err := a.repo.SaveReport(ctx, report)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("linkmap.report_id", id))
	return id, nil
}

func (a *MapAnalyzer) writeReports(report *model.MapReport, dir string, resp *model.AnalysisResponse) error {
	jsonPath := filepath.Join(dir, ReportFileName)
	if err := writer.NewPrettyJSONWriter[*model.MapReport]().WriteToFile(report, jsonPath); err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "failed to write "+jsonPath, err)
	}
	resp.ReportFile = jsonPath

	gzPath := filepath.Join(dir, CompressedReportFileName)
	result, err := writer.NewCompressedWriter[*model.MapReport](compression.NewGzipCompressor(gzip.BestCompression)).
		WriteToFile(report, gzPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "failed to write "+gzPath, err)
	}
	resp.CompressedFile = result.Path

	a.logger.Debug("wrote %s (%d bytes) and %s (%d bytes, %.1f%%)",
		jsonPath, result.JSONSize, gzPath, result.CompressedSize, result.CompressionPct)
	return nil
}

func (a *MapAnalyzer) publish(ctx context.Context, report *model.MapReport) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "linkmap.publish", attribute.String("linkmap.source", report.Source))
	defer span.End()

	var buf bytes.Buffer
	if err := writer.NewJSONWriter[*model.MapReport]().Write(report, &buf); err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportKey(report.Source, report.Digest)
	if err := a.storage.Upload(ctx, key, &buf); err != nil {
		telemetry.RecordError(span, err)
		return "", apperrors.Wrap(apperrors.CodeStorageError, "failed to publish "+key, err)
	}

	a.logger.Info("published report to %s", a.storage.GetURL(key))
	return key, nil
}

// ReportKey returns the storage key a report of source with digest is
// published under: reports/<source without extension>/<digest>.json.
func ReportKey(source, digest string) string {
	return path.Join(ReportKeyPrefix, reportBase(source), digest+".json")
}

// reportBase turns a map file name into a relative slash path without the
// map and compression extensions.
func reportBase(name string) string {
	base := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	for _, ext := range []string{".gz", ".zst", ".map"} {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return "unnamed"
	}
	return base
}
