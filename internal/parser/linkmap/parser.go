package linkmap

import (
	"context"
	"fmt"
	"io"

	"github.com/linkmap-analysis/internal/parser"
	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/utils"
)

// DefaultMaxFileSize is the largest map file read by default (64 MiB).
const DefaultMaxFileSize int64 = 64 << 20

// ParserOptions holds configuration options for the map file parser.
type ParserOptions struct {
	// MaxFileSize is the largest input accepted, in bytes. 0 disables the limit.
	MaxFileSize int64

	// Cache, when set, memoizes reports per source.
	Cache *Cache

	// Logger receives debug output about each parse.
	Logger utils.Logger

	// Clock stamps ParsedAt when no Cache is set. The cache uses its own.
	Clock utils.Clock
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{
		MaxFileSize: DefaultMaxFileSize,
		Logger:      &utils.NullLogger{},
		Clock:       utils.NewRealClock(),
	}
}

// Parser reads map files from a stream and builds reports from them.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new map file parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = utils.NewRealClock()
	}
	return &Parser{opts: opts}
}

// Parse reads the whole map file from reader and extracts its records.
func (p *Parser) Parse(ctx context.Context, source string, reader io.Reader) (*model.MapReport, error) {
	report, _, err := p.ParseCached(ctx, source, reader)
	return report, err
}

// ParseCached is Parse that also reports whether the result came from the cache.
func (p *Parser) ParseCached(ctx context.Context, source string, reader io.Reader) (*model.MapReport, bool, error) {
	text, err := p.read(ctx, reader)
	if err != nil {
		return nil, false, err
	}

	var (
		report *model.MapReport
		cached bool
	)
	if p.opts.Cache != nil {
		report, cached = p.opts.Cache.Report(source, text)
	} else {
		report = NewDocument(text, WithClock(p.opts.Clock)).Report(source)
	}

	p.opts.Logger.WithField("source", source).Debug(
		"parsed map file: %d bytes, %d regions, %d symbols, %d sections (cached=%v)",
		report.Bytes, len(report.Regions), len(report.Symbols), len(report.Sections), cached)

	return report, cached, nil
}

// ParseDocument reads the whole map file from reader into a Document.
func (p *Parser) ParseDocument(ctx context.Context, reader io.Reader) (*Document, error) {
	text, err := p.read(ctx, reader)
	if err != nil {
		return nil, err
	}
	return NewDocument(text, WithClock(p.opts.Clock)), nil
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"linkmap", "map"}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return "linkmap"
}

func (p *Parser) read(ctx context.Context, reader io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	limited := reader
	if p.opts.MaxFileSize > 0 {
		limited = io.LimitReader(reader, p.opts.MaxFileSize+1)
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("%w: %v", parser.ErrReadFailed, err)
	}

	if p.opts.MaxFileSize > 0 && int64(len(data)) > p.opts.MaxFileSize {
		return "", fmt.Errorf("%w: more than %d bytes", parser.ErrInputTooLarge, p.opts.MaxFileSize)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	return string(data), nil
}
