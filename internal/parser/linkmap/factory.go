package linkmap

import (
	"github.com/linkmap-analysis/internal/parser"
	"github.com/linkmap-analysis/pkg/utils"
)

// Factory creates new map file parsers.
type Factory struct{}

// NewFactory creates a new Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new map file parser with the given options.
func (f *Factory) Create(opts ...parser.ParserOption) (parser.Parser, error) {
	parserOpts := DefaultParserOptions()

	for _, opt := range opts {
		opt(parserOpts)
	}

	return NewParser(parserOpts), nil
}

// RegisterWithRegistry registers the map file parser with the given registry.
func RegisterWithRegistry(registry *parser.Registry, opts ...parser.ParserOption) {
	factory := NewFactory()
	p, _ := factory.Create(opts...)
	for _, format := range p.SupportedFormats() {
		registry.Register(format, p)
	}
}

// WithMaxFileSizeOption returns a parser option that sets the input size limit.
func WithMaxFileSizeOption(n int64) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.MaxFileSize = n
		}
	}
}

// WithCacheOption returns a parser option that memoizes reports in c.
func WithCacheOption(c *Cache) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.Cache = c
		}
	}
}

// WithLoggerOption returns a parser option that sets the logger.
func WithLoggerOption(l utils.Logger) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok && l != nil {
			o.Logger = l
		}
	}
}

// WithClockOption returns a parser option that sets the clock stamping reports.
func WithClockOption(c utils.Clock) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok && c != nil {
			o.Clock = c
		}
	}
}
