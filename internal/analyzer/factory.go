package analyzer

import (
	"github.com/linkmap-analysis/internal/parser"
	"github.com/linkmap-analysis/internal/parser/linkmap"
	"github.com/linkmap-analysis/internal/repository"
	"github.com/linkmap-analysis/internal/storage"
	"github.com/linkmap-analysis/pkg/config"
	"github.com/linkmap-analysis/pkg/utils"
)

// Deps is what NewFromConfig built for an analyzer.
type Deps struct {
	Parser       *linkmap.Parser
	Cache        *linkmap.Cache
	Storage      storage.Storage
	Repositories *repository.Repositories
}

// Close releases the database connection, if any.
func (d *Deps) Close() error {
	if d.Repositories == nil {
		return nil
	}
	return d.Repositories.Close()
}

// NewFromConfig builds a MapAnalyzer with the parser, cache, storage and
// repository described by cfg. The database is only opened when enabled.
func NewFromConfig(cfg *config.Config, logger utils.Logger) (*MapAnalyzer, *Deps, error) {
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	cache, err := linkmap.NewCache(cfg.Parser.CacheSize)
	if err != nil {
		return nil, nil, err
	}

	registry := parser.NewRegistry()
	linkmap.RegisterWithRegistry(registry,
		linkmap.WithMaxFileSizeOption(cfg.Parser.MaxFileSize),
		linkmap.WithCacheOption(cache),
		linkmap.WithLoggerOption(logger.WithField("component", "parser")),
	)
	p, _ := registry.Get("linkmap")

	deps := &Deps{Parser: p.(*linkmap.Parser), Cache: cache}

	deps.Storage, err = storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	opts := []Option{
		WithStorage(deps.Storage),
		WithLogger(logger.WithField("component", "analyzer")),
	}

	if cfg.Database.Enabled {
		db, err := repository.NewGormDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		deps.Repositories = repository.NewRepositories(db)
		opts = append(opts, WithRepository(deps.Repositories.Report))
	}

	return New(deps.Parser, opts...), deps, nil
}
