package analyzer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/parallel"
)

// BatchOptions configures AnalyzeBatch.
type BatchOptions struct {
	// Root is the directory inputs are named relative to in the output tree.
	Root string

	// OutputDir receives one report directory per input. Empty skips writing.
	OutputDir string

	Kind    model.SourceKind
	Persist bool
	Publish bool

	Workers int
	// Timeout bounds each input. 0 means no limit.
	Timeout time.Duration

	OnProgress func(done, total int)
}

// Request builds the analysis request of one batch input.
func (o BatchOptions) Request(input string) *model.AnalysisRequest {
	req := &model.AnalysisRequest{
		Input:   input,
		Kind:    o.Kind,
		Persist: o.Persist,
		Publish: o.Publish,
	}
	if o.OutputDir != "" {
		name := input
		if o.Root != "" {
			if rel, err := filepath.Rel(o.Root, input); err == nil {
				name = rel
			}
		}
		req.OutputDir = filepath.Join(o.OutputDir, filepath.FromSlash(reportBase(name)))
	}
	return req
}

// AnalyzeBatch analyzes inputs concurrently and returns one result per
// input, in input order. A failed input does not stop the others.
func (a *MapAnalyzer) AnalyzeBatch(ctx context.Context, inputs []string, opts BatchOptions) []model.BatchResult {
	poolCfg := parallel.DefaultPoolConfig().WithTimeout(opts.Timeout).WithProgress(opts.OnProgress)
	if opts.Workers > 0 {
		poolCfg = poolCfg.WithWorkers(opts.Workers)
	}

	pool := parallel.NewWorkerPool[string, *model.AnalysisResponse](poolCfg)
	results := pool.ExecuteFunc(ctx, inputs, func(ctx context.Context, input string) (*model.AnalysisResponse, error) {
		return a.Analyze(ctx, opts.Request(input))
	})

	out := make([]model.BatchResult, len(results))
	failed := 0
	for i, r := range results {
		out[i] = model.BatchResult{Input: r.Input, Response: r.Result}
		if r.Error != nil {
			failed++
			out[i].Error = r.Error.Error()
			a.logger.WithField("source", r.Input).Error("analysis failed: %v", r.Error)
		}
	}

	a.logger.Info("batch finished: %d inputs, %d failed", len(inputs), failed)
	return out
}

// CountFailed returns the number of failed batch results.
func CountFailed(results []model.BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
