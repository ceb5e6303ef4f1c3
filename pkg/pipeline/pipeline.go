// Package pipeline orchestrates one chemoscope analysis run: resolve the
// input source, reshape into the wide matrix, compute the PCA and the
// contributor ranking. A run is a pure function of its input; nothing is
// cached or mutated between runs.
package pipeline

import (
	"context"

	"github.com/vanderheijden86/chemoscope/internal/datasource"
	"github.com/vanderheijden86/chemoscope/pkg/analysis"
	"github.com/vanderheijden86/chemoscope/pkg/debug"
	"github.com/vanderheijden86/chemoscope/pkg/metrics"
	"github.com/vanderheijden86/chemoscope/pkg/model"

	"golang.org/x/sync/errgroup"
)

// Result bundles everything one run produces. All fields are immutable
// after Run returns.
type Result struct {
	Dataset *model.Dataset
	Matrix  *analysis.WideMatrix
	PCA     *analysis.PCAResult
	Ranking analysis.Ranking
}

// Warnings returns the non-fatal notes collected during the run.
func (r *Result) Warnings() []string {
	if r.PCA == nil {
		return nil
	}
	return r.PCA.Warnings
}

// Run executes the full numeric pipeline for one input source.
func Run(src datasource.Source, cfg analysis.Config) (*Result, error) {
	loadDone := metrics.Timer(metrics.SourceLoad)
	ds, err := src.Resolve()
	loadDone()
	if err != nil {
		return nil, err
	}
	debug.Log("loaded %d observations from %s", len(ds.Observations), ds.Source)

	return RunDataset(ds, cfg)
}

// RunDataset executes the pipeline on an already-resolved dataset.
func RunDataset(ds *model.Dataset, cfg analysis.Config) (*Result, error) {
	reshapeDone := metrics.Timer(metrics.Reshape)
	wm, err := analysis.BuildWideMatrix(ds, cfg)
	reshapeDone()
	if err != nil {
		return nil, err
	}
	debug.Log("wide matrix: %d samples x %d compounds", wm.Rows(), wm.Cols())

	pcaDone := metrics.Timer(metrics.PCACompute)
	res, err := analysis.ComputePCA(wm, cfg)
	pcaDone()
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		debug.Log("warning: %s", w)
	}

	rankDone := metrics.Timer(metrics.RankCompute)
	ranking := analysis.RankContributors(res)
	rankDone()

	return &Result{
		Dataset: ds,
		Matrix:  wm,
		PCA:     res,
		Ranking: ranking,
	}, nil
}

// BatchResult pairs one batch input with its outcome. Err is set when that
// input failed; other inputs are unaffected.
type BatchResult struct {
	Source datasource.Source
	Result *Result
	Err    error
}

// RunBatch analyzes several independent inputs concurrently. Each run
// shares nothing with the others; results come back in input order.
// parallelism <= 0 means one goroutine per input.
func RunBatch(ctx context.Context, srcs []datasource.Source, cfg analysis.Config, parallelism int) []BatchResult {
	results := make([]BatchResult, len(srcs))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = BatchResult{Source: src, Err: ctx.Err()}
				return nil
			default:
			}

			res, err := Run(src, cfg)
			results[i] = BatchResult{Source: src, Result: res, Err: err}
			// individual input errors are captured in results, not propagated
			return nil
		})
	}

	// Wait never returns an error here; goroutines only report via results.
	_ = g.Wait()
	return results
}
