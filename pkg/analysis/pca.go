package analysis

import (
	"fmt"
	"math"

	"github.com/vanderheijden86/chemoscope/pkg/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// zeroVarTol is the relative tolerance below which a column's standard
// deviation is treated as zero. Guards against round-off on columns that
// are constant up to floating-point noise.
const zeroVarTol = 1e-12

// PCAResult holds the full output of a principal component analysis.
// All fields are populated at construction and never mutated afterwards.
type PCAResult struct {
	// Samples are the wide-matrix rows, in row order.
	Samples []model.SampleKey
	// Compounds are the usable columns after the zero-variance policy has
	// been applied, in original column order.
	Compounds []string
	// Dropped lists compounds removed by the drop policy, in column order.
	Dropped []string

	// Eigenvalues of the correlation matrix, non-increasing, one per
	// component. Component count = min(samples, usable compounds).
	Eigenvalues []float64
	// VarExplained is the percentage of variance per component
	// (eigenvalue / sum of eigenvalues * 100); sums to 100.
	VarExplained []float64

	// IndividualCoords holds sample coordinates: rows = samples,
	// columns = components.
	IndividualCoords *mat.Dense
	// VariableCoords holds correlation-style loadings: rows = compounds,
	// columns = components. Each entry is bounded by 1 in magnitude.
	VariableCoords *mat.Dense
	// Contributions holds per-compound percentages of each component's
	// variance: rows = compounds, columns = components. Each column sums
	// to 100.
	Contributions *mat.Dense

	// Warnings collects non-fatal notes, e.g. dropped constant columns.
	Warnings []string
}

// Components returns the number of principal components.
func (r *PCAResult) Components() int { return len(r.Eigenvalues) }

// VariableCoord returns the loading of compound j on component k.
func (r *PCAResult) VariableCoord(j, k int) float64 { return r.VariableCoords.At(j, k) }

// Contribution returns the percent contribution of compound j to component k.
func (r *PCAResult) Contribution(j, k int) float64 { return r.Contributions.At(j, k) }

// ComputePCA standardizes the wide matrix and decomposes its correlation
// matrix. Each column is centered to mean 0 and scaled to unit sample
// variance; zero-variance columns are handled per cfg.ZeroVariance. The
// eigen-decomposition uses gonum's symmetric solver, eigenvalues are
// reported in descending order, and each eigenvector is oriented so its
// largest-magnitude entry is positive, making re-runs bit-identical.
func ComputePCA(wm *WideMatrix, cfg Config) (*PCAResult, error) {
	n := wm.Rows()
	if n < 2 {
		return nil, &InsufficientDimensionsError{Rows: n, Cols: wm.Cols()}
	}

	// Apply the zero-variance policy before the column-count check: a
	// dropped column must not count as usable.
	var (
		usable   []int
		dropped  []string
		warnings []string
		means    []float64
		stds     []float64
	)
	for j, name := range wm.Compounds {
		col := mat.Col(nil, j, wm.Data)
		mean, std := stat.MeanStdDev(col, nil)
		if std <= zeroVarTol*(math.Abs(mean)+1) {
			if cfg.ZeroVariance == ZeroVarianceError {
				return nil, &ConstantColumnError{Compound: name}
			}
			dropped = append(dropped, name)
			warnings = append(warnings, fmt.Sprintf("compound %q has zero variance, dropped", name))
			continue
		}
		usable = append(usable, j)
		means = append(means, mean)
		stds = append(stds, std)
	}

	p := len(usable)
	if p < 2 {
		return nil, &InsufficientDimensionsError{Rows: n, Cols: p}
	}

	compounds := make([]string, p)
	for jj, j := range usable {
		compounds[jj] = wm.Compounds[j]
	}

	// Standardized data matrix X.
	x := mat.NewDense(n, p, nil)
	for jj, j := range usable {
		for i := 0; i < n; i++ {
			v := wm.Data.At(i, j) - means[jj]
			if cfg.Standardize {
				v /= stds[jj]
			}
			x.Set(i, jj, v)
		}
	}

	// Correlation matrix C = X'X/(n-1); for standardized X the covariance
	// of X is exactly that.
	var c mat.SymDense
	stat.CovarianceMatrix(&c, x, nil)

	var es mat.EigenSym
	if !es.Factorize(&c, true) {
		return nil, fmt.Errorf("eigen decomposition of %dx%d correlation matrix failed", p, p)
	}
	asc := es.Values(nil) // ascending
	var vecsAsc mat.Dense
	es.VectorsTo(&vecsAsc)

	comps := n
	if p < comps {
		comps = p
	}

	// Reorder to descending eigenvalues and fix eigenvector signs.
	eigenvalues := make([]float64, comps)
	vecs := mat.NewDense(p, comps, nil)
	for k := 0; k < comps; k++ {
		src := p - 1 - k
		ev := asc[src]
		if ev < 0 {
			// round-off on a positive semi-definite matrix
			ev = 0
		}
		eigenvalues[k] = ev

		maxAbs, sign := 0.0, 1.0
		for j := 0; j < p; j++ {
			if a := math.Abs(vecsAsc.At(j, src)); a > maxAbs {
				maxAbs = a
				if vecsAsc.At(j, src) < 0 {
					sign = -1
				} else {
					sign = 1
				}
			}
		}
		for j := 0; j < p; j++ {
			vecs.Set(j, k, sign*vecsAsc.At(j, src))
		}
	}

	total := 0.0
	for _, ev := range eigenvalues {
		total += ev
	}
	varExplained := make([]float64, comps)
	if total > 0 {
		for k, ev := range eigenvalues {
			varExplained[k] = ev / total * 100
		}
	}

	// Individual coordinates: project samples onto the components.
	ind := mat.NewDense(n, comps, nil)
	ind.Mul(x, vecs)

	// Variable coordinates (loadings) and contributions.
	varCoords := mat.NewDense(p, comps, nil)
	contribs := mat.NewDense(p, comps, nil)
	for k := 0; k < comps; k++ {
		scale := math.Sqrt(eigenvalues[k])
		for j := 0; j < p; j++ {
			v := vecs.At(j, k)
			varCoords.Set(j, k, v*scale)
			// unit-norm eigenvectors: squared entries sum to 1
			contribs.Set(j, k, v*v*100)
		}
	}

	return &PCAResult{
		Samples:          wm.Samples,
		Compounds:        compounds,
		Dropped:          dropped,
		Eigenvalues:      eigenvalues,
		VarExplained:     varExplained,
		IndividualCoords: ind,
		VariableCoords:   varCoords,
		Contributions:    contribs,
		Warnings:         warnings,
	}, nil
}
