package analysis

import (
	"github.com/vanderheijden86/chemoscope/pkg/model"

	"gonum.org/v1/gonum/mat"
)

// WideMatrix is the reshaped dataset: one row per (condition, replica)
// sample, one column per compound, cells holding concentrations with 0.0
// for combinations the input never observed. Row and column order follow
// first appearance in the input, so reshaping is deterministic.
type WideMatrix struct {
	Samples   []model.SampleKey
	Compounds []string
	Data      *mat.Dense // len(Samples) x len(Compounds)
}

// Rows returns the number of samples.
func (w *WideMatrix) Rows() int { return len(w.Samples) }

// Cols returns the number of compound columns.
func (w *WideMatrix) Cols() int { return len(w.Compounds) }

// Column returns a copy of the named compound column, or nil if the
// compound is unknown.
func (w *WideMatrix) Column(compound string) []float64 {
	for j, name := range w.Compounds {
		if name == compound {
			return mat.Col(nil, j, w.Data)
		}
	}
	return nil
}

// BuildWideMatrix reshapes long-format observations into a WideMatrix.
// Every distinct compound becomes a column and every distinct
// (condition, replica) pair a row; missing cells stay 0.0 so the matrix
// has no undefined values. Duplicate (sample, compound) pairs are handled
// per cfg.Duplicates. Empty input fails with *model.InvalidInputError.
func BuildWideMatrix(ds *model.Dataset, cfg Config) (*WideMatrix, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	samples := ds.Samples()
	compounds := ds.Compounds()
	if len(compounds) == 0 {
		return nil, &model.InvalidInputError{Reason: "no compounds in input"}
	}

	rowIdx := make(map[model.SampleKey]int, len(samples))
	for i, k := range samples {
		rowIdx[k] = i
	}
	colIdx := make(map[string]int, len(compounds))
	for j, c := range compounds {
		colIdx[c] = j
	}

	data := mat.NewDense(len(samples), len(compounds), nil)
	seen := make(map[[2]int]bool, len(ds.Observations))
	for _, o := range ds.Observations {
		i := rowIdx[o.Sample()]
		j := colIdx[o.Compound]
		cell := [2]int{i, j}
		if seen[cell] && cfg.Duplicates == DuplicateError {
			return nil, &DuplicateObservationError{Sample: o.Sample(), Compound: o.Compound}
		}
		seen[cell] = true
		// last value wins
		data.Set(i, j, o.Concentration)
	}

	return &WideMatrix{
		Samples:   samples,
		Compounds: compounds,
		Data:      data,
	}, nil
}
