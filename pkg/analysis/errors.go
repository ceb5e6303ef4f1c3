package analysis

import (
	"fmt"

	"github.com/vanderheijden86/chemoscope/pkg/model"
)

// DuplicateObservationError reports a repeated (sample, compound) pair when
// the duplicate policy is DuplicateError.
type DuplicateObservationError struct {
	Sample   model.SampleKey
	Compound string
}

func (e *DuplicateObservationError) Error() string {
	return fmt.Sprintf("duplicate observation for sample %s, compound %q", e.Sample, e.Compound)
}

// ConstantColumnError reports a compound column with zero variance when the
// zero-variance policy is ZeroVarianceError. Standardization would divide
// by zero for such a column.
type ConstantColumnError struct {
	Compound string
}

func (e *ConstantColumnError) Error() string {
	return fmt.Sprintf("compound %q has zero variance across all samples", e.Compound)
}

// InsufficientDimensionsError reports a matrix too small for a 2D PCA:
// fewer than 2 samples or fewer than 2 usable compound columns.
type InsufficientDimensionsError struct {
	Rows int
	Cols int
}

func (e *InsufficientDimensionsError) Error() string {
	return fmt.Sprintf("need at least 2 samples and 2 usable compounds for PCA, have %d x %d", e.Rows, e.Cols)
}
