// Package analysis contains the numeric core of chemoscope: reshaping
// long-format observations into a wide sample-by-compound matrix,
// computing a standardized principal component analysis, and ranking
// compounds by their contribution to the first two components.
//
// Everything in this package is deterministic and side-effect free: each
// function takes its full input and returns its full output, with no
// module-level state. All results are recomputed from scratch per run.
package analysis

// DuplicatePolicy controls what happens when the same (sample, compound)
// pair appears more than once in the input.
type DuplicatePolicy string

const (
	// DuplicateLastWins keeps the last observation for the pair. This is
	// the default: re-measured values overwrite earlier ones.
	DuplicateLastWins DuplicatePolicy = "last"
	// DuplicateError rejects the input with a DuplicateObservationError.
	DuplicateError DuplicatePolicy = "error"
)

// ZeroVariancePolicy controls handling of compound columns with zero
// variance, which cannot be standardized.
type ZeroVariancePolicy string

const (
	// ZeroVarianceDrop silently drops the column and records a warning.
	// A constant compound contributes nothing to sample separation, so
	// this is the default.
	ZeroVarianceDrop ZeroVariancePolicy = "drop"
	// ZeroVarianceError rejects the input with a ConstantColumnError
	// naming the offending compound.
	ZeroVarianceError ZeroVariancePolicy = "error"
)

// Config controls the policy choices of the numeric core. The zero value
// is not usable; start from DefaultConfig. Policies come only from this
// struct: a run is a pure function of its dataset and its Config.
type Config struct {
	// Duplicates selects the duplicate-observation policy for reshaping.
	Duplicates DuplicatePolicy

	// ZeroVariance selects the constant-column policy for standardization.
	ZeroVariance ZeroVariancePolicy

	// Standardize centers each column to mean 0 and scales it to unit
	// variance before decomposition. Always true in this design; kept as
	// a field so the choice is visible at call sites.
	Standardize bool
}

// DefaultConfig returns the default analysis configuration:
// last-value-wins duplicates, drop-and-warn zero-variance columns,
// standardization on.
func DefaultConfig() Config {
	return Config{
		Duplicates:   DuplicateLastWins,
		ZeroVariance: ZeroVarianceDrop,
		Standardize:  true,
	}
}
