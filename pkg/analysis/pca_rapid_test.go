package analysis_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/vanderheijden86/chemoscope/pkg/analysis"
	"github.com/vanderheijden86/chemoscope/pkg/model"

	"pgregory.net/rapid"
)

// randomDataset draws a full factorial dataset with random concentrations.
func randomDataset(t *rapid.T) *model.Dataset {
	conditions := rapid.IntRange(2, 3).Draw(t, "conditions")
	replicas := rapid.IntRange(2, 4).Draw(t, "replicas")
	compounds := rapid.IntRange(2, 6).Draw(t, "compounds")

	ds := &model.Dataset{Source: "rapid"}
	for c := 0; c < conditions; c++ {
		for r := 1; r <= replicas; r++ {
			for p := 0; p < compounds; p++ {
				conc := rapid.Float64Range(0, 100).Draw(t, fmt.Sprintf("conc_%d_%d_%d", c, r, p))
				ds.Observations = append(ds.Observations, model.Observation{
					Condition:     fmt.Sprintf("cond%d", c),
					Replica:       fmt.Sprintf("%d", r),
					Compound:      fmt.Sprintf("P%d", p),
					Concentration: conc,
				})
			}
		}
	}
	return ds
}

func TestPCAPropertiesRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ds := randomDataset(rt)

		cfg := analysis.DefaultConfig()
		wm, err := analysis.BuildWideMatrix(ds, cfg)
		if err != nil {
			rt.Fatalf("BuildWideMatrix failed: %v", err)
		}

		res, err := analysis.ComputePCA(wm, cfg)
		if err != nil {
			// random draws can produce constant columns; after dropping
			// them the matrix may become too narrow, which is a valid
			// outcome, not a property violation
			var insufficient *analysis.InsufficientDimensionsError
			if errors.As(err, &insufficient) {
				return
			}
			rt.Fatalf("ComputePCA failed: %v", err)
		}

		// eigenvalues non-increasing and non-negative
		for k := 1; k < len(res.Eigenvalues); k++ {
			if res.Eigenvalues[k] > res.Eigenvalues[k-1]+1e-9 {
				rt.Fatalf("eigenvalues increase at %d: %v", k, res.Eigenvalues)
			}
		}
		for _, ev := range res.Eigenvalues {
			if ev < 0 {
				rt.Fatalf("negative eigenvalue %v", ev)
			}
		}

		// variance percentages sum to 100
		sum := 0.0
		for _, v := range res.VarExplained {
			sum += v
		}
		if math.Abs(sum-100) > 1e-6 {
			rt.Fatalf("variance explained sums to %v", sum)
		}

		// contributions sum to 100 per component
		for k := 0; k < res.Components(); k++ {
			colSum := 0.0
			for j := range res.Compounds {
				colSum += res.Contribution(j, k)
			}
			if math.Abs(colSum-100) > 1e-6 {
				rt.Fatalf("contributions to component %d sum to %v", k, colSum)
			}
		}

		// ranking is a permutation of the usable compounds, sorted
		ranking := analysis.RankContributors(res)
		if len(ranking) != len(res.Compounds) {
			rt.Fatalf("ranking covers %d of %d compounds", len(ranking), len(res.Compounds))
		}
		for i := 1; i < len(ranking); i++ {
			if ranking[i].MeanContribution > ranking[i-1].MeanContribution {
				rt.Fatalf("ranking not descending at %d", i)
			}
		}
	})
}
