package analysis_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vanderheijden86/chemoscope/pkg/analysis"
	"github.com/vanderheijden86/chemoscope/pkg/model"
	"github.com/vanderheijden86/chemoscope/pkg/testutil"

	"gonum.org/v1/gonum/mat"
)

func computeSmall(t *testing.T) *analysis.PCAResult {
	t.Helper()
	wm, err := analysis.BuildWideMatrix(testutil.SmallDataset(), analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("BuildWideMatrix failed: %v", err)
	}
	res, err := analysis.ComputePCA(wm, analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("ComputePCA failed: %v", err)
	}
	return res
}

func TestPCAEigenvaluesNonIncreasing(t *testing.T) {
	res := computeSmall(t)
	testutil.AssertNonIncreasing(t, res.Eigenvalues, "eigenvalues")
	for _, ev := range res.Eigenvalues {
		if ev < 0 {
			t.Errorf("eigenvalue %v is negative", ev)
		}
	}
}

func TestPCAVarianceExplainedSumsTo100(t *testing.T) {
	res := computeSmall(t)
	testutil.AssertSumsTo(t, res.VarExplained, 100, 1e-9, "variance explained")
}

func TestPCAContributionsSumTo100PerComponent(t *testing.T) {
	res := computeSmall(t)
	for k := 0; k < res.Components(); k++ {
		col := make([]float64, len(res.Compounds))
		for j := range res.Compounds {
			col[j] = res.Contribution(j, k)
		}
		testutil.AssertSumsTo(t, col, 100, 1e-9, "contributions to component")
	}
}

func TestPCALoadingsBounded(t *testing.T) {
	res := computeSmall(t)
	for j := range res.Compounds {
		for k := 0; k < res.Components(); k++ {
			if math.Abs(res.VariableCoord(j, k)) > 1+1e-9 {
				t.Errorf("loading of %s on component %d is %v, beyond the correlation circle",
					res.Compounds[j], k, res.VariableCoord(j, k))
			}
		}
	}
}

func TestPCAComponentCount(t *testing.T) {
	res := computeSmall(t)
	// 4 samples x 3 compounds: min is 3
	if got := res.Components(); got != 3 {
		t.Errorf("expected 3 components, got %d", got)
	}
}

func TestPCADeterministic(t *testing.T) {
	a := computeSmall(t)
	b := computeSmall(t)

	for k := range a.Eigenvalues {
		if a.Eigenvalues[k] != b.Eigenvalues[k] {
			t.Errorf("eigenvalue %d differs between runs: %v vs %v", k, a.Eigenvalues[k], b.Eigenvalues[k])
		}
	}
	if !mat.Equal(a.IndividualCoords, b.IndividualCoords) {
		t.Error("individual coordinates differ between identical runs")
	}
	if !mat.Equal(a.VariableCoords, b.VariableCoords) {
		t.Error("variable coordinates differ between identical runs")
	}
	if !mat.Equal(a.Contributions, b.Contributions) {
		t.Error("contributions differ between identical runs")
	}
}

// constantColumnDataset builds a dataset where compound A is constant across
// all four samples, B and C varying.
func constantColumnDataset() *model.Dataset {
	obs := []model.Observation{
		{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: 5},
		{Condition: "ctrl", Replica: "1", Compound: "B", Concentration: 1},
		{Condition: "ctrl", Replica: "1", Compound: "C", Concentration: 9},
		{Condition: "ctrl", Replica: "2", Compound: "A", Concentration: 5},
		{Condition: "ctrl", Replica: "2", Compound: "B", Concentration: 2},
		{Condition: "ctrl", Replica: "2", Compound: "C", Concentration: 8},
		{Condition: "treat", Replica: "1", Compound: "A", Concentration: 5},
		{Condition: "treat", Replica: "1", Compound: "B", Concentration: 6},
		{Condition: "treat", Replica: "1", Compound: "C", Concentration: 3},
		{Condition: "treat", Replica: "2", Compound: "A", Concentration: 5},
		{Condition: "treat", Replica: "2", Compound: "B", Concentration: 7},
		{Condition: "treat", Replica: "2", Compound: "C", Concentration: 2},
	}
	return &model.Dataset{Observations: obs}
}

func TestPCAZeroVarianceDropPolicy(t *testing.T) {
	cfg := analysis.DefaultConfig()
	cfg.ZeroVariance = analysis.ZeroVarianceDrop

	wm, err := analysis.BuildWideMatrix(constantColumnDataset(), cfg)
	if err != nil {
		t.Fatalf("BuildWideMatrix failed: %v", err)
	}
	res, err := analysis.ComputePCA(wm, cfg)
	if err != nil {
		t.Fatalf("ComputePCA should proceed after dropping, got %v", err)
	}

	testutil.AssertStringsEqual(t, []string{"B", "C"}, res.Compounds, "usable compounds")
	testutil.AssertStringsEqual(t, []string{"A"}, res.Dropped, "dropped compounds")
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `"A"`) {
		t.Errorf("expected a warning naming A, got %v", res.Warnings)
	}
}

func TestPCAZeroVarianceErrorPolicy(t *testing.T) {
	cfg := analysis.DefaultConfig()
	cfg.ZeroVariance = analysis.ZeroVarianceError

	wm, err := analysis.BuildWideMatrix(constantColumnDataset(), cfg)
	if err != nil {
		t.Fatalf("BuildWideMatrix failed: %v", err)
	}
	_, err = analysis.ComputePCA(wm, cfg)

	var constant *analysis.ConstantColumnError
	if !errors.As(err, &constant) {
		t.Fatalf("expected ConstantColumnError, got %v", err)
	}
	if constant.Compound != "A" {
		t.Errorf("error should name compound A, got %q", constant.Compound)
	}
}

func TestPCASingleCompoundFails(t *testing.T) {
	ds := &model.Dataset{Observations: []model.Observation{
		{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: 1},
		{Condition: "ctrl", Replica: "2", Compound: "A", Concentration: 2},
		{Condition: "treat", Replica: "1", Compound: "A", Concentration: 3},
	}}
	wm, err := analysis.BuildWideMatrix(ds, analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("BuildWideMatrix failed: %v", err)
	}
	_, err = analysis.ComputePCA(wm, analysis.DefaultConfig())

	var insufficient *analysis.InsufficientDimensionsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDimensionsError for p=1, got %v", err)
	}
}

func TestPCASingleSampleFails(t *testing.T) {
	ds := &model.Dataset{Observations: []model.Observation{
		{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: 1},
		{Condition: "ctrl", Replica: "1", Compound: "B", Concentration: 2},
	}}
	wm, err := analysis.BuildWideMatrix(ds, analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("BuildWideMatrix failed: %v", err)
	}
	_, err = analysis.ComputePCA(wm, analysis.DefaultConfig())

	var insufficient *analysis.InsufficientDimensionsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDimensionsError for n=1, got %v", err)
	}
}

func TestPCAStandardizedCoordsMeanZero(t *testing.T) {
	res := computeSmall(t)
	// sample coordinates on each component are centered
	n, _ := res.IndividualCoords.Dims()
	for k := 0; k < res.Components(); k++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += res.IndividualCoords.At(i, k)
		}
		if math.Abs(sum/float64(n)) > 1e-9 {
			t.Errorf("component %d coordinates not centered, mean %v", k, sum/float64(n))
		}
	}
}
