package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/chemoscope/internal/datasource"
	"github.com/vanderheijden86/chemoscope/pkg/analysis"
	"github.com/vanderheijden86/chemoscope/pkg/config"
	"github.com/vanderheijden86/chemoscope/pkg/model"
	"github.com/vanderheijden86/chemoscope/pkg/pipeline"
	"github.com/vanderheijden86/chemoscope/pkg/testutil"
)

func TestBuildSource(t *testing.T) {
	cfg := config.DefaultConfig()

	if _, err := buildSource("", "", cfg); err == nil {
		t.Error("expected error when no input is given")
	}
	if _, err := buildSource("a.csv", "b.db", cfg); err == nil {
		t.Error("expected error for mutually exclusive inputs")
	}

	src, err := buildSource("a.csv", "", cfg)
	if err != nil {
		t.Fatalf("csv input rejected: %v", err)
	}
	if src.Type != datasource.SourceTypeCSV || src.Path != "a.csv" {
		t.Errorf("unexpected csv source: %+v", src)
	}

	src, err = buildSource("", "b.db", cfg)
	if err != nil {
		t.Fatalf("sqlite input rejected: %v", err)
	}
	if src.Type != datasource.SourceTypeSQLite || src.Path != "b.db" {
		t.Errorf("unexpected sqlite source: %+v", src)
	}
}

func TestBuildSourceAppliesCSVOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Input.Delimiter = ";"
	cfg.Input.DecimalSeparator = ","

	src, err := buildSource("a.csv", "", cfg)
	if err != nil {
		t.Fatalf("buildSource failed: %v", err)
	}
	if src.CSVOptions.Delimiter != ';' {
		t.Errorf("got delimiter %q, want ;", src.CSVOptions.Delimiter)
	}
	if src.CSVOptions.DecimalSeparator != ',' {
		t.Errorf("got decimal separator %q, want ,", src.CSVOptions.DecimalSeparator)
	}
}

func TestPresentError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&model.InvalidInputError{Reason: "blank condition", Row: 3}, "Input problem"},
		{&analysis.DuplicateObservationError{Sample: model.SampleKey{Condition: "ctrl", Replica: "1"}, Compound: "A"}, "-duplicates last"},
		{&analysis.ConstantColumnError{Compound: "A"}, "-zero-variance drop"},
		{&analysis.InsufficientDimensionsError{Rows: 1, Cols: 1}, "2x2"},
		{os.ErrPermission, "Error:"},
	}
	for _, tc := range cases {
		got := presentError(tc.err)
		if !strings.Contains(got, tc.want) {
			t.Errorf("presentError(%v) = %q, missing %q", tc.err, got, tc.want)
		}
	}
}

func TestWriteOutputs(t *testing.T) {
	ds := testutil.New(testutil.DefaultConfig()).Dataset()
	res, err := pipeline.RunDataset(ds, analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("RunDataset failed: %v", err)
	}

	outDir := t.TempDir()
	cfg := config.DefaultConfig()
	if err := writeOutputs(res, outDir, cfg); err != nil {
		t.Fatalf("writeOutputs failed: %v", err)
	}

	for _, name := range []string{"biplot.svg", "boxplots.svg", "ranking.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestWriteOutputsMarkdownTable(t *testing.T) {
	ds := testutil.New(testutil.DefaultConfig()).Dataset()
	res, err := pipeline.RunDataset(ds, analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("RunDataset failed: %v", err)
	}

	outDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.TableStyle = "markdown"
	if err := writeOutputs(res, outDir, cfg); err != nil {
		t.Fatalf("writeOutputs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "ranking.md"))
	if err != nil {
		t.Fatalf("missing ranking.md: %v", err)
	}
	if !strings.HasPrefix(string(data), "| Compound |") {
		t.Errorf("ranking.md is not a markdown table:\n%s", data)
	}
}

func TestWriteOutputsUnknownTableStyle(t *testing.T) {
	ds := testutil.New(testutil.DefaultConfig()).Dataset()
	res, err := pipeline.RunDataset(ds, analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("RunDataset failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Output.TableStyle = "csv"
	if err := writeOutputs(res, t.TempDir(), cfg); err == nil {
		t.Fatal("expected error for unknown table style")
	}
}
