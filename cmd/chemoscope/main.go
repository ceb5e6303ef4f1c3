// Command chemoscope runs an exploratory PCA over chemical-composition
// measurements and writes a biplot, per-compound boxplots and a ranked
// contributor table into an output directory.
//
// The core computation lives in pkg/analysis and pkg/pipeline; this
// command is only the wrapping collaborator that resolves the input
// source, applies configuration and persists the rendered artifacts.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"syscall"

	"github.com/vanderheijden86/chemoscope/internal/datasource"
	"github.com/vanderheijden86/chemoscope/pkg/analysis"
	"github.com/vanderheijden86/chemoscope/pkg/config"
	"github.com/vanderheijden86/chemoscope/pkg/export"
	"github.com/vanderheijden86/chemoscope/pkg/metrics"
	"github.com/vanderheijden86/chemoscope/pkg/model"
	"github.com/vanderheijden86/chemoscope/pkg/pipeline"
	"github.com/vanderheijden86/chemoscope/pkg/version"
	"github.com/vanderheijden86/chemoscope/pkg/watcher"
)

func main() {
	input := flag.String("input", "", "Input CSV file (semicolon-separated observations)")
	sqlitePath := flag.String("sqlite", "", "Input SQLite database with an observations table")
	outDir := flag.String("out-dir", "chemoscope-out", "Output directory for figures and the ranked table")
	format := flag.String("format", "", "Figure format: svg or png (default from config, svg)")
	topN := flag.Int("top", 0, "Number of top contributors to emphasise and facet (default from config, 5)")
	arrowScale := flag.Float64("arrow-scale", 0, "Biplot arrow multiplier, visual only (default from config, 5)")
	duplicates := flag.String("duplicates", "", "Duplicate observation policy: last or error")
	zeroVariance := flag.String("zero-variance", "", "Zero-variance compound policy: drop or error")
	tableStyle := flag.String("table", "", "Ranked table style: json or markdown")
	delimiter := flag.String("delimiter", "", "CSV field delimiter (single character, auto-detected when empty)")
	decimal := flag.String("decimal", "", "Decimal separator: . or , (auto-detected when empty)")
	configPath := flag.String("config", "", "Config file path (default ~/.config/chemoscope/config.yaml)")
	watch := flag.Bool("watch", false, "Re-run the analysis when the input file changes")
	showTimings := flag.Bool("timings", false, "Print stage timings after the run")
	versionFlag := flag.Bool("version", false, "Show version")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("chemoscope %s\n", version.Version)
		os.Exit(0)
	}

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override config file values.
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *topN > 0 {
		cfg.Output.TopN = *topN
	}
	if *arrowScale > 0 {
		cfg.Output.ArrowScale = *arrowScale
	}
	if *duplicates != "" {
		cfg.Analysis.Duplicates = *duplicates
	}
	if *zeroVariance != "" {
		cfg.Analysis.ZeroVariance = *zeroVariance
	}
	if *tableStyle != "" {
		cfg.Output.TableStyle = *tableStyle
	}
	if *delimiter != "" {
		cfg.Input.Delimiter = *delimiter
	}
	if *decimal != "" {
		cfg.Input.DecimalSeparator = *decimal
	}

	src, err := buildSource(*input, *sqlitePath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	runOnce := func() error {
		res, err := pipeline.Run(src, cfg.AnalysisConfig())
		if err != nil {
			return err
		}
		if err := writeOutputs(res, *outDir, cfg); err != nil {
			return err
		}
		printSummary(res, *outDir)
		if *showTimings {
			printTimings()
		}
		return nil
	}

	if err := runOnce(); err != nil {
		fmt.Fprintln(os.Stderr, presentError(err))
		os.Exit(1)
	}

	if *watch {
		if src.Type == datasource.SourceTypeMemory {
			fmt.Fprintln(os.Stderr, "-watch requires a file input")
			os.Exit(1)
		}
		if err := watchAndRerun(src.Path, runOnce); err != nil {
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
			os.Exit(1)
		}
	}
}

// buildSource resolves the tagged input-source variant from the flags.
func buildSource(input, sqlitePath string, cfg config.Config) (datasource.Source, error) {
	switch {
	case input != "" && sqlitePath != "":
		return datasource.Source{}, fmt.Errorf("-input and -sqlite are mutually exclusive")
	case sqlitePath != "":
		return datasource.FromSQLite(sqlitePath), nil
	case input != "":
		src := datasource.FromCSV(input)
		if cfg.Input.Delimiter != "" {
			src.CSVOptions.Delimiter = rune(cfg.Input.Delimiter[0])
		}
		if cfg.Input.DecimalSeparator != "" {
			src.CSVOptions.DecimalSeparator = rune(cfg.Input.DecimalSeparator[0])
		}
		return src, nil
	default:
		return datasource.Source{}, fmt.Errorf("an input is required (-input or -sqlite)")
	}
}

// writeOutputs renders the biplot, the boxplot facets and the ranked table
// into the output directory.
func writeOutputs(res *pipeline.Result, outDir string, cfg config.Config) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ext := cfg.Output.Format
	if ext == "" {
		ext = "svg"
	}

	biplotDone := metrics.Timer(metrics.BiplotRender)
	err := export.SaveBiplot(export.BiplotOptions{
		Path:       filepath.Join(outDir, "biplot."+ext),
		Title:      "PCA of compound concentrations",
		Result:     res.PCA,
		Ranking:    res.Ranking,
		TopN:       cfg.Output.TopN,
		ArrowScale: cfg.Output.ArrowScale,
	})
	biplotDone()
	if err != nil {
		return fmt.Errorf("render biplot: %w", err)
	}

	top := res.Ranking.Top(cfg.Output.TopN)
	boxplotDone := metrics.Timer(metrics.BoxplotRender)
	err = export.SaveBoxplots(export.BoxplotOptions{
		Path:      filepath.Join(outDir, "boxplots."+ext),
		Title:     "Top contributors by condition",
		Dataset:   res.Dataset.FilterCompounds(top.Compounds()),
		Compounds: top.Compounds(),
	})
	boxplotDone()
	if err != nil {
		return fmt.Errorf("render boxplots: %w", err)
	}

	tableDone := metrics.Timer(metrics.TableExport)
	defer tableDone()
	switch cfg.Output.TableStyle {
	case "", "json":
		f, err := os.Create(filepath.Join(outDir, "ranking.json"))
		if err != nil {
			return fmt.Errorf("create ranking table: %w", err)
		}
		defer f.Close()
		return export.WriteRankingJSON(f, res.PCA, res.Ranking)
	case "markdown", "md":
		f, err := os.Create(filepath.Join(outDir, "ranking.md"))
		if err != nil {
			return fmt.Errorf("create ranking table: %w", err)
		}
		defer f.Close()
		return export.WriteRankingMarkdown(f, res.PCA, res.Ranking)
	default:
		return fmt.Errorf("unknown table style %q (want json or markdown)", cfg.Output.TableStyle)
	}
}

func printSummary(res *pipeline.Result, outDir string) {
	fmt.Printf("Analyzed %d samples x %d compounds (%d observations)\n",
		res.Matrix.Rows(), res.Matrix.Cols(), len(res.Dataset.Observations))
	fmt.Printf("PC1 %.1f%%, PC2 %.1f%% of variance\n",
		res.PCA.VarExplained[0], res.PCA.VarExplained[1])
	for _, w := range res.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	fmt.Printf("Figures and ranking written to %s\n", outDir)
}

func printTimings() {
	for _, m := range metrics.AllTimingMetrics() {
		s := m.Stats()
		if s.Count == 0 {
			continue
		}
		fmt.Fprintf(os.Stderr, "%-15s %6.2fms\n", s.Name, s.TotalMs)
	}
}

// presentError maps the typed core errors onto analyst-readable messages.
func presentError(err error) string {
	var (
		invalid      *model.InvalidInputError
		duplicate    *analysis.DuplicateObservationError
		constant     *analysis.ConstantColumnError
		insufficient *analysis.InsufficientDimensionsError
	)
	switch {
	case errors.As(err, &invalid):
		return fmt.Sprintf("Input problem: %v\nCheck the exported file's columns and decimal separators.", invalid)
	case errors.As(err, &duplicate):
		return fmt.Sprintf("%v\nRe-export the data or run with -duplicates last to keep the newest value.", duplicate)
	case errors.As(err, &constant):
		return fmt.Sprintf("%v\nRun with -zero-variance drop to exclude it from the analysis.", constant)
	case errors.As(err, &insufficient):
		return fmt.Sprintf("%v\nA biplot needs at least a 2x2 matrix of varying measurements.", insufficient)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// watchAndRerun blocks, re-running the analysis whenever the input file
// changes, until interrupted.
func watchAndRerun(path string, runOnce func() error) error {
	w, err := watcher.New(path, watcher.WithOnError(func(err error) {
		fmt.Fprintf(os.Stderr, "Watch: %v\n", err)
	}))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", path)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-w.Changed():
			if err := runOnce(); err != nil {
				// keep watching; the next export may be fixable
				fmt.Fprintln(os.Stderr, presentError(err))
			}
		case <-sigCh:
			return nil
		}
	}
}
