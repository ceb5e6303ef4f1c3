//go:build ignore

// generate_testdata.go writes sample observation CSVs for manual runs and
// benchmarking. Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/small.csv   (2 conditions x 3 replicas x 4 compounds)
//	testdata/medium.csv  (3 conditions x 5 replicas x 12 compounds)
//	testdata/large.csv   (4 conditions x 8 replicas x 40 compounds)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/chemoscope/pkg/testutil"
)

type datasetSpec struct {
	name       string
	conditions []string
	replicas   int
	compounds  int
}

var datasets = []datasetSpec{
	{"small", []string{"controle", "tratado"}, 3, 4},
	{"medium", []string{"controle", "tratado", "estressado"}, 5, 12},
	{"large", []string{"c1", "c2", "c3", "c4"}, 8, 40},
}

func main() {
	outDir := "testdata"
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", outDir, err)
		os.Exit(1)
	}

	for _, spec := range datasets {
		compounds := make([]string, spec.compounds)
		for i := range compounds {
			compounds[i] = fmt.Sprintf("composto_%02d", i+1)
		}
		gen := testutil.New(testutil.GeneratorConfig{
			Seed:       int64(len(spec.name)),
			Conditions: spec.conditions,
			Replicas:   spec.replicas,
			Compounds:  compounds,
			BaseLevel:  10,
			Spread:     2,
		})

		path := filepath.Join(outDir, spec.name+".csv")
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Fprintln(f, "condicao;replica;composto;concentracao")
		ds := gen.Dataset()
		for _, o := range ds.Observations {
			conc := strings.Replace(fmt.Sprintf("%.4f", o.Concentration), ".", ",", 1)
			fmt.Fprintf(f, "%s;%s;%s;%s\n", o.Condition, o.Replica, o.Compound, conc)
		}
		f.Close()

		fmt.Printf("%s: %d observations\n", path, len(ds.Observations))
	}
}
