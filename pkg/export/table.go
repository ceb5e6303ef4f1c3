package export

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chemoscope/pkg/analysis"
)

// rankingDoc is the JSON envelope for the ranked contributor table.
type rankingDoc struct {
	VarExplainedPC1 float64                   `json:"var_explained_pc1"`
	VarExplainedPC2 float64                   `json:"var_explained_pc2"`
	Compounds       []analysis.RankedCompound `json:"compounds"`
	Warnings        []string                  `json:"warnings,omitempty"`
}

// WriteRankingJSON writes the ranked contributor table as indented JSON.
// The PCA result supplies the axis variance context; warnings carry the
// dropped-column notes.
func WriteRankingJSON(w io.Writer, res *analysis.PCAResult, ranking analysis.Ranking) error {
	doc := rankingDoc{
		VarExplainedPC1: res.VarExplained[0],
		VarExplainedPC2: res.VarExplained[1],
		Compounds:       ranking,
		Warnings:        res.Warnings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteRankingMarkdown writes the ranked contributor table as a markdown
// table: compound, PC1 coordinate, PC2 coordinate, mean contribution.
func WriteRankingMarkdown(w io.Writer, res *analysis.PCAResult, ranking analysis.Ranking) error {
	if _, err := fmt.Fprintf(w, "| Compound | PC1 | PC2 | Mean contribution (%%) |\n|---|---:|---:|---:|\n"); err != nil {
		return err
	}
	for _, rc := range ranking {
		if _, err := fmt.Fprintf(w, "| %s | %.4f | %.4f | %.2f |\n",
			rc.Compound, rc.PC1, rc.PC2, rc.MeanContribution); err != nil {
			return err
		}
	}
	for _, warn := range res.Warnings {
		if _, err := fmt.Fprintf(w, "\n> %s\n", warn); err != nil {
			return err
		}
	}
	return nil
}
