package analysis

import "sort"

// RankedCompound is one row of the contributor ranking: a compound's
// loadings on the first two components and the mean of its percentage
// contributions to them.
type RankedCompound struct {
	Compound         string  `json:"compound"`
	PC1              float64 `json:"pc1"`
	PC2              float64 `json:"pc2"`
	MeanContribution float64 `json:"mean_contribution"`
}

// Ranking is a list of compounds sorted descending by mean contribution to
// the first two principal components. It is the single shared artifact that
// drives both biplot label emphasis and boxplot compound selection.
type Ranking []RankedCompound

// Compounds returns the compound names in ranking order.
func (r Ranking) Compounds() []string {
	out := make([]string, len(r))
	for i, rc := range r {
		out[i] = rc.Compound
	}
	return out
}

// Top returns the first n entries, clamped to the available count. n <= 0
// returns an empty ranking.
func (r Ranking) Top(n int) Ranking {
	if n <= 0 {
		return Ranking{}
	}
	if n > len(r) {
		n = len(r)
	}
	return r[:n]
}

// RankContributors builds the contributor ranking from a PCA result. The
// sort is stable, so compounds with identical mean contributions keep their
// original column order and the ranking is deterministic.
func RankContributors(res *PCAResult) Ranking {
	ranking := make(Ranking, len(res.Compounds))
	for j, name := range res.Compounds {
		ranking[j] = RankedCompound{
			Compound:         name,
			PC1:              res.VariableCoord(j, 0),
			PC2:              res.VariableCoord(j, 1),
			MeanContribution: (res.Contribution(j, 0) + res.Contribution(j, 1)) / 2,
		}
	}
	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].MeanContribution > ranking[b].MeanContribution
	})
	return ranking
}
