// Package testutil provides deterministic dataset generators and assertion
// helpers for chemoscope tests. All generators are seeded so fixtures are
// reproducible across runs.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/chemoscope/pkg/model"
)

// GeneratorConfig controls observation generation.
type GeneratorConfig struct {
	Seed       int64    // Random seed for determinism
	Conditions []string // Condition labels (default: ctrl, treat)
	Replicas   int      // Replicas per condition (default: 3)
	Compounds  []string // Compound names (default: C1..C4)
	BaseLevel  float64  // Mean concentration level (default: 10)
	Spread     float64  // Uniform noise half-width (default: 2)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42, // deterministic
		Conditions: []string{"ctrl", "treat"},
		Replicas:   3,
		Compounds:  []string{"C1", "C2", "C3", "C4"},
		BaseLevel:  10,
		Spread:     2,
	}
}

// Generator creates observation fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if len(cfg.Conditions) == 0 {
		cfg.Conditions = DefaultConfig().Conditions
	}
	if cfg.Replicas <= 0 {
		cfg.Replicas = DefaultConfig().Replicas
	}
	if len(cfg.Compounds) == 0 {
		cfg.Compounds = DefaultConfig().Compounds
	}
	if cfg.BaseLevel == 0 {
		cfg.BaseLevel = DefaultConfig().BaseLevel
	}
	if cfg.Spread == 0 {
		cfg.Spread = DefaultConfig().Spread
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Dataset generates a full factorial dataset: every compound measured in
// every (condition, replica) sample, with condition-dependent offsets so a
// PCA has structure to find.
func (g *Generator) Dataset() *model.Dataset {
	ds := &model.Dataset{Source: "testutil"}
	for ci, cond := range g.cfg.Conditions {
		for r := 1; r <= g.cfg.Replicas; r++ {
			for comp := range g.cfg.Compounds {
				// each condition shifts compounds in a different direction
				offset := float64(ci) * float64(comp+1) * g.cfg.Spread
				noise := (g.rng.Float64()*2 - 1) * g.cfg.Spread
				ds.Observations = append(ds.Observations, model.Observation{
					Condition:     cond,
					Replica:       fmt.Sprintf("%d", r),
					Compound:      g.cfg.Compounds[comp],
					Concentration: g.cfg.BaseLevel + offset + noise,
				})
			}
		}
	}
	return ds
}

// SmallDataset returns a hand-written 4-sample, 3-compound dataset with a
// fixed structure, for tests that need exact expectations.
func SmallDataset() *model.Dataset {
	obs := []model.Observation{
		{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: 1.0},
		{Condition: "ctrl", Replica: "1", Compound: "B", Concentration: 5.0},
		{Condition: "ctrl", Replica: "1", Compound: "C", Concentration: 9.0},
		{Condition: "ctrl", Replica: "2", Compound: "A", Concentration: 1.2},
		{Condition: "ctrl", Replica: "2", Compound: "B", Concentration: 5.5},
		{Condition: "ctrl", Replica: "2", Compound: "C", Concentration: 8.5},
		{Condition: "treat", Replica: "1", Compound: "A", Concentration: 3.0},
		{Condition: "treat", Replica: "1", Compound: "B", Concentration: 7.0},
		{Condition: "treat", Replica: "1", Compound: "C", Concentration: 4.0},
		{Condition: "treat", Replica: "2", Compound: "A", Concentration: 3.4},
		{Condition: "treat", Replica: "2", Compound: "B", Concentration: 7.5},
		{Condition: "treat", Replica: "2", Compound: "C", Concentration: 3.5},
	}
	return &model.Dataset{Source: "testutil", Observations: obs}
}
