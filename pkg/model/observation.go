// Package model defines the core data types shared across chemoscope:
// long-format concentration observations, sample identity, and the
// validated dataset the analysis pipeline consumes.
package model

import (
	"math"
	"sort"
	"strings"
)

// Observation is a single concentration measurement: one compound in one
// replicated sample of one experimental condition.
type Observation struct {
	Condition     string  `json:"condition"`
	Replica       string  `json:"replica"`
	Compound      string  `json:"compound"`
	Concentration float64 `json:"concentration"`
}

// Sample returns the sample identity of the observation.
func (o Observation) Sample() SampleKey {
	return SampleKey{Condition: o.Condition, Replica: o.Replica}
}

// SampleKey identifies one row of the wide matrix: a unique
// (condition, replica) pair.
type SampleKey struct {
	Condition string `json:"condition"`
	Replica   string `json:"replica"`
}

// String renders the key as "condition/replica".
func (k SampleKey) String() string {
	return k.Condition + "/" + k.Replica
}

// Dataset is an ordered sequence of long-format observations plus the
// provenance of where they came from. It is immutable after construction;
// all derived artifacts (wide matrix, PCA result, ranking) are recomputed
// from it on every run.
type Dataset struct {
	// Source describes where the observations were loaded from
	// (file path, database path, or "memory").
	Source string

	Observations []Observation
}

// Conditions returns the distinct condition labels in first-appearance order.
func (d *Dataset) Conditions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range d.Observations {
		if !seen[o.Condition] {
			seen[o.Condition] = true
			out = append(out, o.Condition)
		}
	}
	return out
}

// Compounds returns the distinct compound names in first-appearance order.
func (d *Dataset) Compounds() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range d.Observations {
		if !seen[o.Compound] {
			seen[o.Compound] = true
			out = append(out, o.Compound)
		}
	}
	return out
}

// Samples returns the distinct (condition, replica) pairs in
// first-appearance order.
func (d *Dataset) Samples() []SampleKey {
	seen := make(map[SampleKey]bool)
	var out []SampleKey
	for _, o := range d.Observations {
		k := o.Sample()
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// FilterCompounds returns a new Dataset containing only observations of the
// named compounds. Observation order is preserved. The receiver is not
// modified.
func (d *Dataset) FilterCompounds(names []string) *Dataset {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := &Dataset{Source: d.Source}
	for _, o := range d.Observations {
		if want[o.Compound] {
			out.Observations = append(out.Observations, o)
		}
	}
	return out
}

// ConcentrationsBy returns the concentrations of one compound grouped by
// condition, in the dataset's condition order. Used by the boxplot renderer.
func (d *Dataset) ConcentrationsBy(compound string) (conditions []string, groups [][]float64) {
	idx := make(map[string]int)
	for _, o := range d.Observations {
		if o.Compound != compound {
			continue
		}
		i, ok := idx[o.Condition]
		if !ok {
			i = len(conditions)
			idx[o.Condition] = i
			conditions = append(conditions, o.Condition)
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], o.Concentration)
	}
	return conditions, groups
}

// Validate checks the dataset for structural problems: no observations,
// blank labels, or non-finite/negative concentrations. It returns an
// *InvalidInputError describing the first offending row.
func (d *Dataset) Validate() error {
	if len(d.Observations) == 0 {
		return &InvalidInputError{Reason: "no observations"}
	}
	for i, o := range d.Observations {
		switch {
		case strings.TrimSpace(o.Condition) == "":
			return &InvalidInputError{Reason: "blank condition", Row: i + 1, Field: "condition"}
		case strings.TrimSpace(o.Replica) == "":
			return &InvalidInputError{Reason: "blank replica", Row: i + 1, Field: "replica"}
		case strings.TrimSpace(o.Compound) == "":
			return &InvalidInputError{Reason: "blank compound", Row: i + 1, Field: "compound"}
		case math.IsNaN(o.Concentration) || math.IsInf(o.Concentration, 0):
			return &InvalidInputError{Reason: "non-finite concentration", Row: i + 1, Field: "concentration"}
		case o.Concentration < 0:
			return &InvalidInputError{Reason: "negative concentration", Row: i + 1, Field: "concentration"}
		}
	}
	return nil
}

// SortedCopy returns the compound names sorted lexically. Handy for
// deterministic summaries; the analysis itself keeps first-appearance order.
func SortedCopy(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}
