package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/vanderheijden86/chemoscope/pkg/model"
	"github.com/vanderheijden86/chemoscope/pkg/testutil"
)

func TestFirstAppearanceOrder(t *testing.T) {
	ds := &model.Dataset{Observations: []model.Observation{
		{Condition: "treat", Replica: "1", Compound: "B", Concentration: 1},
		{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: 2},
		{Condition: "treat", Replica: "2", Compound: "A", Concentration: 3},
		{Condition: "ctrl", Replica: "1", Compound: "B", Concentration: 4},
	}}

	testutil.AssertStringsEqual(t, []string{"treat", "ctrl"}, ds.Conditions(), "conditions")
	testutil.AssertStringsEqual(t, []string{"B", "A"}, ds.Compounds(), "compounds")

	samples := ds.Samples()
	want := []string{"treat/1", "ctrl/1", "treat/2"}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i, k := range samples {
		if k.String() != want[i] {
			t.Errorf("sample %d: got %q, want %q", i, k.String(), want[i])
		}
	}
}

func TestFilterCompounds(t *testing.T) {
	ds := testutil.SmallDataset()
	filtered := ds.FilterCompounds([]string{"A", "C"})

	testutil.AssertStringsEqual(t, []string{"A", "C"}, filtered.Compounds(), "filtered compounds")
	if len(ds.Observations) == len(filtered.Observations) {
		t.Error("filter removed nothing")
	}
	if filtered.Source != ds.Source {
		t.Errorf("source not carried over: %q", filtered.Source)
	}
}

func TestConcentrationsBy(t *testing.T) {
	ds := testutil.SmallDataset()
	conditions, groups := ds.ConcentrationsBy("A")

	testutil.AssertStringsEqual(t, []string{"ctrl", "treat"}, conditions, "conditions")
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for i, g := range groups {
		if len(g) != 2 {
			t.Errorf("group %d: got %d values, want 2", i, len(g))
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		obs   []model.Observation
		field string
		row   int
	}{
		{"empty", nil, "", 0},
		{"blank condition", []model.Observation{
			{Condition: " ", Replica: "1", Compound: "A", Concentration: 1},
		}, "condition", 1},
		{"blank replica", []model.Observation{
			{Condition: "ctrl", Replica: "", Compound: "A", Concentration: 1},
		}, "replica", 1},
		{"blank compound", []model.Observation{
			{Condition: "ctrl", Replica: "1", Compound: "", Concentration: 1},
		}, "compound", 1},
		{"nan concentration", []model.Observation{
			{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: 1},
			{Condition: "ctrl", Replica: "2", Compound: "A", Concentration: math.NaN()},
		}, "concentration", 2},
		{"negative concentration", []model.Observation{
			{Condition: "ctrl", Replica: "1", Compound: "A", Concentration: -0.1},
		}, "concentration", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds := &model.Dataset{Observations: tc.obs}
			err := ds.Validate()
			var invalid *model.InvalidInputError
			if !errors.As(err, &invalid) {
				t.Fatalf("got %v, want InvalidInputError", err)
			}
			if invalid.Field != tc.field {
				t.Errorf("got field %q, want %q", invalid.Field, tc.field)
			}
			if invalid.Row != tc.row {
				t.Errorf("got row %d, want %d", invalid.Row, tc.row)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := testutil.SmallDataset().Validate(); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}
}
