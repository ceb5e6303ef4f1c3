package testutil

import (
	"math"
	"testing"
)

// Epsilon is the default tolerance for floating-point assertions.
const Epsilon = 1e-9

// AssertInEpsilon verifies that got is within eps of want.
func AssertInEpsilon(t *testing.T, want, got, eps float64, what string) {
	t.Helper()
	if math.Abs(want-got) > eps {
		t.Errorf("%s: expected %.12f, got %.12f (diff %g)", what, want, got, math.Abs(want-got))
	}
}

// AssertSumsTo verifies that the values sum to want within eps.
func AssertSumsTo(t *testing.T, values []float64, want, eps float64, what string) {
	t.Helper()
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if math.Abs(sum-want) > eps {
		t.Errorf("%s: expected sum %.6f, got %.6f", what, want, sum)
	}
}

// AssertNonIncreasing verifies that the values never increase.
func AssertNonIncreasing(t *testing.T, values []float64, what string) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			t.Errorf("%s: value %d (%.9f) exceeds value %d (%.9f)", what, i, values[i], i-1, values[i-1])
		}
	}
}

// AssertStringsEqual verifies two string slices match element-wise.
func AssertStringsEqual(t *testing.T, want, got []string, what string) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: expected %d entries %v, got %d %v", what, len(want), want, len(got), got)
		return
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("%s: entry %d: expected %q, got %q", what, i, want[i], got[i])
		}
	}
}
