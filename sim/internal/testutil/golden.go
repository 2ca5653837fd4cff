// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden CDF dataset types and assertion helpers used across
// sim/ sub-package tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenCDFDataset represents the structure of testdata/golden_cdf.json.
type GoldenCDFDataset struct {
	Tests []GoldenCDFCase `json:"tests"`
}

// GoldenCDFCase is one hand-computed empirical CDF.
type GoldenCDFCase struct {
	Name       string    `json:"name"`
	Values     []float64 `json:"values"`
	Thresholds []float64 `json:"thresholds"`
	Want       []float64 `json:"want"` // proportion of values >= each threshold
}

// LoadGoldenCDFDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenCDFDataset(t *testing.T) *GoldenCDFDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_cdf.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenCDFDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertNonIncreasing fails if any element of xs exceeds its predecessor.
func AssertNonIncreasing(t *testing.T, name string, xs []float64) {
	t.Helper()
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[i-1] {
			t.Errorf("%s: element %d (%v) exceeds element %d (%v)", name, i, xs[i], i-1, xs[i-1])
		}
	}
}
