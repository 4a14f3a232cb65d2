package core

import (
	"math"
	"testing"
)

func TestCleanCountsMissing(t *testing.T) {
	src := SliceSource{
		{Features: []float64{1, 2}, Response: 1},
		{Features: []float64{math.NaN(), 2}, Response: 0},
		{Features: []float64{3, 4}, Response: math.NaN()},
		{Features: []float64{5, 6}, Response: 2},
	}
	rows, skipped := Clean(src)
	if len(rows) != 2 {
		t.Errorf("usable rows = %d, want 2", len(rows))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestPartitionCoversAllRows(t *testing.T) {
	rows := make([]Row, 10)
	for i := range rows {
		rows[i] = Row{Features: []float64{float64(i)}, Response: 0}
	}

	for _, k := range []int{1, 3, 4, 10, 25} {
		parts := Partition(rows, k)
		total := 0
		for _, p := range parts {
			if len(p) == 0 {
				t.Errorf("k=%d produced an empty partition", k)
			}
			total += len(p)
		}
		if total != len(rows) {
			t.Errorf("k=%d covered %d rows, want %d", k, total, len(rows))
		}
		if len(parts) > k {
			t.Errorf("k=%d produced %d partitions", k, len(parts))
		}
	}
}

func TestCrossMoments(t *testing.T) {
	rows := []Row{
		{Features: []float64{1, 0}, Response: 2},
		{Features: []float64{3, 1}, Response: 4},
	}
	m := CrossMoments(rows)
	// means of x_j*y: (2+12)/2 = 7, (0+4)/2 = 2
	if math.Abs(m[0]-7) > 1e-12 || math.Abs(m[1]-2) > 1e-12 {
		t.Errorf("moments = %v, want [7 2]", m)
	}

	if CrossMoments(nil) != nil {
		t.Error("empty input should produce nil moments")
	}
}

func TestStandardize(t *testing.T) {
	rows := []Row{
		{Features: []float64{1, 5}, Response: 1},
		{Features: []float64{3, 5}, Response: 2},
		{Features: []float64{5, 5}, Response: 3},
	}
	scaled, means, stds := Standardize(rows)

	if math.Abs(means[0]-3) > 1e-12 {
		t.Errorf("mean = %v, want 3", means[0])
	}
	// Constant second feature keeps unit scale.
	if stds[1] != 1 {
		t.Errorf("constant feature std = %v, want 1", stds[1])
	}

	var sum, sumsq float64
	for _, r := range scaled {
		sum += r.Features[0]
		sumsq += r.Features[0] * r.Features[0]
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("scaled feature mean = %v, want 0", sum/3)
	}
	if math.Abs(sumsq/3-1) > 1e-12 {
		t.Errorf("scaled feature variance = %v, want 1", sumsq/3)
	}

	// Originals untouched.
	if rows[0].Features[0] != 1 {
		t.Error("Standardize mutated its input")
	}
}
