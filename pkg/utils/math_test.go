package utils

import (
	"math"
	"testing"
)

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if got := Mean([]float64{0.2, 0.4, 0.6}); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("Mean = %v, want 0.4", got)
	}
}

func TestNormalizeL2(t *testing.T) {
	v := []float64{3, 4}
	NormalizeL2(v)
	if math.Abs(v[0]-0.6) > 1e-9 || math.Abs(v[1]-0.8) > 1e-9 {
		t.Errorf("NormalizeL2 = %v", v)
	}

	zero := []float64{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should be unchanged, got %v", zero)
	}
}

func TestDot(t *testing.T) {
	if got := Dot([]float64{1, 0}, []float64{1, 0}); got != 1 {
		t.Errorf("Dot identical unit vectors = %v, want 1", got)
	}
	if got := Dot([]float64{1, 2}, []float64{1}); got != 0 {
		t.Errorf("Dot mismatched lengths = %v, want 0", got)
	}
}
