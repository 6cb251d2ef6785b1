// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestCubicInterpolate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		y0, y1, y2, y3 float32
		x              float32
		want           float32
		tolerance      float32
	}{
		{name: "x=0 returns y1", y0: 0, y1: 1, y2: 2, y3: 3, x: 0, want: 1, tolerance: 1e-6},
		{name: "x=1 returns y2", y0: 0, y1: 1, y2: 2, y3: 3, x: 1, want: 2, tolerance: 1e-6},
		{name: "linear data stays linear", y0: 1, y1: 2, y2: 3, y3: 4, x: 0.25, want: 2.25, tolerance: 1e-6},
		{name: "constant", y0: 0.3, y1: 0.3, y2: 0.3, y3: 0.3, x: 0.7, want: 0.3, tolerance: 1e-6},
		{name: "symmetric midpoint", y0: -1, y1: -0.5, y2: 0.5, y3: 1, x: 0.5, want: 0, tolerance: 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CubicInterpolate(tt.y0, tt.y1, tt.y2, tt.y3, tt.x)
			if diff := float32(math.Abs(float64(got - tt.want))); diff > tt.tolerance {
				t.Errorf("CubicInterpolate() = %v, want %v (diff %v)", got, tt.want, diff)
			}
		})
	}
}

func TestFloatToPCM(t *testing.T) {
	t.Parallel()

	scale, err := PCMScale(16)
	if err != nil {
		t.Fatalf("PCMScale(16) error = %v", err)
	}

	tests := []struct {
		in   float32
		want int
	}{
		{in: 0, want: 0},
		{in: 1, want: math.MaxInt16},
		{in: -1, want: math.MinInt16},
		{in: 0.5, want: 16383},
		{in: 3, want: math.MaxInt16},
		{in: -3, want: math.MinInt16},
	}

	for _, tt := range tests {
		if got := FloatToPCM(tt.in, scale); got != tt.want {
			t.Errorf("FloatToPCM(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPCMScale(t *testing.T) {
	t.Parallel()

	for depth, want := range map[int]float32{8: 128, 16: 32768, 24: 8388608, 32: 2147483648} {
		got, err := PCMScale(depth)
		if err != nil || got != want {
			t.Errorf("PCMScale(%d) = (%v, %v), want %v", depth, got, err, want)
		}
	}

	if _, err := PCMScale(12); err == nil {
		t.Error("PCMScale(12) error = nil, want error")
	}
}

func TestReflectIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		in   []int
		want []int
	}{
		{n: 3, in: []int{0, 1, 2, 3, 4, 5, 6, 7}, want: []int{0, 1, 2, 1, 0, 1, 2, 1}},
		{n: 2, in: []int{2, 3, 4}, want: []int{0, 1, 0}},
		{n: 1, in: []int{0, 5, 9}, want: []int{0, 0, 0}},
		{n: 4, in: []int{-1, -2}, want: []int{1, 2}},
	}

	for _, tt := range tests {
		for i, in := range tt.in {
			if got := ReflectIndex(in, tt.n); got != tt.want[i] {
				t.Errorf("ReflectIndex(%d, %d) = %d, want %d", in, tt.n, got, tt.want[i])
			}
		}
	}
}
