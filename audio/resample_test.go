// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"math"
	"testing"
)

func TestResample_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		n        int
		from, to int
		want     int
	}{
		{name: "same rate", n: 100, from: 16000, to: 16000, want: 100},
		{name: "upsample 2x", n: 100, from: 8000, to: 16000, want: 200},
		{name: "downsample 3x", n: 300, from: 48000, to: 16000, want: 100},
		{name: "fractional rounds up", n: 441, from: 44100, to: 16000, want: 160},
		{name: "empty", n: 0, from: 8000, to: 16000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Resample(make([]float32, tt.n), tt.from, tt.to)
			if err != nil {
				t.Fatalf("Resample() error = %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("Resample() len = %d, want %d", len(out), tt.want)
			}
		})
	}
}

func TestResample_ConstantSignal(t *testing.T) {
	t.Parallel()

	in := make([]float32, 1000)
	for i := range in {
		in[i] = 0.25
	}

	for _, to := range []int{8000, 22050, 96000} {
		out, err := Resample(in, 44100, to)
		if err != nil {
			t.Fatalf("Resample(->%d) error = %v", to, err)
		}
		for i, v := range out {
			if math.Abs(float64(v-0.25)) > 1e-5 {
				t.Fatalf("Resample(->%d)[%d] = %v, want 0.25", to, i, v)
			}
		}
	}
}

func TestResample_UpsampleHitsOriginalSamples(t *testing.T) {
	t.Parallel()

	in := []float32{0, 0.5, -0.5, 0.25, 0}
	out, err := Resample(in, 8000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}

	// Every second output lands exactly on an input sample.
	for i, v := range in {
		if math.Abs(float64(out[2*i]-v)) > 1e-6 {
			t.Errorf("out[%d] = %v, want %v", 2*i, out[2*i], v)
		}
	}
}

func TestResample_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	in := []float32{0.1, 0.2, 0.3}
	out, err := Resample(in, 16000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	out[0] = 1
	if in[0] != 0.1 {
		t.Error("Resample() with equal rates returned the input slice")
	}
}

func TestResample_InvalidRate(t *testing.T) {
	t.Parallel()

	for _, rates := range [][2]int{{0, 8000}, {8000, 0}, {-1, 8000}} {
		_, err := Resample([]float32{1}, rates[0], rates[1])
		if !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("Resample(%d->%d) error = %v, want ErrInvalidSampleRate", rates[0], rates[1], err)
		}
	}
}
