// SPDX-License-Identifier: EPL-2.0

package audio

import "github.com/ik5/sedclip/utils"

// CropAndPad returns exactly n samples: samples truncated when longer,
// otherwise extended by mirroring around the last sample
// ([s0 s1 s2] padded to 5 is [s0 s1 s2 s1 s0]). The mirror keeps folding
// when the pad is longer than the input. A single sample is repeated and an
// empty input is zero filled.
func CropAndPad(samples []float32, n int) []float32 {
	if n <= 0 {
		return []float32{}
	}

	out := make([]float32, n)
	copied := copy(out, samples)
	if copied == n || len(samples) == 0 {
		return out
	}

	for i := copied; i < n; i++ {
		out[i] = samples[utils.ReflectIndex(i, len(samples))]
	}

	return out
}

// RemoveMean subtracts the arithmetic mean from samples in place.
func RemoveMean(samples []float32) {
	if len(samples) == 0 {
		return
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := float32(sum / float64(len(samples)))

	for i := range samples {
		samples[i] -= mean
	}
}

// Scale multiplies samples by gain in place.
func Scale(samples []float32, gain float32) {
	for i := range samples {
		samples[i] *= gain
	}
}
