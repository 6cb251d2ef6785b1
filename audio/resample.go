// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"

	"github.com/ik5/sedclip/utils"
)

// lowPassAlpha is the coefficient of the one-pole filter applied before
// downsampling. It is a rough anti-aliasing stage, not a designed FIR.
const lowPassAlpha = 0.5

// Resample converts mono samples from fromRate to toRate using Catmull-Rom
// cubic interpolation. The output holds ceil(len(samples)*toRate/fromRate)
// samples. Edge frames are duplicated where the spline needs neighbours
// outside the input.
func Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if fromRate == toRate || len(samples) == 0 {
		return append([]float32(nil), samples...), nil
	}

	src := samples
	if fromRate > toRate {
		src = lowPass(samples, lowPassAlpha)
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(math.Ceil(float64(len(src)) * float64(toRate) / float64(fromRate)))
	out := make([]float32, outLen)
	last := len(src) - 1

	at := func(i int) float32 {
		return src[min(max(i, 0), last)]
	}

	for j := range out {
		pos := float64(j) * ratio
		i := int(pos)
		alpha := float32(pos - float64(i))
		out[j] = utils.CubicInterpolate(at(i-1), at(i), at(i+1), at(i+2), alpha)
	}

	return out, nil
}

// lowPass runs y[n] = a*x[n] + (1-a)*y[n-1], seeded with the first sample to
// avoid a warm-up transient.
func lowPass(x []float32, a float32) []float32 {
	y := make([]float32, len(x))
	state := x[0]
	for i, v := range x {
		state = a*v + (1-a)*state
		y[i] = state
	}

	return y
}
