// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding and conditioning primitives used to
// turn audio files into fixed-length clip waveforms.
//
// # Sources
//
// Every format decoder yields a Source, a pull stream of interleaved float32
// samples in [-1,1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// MonoMixer wraps a Source and averages its channels.
//
// # Loading windows
//
// A Loader resolves a decoder from a Registry by file extension and reads a
// time window of a file as mono samples at the native rate:
//
//	loader := audio.NewLoader(formats.Default())
//	samples, rate, err := loader.Load(ctx, "site3.wav", 12.5, 4.0)
//
// Failures to open or decode are wrapped in ErrDecode.
//
// # Conditioning
//
// Resample converts a mono slice between rates with cubic interpolation,
// CropAndPad forces an exact length with mirror padding, and RemoveMean and
// Scale apply DC removal and gain in place.
package audio
