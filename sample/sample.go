// SPDX-License-Identifier: EPL-2.0

// Package sample materializes training samples: the audio of a clip window
// together with its encoded targets.
package sample

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/ik5/sedclip/annotation"
	"github.com/ik5/sedclip/audio"
	"github.com/ik5/sedclip/clip"
	"github.com/ik5/sedclip/internal/seed"
	"github.com/ik5/sedclip/target"
)

var (
	ErrUnknownRecording = errors.New("no annotations for recording")
	ErrAmpRange         = errors.New("amplitude augmentation range must satisfy 0 <= low <= high")
)

// Record is one materialized sample.
type Record struct {
	Index      int
	Window     clip.Window
	Waveform   []float32
	SampleRate int
	// Intervals are the annotations inside the window, in clip seconds.
	Intervals []annotation.Interval
	target.Targets
}

// Stores finds the annotation index of a recording.
type Stores interface {
	Store(recordingID string) (*annotation.Store, bool)
}

// Options control how samples are produced.
type Options struct {
	SampleRate   int
	ClipDuration float64
	// Scale is scale factor times prediction scale factor.
	Scale      int
	NumClasses int
	Mode       clip.Mode
	AmpAug     bool
	AmpLow     float64
	AmpHigh    float64
	// Seed is the base of the per-sample generators.
	Seed uint64
}

func (o Options) validate() error {
	if o.SampleRate <= 0 {
		return audio.ErrInvalidSampleRate
	}
	if !(o.ClipDuration > 0) {
		return clip.ErrNonPositiveDuration
	}
	if o.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", o.Scale)
	}
	if o.AmpAug && !(o.AmpLow >= 0 && o.AmpLow <= o.AmpHigh) {
		return fmt.Errorf("%w: [%g, %g]", ErrAmpRange, o.AmpLow, o.AmpHigh)
	}

	return nil
}

// Provider loads and encodes samples. It holds no mutable state, so Fetch
// may run from many goroutines.
type Provider struct {
	loader *audio.Loader
	stores Stores
	opts   Options
	logger logrus.FieldLogger
}

func NewProvider(loader *audio.Loader, stores Stores, opts Options, logger logrus.FieldLogger) (*Provider, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Provider{
		loader: loader,
		stores: stores,
		opts:   opts,
		logger: logger.WithField("component", "sample_provider"),
	}, nil
}

func (p *Provider) Options() Options { return p.opts }

// Fetch materializes the sample at index for window w. Augmentation draws
// come from a generator derived from the provider seed and index.
func (p *Provider) Fetch(ctx context.Context, w clip.Window, index int) (*Record, error) {
	store, ok := p.stores.Store(w.RecordingID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecording, w.RecordingID)
	}

	var rng *rand.Rand
	if p.opts.Mode == clip.Train && p.opts.AmpAug {
		rng = seed.ForIndex(p.opts.Seed, index)
	}

	wave, err := p.load(ctx, w, rng)
	if err != nil {
		return nil, err
	}

	intervals := store.Overlapping(w.Start, w.End)

	p.logger.WithFields(logrus.Fields{
		"recording": w.RecordingID,
		"start":     w.Start,
		"index":     index,
		"events":    len(intervals),
	}).Trace("fetched sample")

	return &Record{
		Index:      index,
		Window:     w,
		Waveform:   wave,
		SampleRate: p.opts.SampleRate,
		Intervals:  intervals,
		Targets:    target.Encode(intervals, len(wave), p.opts.SampleRate, p.opts.Scale, p.opts.NumClasses),
	}, nil
}

// Waveform returns only the audio of w, without augmentation.
func (p *Provider) Waveform(ctx context.Context, w clip.Window) ([]float32, error) {
	return p.load(ctx, w, nil)
}

// load reads the clip at native rate, removes its mean, applies the gain
// drawn from rng when rng is set, and resamples to the target rate. Only a
// resampled clip is cropped or padded to the exact clip length.
func (p *Provider) load(ctx context.Context, w clip.Window, rng *rand.Rand) ([]float32, error) {
	wave, rate, err := p.loader.Load(ctx, w.AudioPath, w.Start, p.opts.ClipDuration)
	if err != nil {
		return nil, fmt.Errorf("loading %s at %gs: %w", w.AudioPath, w.Start, err)
	}

	audio.RemoveMean(wave)

	if rng != nil {
		gain := p.opts.AmpLow + (p.opts.AmpHigh-p.opts.AmpLow)*rng.Float64()
		audio.Scale(wave, float32(gain))
	}

	if rate != p.opts.SampleRate {
		wave, err = audio.Resample(wave, rate, p.opts.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("resampling %s: %w", w.AudioPath, err)
		}
		wave = audio.CropAndPad(wave, int(float64(p.opts.SampleRate)*p.opts.ClipDuration))
	}

	return wave, nil
}
