// SPDX-License-Identifier: EPL-2.0

package sedclip

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ik5/sedclip/annotation"
	"github.com/ik5/sedclip/audio"
	"github.com/ik5/sedclip/catalog"
	"github.com/ik5/sedclip/clip"
	"github.com/ik5/sedclip/config"
	"github.com/ik5/sedclip/formats"
	"github.com/ik5/sedclip/internal/seed"
	"github.com/ik5/sedclip/sample"
)

var ErrIndexOutOfRange = errors.New("index out of range")

type options struct {
	logger   logrus.FieldLogger
	registry *audio.Registry
	prober   catalog.DurationProber
	progress func(done, total int)
}

// Option customizes New and NewRecordingSet.
type Option func(*options)

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry replaces the bundled decoders.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithProber measures recordings with p instead of decoding them.
func WithProber(p catalog.DurationProber) Option {
	return func(o *options) { o.prober = p }
}

// WithProgress reports catalog build progress.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

func buildOptions(opts []Option) (options, *audio.Loader) {
	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = formats.Default()
	}

	loader := audio.NewLoader(o.registry)
	if o.prober == nil {
		o.prober = loader
	}

	return o, loader
}

// Dataset is an indexed collection of training samples.
type Dataset struct {
	cat      *catalog.Catalog
	provider *sample.Provider
}

// New plans the windows of manifest and prepares sample loading.
// seedShift is added to cfg.Seed so that splits draw different streams.
func New(ctx context.Context, cfg *config.Config, manifest []catalog.Entry, mode clip.Mode, seedShift int64, opts ...Option) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o, loader := buildOptions(opts)

	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}

	base := seed.Base(cfg.Seed, seedShift)
	cat, err := catalog.Build(ctx, manifest, catalog.Options{
		Resolver:      resolver,
		SampleRate:    cfg.SampleRate,
		ClipDuration:  cfg.ClipDuration,
		ClipHop:       cfg.ClipHop,
		OmitEmptyProb: cfg.OmitEmptyClipProb,
		Mode:          mode,
		Seed:          base,
		Prober:        o.prober,
		Logger:        o.logger,
		Progress:      o.progress,
	})
	if err != nil {
		return nil, err
	}

	provider, err := sample.NewProvider(loader, cat, sample.Options{
		SampleRate:   cfg.SampleRate,
		ClipDuration: cfg.ClipDuration,
		Scale:        cfg.Scale(),
		NumClasses:   resolver.Labels().Len(),
		Mode:         mode,
		AmpAug:       cfg.AmpAug,
		AmpLow:       cfg.AmpAugLow,
		AmpHigh:      cfg.AmpAugHigh,
		Seed:         base,
	}, o.logger)
	if err != nil {
		return nil, err
	}

	return &Dataset{cat: cat, provider: provider}, nil
}

func (d *Dataset) Len() int { return d.cat.Len() }

// Get materializes sample i.
func (d *Dataset) Get(ctx context.Context, i int) (*sample.Record, error) {
	if i < 0 || i >= d.cat.Len() {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, d.cat.Len())
	}

	return d.provider.Fetch(ctx, d.cat.Window(i), i)
}

func (d *Dataset) ClassProportions() []float64 { return d.cat.ClassProportions() }

func (d *Dataset) Catalog() *catalog.Catalog { return d.cat }

func (d *Dataset) Labels() *annotation.LabelSet { return d.cat.Labels() }

// RecordingSet sweeps one recording with evenly spaced windows for
// inference.
type RecordingSet struct {
	path     string
	duration float64
	windows  []clip.Window
	provider *sample.Provider
}

// noStores serves waveform-only providers.
type noStores struct{}

func (noStores) Store(string) (*annotation.Store, bool) { return nil, false }

// NewRecordingSet lists windows of cfg.ClipDuration every hop seconds over
// audioPath.
func NewRecordingSet(ctx context.Context, cfg *config.Config, audioPath string, hop float64, opts ...Option) (*RecordingSet, error) {
	if !(hop > 0) {
		return nil, clip.ErrNonPositiveHop
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o, loader := buildOptions(opts)

	duration, err := o.prober.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("measuring %s: %w", audioPath, err)
	}

	provider, err := sample.NewProvider(loader, noStores{}, sample.Options{
		SampleRate:   cfg.SampleRate,
		ClipDuration: cfg.ClipDuration,
		Scale:        cfg.Scale(),
		NumClasses:   len(cfg.LabelSet),
		Mode:         clip.Eval,
	}, o.logger)
	if err != nil {
		return nil, err
	}

	return &RecordingSet{
		path:     audioPath,
		duration: duration,
		windows:  clip.Sweep(audioPath, audioPath, duration, cfg.ClipDuration, hop),
		provider: provider,
	}, nil
}

func (s *RecordingSet) Len() int { return len(s.windows) }

func (s *RecordingSet) Path() string { return s.path }

func (s *RecordingSet) Duration() float64 { return s.duration }

func (s *RecordingSet) Windows() []clip.Window { return s.windows }

// Get returns the waveform of window i.
func (s *RecordingSet) Get(ctx context.Context, i int) ([]float32, error) {
	if i < 0 || i >= len(s.windows) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.windows))
	}

	return s.provider.Waveform(ctx, s.windows[i])
}
