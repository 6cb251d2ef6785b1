// SPDX-License-Identifier: EPL-2.0

// Package catalog builds the window list of a corpus.
//
// Build walks a manifest once: it measures each recording, indexes its
// selection table and plans its windows with one generator seeded from the
// catalog seed, so the same manifest and seed always yield the same
// windows. The resulting Catalog is immutable and safe to share.
package catalog

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/ik5/sedclip/annotation"
	"github.com/ik5/sedclip/clip"
	"github.com/ik5/sedclip/internal/seed"
)

// DurationProber measures a recording in seconds. *audio.Loader is one.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Options configure Build.
type Options struct {
	Resolver      *annotation.Resolver
	SampleRate    int
	ClipDuration  float64
	ClipHop       float64
	OmitEmptyProb float64
	Mode          clip.Mode
	// Seed is the base seed plus the split's seed shift.
	Seed   uint64
	Prober DurationProber
	Logger logrus.FieldLogger
	// Progress, when set, is called after each recording.
	Progress func(done, total int)
}

// Recording is a manifest entry with what Build learned about it.
type Recording struct {
	Entry
	Duration float64
	Store    *annotation.Store
	// Planned counts windows before empty ones were dropped.
	Planned int
	Kept    int
}

// Catalog is the planned corpus of one split.
type Catalog struct {
	recordings []*Recording
	byName     map[string]*Recording
	windows    []clip.Window
	offset     float64
	labels     *annotation.LabelSet
	mode       clip.Mode
}

// Build plans every recording of entries in manifest order.
func Build(ctx context.Context, entries []Entry, opts Options) (*Catalog, error) {
	if opts.Resolver == nil {
		return nil, ErrNoResolver
	}
	if opts.Prober == nil {
		return nil, ErrNoProber
	}
	if err := clip.CheckHop(opts.ClipHop, opts.SampleRate); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithFields(logrus.Fields{
		"component": "catalog",
		"mode":      opts.Mode.String(),
	})

	rng := seed.New(opts.Seed)
	offset := clip.StartOffset(opts.Mode, rng, opts.ClipHop, opts.SampleRate)

	planner, err := clip.NewPlanner(opts.Mode, opts.ClipDuration, opts.ClipHop, offset, opts.OmitEmptyProb)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		recordings: make([]*Recording, 0, len(entries)),
		byName:     make(map[string]*Recording, len(entries)),
		offset:     offset,
		labels:     opts.Resolver.Labels(),
		mode:       opts.Mode,
	}

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRecording, e.Name)
		}

		rec, err := c.plan(ctx, e, planner, opts, rng)
		if err != nil {
			return nil, err
		}

		logger.WithFields(logrus.Fields{
			"recording": e.Name,
			"duration":  rec.Duration,
			"events":    rec.Store.Len(),
			"planned":   rec.Planned,
			"kept":      rec.Kept,
		}).Debug("planned recording")

		if opts.Progress != nil {
			opts.Progress(i+1, len(entries))
		}
	}

	logger.WithFields(logrus.Fields{
		"recordings": len(c.recordings),
		"windows":    len(c.windows),
		"offset":     offset,
	}).Info("catalog built")

	return c, nil
}

func (c *Catalog) plan(ctx context.Context, e Entry, planner clip.Planner, opts Options, rng clip.Float64er) (*Recording, error) {
	duration, err := opts.Prober.Duration(ctx, e.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("recording %q: %w", e.Name, err)
	}

	rows, err := annotation.ReadSelectionTableFile(e.SelectionTablePath)
	if err != nil {
		return nil, fmt.Errorf("recording %q: %w", e.Name, err)
	}
	store := annotation.Build(rows, opts.Resolver)

	windows := planner.Plan(e.Name, e.AudioPath, duration, store, rng)

	rec := &Recording{
		Entry:    e,
		Duration: duration,
		Store:    store,
		Planned:  clip.Count(duration, planner.ClipDuration, planner.ClipHop, planner.StartOffset),
		Kept:     len(windows),
	}
	c.recordings = append(c.recordings, rec)
	c.byName[e.Name] = rec
	c.windows = append(c.windows, windows...)

	return rec, nil
}

// Len is the number of windows.
func (c *Catalog) Len() int { return len(c.windows) }

// Window returns window i.
func (c *Catalog) Window(i int) clip.Window { return c.windows[i] }

// Windows returns all windows in manifest then time order. The slice is
// shared and must not be modified.
func (c *Catalog) Windows() []clip.Window { return c.windows }

// Store returns the annotation index of a recording.
func (c *Catalog) Store(name string) (*annotation.Store, bool) {
	rec, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return rec.Store, true
}

func (c *Catalog) Recordings() []*Recording { return c.recordings }

// Offset is the start offset shared by every window.
func (c *Catalog) Offset() float64 { return c.offset }

func (c *Catalog) Labels() *annotation.LabelSet { return c.labels }

func (c *Catalog) Mode() clip.Mode { return c.mode }

// ClassProportions is the fraction of known-class events per class over the
// whole corpus. Unknown events are not counted. Without known events every
// proportion is zero.
func (c *Catalog) ClassProportions() []float64 {
	props := make([]float64, c.labels.Len())
	for _, rec := range c.recordings {
		for class, n := range rec.Store.ClassCounts(len(props)) {
			props[class] += float64(n)
		}
	}

	total := floats.Sum(props)
	if total == 0 {
		return props
	}
	floats.Scale(1/total, props)

	return props
}
