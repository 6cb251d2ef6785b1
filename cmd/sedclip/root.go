// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/ik5/sedclip"
	"github.com/ik5/sedclip/audio"
	"github.com/ik5/sedclip/catalog"
	"github.com/ik5/sedclip/clip"
	"github.com/ik5/sedclip/config"
	"github.com/ik5/sedclip/formats"
	"github.com/ik5/sedclip/internal/durcache"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "sedclip",
		Short:         "Prepare bioacoustic recordings for sound event detection training",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("SEDCLIP_CONFIG"), "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log_level from the configuration")

	root.AddCommand(
		newPlanCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newSweepCmd(a),
	)

	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	a.logger = logrus.StandardLogger()
	a.logger.SetLevel(lvl)
	a.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return nil
}

// splitFlags select which manifest to read and how to plan it.
type splitFlags struct {
	split     string
	manifest  string
	mode      string
	seedShift int64
	progress  bool
}

func (f *splitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.split, "split", "train", "manifest from the configuration: train, val or test")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "manifest CSV, overrides --split")
	cmd.Flags().StringVar(&f.mode, "mode", "", "train or eval (default: train for the train split, eval otherwise)")
	cmd.Flags().Int64Var(&f.seedShift, "seed-shift", 0, "added to the configured seed")
	cmd.Flags().BoolVar(&f.progress, "progress", true, "show a progress bar while planning")
}

func (f *splitFlags) resolve(cfg *config.Config) (string, clip.Mode, error) {
	path := f.manifest
	if path == "" {
		switch f.split {
		case "train":
			path = cfg.TrainInfoPath
		case "val":
			path = cfg.ValInfoPath
		case "test":
			path = cfg.TestInfoPath
		default:
			return "", 0, fmt.Errorf("unknown split %q", f.split)
		}
	}
	if path == "" {
		return "", 0, fmt.Errorf("no manifest configured for split %q", f.split)
	}

	mode := clip.Eval
	switch f.mode {
	case "":
		if f.manifest == "" && f.split == "train" {
			mode = clip.Train
		}
	case "train":
		mode = clip.Train
	case "eval":
	default:
		return "", 0, fmt.Errorf("unknown mode %q", f.mode)
	}

	return path, mode, nil
}

// dataset builds the dataset selected by f. The returned cleanup closes the
// duration cache.
func (a *app) dataset(ctx context.Context, f *splitFlags) (*sedclip.Dataset, func(), error) {
	path, mode, err := f.resolve(a.cfg)
	if err != nil {
		return nil, nil, err
	}

	entries, err := catalog.ReadManifestFile(path)
	if err != nil {
		return nil, nil, err
	}

	opts := []sedclip.Option{sedclip.WithLogger(a.logger)}

	cleanup := func() {}
	prober, closeCache, err := a.prober()
	if err != nil {
		return nil, nil, err
	}
	if prober != nil {
		opts = append(opts, sedclip.WithProber(prober))
		cleanup = closeCache
	}

	var p *mpb.Progress
	if f.progress && len(entries) > 0 {
		var bar *mpb.Bar
		p, bar = newBar(ctx, "Planning: ", len(entries))
		last := time.Now()
		opts = append(opts, sedclip.WithProgress(func(done, _ int) {
			bar.EwmaSetCurrent(int64(done), time.Since(last))
			last = time.Now()
		}))
	}

	ds, err := sedclip.New(ctx, a.cfg, entries, mode, f.seedShift, opts...)
	if p != nil {
		if err != nil {
			p.Shutdown()
		} else {
			p.Wait()
		}
	}
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return ds, cleanup, nil
}

// prober returns a cached duration prober when duration_cache_dir is set.
func (a *app) prober() (catalog.DurationProber, func(), error) {
	if a.cfg.DurationCacheDir == "" {
		return nil, nil, nil
	}

	cache, err := durcache.Open(a.cfg.DurationCacheDir, a.logger)
	if err != nil {
		return nil, nil, err
	}
	closeCache := func() {
		if err := cache.Close(); err != nil {
			a.logger.WithError(err).Warn("closing duration cache")
		}
	}

	return durcache.NewCachedProber(cache, audio.NewLoader(formats.Default())), closeCache, nil
}

func newBar(ctx context.Context, name string, total int) (*mpb.Progress, *mpb.Bar) {
	p := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	return p, bar
}
