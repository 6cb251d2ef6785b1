// SPDX-License-Identifier: EPL-2.0

// Package config loads the dataset settings from a YAML file, with
// SEDCLIP_ prefixed environment variables overriding file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ik5/sedclip/annotation"
	"github.com/ik5/sedclip/clip"
)

const EnvPrefix = "SEDCLIP"

var (
	ErrHopNotWholeSamples = clip.ErrHopNotWholeSamples
	ErrInvalidValue       = errors.New("invalid configuration value")
)

// Spectrogram settings of detectors trained on mel spectrograms.
type Spectrogram struct {
	NFFT      int `mapstructure:"n_fft"`
	WinLength int `mapstructure:"win_length"`
	HopLength int `mapstructure:"hop_length"`
	NMels     int `mapstructure:"n_mels"`
}

type Config struct {
	SampleRate            int      `mapstructure:"sr"`
	ClipDuration          float64  `mapstructure:"clip_duration"`
	ClipHop               float64  `mapstructure:"clip_hop"`
	ScaleFactor           int      `mapstructure:"scale_factor"`
	PredictionScaleFactor int      `mapstructure:"prediction_scale_factor"`
	LabelSet              []string `mapstructure:"label_set"`
	LabelMappingPath      string   `mapstructure:"label_mapping_fp"`
	UnknownLabel          string   `mapstructure:"unknown_label"`
	Seed                  int64    `mapstructure:"seed"`
	AmpAug                bool     `mapstructure:"amp_aug"`
	AmpAugLow             float64  `mapstructure:"amp_aug_low_r"`
	AmpAugHigh            float64  `mapstructure:"amp_aug_high_r"`
	OmitEmptyClipProb     float64  `mapstructure:"omit_empty_clip_prob"`
	BatchSize             int      `mapstructure:"batch_size"`
	NumWorkers            int      `mapstructure:"num_workers"`
	TrainInfoPath         string   `mapstructure:"train_info_fp"`
	ValInfoPath           string   `mapstructure:"val_info_fp"`
	TestInfoPath          string   `mapstructure:"test_info_fp"`
	LogLevel              string   `mapstructure:"log_level"`
	DurationCacheDir      string   `mapstructure:"duration_cache_dir"`

	Spectrogram Spectrogram `mapstructure:"spectrogram"`

	// LabelMapping is read from LabelMappingPath.
	LabelMapping annotation.Mapping `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sr", 16000)
	v.SetDefault("clip_duration", 60.0)
	v.SetDefault("clip_hop", 30.0)
	v.SetDefault("scale_factor", 320)
	v.SetDefault("prediction_scale_factor", 1)
	v.SetDefault("label_set", []string{})
	v.SetDefault("label_mapping_fp", "")
	v.SetDefault("unknown_label", "Unknown")
	v.SetDefault("seed", 0)
	v.SetDefault("amp_aug", false)
	v.SetDefault("amp_aug_low_r", 0.8)
	v.SetDefault("amp_aug_high_r", 1.2)
	v.SetDefault("omit_empty_clip_prob", 0.0)
	v.SetDefault("batch_size", 8)
	v.SetDefault("num_workers", 4)
	v.SetDefault("train_info_fp", "")
	v.SetDefault("val_info_fp", "")
	v.SetDefault("test_info_fp", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("duration_cache_dir", "")
	v.SetDefault("spectrogram.n_fft", 1024)
	v.SetDefault("spectrogram.win_length", 1024)
	v.SetDefault("spectrogram.hop_length", 256)
	v.SetDefault("spectrogram.n_mels", 128)
}

// Load reads path (optional, may be empty), applies environment overrides,
// reads the label mapping and validates the result. A relative
// label_mapping_fp is resolved against the directory of path.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.LabelMappingPath != "" {
		mp := cfg.LabelMappingPath
		if !filepath.IsAbs(mp) && path != "" {
			mp = filepath.Join(filepath.Dir(path), mp)
		}

		m, err := LoadMapping(mp)
		if err != nil {
			return nil, err
		}
		cfg.LabelMapping = m
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadMapping reads a YAML map of raw annotation label to canonical label.
func LoadMapping(path string) (annotation.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening label mapping: %w", err)
	}
	defer f.Close()

	var m annotation.Mapping
	if err := yaml.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding label mapping %s: %w", path, err)
	}

	return m, nil
}

// Scale is the number of input samples per prediction frame.
func (c *Config) Scale() int { return c.ScaleFactor * c.PredictionScaleFactor }

// Labels builds the label set.
func (c *Config) Labels() (*annotation.LabelSet, error) {
	return annotation.NewLabelSet(c.LabelSet)
}

// Resolver binds the label set to the label mapping.
func (c *Config) Resolver() (*annotation.Resolver, error) {
	labels, err := c.Labels()
	if err != nil {
		return nil, err
	}

	return annotation.NewResolver(labels, c.LabelMapping, c.UnknownLabel)
}

func invalid(key string, v any, want string) error {
	return fmt.Errorf("%w: %s = %v, %s", ErrInvalidValue, key, v, want)
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return invalid("sr", c.SampleRate, "must be positive")
	case !(c.ClipDuration > 0):
		return invalid("clip_duration", c.ClipDuration, "must be positive")
	case !(c.ClipHop > 0):
		return invalid("clip_hop", c.ClipHop, "must be positive")
	case c.ScaleFactor < 1:
		return invalid("scale_factor", c.ScaleFactor, "must be at least 1")
	case c.PredictionScaleFactor < 1:
		return invalid("prediction_scale_factor", c.PredictionScaleFactor, "must be at least 1")
	case !(c.OmitEmptyClipProb >= 0 && c.OmitEmptyClipProb <= 1):
		return invalid("omit_empty_clip_prob", c.OmitEmptyClipProb, "must be in [0, 1]")
	case c.AmpAug && c.AmpAugLow < 0:
		return invalid("amp_aug_low_r", c.AmpAugLow, "must not be negative")
	case c.AmpAug && c.AmpAugLow > c.AmpAugHigh:
		return invalid("amp_aug_low_r", c.AmpAugLow, fmt.Sprintf("must not exceed amp_aug_high_r (%v)", c.AmpAugHigh))
	case c.BatchSize < 1:
		return invalid("batch_size", c.BatchSize, "must be at least 1")
	case c.NumWorkers < 0:
		return invalid("num_workers", c.NumWorkers, "must not be negative")
	}

	if err := clip.CheckHop(c.ClipHop, c.SampleRate); err != nil {
		return fmt.Errorf("clip_hop: %w", err)
	}

	if _, err := c.Resolver(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	return nil
}
