// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/sedclip/annotation"
)

const sampleConfig = `
sr: 16000
clip_duration: 4
clip_hop: 2
scale_factor: 320
prediction_scale_factor: 2
label_set: [Call, Song]
label_mapping_fp: mapping.yaml
unknown_label: Unknown
seed: 3
amp_aug: true
amp_aug_low_r: 0.5
amp_aug_high_r: 1.5
omit_empty_clip_prob: 0.25
spectrogram:
  n_mels: 64
`

const sampleMapping = `
Call: Call
"call?": Unknown
SONG: Song
`

func writeFiles(t *testing.T, cfg string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.yaml"), []byte(sampleMapping), 0o600))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFiles(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.SampleRate)
	assert.InDelta(t, 4.0, cfg.ClipDuration, 1e-12)
	assert.Equal(t, 640, cfg.Scale())
	assert.Equal(t, []string{"Call", "Song"}, cfg.LabelSet)
	assert.Equal(t, int64(3), cfg.Seed)
	assert.True(t, cfg.AmpAug)
	assert.InDelta(t, 0.25, cfg.OmitEmptyClipProb, 1e-12)
	assert.Equal(t, Spectrogram{NFFT: 1024, WinLength: 1024, HopLength: 256, NMels: 64}, cfg.Spectrogram)
	assert.Equal(t, 8, cfg.BatchSize)

	// Mapping keys keep their case.
	assert.Equal(t, annotation.Mapping{"Call": "Call", "call?": "Unknown", "SONG": "Song"}, cfg.LabelMapping)

	r, err := cfg.Resolver()
	require.NoError(t, err)
	class, ok := r.Resolve("SONG")
	assert.True(t, ok)
	assert.Equal(t, 1, class)
	class, ok = r.Resolve("call?")
	assert.True(t, ok)
	assert.Equal(t, annotation.Unknown, class)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEDCLIP_SR", "8000")
	t.Setenv("SEDCLIP_SPECTROGRAM_N_MELS", "32")
	t.Setenv("SEDCLIP_LABEL_SET", "Call,Song,Chirp")

	cfg, err := Load(writeFiles(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.SampleRate)
	assert.Equal(t, 32, cfg.Spectrogram.NMels)
	assert.Equal(t, []string{"Call", "Song", "Chirp"}, cfg.LabelSet)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFiles(t, strings.Replace(sampleConfig, "clip_hop: 2", "clip_hop: 0.00003", 1))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrHopNotWholeSamples)

	path = writeFiles(t, "label_set: [A]\nlabel_mapping_fp: nope.yaml\n")
	_, err = Load(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func validConfig() Config {
	return Config{
		SampleRate:            100,
		ClipDuration:          4,
		ClipHop:               2,
		ScaleFactor:           10,
		PredictionScaleFactor: 1,
		LabelSet:              []string{"A", "B"},
		UnknownLabel:          "unk",
		AmpAugLow:             1,
		AmpAugHigh:            1,
		BatchSize:             1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, ErrInvalidValue},
		{"zero clip", func(c *Config) { c.ClipDuration = 0 }, ErrInvalidValue},
		{"negative hop", func(c *Config) { c.ClipHop = -1 }, ErrInvalidValue},
		{"fractional hop samples", func(c *Config) { c.ClipHop = 0.015 }, ErrHopNotWholeSamples},
		{"zero scale", func(c *Config) { c.ScaleFactor = 0 }, ErrInvalidValue},
		{"zero prediction scale", func(c *Config) { c.PredictionScaleFactor = 0 }, ErrInvalidValue},
		{"omit prob above one", func(c *Config) { c.OmitEmptyClipProb = 1.1 }, ErrInvalidValue},
		{"amp low above high", func(c *Config) { c.AmpAug, c.AmpAugLow, c.AmpAugHigh = true, 2, 1 }, ErrInvalidValue},
		{"amp low negative", func(c *Config) { c.AmpAug, c.AmpAugLow = true, -0.5 }, ErrInvalidValue},
		{"amp range ignored when off", func(c *Config) { c.AmpAugLow, c.AmpAugHigh = 2, 1 }, nil},
		{"empty label set", func(c *Config) { c.LabelSet = nil }, annotation.ErrEmptyLabelSet},
		{"unknown inside label set", func(c *Config) { c.UnknownLabel = "A" }, annotation.ErrUnknownInLabelSet},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
