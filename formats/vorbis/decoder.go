// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams through jfreymuth/oggvorbis.
package vorbis

import (
	"fmt"
	"io"

	"github.com/ik5/sedclip/audio"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the part of oggvorbis.Reader the source needs; tests substitute it.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

// ReadSamples decodes whole frames only; oggvorbis counts interleaved values.
func (s *source) ReadSamples(dst []float32) (int, error) {
	whole := len(dst) - len(dst)%s.channels
	if whole == 0 {
		return 0, nil
	}

	return s.dec.Read(dst[:whole])
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ogg vorbis header: %w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
