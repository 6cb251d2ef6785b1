// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes integer PCM WAV files through go-audio/wav.
package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/sedclip/audio"
	"github.com/ik5/sedclip/utils"
)

const pcmFormat = 1

// pcmReader is the part of wav.Decoder the source needs; tests substitute it.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	scale      float32
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.intBuf.Data) < len(dst) {
		s.intBuf.Data = make([]int, len(dst))
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w", err)
	}

	for i := range n {
		dst[i] = float32(s.intBuf.Data[i]) / s.scale
	}

	// go-audio fills the buffer completely until the data chunk runs out.
	if n == 0 {
		return 0, io.EOF
	}
	if n < len(dst) {
		return n, io.EOF
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != pcmFormat {
		return nil, ErrOnlyPCMSupported
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 8 {
		// 8-bit WAV is unsigned; everything else is signed.
		return nil, ErrUnsupportedBitDepth
	}
	scale, err := utils.PCMScale(bitDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedBitDepth, err)
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, ErrInvalidChannels
	}

	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      scale,
		intBuf: &goaudio.IntBuffer{
			Format:         format,
			Data:           make([]int, 4096),
			SourceBitDepth: bitDepth,
		},
	}, nil
}
