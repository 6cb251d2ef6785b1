// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio through go-mp3.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/sedclip/audio"
)

// go-mp3 always emits interleaved stereo 16-bit little-endian PCM.
const (
	outChannels   = 2
	bytesPerValue = 2
)

// mp3Reader is the part of gomp3.Decoder the source needs; tests substitute it.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// pending holds a trailing odd byte from the previous read.
	pending []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return outChannels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * bytesPerValue
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	carried := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.dec.Read(s.buf[carried:])
	n += carried
	if n < bytesPerValue {
		s.pending = append(s.pending, s.buf[:n]...)
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	values := n / bytesPerValue
	if rest := n % bytesPerValue; rest != 0 {
		s.pending = append(s.pending, s.buf[n-rest:n]...)
	}
	for i := range values {
		v := int16(binary.LittleEndian.Uint16(s.buf[i*bytesPerValue:]))
		dst[i] = float32(v) / 32768.0
	}

	return values, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
