// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const defaultReadFrames = 4096

// Loader decodes windows of audio files into mono float32 samples at the
// file's native sample rate.
type Loader struct {
	registry   *Registry
	readFrames int
}

func NewLoader(registry *Registry) *Loader {
	return &Loader{
		registry:   registry,
		readFrames: defaultReadFrames,
	}
}

// Load returns the mono samples of path in [offset, offset+duration) seconds
// together with the native sample rate. The window starts at sample
// round(offset*rate) and spans round(duration*rate) samples; fewer are
// returned when the file ends first. A non-positive duration reads to the
// end of the file.
//
// Decoders only stream forward, so the samples before offset are decoded
// and discarded.
func (l *Loader) Load(ctx context.Context, path string, offset, duration float64) ([]float32, int, error) {
	if offset < 0 {
		return nil, 0, ErrNegativeOffset
	}

	src, err := l.open(path)
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()

	rate := src.SampleRate()
	skip := int(math.Round(offset * float64(rate)))
	want := -1
	if duration > 0 {
		want = int(math.Round(duration * float64(rate)))
	}

	var out []float32
	if want >= 0 {
		out = make([]float32, 0, want)
	}

	buf := make([]float32, l.readFrames)
	for want < 0 || len(out) < want {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		n, err := src.ReadSamples(buf)
		chunk := buf[:n]
		if skip > 0 {
			drop := min(skip, len(chunk))
			skip -= drop
			chunk = chunk[drop:]
		}
		if want >= 0 {
			chunk = chunk[:min(len(chunk), want-len(out))]
		}
		out = append(out, chunk...)

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
		}
		if n == 0 {
			break
		}
	}

	return out, rate, nil
}

// Duration decodes path to the end and returns its length in seconds.
func (l *Loader) Duration(ctx context.Context, path string) (float64, error) {
	src, err := l.open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	frames := 0
	buf := make([]float32, l.readFrames)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := src.ReadSamples(buf)
		frames += n
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
		}
	}

	return float64(frames) / float64(src.SampleRate()), nil
}

// open decodes path and downmixes it to mono. The caller closes the result.
func (l *Loader) open(path string) (Source, error) {
	dec, err := l.registry.Lookup(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if src.SampleRate() <= 0 {
		src.Close()
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, ErrInvalidSampleRate)
	}

	return &fileSource{Source: NewMonoMixer(src), file: f}, nil
}

// fileSource closes the underlying file after the decoder chain.
type fileSource struct {
	Source
	file *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if ferr := s.file.Close(); err == nil {
		err = ferr
	}

	return err
}
