// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer averages the channels of src into a single channel.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("closing mixed source: %w", err)
	}

	return nil
}

// ReadSamples fills dst with mono frames; the return value counts frames.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	samplesNeeded := len(dst) * channels
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	// A decoder may hand back a trailing partial frame; it is dropped.
	frames := n / channels

	if channels == 2 {
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
		return frames, err
	}

	inv := float32(1.0) / float32(channels)
	for f := range frames {
		sum := float32(0)
		base := f * channels
		for c := range channels {
			sum += m.tmp[base+c]
		}
		dst[f] = sum * inv
	}

	return frames, err
}
