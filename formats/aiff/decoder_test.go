// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
)

type fakeAiff struct {
	values []int
}

func (f *fakeAiff) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	n := copy(buf.Data, f.values)
	f.values = f.values[n:]
	return n, nil
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := &source{
		dec:        &fakeAiff{values: []int{16384, -16384, 0}},
		sampleRate: 22050,
		channels:   1,
		scale:      32768,
		intBuf:     &goaudio.IntBuffer{},
	}

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if n != 3 {
		t.Fatalf("ReadSamples() n = %d, want 3", n)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() short read error = %v, want io.EOF", err)
	}
	want := []float32{0.5, -0.5, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestDecoder_NotAiff(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("FORM....WAVE")))
	if !errors.Is(err, ErrNotAiffFile) {
		t.Errorf("Decode() error = %v, want ErrNotAiffFile", err)
	}
}
