// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/sedclip/utils"
)

const writeBitDepth = 16

// Write encodes mono float32 samples in [-1,1] as a 16-bit PCM WAV at
// sampleRate. Samples outside the range are clipped.
func Write(w io.WriteSeeker, sampleRate int, samples []float32) error {
	enc := wav.NewEncoder(w, sampleRate, writeBitDepth, 1, pcmFormat)

	scale, err := utils.PCMScale(writeBitDepth)
	if err != nil {
		return err
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = utils.FloatToPCM(s, scale)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: writeBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}
