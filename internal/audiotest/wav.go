// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WAV16 builds a canonical 44-byte-header PCM 16-bit WAV file in memory.
// samples are interleaved across channels.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	byteRate := uint32(sampleRate) * uint32(numChannels) * 2
	blockAlign := numChannels * 2
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, numChannels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// WriteWAV16 writes WAV16 output to dir/name and returns the path.
func WriteWAV16(t testing.TB, dir, name string, sampleRate, channels int, samples []int16) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, WAV16(sampleRate, channels, samples), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}

	return path
}

// Ramp returns n mono samples counting up from start by step.
func Ramp(n int, start, step int16) []int16 {
	out := make([]int16, n)
	v := start
	for i := range out {
		out[i] = v
		v += step
	}

	return out
}
