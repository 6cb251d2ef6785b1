// SPDX-License-Identifier: EPL-2.0

// Package formats wires the bundled decoders into an audio.Registry.
package formats

import (
	"github.com/ik5/sedclip/audio"
	"github.com/ik5/sedclip/formats/aiff"
	"github.com/ik5/sedclip/formats/mp3"
	"github.com/ik5/sedclip/formats/vorbis"
	"github.com/ik5/sedclip/formats/wav"
)

// Default returns a registry with every bundled decoder keyed by the file
// extensions it handles.
func Default() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(wav.Decoder{}, "wav", "wave")
	reg.Register(mp3.Decoder{}, "mp3")
	reg.Register(vorbis.Decoder{}, "ogg", "oga")
	reg.Register(aiff.Decoder{}, "aif", "aiff")

	return reg
}
