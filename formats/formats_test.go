// SPDX-License-Identifier: EPL-2.0

package formats

import "testing"

func TestDefault(t *testing.T) {
	t.Parallel()

	reg := Default()
	for _, ext := range []string{"wav", "WAV", "wave", "mp3", "ogg", "oga", "aif", "aiff"} {
		if _, ok := reg.Get(ext); !ok {
			t.Errorf("Default() has no decoder for %q", ext)
		}
	}
	if _, ok := reg.Get("flac"); ok {
		t.Error("Default() unexpectedly handles flac")
	}
}
