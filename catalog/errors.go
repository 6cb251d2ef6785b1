// SPDX-License-Identifier: EPL-2.0

package catalog

import "errors"

var (
	ErrMissingColumn      = errors.New("manifest is missing a required column")
	ErrShortRow           = errors.New("manifest row is missing fields")
	ErrDuplicateRecording = errors.New("recording listed twice in manifest")
	ErrNoResolver         = errors.New("catalog needs a label resolver")
	ErrNoProber           = errors.New("catalog needs a duration prober")
)
