// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrDecode            = errors.New("audio decode failed")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrNegativeOffset    = errors.New("offset must not be negative")
	ErrNonPositiveLength = errors.New("duration must be positive")
)

// UnsupportedFormatError reports a path whose extension has no registered decoder.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: no decoder for %q", e.Path, e.Ext)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }
