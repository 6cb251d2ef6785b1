// SPDX-License-Identifier: EPL-2.0

// Package clip slices recordings into fixed-duration, fixed-hop windows.
package clip

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNonPositiveDuration = errors.New("clip duration must be positive")
	ErrNonPositiveHop      = errors.New("clip hop must be positive")
	ErrOmitProbRange       = errors.New("omit empty clip probability must be in [0, 1]")
	ErrNegativeOffset      = errors.New("start offset must not be negative")
	ErrHopNotWholeSamples  = errors.New("clip hop must span a whole number of samples")
)

// Mode selects training or evaluation behaviour. Evaluation never drops
// windows and never offsets them.
type Mode int

const (
	Train Mode = iota
	Eval
)

func (m Mode) String() string {
	switch m {
	case Train:
		return "train"
	case Eval:
		return "eval"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Window is one clip of a recording, [Start, End) in seconds.
type Window struct {
	RecordingID string
	AudioPath   string
	Start       float64
	End         float64
}

func (w Window) Duration() float64 { return w.End - w.Start }

// Overlapper reports whether any annotation intersects [start, end).
// *annotation.Store satisfies it.
type Overlapper interface {
	Any(start, end float64) bool
}

// Float64er is the random source the planner draws keep/drop decisions from.
type Float64er interface {
	Float64() float64
}

// IntNer draws the start offset.
type IntNer interface {
	IntN(n int) int
}

// Planner enumerates the windows of a recording.
type Planner struct {
	ClipDuration  float64
	ClipHop       float64
	StartOffset   float64
	OmitEmptyProb float64
}

// NewPlanner validates the parameters. In Eval mode startOffset and
// omitEmptyProb are ignored and set to zero.
func NewPlanner(mode Mode, clipDuration, clipHop, startOffset, omitEmptyProb float64) (Planner, error) {
	if mode == Eval {
		startOffset, omitEmptyProb = 0, 0
	}

	p := Planner{
		ClipDuration:  clipDuration,
		ClipHop:       clipHop,
		StartOffset:   startOffset,
		OmitEmptyProb: omitEmptyProb,
	}

	return p, p.Validate()
}

func (p Planner) Validate() error {
	switch {
	case !(p.ClipDuration > 0):
		return ErrNonPositiveDuration
	case !(p.ClipHop > 0):
		return ErrNonPositiveHop
	case !(p.StartOffset >= 0):
		return ErrNegativeOffset
	case !(p.OmitEmptyProb >= 0 && p.OmitEmptyProb <= 1):
		return ErrOmitProbRange
	}

	return nil
}

// CheckHop fails unless hop seconds at sampleRate is a whole number of
// samples.
func CheckHop(hop float64, sampleRate int) error {
	if !(hop > 0) {
		return ErrNonPositiveHop
	}
	n := hop * float64(sampleRate)
	if sampleRate <= 0 || math.Abs(n-math.Round(n)) > 1e-9 {
		return fmt.Errorf("%w: %g s at %d Hz is %g samples", ErrHopNotWholeSamples, hop, sampleRate, n)
	}

	return nil
}

// Count is floor((duration - clipDuration - offset) / hop), never negative.
func Count(duration, clipDuration, hop, offset float64) int {
	n := math.Floor((duration - clipDuration - offset) / hop)
	if !(n > 0) {
		return 0
	}

	return int(n)
}

// Plan returns the kept windows of one recording. Window i spans
// [i*hop + offset, i*hop + offset + clipDuration). A window without
// annotations consumes one uniform draw from rng and is dropped when
// OmitEmptyProb > draw; windows with annotations consume nothing.
func (p Planner) Plan(recordingID, audioPath string, duration float64, store Overlapper, rng Float64er) []Window {
	n := Count(duration, p.ClipDuration, p.ClipHop, p.StartOffset)
	windows := make([]Window, 0, n)

	for i := range n {
		start := float64(i)*p.ClipHop + p.StartOffset
		end := start + p.ClipDuration

		if !store.Any(start, end) && p.OmitEmptyProb > rng.Float64() {
			continue
		}

		windows = append(windows, Window{
			RecordingID: recordingID,
			AudioPath:   audioPath,
			Start:       start,
			End:         end,
		})
	}

	return windows
}

// StartOffset draws the sub-hop shift shared by every window of a catalog:
// a whole number of samples uniform in [0, floor(hop*sampleRate)), in
// seconds. Eval mode always returns zero without drawing.
func StartOffset(mode Mode, rng IntNer, hop float64, sampleRate int) float64 {
	if mode == Eval {
		return 0
	}

	hopSamples := int(math.Floor(hop * float64(sampleRate)))
	if hopSamples <= 0 {
		return 0
	}

	return float64(rng.IntN(hopSamples)) / float64(sampleRate)
}

// Sweep lists windows at i*hop covering a recording for inference, with
// no offset and no dropping. The count follows Count with a zero offset.
func Sweep(recordingID, audioPath string, duration, clipDuration, hop float64) []Window {
	n := Count(duration, clipDuration, hop, 0)
	windows := make([]Window, n)

	for i := range windows {
		start := float64(i) * hop
		windows[i] = Window{
			RecordingID: recordingID,
			AudioPath:   audioPath,
			Start:       start,
			End:         start + clipDuration,
		}
	}

	return windows
}
