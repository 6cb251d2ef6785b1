// SPDX-License-Identifier: EPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ik5/sedclip/batch"
	"github.com/ik5/sedclip/formats/wav"
	"github.com/ik5/sedclip/sample"
	"github.com/ik5/sedclip/target"
)

// clipTargets is the JSON written next to each exported clip.
type clipTargets struct {
	Index      int         `json:"index"`
	Recording  string      `json:"recording"`
	AudioPath  string      `json:"audio_fp"`
	Start      float64     `json:"start"`
	End        float64     `json:"end"`
	SampleRate int         `json:"sr"`
	Events     []event     `json:"events"`
	Anchor     []float64   `json:"anchor"`
	Regression []float64   `json:"regression"`
	Class      [][]float64 `json:"class"`
	Boxes      []box       `json:"boxes"`
}

// box is an event on the mel spectrogram grid, as frame and mel bin indexes.
type box struct {
	TimeStart int    `json:"t_start"`
	FreqLow   int    `json:"f_low"`
	TimeEnd   int    `json:"t_end"`
	FreqHigh  int    `json:"f_high"`
	Label     string `json:"label"`
}

type event struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags splitFlags
		out   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write planned clips as WAV files with JSON targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ds, cleanup, err := a.dataset(ctx, &flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}

			total := ds.Len()
			if limit > 0 {
				total = min(total, limit)
			}
			if total == 0 {
				a.logger.Warn("nothing to export")
				return nil
			}

			p, bar := newBar(ctx, "Exporting: ", total)
			defer p.Wait()

			sg := target.Spectrogram{
				SampleRate: a.cfg.SampleRate,
				NFFT:       a.cfg.Spectrogram.NFFT,
				WinLength:  a.cfg.Spectrogram.WinLength,
				HopLength:  a.cfg.Spectrogram.HopLength,
				NMels:      a.cfg.Spectrogram.NMels,
			}

			loader := batch.Loader{BatchSize: a.cfg.BatchSize, Workers: a.cfg.NumWorkers}
			written := 0
			for b, err := range loader.All(ctx, ds) {
				if err != nil {
					bar.Abort(false)
					return err
				}
				for _, rec := range b.Records {
					if written == total {
						break
					}
					if err := writeClip(out, rec, ds.Labels().Name, sg); err != nil {
						bar.Abort(false)
						return err
					}
					written++
					bar.Increment()
				}
				if written == total {
					break
				}
			}
			a.logger.WithField("clips", written).WithField("dir", out).Info("export")

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "clips", "output directory")
	cmd.Flags().IntVar(&limit, "limit", 0, "export at most this many clips")

	return cmd
}

func writeClip(dir string, rec *sample.Record, labelName func(int) string, sg target.Spectrogram) error {
	base := filepath.Join(dir, fmt.Sprintf("clip_%06d", rec.Index))

	f, err := os.Create(base + ".wav")
	if err != nil {
		return err
	}
	if err := wav.Write(f, rec.SampleRate, rec.Waveform); err != nil {
		f.Close()
		return fmt.Errorf("writing %s.wav: %w", base, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	t := clipTargets{
		Index:      rec.Index,
		Recording:  rec.Window.RecordingID,
		AudioPath:  rec.Window.AudioPath,
		Start:      rec.Window.Start,
		End:        rec.Window.End,
		SampleRate: rec.SampleRate,
		Events:     make([]event, len(rec.Intervals)),
		Anchor:     rec.Anchor,
		Regression: rec.Regression,
		Class:      make([][]float64, rec.Len()),
	}
	for i, iv := range rec.Intervals {
		t.Events[i] = event{Start: iv.Start, End: iv.End, Label: labelName(iv.Class)}
	}
	for i := range t.Class {
		t.Class[i] = rec.ClassRow(i)
	}
	for _, b := range target.Boxes(rec.Intervals, target.SpectrogramFrames(len(rec.Waveform), sg.HopLength), sg) {
		t.Boxes = append(t.Boxes, box{
			TimeStart: b.TimeStart,
			FreqLow:   b.FreqLow,
			TimeEnd:   b.TimeEnd,
			FreqHigh:  b.FreqHigh,
			Label:     labelName(b.Class),
		})
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(base+".json", data, 0o644)
}
