// SPDX-License-Identifier: EPL-2.0

// Package sedclip prepares bioacoustic recordings for sound event detection
// training.
//
// A corpus is a manifest of recordings, each paired with a Raven selection
// table of labeled time intervals. sedclip slices every recording into
// fixed-length clips and, for each clip, produces the mono waveform at the
// target sample rate together with frame-level targets: an anchor curve
// peaking at event onsets, the event duration at each onset frame, and the
// class scores at each onset frame.
//
// # Quick Start
//
// Load a configuration, read a manifest and build a dataset:
//
//	cfg, _ := config.Load("config.yaml")
//	entries, _ := catalog.ReadManifestFile(cfg.TrainInfoPath)
//
//	ds, _ := sedclip.New(ctx, cfg, entries, clip.Train, 0)
//	rec, _ := ds.Get(ctx, 0)
//
//	// rec.Waveform is cfg.SampleRate*cfg.ClipDuration samples long
//	// rec.Anchor, rec.Regression and rec.Class hold the targets
//
// # Batching
//
// The batch subpackage groups samples and fetches them in parallel:
//
//	loader := batch.Loader{BatchSize: 8, Shuffle: true, Workers: 4, Seed: 1}
//	for b, err := range loader.All(ctx, ds) {
//		if err != nil {
//			return err
//		}
//		train(b.Records)
//	}
//
// # Evaluation Sweeps
//
// NewRecordingSet lists overlapping windows over a single recording and
// returns their waveforms without targets:
//
//	set, _ := sedclip.NewRecordingSet(ctx, cfg, "site3.wav", cfg.ClipDuration/2)
//	for i := range set.Len() {
//		wave, _ := set.Get(ctx, i)
//		predict(wave)
//	}
//
// # Subpackages
//
//   - annotation: label sets, selection table parsing and the interval index
//   - clip: window planning
//   - target: target encoding and spectrogram bounding boxes
//   - sample: clip loading and augmentation
//   - catalog: corpus planning and SQLite export
//   - audio, formats: decoding, downmixing and resampling
//   - config: YAML and environment configuration
//
// Randomness is reproducible: the catalog draws from a generator seeded
// with seed plus the seed shift, and every sample derives its own
// generator from that seed and its index, so results do not depend on
// fetch order or worker count.
package sedclip
