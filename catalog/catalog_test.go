// SPDX-License-Identifier: EPL-2.0

package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/sedclip/annotation"
	"github.com/ik5/sedclip/audio"
	"github.com/ik5/sedclip/catalog"
	"github.com/ik5/sedclip/clip"
	"github.com/ik5/sedclip/formats"
	"github.com/ik5/sedclip/internal/audiotest"
)

const tableHeader = "Selection\tView\tBegin Time (s)\tEnd Time (s)\tLow Freq (Hz)\tHigh Freq (Hz)\tAnnotation\n"

type fakeProber map[string]float64

func (p fakeProber) Duration(_ context.Context, path string) (float64, error) {
	d, ok := p[path]
	if !ok {
		return 0, errors.New("no such recording")
	}
	return d, nil
}

type countingProber struct {
	inner catalog.DurationProber
	calls int
}

func (p *countingProber) Duration(ctx context.Context, path string) (float64, error) {
	p.calls++
	return p.inner.Duration(ctx, path)
}

func writeTable(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(tableHeader+strings.Join(rows, "\n")+"\n"), 0o600))
	return path
}

func resolver(t *testing.T) *annotation.Resolver {
	t.Helper()

	labels, err := annotation.NewLabelSet([]string{"call", "song"})
	require.NoError(t, err)
	r, err := annotation.NewResolver(labels, annotation.Mapping{
		"call": "call",
		"song": "song",
		"?":    "unknown",
	}, "unknown")
	require.NoError(t, err)

	return r
}

// corpus lists two 10 second recordings: "a" with a call at [1, 2) and an
// unknown event, "b" with two songs and a call late in the file.
func corpus(t *testing.T) ([]catalog.Entry, fakeProber) {
	t.Helper()

	dir := t.TempDir()
	entries := []catalog.Entry{
		{
			Name:               "a",
			AudioPath:          filepath.Join(dir, "a.wav"),
			SelectionTablePath: writeTable(t, dir, "a.txt", "1\tSpectrogram 1\t1\t2\t100\t900\tcall", "2\tSpectrogram 1\t5\t5.5\t0\t0\t?"),
		},
		{
			Name:               "b",
			AudioPath:          filepath.Join(dir, "b.wav"),
			SelectionTablePath: writeTable(t, dir, "b.txt", "1\tSpectrogram 1\t0.5\t1\t0\t0\tsong", "2\tSpectrogram 1\t2.5\t3\t0\t0\tsong", "3\tSpectrogram 1\t9\t9.5\t0\t0\tcall"),
		},
	}

	return entries, fakeProber{entries[0].AudioPath: 10, entries[1].AudioPath: 10}
}

func options(t *testing.T, mode clip.Mode, prober catalog.DurationProber) catalog.Options {
	t.Helper()

	logger, _ := test.NewNullLogger()
	return catalog.Options{
		Resolver:      resolver(t),
		SampleRate:    100,
		ClipDuration:  4,
		ClipHop:       2,
		OmitEmptyProb: 1,
		Mode:          mode,
		Seed:          7,
		Prober:        prober,
		Logger:        logger,
	}
}

func TestBuild_Eval(t *testing.T) {
	entries, prober := corpus(t)

	c, err := catalog.Build(context.Background(), entries, options(t, clip.Eval, prober))
	require.NoError(t, err)

	assert.Zero(t, c.Offset())
	require.Equal(t, 6, c.Len())
	assert.Equal(t, clip.Window{RecordingID: "a", AudioPath: entries[0].AudioPath, Start: 0, End: 4}, c.Window(0))
	assert.Equal(t, clip.Window{RecordingID: "b", AudioPath: entries[1].AudioPath, Start: 4, End: 8}, c.Window(5))
	assert.Equal(t, clip.Eval, c.Mode())

	st, ok := c.Store("b")
	require.True(t, ok)
	assert.Equal(t, 3, st.Len())
	_, ok = c.Store("zzz")
	assert.False(t, ok)

	recs := c.Recordings()
	require.Len(t, recs, 2)
	assert.Equal(t, 3, recs[0].Planned)
	assert.Equal(t, 3, recs[0].Kept)
	assert.InDelta(t, 10.0, recs[1].Duration, 1e-12)
}

// A 10 s recording cut into 4 s clips every 2 s holds three windows, and
// a call at [1, 2) only reaches the first: the second starts where the
// call ends.
func TestBuild_TenSecondRecording(t *testing.T) {
	entries, prober := corpus(t)

	c, err := catalog.Build(context.Background(), entries[:1], options(t, clip.Eval, prober))
	require.NoError(t, err)

	require.Equal(t, 3, c.Len())
	st, ok := c.Store("a")
	require.True(t, ok)

	tests := []struct {
		start, end float64
		calls      []annotation.Interval
	}{
		{0, 4, []annotation.Interval{{Start: 1, End: 2, Class: 0}}},
		{2, 6, nil},
		{4, 8, nil},
	}

	for i, tt := range tests {
		w := c.Window(i)
		assert.InDelta(t, tt.start, w.Start, 1e-12, "window %d start", i)
		assert.InDelta(t, tt.end, w.End, 1e-12, "window %d end", i)

		var calls []annotation.Interval
		for _, iv := range st.Overlapping(w.Start, w.End) {
			if iv.Class == 0 {
				calls = append(calls, annotation.Interval{Start: iv.Start, End: iv.End, Class: iv.Class})
			}
		}
		assert.Equal(t, tt.calls, calls, "window %d", i)
	}
}

func TestBuild_TrainIsReproducible(t *testing.T) {
	entries, prober := corpus(t)
	opts := options(t, clip.Train, prober)
	opts.OmitEmptyProb = 0.5

	first, err := catalog.Build(context.Background(), entries, opts)
	require.NoError(t, err)
	second, err := catalog.Build(context.Background(), entries, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Windows(), second.Windows())
	assert.Equal(t, first.Offset(), second.Offset())
	assert.GreaterOrEqual(t, first.Offset(), 0.0)
	assert.Less(t, first.Offset(), 2.0)

	for _, w := range first.Windows() {
		assert.InDelta(t, 4.0, w.Duration(), 1e-9)
	}
}

func TestBuild_OmitAllEmptyWindows(t *testing.T) {
	entries, prober := corpus(t)

	c, err := catalog.Build(context.Background(), entries, options(t, clip.Train, prober))
	require.NoError(t, err)

	require.NotZero(t, c.Len())
	for _, w := range c.Windows() {
		st, ok := c.Store(w.RecordingID)
		require.True(t, ok)
		assert.True(t, st.Any(w.Start, w.End), "window %+v has no events", w)
	}
}

func TestBuild_Progress(t *testing.T) {
	entries, prober := corpus(t)
	opts := options(t, clip.Eval, prober)

	var calls [][2]int
	opts.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }

	_, err := catalog.Build(context.Background(), entries, opts)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestBuild_Errors(t *testing.T) {
	entries, prober := corpus(t)
	ctx := context.Background()

	_, err := catalog.Build(ctx, append(entries, entries[0]), options(t, clip.Eval, prober))
	assert.ErrorIs(t, err, catalog.ErrDuplicateRecording)

	_, err = catalog.Build(ctx, entries, options(t, clip.Eval, fakeProber{}))
	assert.ErrorContains(t, err, `recording "a"`)

	missing := slicesWith(entries, func(e *catalog.Entry) { e.SelectionTablePath += ".missing" })
	_, err = catalog.Build(ctx, missing, options(t, clip.Eval, prober))
	assert.ErrorIs(t, err, os.ErrNotExist)

	opts := options(t, clip.Eval, prober)
	opts.Resolver = nil
	_, err = catalog.Build(ctx, entries, opts)
	assert.ErrorIs(t, err, catalog.ErrNoResolver)

	opts = options(t, clip.Eval, nil)
	_, err = catalog.Build(ctx, entries, opts)
	assert.ErrorIs(t, err, catalog.ErrNoProber)

	opts = options(t, clip.Eval, prober)
	opts.ClipHop = 0
	_, err = catalog.Build(ctx, entries, opts)
	assert.ErrorIs(t, err, clip.ErrNonPositiveHop)

	counting := &countingProber{inner: prober}
	opts = options(t, clip.Eval, counting)
	opts.ClipHop = 0.015
	_, err = catalog.Build(ctx, entries, opts)
	assert.ErrorIs(t, err, clip.ErrHopNotWholeSamples)
	assert.Zero(t, counting.calls, "recordings probed before the hop was rejected")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = catalog.Build(cancelled, entries, options(t, clip.Eval, prober))
	assert.ErrorIs(t, err, context.Canceled)
}

func slicesWith(entries []catalog.Entry, edit func(*catalog.Entry)) []catalog.Entry {
	out := make([]catalog.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		edit(&out[i])
	}
	return out
}

func TestClassProportions(t *testing.T) {
	entries, prober := corpus(t)

	c, err := catalog.Build(context.Background(), entries, options(t, clip.Eval, prober))
	require.NoError(t, err)

	// two calls and two songs; the unknown event does not count
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, c.ClassProportions(), 1e-12)
}

func TestClassProportions_NoKnownEvents(t *testing.T) {
	dir := t.TempDir()
	entries := []catalog.Entry{{
		Name:               "u",
		AudioPath:          filepath.Join(dir, "u.wav"),
		SelectionTablePath: writeTable(t, dir, "u.txt", "1\tSpectrogram 1\t1\t2\t0\t0\t?"),
	}}

	c, err := catalog.Build(context.Background(), entries, options(t, clip.Eval, fakeProber{entries[0].AudioPath: 10}))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0}, c.ClassProportions())
}

func TestBuild_WithAudioLoaderProber(t *testing.T) {
	dir := t.TempDir()
	entries := []catalog.Entry{{
		Name:               "r",
		AudioPath:          audiotest.WriteWAV16(t, dir, "r.wav", 100, 2, make([]int16, 2*700)),
		SelectionTablePath: writeTable(t, dir, "r.txt", "1\tSpectrogram 1\t1\t2\t0\t0\tcall"),
	}}

	c, err := catalog.Build(context.Background(), entries, options(t, clip.Eval, audio.NewLoader(formats.Default())))
	require.NoError(t, err)

	assert.InDelta(t, 7.0, c.Recordings()[0].Duration, 1e-9)
	assert.Equal(t, 1, c.Len())
}

func TestSaveSQLite(t *testing.T) {
	entries, prober := corpus(t)
	c, err := catalog.Build(context.Background(), entries, options(t, clip.Eval, prober))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.db")
	require.NoError(t, c.SaveSQLite(context.Background(), path))
	// Saving twice replaces rather than duplicates.
	require.NoError(t, c.SaveSQLite(context.Background(), path))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	count := func(q string, args ...any) int {
		var n int
		require.NoError(t, db.QueryRow(q, args...).Scan(&n))
		return n
	}

	assert.Equal(t, 2, count("SELECT COUNT(*) FROM recordings"))
	assert.Equal(t, 5, count("SELECT COUNT(*) FROM intervals"))
	assert.Equal(t, 6, count("SELECT COUNT(*) FROM windows"))
	assert.Equal(t, 1, count("SELECT COUNT(*) FROM intervals WHERE label = 'unknown'"))
	assert.Equal(t, 2, count("SELECT events FROM windows WHERE recording = ? AND idx = ?", "b", 3))

	var raw, kept int
	require.NoError(t, db.QueryRow("SELECT raw_rows, kept_windows FROM recordings WHERE name = 'a'").Scan(&raw, &kept))
	assert.Equal(t, 2, raw)
	assert.Equal(t, 3, kept)
}
