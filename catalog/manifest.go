// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Manifest column names.
const (
	ColName           = "fn"
	ColAudioPath      = "audio_fp"
	ColSelectionTable = "selection_table_fp"
)

// Entry is one recording listed in a manifest.
type Entry struct {
	Name               string
	AudioPath          string
	SelectionTablePath string
}

// ReadManifest parses a comma separated manifest with a header row naming
// at least the fn, audio_fp and selection_table_fp columns. Other columns
// are ignored and blank lines skipped.
func ReadManifest(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty manifest", ErrMissingColumn)
		}
		return nil, fmt.Errorf("reading manifest header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	idx := make([]int, 0, 3)
	for _, name := range []string{ColName, ColAudioPath, ColSelectionTable} {
		i, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		idx = append(idx, i)
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}
		if len(rec) <= max(idx[0], idx[1], idx[2]) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrShortRow, line, len(rec))
		}

		entries = append(entries, Entry{
			Name:               strings.TrimSpace(rec[idx[0]]),
			AudioPath:          strings.TrimSpace(rec[idx[1]]),
			SelectionTablePath: strings.TrimSpace(rec[idx[2]]),
		})
	}

	return entries, nil
}

func ReadManifestFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	entries, err := ReadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return entries, nil
}
