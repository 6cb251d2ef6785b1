// SPDX-License-Identifier: EPL-2.0

package annotation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Selection table column names as exported by Raven.
const (
	ColBegin      = "Begin Time (s)"
	ColEnd        = "End Time (s)"
	ColAnnotation = "Annotation"
	ColLowFreq    = "Low Freq (Hz)"
	ColHighFreq   = "High Freq (Hz)"
)

// Row is one raw selection table entry.
type Row struct {
	Begin    float64
	End      float64
	Label    string
	LowFreq  float64
	HighFreq float64
}

// ReadSelectionTable parses a tab separated selection table. Rows whose
// begin or end time does not parse are skipped; frequency columns are
// optional and default to zero.
func ReadSelectionTable(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading selection table header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	begin, okB := cols[ColBegin]
	end, okE := cols[ColEnd]
	label, okL := cols[ColAnnotation]
	switch {
	case !okB:
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColBegin)
	case !okE:
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColEnd)
	case !okL:
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColAnnotation)
	}
	low, hasLow := cols[ColLowFreq]
	high, hasHigh := cols[ColHighFreq]

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading selection table: %w", err)
		}

		b, okB := floatField(rec, begin)
		e, okE := floatField(rec, end)
		if !okB || !okE {
			continue
		}

		row := Row{Begin: b, End: e}
		if label < len(rec) {
			row.Label = rec[label]
		}
		if hasLow {
			row.LowFreq, _ = floatField(rec, low)
		}
		if hasHigh {
			row.HighFreq, _ = floatField(rec, high)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadSelectionTableFile opens path and parses it with ReadSelectionTable.
func ReadSelectionTableFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadSelectionTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rows, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func floatField(rec []string, i int) (float64, bool) {
	v, err := strconv.ParseFloat(field(rec, i), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
