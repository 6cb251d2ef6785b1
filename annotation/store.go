// SPDX-License-Identifier: EPL-2.0

// Package annotation indexes the labeled time intervals of a recording.
//
// A Store is built once from selection table rows and answers overlap
// queries against a query window, returning intervals clipped to the window
// and re-based to its origin. The index is a static augmented interval
// tree: intervals sorted by start with a max-end segment tree over them, so
// a query costs O(log n + m) for m hits.
package annotation

import (
	"cmp"
	"math"
	"slices"
)

// Interval is a labeled time span in seconds. Class is a LabelSet index or
// Unknown. LowFreq and HighFreq are zero when the selection table carries
// no frequency band.
type Interval struct {
	Start    float64
	End      float64
	Class    int
	LowFreq  float64
	HighFreq float64
}

// Duration is End - Start.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Stats counts what Build did with its input rows.
type Stats struct {
	Rows       int // rows offered to Build
	Invalid    int // end <= start or non-finite times
	Unmapped   int // label absent from the mapping or the label set
	Duplicates int // same start, end and class as an earlier row
	Kept       int
}

// Store is an immutable interval index for one recording.
type Store struct {
	intervals []Interval
	// maxEnd is a segment tree over intervals; leaves start at leaves.
	maxEnd []float64
	leaves int
	stats  Stats
}

type dedupKey struct {
	start, end float64
	class      int
}

// Build indexes rows: rows with end <= start are skipped, labels resolve
// through r and unresolvable rows are skipped, and rows repeating an
// earlier (start, end, class) collapse into one interval.
func Build(rows []Row, r *Resolver) *Store {
	s := &Store{stats: Stats{Rows: len(rows)}}
	seen := make(map[dedupKey]struct{}, len(rows))

	for _, row := range rows {
		if !finite(row.Begin) || !finite(row.End) || row.End <= row.Begin {
			s.stats.Invalid++
			continue
		}

		class, ok := r.Resolve(row.Label)
		if !ok {
			s.stats.Unmapped++
			continue
		}

		key := dedupKey{start: row.Begin, end: row.End, class: class}
		if _, dup := seen[key]; dup {
			s.stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		s.intervals = append(s.intervals, Interval{
			Start:    row.Begin,
			End:      row.End,
			Class:    class,
			LowFreq:  row.LowFreq,
			HighFreq: row.HighFreq,
		})
	}

	// Stable so equal keys keep selection table order.
	slices.SortStableFunc(s.intervals, func(a, b Interval) int {
		return cmp.Or(
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.End, b.End),
			cmp.Compare(a.Class, b.Class),
		)
	})
	s.stats.Kept = len(s.intervals)
	s.buildTree()

	return s
}

func (s *Store) buildTree() {
	s.leaves = 1
	for s.leaves < len(s.intervals) {
		s.leaves <<= 1
	}

	s.maxEnd = make([]float64, 2*s.leaves)
	for i := range s.maxEnd {
		s.maxEnd[i] = math.Inf(-1)
	}
	for i, iv := range s.intervals {
		s.maxEnd[s.leaves+i] = iv.End
	}
	for node := s.leaves - 1; node > 0; node-- {
		s.maxEnd[node] = max(s.maxEnd[2*node], s.maxEnd[2*node+1])
	}
}

// Overlapping returns every interval intersecting [qStart, qEnd), clipped to
// the window and shifted so the window starts at zero. Results are ordered
// by start, end, class, then selection table order. An empty or inverted
// window returns nil.
func (s *Store) Overlapping(qStart, qEnd float64) []Interval {
	if qEnd <= qStart || len(s.intervals) == 0 {
		return nil
	}

	// Only the prefix with Start < qEnd can intersect.
	limit, _ := slices.BinarySearchFunc(s.intervals, qEnd, func(iv Interval, t float64) int {
		if iv.Start < t {
			return -1
		}
		return 1
	})

	var out []Interval
	var walk func(node, lo, hi int)
	walk = func(node, lo, hi int) {
		if lo >= limit || s.maxEnd[node] <= qStart {
			return
		}
		if hi-lo == 1 {
			iv := s.intervals[lo]
			iv.Start = max(iv.Start, qStart) - qStart
			iv.End = min(iv.End, qEnd) - qStart
			out = append(out, iv)
			return
		}
		mid := (lo + hi) / 2
		walk(2*node, lo, mid)
		walk(2*node+1, mid, hi)
	}
	walk(1, 0, s.leaves)

	return out
}

// Any reports whether at least one interval intersects [qStart, qEnd).
func (s *Store) Any(qStart, qEnd float64) bool {
	return len(s.Overlapping(qStart, qEnd)) > 0
}

// Len is the number of stored intervals.
func (s *Store) Len() int { return len(s.intervals) }

// All returns a copy of the stored intervals in index order.
func (s *Store) All() []Interval { return slices.Clone(s.intervals) }

// Stats reports how Build treated its rows.
func (s *Store) Stats() Stats { return s.stats }

// ClassCounts counts stored intervals per class index; Unknown intervals
// are not counted.
func (s *Store) ClassCounts(numClasses int) []int {
	counts := make([]int, numClasses)
	for _, iv := range s.intervals {
		if iv.Class != Unknown {
			counts[iv.Class]++
		}
	}

	return counts
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
