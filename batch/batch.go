// SPDX-License-Identifier: EPL-2.0

// Package batch groups dataset samples into batches, fetching the samples
// of a batch concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/sedclip/internal/seed"
	"github.com/ik5/sedclip/sample"
)

var ErrBatchSize = errors.New("batch size must be positive")

// Source is an indexed sample collection. *sedclip.Dataset is one.
type Source interface {
	Len() int
	Get(ctx context.Context, i int) (*sample.Record, error)
}

// Batch holds records in iteration order.
type Batch struct {
	Indices []int
	Records []*sample.Record
}

func (b Batch) Len() int { return len(b.Records) }

// Waveforms returns the waveform of every record.
func (b Batch) Waveforms() [][]float32 {
	out := make([][]float32, len(b.Records))
	for i, r := range b.Records {
		out[i] = r.Waveform
	}
	return out
}

// Loader iterates a Source in batches.
type Loader struct {
	BatchSize int
	// Shuffle permutes the order with a generator seeded from Seed.
	Shuffle bool
	// DropLast skips a trailing batch smaller than BatchSize.
	DropLast bool
	// Workers bounds concurrent fetches within a batch; zero means one.
	Workers int
	Seed    uint64
}

// Order returns the sample indexes in iteration order.
func (l Loader) Order(n int) []int {
	if l.Shuffle {
		return seed.New(l.Seed).Perm(n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// All yields batches until the source is exhausted. The first fetch error
// is yielded once and ends the iteration.
func (l Loader) All(ctx context.Context, src Source) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		if l.BatchSize <= 0 {
			yield(Batch{}, fmt.Errorf("%w: %d", ErrBatchSize, l.BatchSize))
			return
		}

		order := l.Order(src.Len())
		for start := 0; start < len(order); start += l.BatchSize {
			end := min(start+l.BatchSize, len(order))
			if l.DropLast && end-start < l.BatchSize {
				return
			}

			b, err := l.fetch(ctx, src, order[start:end])
			if err != nil {
				yield(Batch{}, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (l Loader) fetch(ctx context.Context, src Source, indices []int) (Batch, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Workers, 1))

	records := make([]*sample.Record, len(indices))
	for i, idx := range indices {
		g.Go(func() error {
			rec, err := src.Get(gctx, idx)
			if err != nil {
				return fmt.Errorf("sample %d: %w", idx, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	return Batch{Indices: indices, Records: records}, nil
}
