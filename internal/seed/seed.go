// SPDX-License-Identifier: EPL-2.0

// Package seed derives reproducible random generators.
package seed

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/OneOfOne/xxhash"
)

// Base combines the configured seed with a per-split shift.
func Base(seed, shift int64) uint64 {
	return uint64(seed + shift)
}

// New returns the generator owned by a catalog build.
func New(base uint64) *rand.Rand {
	return rand.New(rand.NewPCG(base, 0))
}

// ForIndex returns a generator private to sample index. The same base and
// index always give the same stream, independent of fetch order.
func ForIndex(base uint64, index int) *rand.Rand {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], base)
	binary.BigEndian.PutUint64(buf[8:], uint64(index))

	return rand.New(rand.NewPCG(base, xxhash.Checksum64(buf[:])))
}
