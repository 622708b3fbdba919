// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package slab implements the bounded buffer pool the map phase and sort
// workers exchange fixed-size batches of lines through, bounding the
// pipeline's peak memory at slab_budget * K * L bytes (spec.md §4.3).
package slab

// MaxLineBytes is L-1 from spec.md: the largest number of bytes a single
// input line may occupy (spec.md's max_string_size is 1000; a line's
// content is at most 999 bytes plus its discarded trailing newline).
const MaxLineBytes = 999

// Slab is a fixed-size batch of up to K lines, the unit of ownership
// between the map phase and the sort workers. Unlike the original's
// sentinel-terminated buffer (a zero byte in the first position of an
// unused slot), Slab carries an explicit count alongside its buffers, per
// REDESIGN FLAGS: "consider carrying an explicit count alongside the slab
// instead — simpler invariant, no reliance on in-band zero bytes."
type Slab struct {
	lines [][]byte // len K, each already allocated with cap MaxLineBytes
	n     int       // number of filled entries; n == K means full
}

// newSlab allocates a Slab with room for k lines.
func newSlab(k int) *Slab {
	lines := make([][]byte, k)
	for i := range lines {
		lines[i] = make([]byte, 0, MaxLineBytes)
	}
	return &Slab{lines: lines}
}

// Cap returns K, the slab's line capacity.
func (s *Slab) Cap() int { return len(s.lines) }

// Len returns the number of filled entries.
func (s *Slab) Len() int { return s.n }

// Full reports whether the slab has no remaining free slots.
func (s *Slab) Full() bool { return s.n == len(s.lines) }

// Add copies line into the next free slot and reports whether there was
// room. Lines longer than MaxLineBytes are truncated, matching spec.md's
// readline contract ("if a line exceeds L-1 bytes the excess is truncated
// ... and the read continues at the next line").
func (s *Slab) Add(line []byte) bool {
	if s.Full() {
		return false
	}
	if len(line) > MaxLineBytes {
		line = line[:MaxLineBytes]
	}
	dst := s.lines[s.n][:0]
	dst = append(dst, line...)
	s.lines[s.n] = dst
	s.n++
	return true
}

// Lines returns the filled entries, in fill order. The returned slice
// aliases the slab's internal buffers and is only valid until the next
// Reset.
func (s *Slab) Lines() [][]byte {
	return s.lines[:s.n]
}

// Reset clears the slab for reuse, dropping all filled entries.
func (s *Slab) Reset() {
	s.n = 0
}
