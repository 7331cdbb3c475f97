// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package static implements a read-only bitvector with a two-level rank
// directory.  Superblocks cover 2^16 bits and store absolute counts; blocks
// cover BlockWords words and store counts relative to their superblock.
package static

import (
	"fmt"

	"github.com/bpowers/bitvector/internal/bitutil"
)

const (
	// BlockWords is the number of words covered by one block entry.
	BlockWords = 4

	blockBits      = BlockWords * bitutil.WordBits
	superBits      = 1 << 16
	blocksPerSuper = superBits / blockBits
)

// Static is an immutable bitvector answering rank and select in near
// constant time.
type Static struct {
	size  uint64
	ones  uint64
	data  []uint64
	super []uint64
	block []uint16
}

// New builds the rank directory over the first n bits of data and takes
// ownership of data.  Bits at positions >= n are cleared.
func New(data []uint64, n uint64) *Static {
	words := bitutil.WordsFor(n)
	if uint64(len(data)) < words {
		panic(fmt.Sprintf("static.New: %d words cannot hold %d bits", len(data), n))
	}
	data = data[:words:words]
	bitutil.ClearFrom(data, n)

	nblocks := (words + BlockWords - 1) / BlockWords
	s := &Static{
		size:  n,
		data:  data,
		super: make([]uint64, 0, n/superBits+min(n%superBits, 1)),
		block: make([]uint16, nblocks),
	}
	var total uint64
	for b := uint64(0); b < nblocks; b++ {
		if b%blocksPerSuper == 0 {
			s.super = append(s.super, total)
		}
		s.block[b] = uint16(total - s.super[b/blocksPerSuper])
		end := min((b+1)*BlockWords, words)
		for _, w := range data[b*BlockWords : end] {
			total += bitutil.Popcount(w)
		}
	}
	s.ones = total
	return s
}

// FromBits builds a static bitvector over a copy of the first n bits of src.
func FromBits(src []uint64, n uint64) *Static {
	data := make([]uint64, bitutil.WordsFor(n))
	bitutil.CopyBits(data, 0, src, 0, n)
	return New(data, n)
}

// Len returns the number of bits stored.
func (s *Static) Len() uint64 { return s.size }

// Ones returns the number of set bits.
func (s *Static) Ones() uint64 { return s.ones }

// Words returns the bit array.  The caller must not modify it.
func (s *Static) Words() []uint64 { return s.data }

// Space returns the storage used, in 64-bit words.
func (s *Static) Space() uint64 {
	return uint64(len(s.data)) + uint64(len(s.super)) + (uint64(len(s.block))+3)/4 + 2
}

// Clone returns a deep copy.
func (s *Static) Clone() *Static {
	return &Static{
		size:  s.size,
		ones:  s.ones,
		data:  append([]uint64(nil), s.data...),
		super: append([]uint64(nil), s.super...),
		block: append([]uint16(nil), s.block...),
	}
}

// Access returns bit i.
func (s *Static) Access(i uint64) bool {
	return bitutil.Get(s.data, i)
}

// Rank returns the number of ones in [0, i).
func (s *Static) Rank(i uint64) uint64 {
	if i >= s.size {
		return s.ones
	}
	b := i / blockBits
	r := s.super[i/superBits] + uint64(s.block[b])
	w, off := bitutil.Offsets(i)
	for _, word := range s.data[b*BlockWords : w] {
		r += bitutil.Popcount(word)
	}
	if off != 0 {
		r += bitutil.Popcount(s.data[w] & bitutil.LowMask(off))
	}
	return r
}

// gallop returns the last index in [lo, hi) for which below holds, given that
// below holds for a prefix of the range including lo.  The search starts at
// guess, doubles its step until it brackets the boundary, then bisects.
func gallop(lo, hi, guess uint64, below func(uint64) bool) uint64 {
	guess = min(max(guess, lo), hi-1)
	var l, r uint64
	if below(guess) {
		l, r = guess, hi
		for step := uint64(1); guess+step < hi; step *= 2 {
			if !below(guess + step) {
				r = guess + step
				break
			}
			l = guess + step
		}
	} else {
		l, r = lo, guess
		for step := uint64(1); step <= guess-lo; step *= 2 {
			if below(guess - step) {
				l = guess - step
				break
			}
			r = guess - step
		}
	}
	for r-l > 1 {
		m := l + (r-l)/2
		if below(m) {
			l = m
		} else {
			r = m
		}
	}
	return l
}

// interpolate estimates where the j-th of count items falls in [lo, hi).
func interpolate(lo, hi, j, count uint64) uint64 {
	if count == 0 {
		return lo
	}
	return lo + uint64(float64(hi-lo)*float64(j)/float64(count))
}

func (s *Static) superZeros(k uint64) uint64 { return k*superBits - s.super[k] }

func (s *Static) blockZeros(b, b0 uint64) uint64 {
	return (b-b0)*blockBits - uint64(s.block[b])
}

// superEnd returns the first block after superblock k and the number of ones
// within it.
func (s *Static) superEnd(k uint64) (end, ones uint64) {
	end = min((k+1)*blocksPerSuper, uint64(len(s.block)))
	if k+1 < uint64(len(s.super)) {
		return end, s.super[k+1] - s.super[k]
	}
	return end, s.ones - s.super[k]
}

// Select1 returns the position of the j-th one, counting from 1.
func (s *Static) Select1(j uint64) uint64 {
	if j == 0 || j > s.ones {
		panic(fmt.Sprintf("static.Select1: %d out of range [1, %d]", j, s.ones))
	}
	nsuper := uint64(len(s.super))
	guess := interpolate(0, s.size, j, s.ones) / superBits
	k := gallop(0, nsuper, guess, func(k uint64) bool { return s.super[k] < j })
	j -= s.super[k]

	b0 := k * blocksPerSuper
	b1, inSuper := s.superEnd(k)
	b := gallop(b0, b1, interpolate(b0, b1, j, inSuper), func(b uint64) bool { return uint64(s.block[b]) < j })
	j -= uint64(s.block[b])

	for w := b * BlockWords; w < uint64(len(s.data)); w++ {
		c := bitutil.Popcount(s.data[w])
		if j <= c {
			return w*bitutil.WordBits + bitutil.Select64(s.data[w], j-1)
		}
		j -= c
	}
	panic("static.Select1: invariant broken, rank directory inconsistent")
}

// Select0 returns the position of the j-th zero, counting from 1.
func (s *Static) Select0(j uint64) uint64 {
	zeros := s.size - s.ones
	if j == 0 || j > zeros {
		panic(fmt.Sprintf("static.Select0: %d out of range [1, %d]", j, zeros))
	}
	nsuper := uint64(len(s.super))
	guess := interpolate(0, s.size, j, zeros) / superBits
	k := gallop(0, nsuper, guess, func(k uint64) bool { return s.superZeros(k) < j })
	j -= s.superZeros(k)

	b0 := k * blocksPerSuper
	b1, inSuper := s.superEnd(k)
	superLen := min((b1-b0)*blockBits, s.size-k*superBits)
	b := gallop(b0, b1, interpolate(b0, b1, j, superLen-inSuper), func(b uint64) bool { return s.blockZeros(b, b0) < j })
	j -= s.blockZeros(b, b0)

	for w := b * BlockWords; w < uint64(len(s.data)); w++ {
		c := bitutil.Popcount(^s.data[w])
		if j <= c {
			return w*bitutil.WordBits + bitutil.Select64(^s.data[w], j-1)
		}
		j -= c
	}
	panic("static.Select0: invariant broken, rank directory inconsistent")
}

// Next1 returns the position of the first one at or after i, or -1.  The
// current and following block are scanned directly; beyond them the answer
// comes from the rank directory.
func (s *Static) Next1(i uint64) int64 {
	if i >= s.size {
		return -1
	}
	w, off := bitutil.Offsets(i)
	words := uint64(len(s.data))
	if word := s.data[w] &^ bitutil.LowMask(off); word != 0 {
		return int64(w*bitutil.WordBits + bitutil.LowestBit(word))
	}
	end := min((w/BlockWords+2)*BlockWords, words)
	for w++; w < end; w++ {
		if s.data[w] != 0 {
			return int64(w*bitutil.WordBits + bitutil.LowestBit(s.data[w]))
		}
	}
	if w >= words {
		return -1
	}
	r := s.Rank(w * bitutil.WordBits)
	if r == s.ones {
		return -1
	}
	return int64(s.Select1(r + 1))
}

// Next0 returns the position of the first zero at or after i, or -1.
func (s *Static) Next0(i uint64) int64 {
	if i >= s.size {
		return -1
	}
	w, off := bitutil.Offsets(i)
	words := uint64(len(s.data))
	found := func(w, word uint64) int64 {
		p := w*bitutil.WordBits + bitutil.LowestBit(word)
		if p >= s.size {
			return -1
		}
		return int64(p)
	}
	if word := ^s.data[w] &^ bitutil.LowMask(off); word != 0 {
		return found(w, word)
	}
	end := min((w/BlockWords+2)*BlockWords, words)
	for w++; w < end; w++ {
		if ^s.data[w] != 0 {
			return found(w, ^s.data[w])
		}
	}
	if w >= words {
		return -1
	}
	p := w * bitutil.WordBits
	r0 := p - s.Rank(p)
	if r0 == s.size-s.ones {
		return -1
	}
	return int64(s.Select0(r0 + 1))
}

// CopyTo copies bits [i, i+n) into dst starting at dstOff.
func (s *Static) CopyTo(dst []uint64, dstOff, i, n uint64) {
	bitutil.CopyBits(dst, dstOff, s.data, i, n)
}
