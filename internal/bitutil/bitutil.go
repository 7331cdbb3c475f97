// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitutil contains the word-level primitives shared by the leaf,
// static and dynamic bitvector representations.  Bit 0 of a []uint64 is the
// least significant bit of word 0.
package bitutil

import "math/bits"

// WordBits is the number of bits in a storage word.
const WordBits = 64

// Popcount returns the number of set bits in w.
func Popcount(w uint64) uint64 {
	return uint64(bits.OnesCount64(w))
}

// LowestBit returns the index of the lowest set bit of w, or 64 if w is zero.
func LowestBit(w uint64) uint64 {
	return uint64(bits.TrailingZeros64(w))
}

// LowMask returns a word with the low n bits set.
func LowMask(n uint64) uint64 {
	if n >= WordBits {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// WordsFor returns the number of words needed to hold n bits.
func WordsFor(n uint64) uint64 {
	return n/WordBits + min(n%WordBits, 1)
}

// Offsets splits a bit offset into a word index and a bit-in-word index.
func Offsets(off uint64) (word, bit uint64) {
	return off / WordBits, off % WordBits
}

// Get reports whether bit off of data is set.
func Get(data []uint64, off uint64) bool {
	w, b := Offsets(off)
	return data[w]&(1<<b) != 0
}

// Put sets bit off of data to v.
func Put(data []uint64, off uint64, v bool) {
	w, b := Offsets(off)
	if v {
		data[w] |= 1 << b
	} else {
		data[w] &^= 1 << b
	}
}

// Select64 returns the position of the (r+1)-th set bit of w.  r must be less
// than Popcount(w).
func Select64(w uint64, r uint64) uint64 {
	for ; r > 0; r-- {
		w &= w - 1
	}
	return LowestBit(w)
}

// Count returns the number of set bits in data[0, n).
func Count(data []uint64, n uint64) uint64 {
	words, rem := Offsets(n)
	var c uint64
	for _, w := range data[:words] {
		c += Popcount(w)
	}
	if rem != 0 {
		c += Popcount(data[words] & LowMask(rem))
	}
	return c
}

// ClearFrom zeroes every bit of data at a position >= n.
func ClearFrom(data []uint64, n uint64) {
	w, b := Offsets(n)
	if w >= uint64(len(data)) {
		return
	}
	data[w] &= LowMask(b)
	clear(data[w+1:])
}

// extract returns the k <= 64 bits of src starting at off, right aligned.
func extract(src []uint64, off, k uint64) uint64 {
	w, b := Offsets(off)
	v := src[w] >> b
	if b+k > WordBits {
		v |= src[w+1] << (WordBits - b)
	}
	return v & LowMask(k)
}

// deposit overwrites the k bits of dst starting at off with the low k bits
// of v.  The range must not cross a word boundary.
func deposit(dst []uint64, off, k, v uint64) {
	w, b := Offsets(off)
	mask := LowMask(k) << b
	dst[w] = dst[w]&^mask | (v<<b)&mask
}

// CopyBits copies n bits from src starting at bit srcOff into dst starting at
// bit dstOff.  Only the words of dst spanned by [dstOff, dstOff+n) are
// written, and bits outside that range are preserved.  src and dst must not
// overlap.
func CopyBits(dst []uint64, dstOff uint64, src []uint64, srcOff uint64, n uint64) {
	if n == 0 {
		return
	}
	if dstOff%WordBits == srcOff%WordBits {
		if b := dstOff % WordBits; b != 0 {
			k := min(n, WordBits-b)
			deposit(dst, dstOff, k, extract(src, srcOff, k))
			dstOff, srcOff, n = dstOff+k, srcOff+k, n-k
		}
		if words := n / WordBits; words > 0 {
			dw, sw := dstOff/WordBits, srcOff/WordBits
			copy(dst[dw:dw+words], src[sw:sw+words])
			dstOff, srcOff, n = dstOff+words*WordBits, srcOff+words*WordBits, n-words*WordBits
		}
		if n > 0 {
			deposit(dst, dstOff, n, extract(src, srcOff, n))
		}
		return
	}
	for n > 0 {
		k := min(n, WordBits-dstOff%WordBits)
		deposit(dst, dstOff, k, extract(src, srcOff, k))
		dstOff, srcOff, n = dstOff+k, srcOff+k, n-k
	}
}
