// Copyright 2021 The bit Authors and Caleb Spare. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package leaf implements the small, mutable bitvector representation: a
// fixed-capacity word array that supports insertion and removal by shifting.
package leaf

import (
	"fmt"

	"github.com/bpowers/bitvector/internal/bitutil"
)

// Leaf is an in-memory bitvector of bounded capacity.  Every bit at a
// position >= Len() is zero.
type Leaf struct {
	size uint64
	ones uint64
	data []uint64
}

// New returns an empty leaf that can hold up to capWords*64 bits.
func New(capWords int) *Leaf {
	return &Leaf{
		data: make([]uint64, capWords),
	}
}

// FromBits returns a leaf holding a copy of the first n bits of src.
func FromBits(capWords int, src []uint64, n uint64) *Leaf {
	l := New(capWords)
	if n > l.Cap() {
		panic(fmt.Sprintf("leaf.FromBits: %d bits exceeds capacity %d", n, l.Cap()))
	}
	bitutil.CopyBits(l.data, 0, src, 0, n)
	l.size = n
	l.ones = bitutil.Count(l.data, n)
	return l
}

// Len returns the number of bits stored.
func (l *Leaf) Len() uint64 { return l.size }

// Ones returns the number of set bits.
func (l *Leaf) Ones() uint64 { return l.ones }

// Cap returns the maximum number of bits the leaf can hold.
func (l *Leaf) Cap() uint64 { return uint64(len(l.data)) * bitutil.WordBits }

// Full reports whether an insert would overflow the leaf.
func (l *Leaf) Full() bool { return l.size == l.Cap() }

// Words returns the backing words covering Len() bits.  The caller must not
// modify them.
func (l *Leaf) Words() []uint64 { return l.data[:bitutil.WordsFor(l.size)] }

// Space returns the storage used, in 64-bit words.
func (l *Leaf) Space() uint64 { return uint64(len(l.data)) + 2 }

// Clone returns a deep copy.
func (l *Leaf) Clone() *Leaf {
	return &Leaf{
		size: l.size,
		ones: l.ones,
		data: append([]uint64(nil), l.data...),
	}
}

// Access returns bit i.
func (l *Leaf) Access(i uint64) bool {
	return bitutil.Get(l.data, i)
}

// Write sets bit i to v and returns the change in the number of ones.
func (l *Leaf) Write(i uint64, v bool) int {
	old := l.Access(i)
	if old == v {
		return 0
	}
	bitutil.Put(l.data, i, v)
	if v {
		l.ones++
		return 1
	}
	l.ones--
	return -1
}

// Insert inserts v before position i, shifting later bits up by one.  The
// leaf must not be full.
func (l *Leaf) Insert(i uint64, v bool) {
	if l.Full() {
		panic("leaf.Insert: invariant broken, leaf is full")
	}
	w, b := bitutil.Offsets(i)
	last := l.size / bitutil.WordBits
	for k := last; k > w; k-- {
		l.data[k] = l.data[k]<<1 | l.data[k-1]>>63
	}
	low := bitutil.LowMask(b)
	word := l.data[w]
	l.data[w] = word&low | (word&^low)<<1
	if v {
		l.data[w] |= 1 << b
		l.ones++
	}
	l.size++
}

// Remove deletes bit i, shifting later bits down by one, and returns the
// change in the number of ones.
func (l *Leaf) Remove(i uint64) int {
	old := l.Access(i)
	w, b := bitutil.Offsets(i)
	last := (l.size - 1) / bitutil.WordBits
	low := bitutil.LowMask(b)
	word := l.data[w]
	l.data[w] = word&low | (word>>1)&^low
	for k := w; k < last; k++ {
		l.data[k] |= l.data[k+1] << 63
		l.data[k+1] >>= 1
	}
	l.size--
	if old {
		l.ones--
		return -1
	}
	return 0
}

// Rank returns the number of ones in [0, i).
func (l *Leaf) Rank(i uint64) uint64 {
	return bitutil.Count(l.data, i)
}

// Select1 returns the position of the j-th one, counting from 1.
func (l *Leaf) Select1(j uint64) uint64 {
	for k, word := range l.Words() {
		c := bitutil.Popcount(word)
		if j <= c {
			return uint64(k)*bitutil.WordBits + bitutil.Select64(word, j-1)
		}
		j -= c
	}
	panic(fmt.Sprintf("leaf.Select1: invariant broken, %d ones missing", j))
}

// Select0 returns the position of the j-th zero, counting from 1.
func (l *Leaf) Select0(j uint64) uint64 {
	words := l.Words()
	for k, word := range words {
		zeros := ^word
		if k == len(words)-1 {
			zeros &= bitutil.LowMask(l.size - uint64(k)*bitutil.WordBits)
		}
		c := bitutil.Popcount(zeros)
		if j <= c {
			return uint64(k)*bitutil.WordBits + bitutil.Select64(zeros, j-1)
		}
		j -= c
	}
	panic(fmt.Sprintf("leaf.Select0: invariant broken, %d zeros missing", j))
}

// Next1 returns the position of the first one at or after i, or -1.
func (l *Leaf) Next1(i uint64) int64 {
	if i >= l.size {
		return -1
	}
	w, b := bitutil.Offsets(i)
	words := uint64(len(l.Words()))
	word := l.data[w] &^ bitutil.LowMask(b)
	for word == 0 {
		w++
		if w >= words {
			return -1
		}
		word = l.data[w]
	}
	return int64(w*bitutil.WordBits + bitutil.LowestBit(word))
}

// Next0 returns the position of the first zero at or after i, or -1.
func (l *Leaf) Next0(i uint64) int64 {
	if i >= l.size {
		return -1
	}
	w, b := bitutil.Offsets(i)
	words := uint64(len(l.Words()))
	word := ^l.data[w] &^ bitutil.LowMask(b)
	for word == 0 {
		w++
		if w >= words {
			return -1
		}
		word = ^l.data[w]
	}
	p := w*bitutil.WordBits + bitutil.LowestBit(word)
	if p >= l.size {
		return -1
	}
	return int64(p)
}

// CopyTo copies bits [i, i+n) into dst starting at dstOff.
func (l *Leaf) CopyTo(dst []uint64, dstOff, i, n uint64) {
	bitutil.CopyBits(dst, dstOff, l.data, i, n)
}

// Split truncates l to its first half, cut on a byte boundary, and returns a
// new leaf holding the second half.
func (l *Leaf) Split() *Leaf {
	cut := min(((l.size/2+7)/8)*8, l.size)
	right := New(len(l.data))
	right.size = l.size - cut
	bitutil.CopyBits(right.data, 0, l.data, cut, right.size)
	right.ones = bitutil.Count(right.data, right.size)

	bitutil.ClearFrom(l.data, cut)
	l.size = cut
	l.ones -= right.ones
	return right
}

// Merge appends every bit of r to l.
func (l *Leaf) Merge(r *Leaf) {
	if l.size+r.size > l.Cap() {
		panic("leaf.Merge: invariant broken, merged size exceeds capacity")
	}
	bitutil.CopyBits(l.data, l.size, r.data, 0, r.size)
	l.size += r.size
	l.ones += r.ones
}

// TransferHead moves the first n bits of l to the end of dst.
func (l *Leaf) TransferHead(dst *Leaf, n uint64) {
	moved := bitutil.Count(l.data, n)
	bitutil.CopyBits(dst.data, dst.size, l.data, 0, n)
	dst.size += n
	dst.ones += moved

	rest := make([]uint64, len(l.data))
	bitutil.CopyBits(rest, 0, l.data, n, l.size-n)
	l.data = rest
	l.size -= n
	l.ones -= moved
}

// TransferTail moves the last n bits of l to the front of dst.
func (l *Leaf) TransferTail(dst *Leaf, n uint64) {
	from := l.size - n
	head := make([]uint64, len(dst.data))
	bitutil.CopyBits(head, 0, l.data, from, n)
	moved := bitutil.Count(head, n)
	bitutil.CopyBits(head, n, dst.data, 0, dst.size)
	dst.data = head
	dst.size += n
	dst.ones += moved

	bitutil.ClearFrom(l.data, from)
	l.size = from
	l.ones -= moved
}
