// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"github.com/bpowers/bitvector/internal/bitutil"
	"github.com/bpowers/bitvector/internal/leaf"
)

// collect returns every bit under h in a fresh array.  Reads made here are
// not counted toward flattening.
func (h *Hybrid) collect() []uint64 {
	n := h.size()
	out := make([]uint64, bitutil.WordsFor(n))
	h.read(out, 0, 0, n, 0, false)
	return out
}

// flatten replaces a dynamic subtree with a single static array, or a leaf
// if it is small enough.
func (h *Hybrid) flatten() {
	n := h.size()
	before := h.Leaves()
	data := h.collect()
	h.replace(h.s.build(data, n))
	h.s.Logger.Debug("flatten", "size", n, "leaves", before, "type", h.kind)
}

// splitFrom cuts n bits of data into a tree of pieces of about newLeafBits
// each.  The half holding position i keeps being halved until it is a leaf,
// and the other halves become static arrays when larger than a leaf.
func (s *settings) splitFrom(data []uint64, n, i uint64) *Hybrid {
	b := s.newLeafBits
	if n <= b {
		return s.newLeaf(leaf.FromBits(s.LeafWords, data, n))
	}
	leftBits := ((n + b - 1) / b / 2) * b
	rightBits := n - leftBits
	right := data[leftBits/bitutil.WordBits:]

	var l, r *Hybrid
	if i < leftBits {
		l = s.splitFrom(data, leftBits, i)
		r = s.build(right, rightBits)
	} else {
		l = s.build(data, leftBits)
		r = s.splitFrom(right, rightBits, i-leftBits)
	}
	return s.newDynamic(l, r)
}

// balance rebuilds the subtree under h into evenly sized pieces, leaving a
// leaf at position i, and returns the change in leaves.
func (h *Hybrid) balance(i uint64) int64 {
	n := h.size()
	before := h.Leaves()
	data := h.collect()
	h.replace(h.s.splitFrom(data, n, i))
	h.s.Logger.Debug("balance", "size", n, "leaves", h.Leaves(), "position", i)
	return int64(h.Leaves()) - int64(before)
}

// splitStatic converts a static array into a tree so that position i can be
// updated.  It does not change the number of leaves.
func (h *Hybrid) splitStatic(i uint64) int64 {
	st := h.static
	before := h.Leaves()
	h.replace(h.s.splitFrom(st.Words(), st.Len(), i))
	h.s.Logger.Debug("static split", "size", st.Len(), "leaves", h.Leaves(), "position", i)
	return int64(h.Leaves()) - int64(before)
}

// splitLeaf turns a full leaf into a dynamic node over its two halves.
func (h *Hybrid) splitLeaf() {
	l := h.leaf
	r := l.Split()
	h.replace(h.s.newDynamic(h.s.newLeaf(l), h.s.newLeaf(r)))
	h.s.Logger.Debug("leaf split", "size", h.dyn.size, "ones", h.dyn.ones)
}

// mergeLeaves joins two leaf children into a single leaf.  Any other shape
// is flattened instead.
func (h *Hybrid) mergeLeaves() {
	d := h.dyn
	if d.left.kind != kindLeaf || d.right.kind != kindLeaf {
		h.flatten()
		return
	}
	l := d.left.leaf
	l.Merge(d.right.leaf)
	h.replace(h.s.newLeaf(l))
}
