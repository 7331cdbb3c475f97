// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitvector implements a dynamic bitvector supporting access, rank,
// select, insertion and removal of single bits.
//
// A vector is a binary tree whose nodes switch between three
// representations as the workload changes: small mutable leaves, read-only
// static arrays with a rank/select directory, and dynamic internal nodes.
// Subtrees that are read often without being updated are flattened into a
// single array; updates split static arrays back into leaves, and the tree
// is rebalanced when one side grows too large.
//
// A Hybrid is not safe for concurrent use, including concurrent reads:
// every query may restructure the tree.
package bitvector

import (
	"fmt"

	"github.com/bpowers/bitvector/internal/bitutil"
	"github.com/bpowers/bitvector/internal/leaf"
	"github.com/bpowers/bitvector/internal/static"
)

type kind uint8

const (
	kindLeaf kind = iota
	kindStatic
	kindDynamic
)

func (k kind) String() string {
	switch k {
	case kindLeaf:
		return "Leaf"
	case kindStatic:
		return "Static"
	case kindDynamic:
		return "Dynamic"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Hybrid is a bitvector node.  Exactly one of leaf, static and dyn is
// non-nil, selected by kind.  The root Hybrid is the vector itself.
type Hybrid struct {
	s      *settings
	kind   kind
	leaf   *leaf.Leaf
	static *static.Static
	dyn    *dynamic
}

// New returns an empty bitvector.
func New(opts ...Option) (*Hybrid, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return s.newLeaf(leaf.New(s.LeafWords)), nil
}

// FromWords returns a bitvector holding a copy of the first n bits of words.
func FromWords(words []uint64, n uint64, opts ...Option) (*Hybrid, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	if uint64(len(words)) < bitutil.WordsFor(n) {
		return nil, fmt.Errorf("FromWords: %d words cannot hold %d bits", len(words), n)
	}
	return s.build(words, n), nil
}

func (s *settings) newLeaf(l *leaf.Leaf) *Hybrid {
	return &Hybrid{s: s, kind: kindLeaf, leaf: l}
}

func (s *settings) newStatic(st *static.Static) *Hybrid {
	return &Hybrid{s: s, kind: kindStatic, static: st}
}

func (s *settings) newDynamic(left, right *Hybrid) *Hybrid {
	return &Hybrid{
		s:    s,
		kind: kindDynamic,
		dyn: &dynamic{
			size:   left.size() + right.size(),
			ones:   left.ones() + right.ones(),
			leaves: left.Leaves() + right.Leaves(),
			left:   left,
			right:  right,
		},
	}
}

// build copies n bits of data into a single flat node: static when larger
// than a new leaf, otherwise a leaf.
func (s *settings) build(data []uint64, n uint64) *Hybrid {
	if n > s.newLeafBits {
		return s.newStatic(static.FromBits(data, n))
	}
	return s.newLeaf(leaf.FromBits(s.LeafWords, data, n))
}

// replace makes h take on o's representation.
func (h *Hybrid) replace(o *Hybrid) {
	h.kind, h.leaf, h.static, h.dyn = o.kind, o.leaf, o.static, o.dyn
}

func (h *Hybrid) invalid() error {
	return fmt.Errorf("bitvector: invariant broken, unexpected representation %s", h.kind)
}

func (h *Hybrid) size() uint64 {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Len()
	case kindStatic:
		return h.static.Len()
	case kindDynamic:
		return h.dyn.size
	}
	panic(h.invalid())
}

func (h *Hybrid) ones() uint64 {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Ones()
	case kindStatic:
		return h.static.Ones()
	case kindDynamic:
		return h.dyn.ones
	}
	panic(h.invalid())
}

// rootSize is the vector length used by the flattening policy.
func (h *Hybrid) rootSize() uint64 {
	if h.kind == kindDynamic {
		return h.dyn.size
	}
	return 0
}

// Len returns the number of bits in the vector.
func (h *Hybrid) Len() uint64 { return h.size() }

// Ones returns the number of set bits in the vector.
func (h *Hybrid) Ones() uint64 { return h.ones() }

// Leaves returns the number of leaf-sized pieces the vector is made of.  A
// static array counts as many leaves as freshly cut leaves it would split
// into.
func (h *Hybrid) Leaves() uint64 {
	switch h.kind {
	case kindLeaf:
		return 1
	case kindStatic:
		return (h.static.Len() + h.s.newLeafBits - 1) / h.s.newLeafBits
	case kindDynamic:
		return h.dyn.leaves
	}
	panic(h.invalid())
}

// Space returns the storage used by the vector, in 64-bit words.
func (h *Hybrid) Space() uint64 {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Space()
	case kindStatic:
		return h.static.Space()
	case kindDynamic:
		return 5 + h.dyn.left.Space() + h.dyn.right.Space()
	}
	panic(h.invalid())
}

// Type returns the representation of the root: "Leaf", "Static" or
// "Dynamic".
func (h *Hybrid) Type() string { return h.kind.String() }

// Clone returns a deep copy of the vector.
func (h *Hybrid) Clone() *Hybrid {
	c := &Hybrid{s: h.s, kind: h.kind}
	switch h.kind {
	case kindLeaf:
		c.leaf = h.leaf.Clone()
	case kindStatic:
		c.static = h.static.Clone()
	case kindDynamic:
		d := *h.dyn
		d.left = h.dyn.left.Clone()
		d.right = h.dyn.right.Clone()
		c.dyn = &d
	default:
		panic(h.invalid())
	}
	return c
}

// At returns bit i.
func (h *Hybrid) At(i uint64) bool {
	checkIndex("At", i, h.Len())
	v, _ := h.access(i, h.rootSize())
	return v
}

// Rank1 returns the number of ones in positions [0, i].
func (h *Hybrid) Rank1(i uint64) uint64 {
	checkIndex("Rank1", i, h.Len())
	r, _ := h.rank(i+1, h.rootSize())
	return r
}

// Rank0 returns the number of zeros in positions [0, i].
func (h *Hybrid) Rank0(i uint64) uint64 {
	checkIndex("Rank0", i, h.Len())
	r, _ := h.rank(i+1, h.rootSize())
	return i + 1 - r
}

// Rank returns the number of bits equal to bit in positions [0, i].
func (h *Hybrid) Rank(i uint64, bit bool) uint64 {
	if bit {
		return h.Rank1(i)
	}
	return h.Rank0(i)
}

// Select1 returns the position of the one with zero-based index j, so that
// Select1(Rank1(p)-1) == p for every set position p.
func (h *Hybrid) Select1(j uint64) uint64 {
	checkIndex("Select1", j, h.Ones())
	p, _ := h.select1(j+1, h.rootSize())
	return p
}

// Select0 returns the position of the zero with zero-based index j.
func (h *Hybrid) Select0(j uint64) uint64 {
	checkIndex("Select0", j, h.Len()-h.Ones())
	p, _ := h.select0(j+1, h.rootSize())
	return p
}

// Select returns the position of the bit equal to bit with zero-based
// index j.
func (h *Hybrid) Select(j uint64, bit bool) uint64 {
	if bit {
		return h.Select1(j)
	}
	return h.Select0(j)
}

// Next1 returns the position of the first one at or after i, or -1 if there
// is none.  Unlike the other queries, i >= Len() is not a contract
// violation: it returns -1 so scans can step past the end.
func (h *Hybrid) Next1(i uint64) int64 {
	if i >= h.Len() {
		return -1
	}
	p, _ := h.next1(i, h.rootSize())
	return p
}

// Next0 returns the position of the first zero at or after i, or -1 if there
// is none.  As with Next1, i >= Len() returns -1.
func (h *Hybrid) Next0(i uint64) int64 {
	if i >= h.Len() {
		return -1
	}
	p, _ := h.next0(i, h.rootSize())
	return p
}

// Read returns bits [i, i+n) packed from bit 0 of the first word.
func (h *Hybrid) Read(i, n uint64) []uint64 {
	checkRange("Read", i, n, h.Len())
	out := make([]uint64, bitutil.WordsFor(n))
	if n == 0 {
		return out
	}
	h.read(out, 0, i, n, h.rootSize(), true)
	return out
}

// Insert inserts bit v before position i; i may equal Len() to append.
func (h *Hybrid) Insert(i uint64, v bool) {
	checkIndex("Insert", i, h.Len()+1)
	h.insert(i, v)
}

// Insert0 inserts a zero before position i.
func (h *Hybrid) Insert0(i uint64) { h.Insert(i, false) }

// Insert1 inserts a one before position i.
func (h *Hybrid) Insert1(i uint64) { h.Insert(i, true) }

// PushBack appends v.
func (h *Hybrid) PushBack(v bool) { h.Insert(h.Len(), v) }

// Remove deletes bit i and returns the change in the number of ones: -1 if
// the removed bit was set, 0 otherwise.
func (h *Hybrid) Remove(i uint64) int {
	checkIndex("Remove", i, h.Len())
	dif, _ := h.remove(i)
	return dif
}

// Set sets bit i to v and returns the change in the number of ones.
func (h *Hybrid) Set(i uint64, v bool) int {
	checkIndex("Set", i, h.Len())
	dif, _ := h.write(i, v)
	return dif
}
