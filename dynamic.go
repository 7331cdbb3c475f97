// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

// dynamic is an internal node.  size, ones and leaves are the sums over both
// children; accesses counts reads since the last update below this node.
type dynamic struct {
	size     uint64
	ones     uint64
	leaves   uint64
	accesses uint64
	left     *Hybrid
	right    *Hybrid
}

func (d *dynamic) addLeaves(delta int64) {
	if delta != 0 {
		d.leaves = uint64(int64(d.leaves) + delta)
	}
}

func (d *dynamic) addOnes(dif int) {
	d.ones = uint64(int64(d.ones) + int64(dif))
}

// Every recursive operation below returns, as its last result, the change in
// the number of leaves under the node it was called on.  Parents fold that
// delta into their own count on the way back up.

// touch counts a read on a dynamic node and flattens it when the policy
// says so.
func (h *Hybrid) touch(n uint64) (flattened bool, delta int64) {
	d := h.dyn
	d.accesses++
	if !h.s.mustFlatten(d.size, d.accesses, n) {
		return false, 0
	}
	before := d.leaves
	h.flatten()
	return true, int64(h.Leaves()) - int64(before)
}

func (h *Hybrid) access(i, n uint64) (bool, int64) {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Access(i), 0
	case kindStatic:
		return h.static.Access(i), 0
	case kindDynamic:
		if ok, delta := h.touch(n); ok {
			v, _ := h.access(i, n)
			return v, delta
		}
		d := h.dyn
		var v bool
		var delta int64
		if ls := d.left.size(); i < ls {
			v, delta = d.left.access(i, n)
		} else {
			v, delta = d.right.access(i-ls, n)
		}
		d.addLeaves(delta)
		return v, delta
	}
	panic(h.invalid())
}

// rank returns the number of ones in [0, i).
func (h *Hybrid) rank(i, n uint64) (uint64, int64) {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Rank(i), 0
	case kindStatic:
		return h.static.Rank(i), 0
	case kindDynamic:
		if ok, delta := h.touch(n); ok {
			r, _ := h.rank(i, n)
			return r, delta
		}
		d := h.dyn
		var r uint64
		var delta int64
		if ls := d.left.size(); i < ls {
			r, delta = d.left.rank(i, n)
		} else {
			r, delta = d.right.rank(i-ls, n)
			r += d.left.ones()
		}
		d.addLeaves(delta)
		return r, delta
	}
	panic(h.invalid())
}

// select1 returns the position of the j-th one, counting from 1.
func (h *Hybrid) select1(j, n uint64) (uint64, int64) {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Select1(j), 0
	case kindStatic:
		return h.static.Select1(j), 0
	case kindDynamic:
		if ok, delta := h.touch(n); ok {
			p, _ := h.select1(j, n)
			return p, delta
		}
		d := h.dyn
		var p uint64
		var delta int64
		if lo := d.left.ones(); j <= lo {
			p, delta = d.left.select1(j, n)
		} else {
			p, delta = d.right.select1(j-lo, n)
			p += d.left.size()
		}
		d.addLeaves(delta)
		return p, delta
	}
	panic(h.invalid())
}

// select0 returns the position of the j-th zero, counting from 1.
func (h *Hybrid) select0(j, n uint64) (uint64, int64) {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Select0(j), 0
	case kindStatic:
		return h.static.Select0(j), 0
	case kindDynamic:
		if ok, delta := h.touch(n); ok {
			p, _ := h.select0(j, n)
			return p, delta
		}
		d := h.dyn
		var p uint64
		var delta int64
		if lz := d.left.size() - d.left.ones(); j <= lz {
			p, delta = d.left.select0(j, n)
		} else {
			p, delta = d.right.select0(j-lz, n)
			p += d.left.size()
		}
		d.addLeaves(delta)
		return p, delta
	}
	panic(h.invalid())
}

// next1 returns the first one at or after i, or -1.  A subtree without ones
// answers without counting a read.
func (h *Hybrid) next1(i, n uint64) (int64, int64) {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Next1(i), 0
	case kindStatic:
		return h.static.Next1(i), 0
	case kindDynamic:
		if h.dyn.ones == 0 {
			return -1, 0
		}
		if ok, delta := h.touch(n); ok {
			p, _ := h.next1(i, n)
			return p, delta
		}
		d := h.dyn
		ls := d.left.size()
		p, delta := int64(-1), int64(0)
		if i < ls {
			p, delta = d.left.next1(i, n)
		}
		if p < 0 {
			var dr int64
			p, dr = d.right.next1(max(i, ls)-ls, n)
			if p >= 0 {
				p += int64(ls)
			}
			delta += dr
		}
		d.addLeaves(delta)
		return p, delta
	}
	panic(h.invalid())
}

// next0 returns the first zero at or after i, or -1.  A subtree without
// zeros answers without counting a read.
func (h *Hybrid) next0(i, n uint64) (int64, int64) {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Next0(i), 0
	case kindStatic:
		return h.static.Next0(i), 0
	case kindDynamic:
		if h.dyn.ones == h.dyn.size {
			return -1, 0
		}
		if ok, delta := h.touch(n); ok {
			p, _ := h.next0(i, n)
			return p, delta
		}
		d := h.dyn
		ls := d.left.size()
		p, delta := int64(-1), int64(0)
		if i < ls {
			p, delta = d.left.next0(i, n)
		}
		if p < 0 {
			var dr int64
			p, dr = d.right.next0(max(i, ls)-ls, n)
			if p >= 0 {
				p += int64(ls)
			}
			delta += dr
		}
		d.addLeaves(delta)
		return p, delta
	}
	panic(h.invalid())
}

// read copies bits [i, i+l) into dst at dstOff.  Reads are only counted
// toward flattening when count is set.
func (h *Hybrid) read(dst []uint64, dstOff, i, l, n uint64, count bool) int64 {
	switch h.kind {
	case kindLeaf:
		h.leaf.CopyTo(dst, dstOff, i, l)
		return 0
	case kindStatic:
		h.static.CopyTo(dst, dstOff, i, l)
		return 0
	case kindDynamic:
		if count {
			if ok, delta := h.touch(n); ok {
				h.read(dst, dstOff, i, l, n, count)
				return delta
			}
		}
		d := h.dyn
		ls := d.left.size()
		var delta int64
		if i < ls {
			k := min(l, ls-i)
			delta += d.left.read(dst, dstOff, i, k, n, count)
			dstOff, i, l = dstOff+k, ls, l-k
		}
		if l > 0 {
			delta += d.right.read(dst, dstOff, i-ls, l, n, count)
		}
		d.addLeaves(delta)
		return delta
	}
	panic(h.invalid())
}

// write sets bit i to v and returns the change in ones.
func (h *Hybrid) write(i uint64, v bool) (int, int64) {
	switch h.kind {
	case kindStatic:
		delta := h.splitStatic(i)
		dif, d2 := h.write(i, v)
		return dif, delta + d2
	case kindLeaf:
		return h.leaf.Write(i, v), 0
	case kindDynamic:
		d := h.dyn
		d.accesses = 0
		var dif int
		var delta int64
		if ls := d.left.size(); i < ls {
			dif, delta = d.left.write(i, v)
		} else {
			dif, delta = d.right.write(i-ls, v)
		}
		d.addOnes(dif)
		d.addLeaves(delta)
		return dif, delta
	}
	panic(h.invalid())
}

func (h *Hybrid) insert(i uint64, v bool) int64 {
	switch h.kind {
	case kindStatic:
		delta := h.splitStatic(i)
		return delta + h.insert(i, v)
	case kindLeaf:
		if !h.leaf.Full() {
			h.leaf.Insert(i, v)
			return 0
		}
		h.splitLeaf()
		return 1 + h.insert(i, v)
	case kindDynamic:
		d := h.dyn
		d.accesses = 0
		ls, rs := d.left.size(), d.right.size()
		total := ls + rs
		maxBits := h.s.maxLeafBits
		leaves := d.left.kind == kindLeaf && d.right.kind == kindLeaf
		var delta int64
		if i < ls {
			if ls == maxBits && rs < maxBits && leaves && h.transferRight() {
				return h.insert(i, v)
			}
			if h.tooBiased(ls+1, total+1, total, 1, 0) {
				delta = h.balance(i)
				return delta + h.insert(i, v)
			}
			delta = d.left.insert(i, v)
		} else {
			if rs == maxBits && ls < maxBits && leaves && h.transferLeft() {
				return h.insert(i, v)
			}
			if h.tooBiased(rs+1, total+1, total, 0, 1) {
				delta = h.balance(i)
				return delta + h.insert(i, v)
			}
			delta = d.right.insert(i-ls, v)
		}
		d.size++
		if v {
			d.ones++
		}
		d.addLeaves(delta)
		return delta
	}
	panic(h.invalid())
}

// remove deletes bit i and returns the change in ones.
func (h *Hybrid) remove(i uint64) (int, int64) {
	switch h.kind {
	case kindStatic:
		delta := h.splitStatic(i)
		dif, d2 := h.remove(i)
		return dif, delta + d2
	case kindLeaf:
		return h.leaf.Remove(i), 0
	case kindDynamic:
		d := h.dyn
		d.accesses = 0
		start := d.leaves
		ls, rs := d.left.size(), d.right.size()
		total := ls + rs
		var dif int
		var delta int64
		if i < ls {
			if h.tooBiased(rs, total-1, total, -1, 0) {
				delta = h.balance(i)
				dif, d2 := h.remove(i)
				return dif, delta + d2
			}
			dif, delta = d.left.remove(i)
			if ls == 1 {
				h.replace(d.right)
				return dif, int64(h.Leaves()) - int64(start)
			}
		} else {
			if h.tooBiased(ls, total-1, total, 0, -1) {
				delta = h.balance(i)
				dif, d2 := h.remove(i)
				return dif, delta + d2
			}
			dif, delta = d.right.remove(i - ls)
			if rs == 1 {
				h.replace(d.left)
				return dif, int64(h.Leaves()) - int64(start)
			}
		}
		d.size--
		d.addOnes(dif)
		d.addLeaves(delta)
		if d.size <= h.s.newLeafBits {
			h.mergeLeaves()
		} else if float64(d.size) < float64(d.leaves)*float64(h.s.newLeafBits)*h.s.MinFillFactor {
			h.flatten()
		}
		return dif, int64(h.Leaves()) - int64(start)
	}
	panic(h.invalid())
}

// tooBiased reports whether a child that will hold child bits out of after
// bits makes this node worth rebalancing.  total is the current size; dl and
// dr are the pending changes on each side.
func (h *Hybrid) tooBiased(child, after, total uint64, dl, dr int64) bool {
	return float64(child) > h.s.Alpha*float64(after) &&
		total >= h.s.minBalanceBits &&
		h.s.canBalance(total, dl, dr)
}

// transferRight moves bits from a full left leaf to its right sibling.
func (h *Hybrid) transferRight() bool {
	l, r := h.dyn.left.leaf, h.dyn.right.leaf
	trf := (l.Len() - r.Len() + 1) / 2
	if trf < h.s.minTransfer {
		return false
	}
	l.TransferTail(r, trf)
	return true
}

// transferLeft moves bits from a full right leaf to its left sibling.
func (h *Hybrid) transferLeft() bool {
	l, r := h.dyn.left.leaf, h.dyn.right.leaf
	trf := (r.Len() - l.Len() + 1) / 2
	if trf < h.s.minTransfer {
		return false
	}
	r.TransferHead(l, trf)
	return true
}
