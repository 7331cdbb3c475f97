// Copyright 2021 The bit Authors and Caleb Spare. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package leaf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// model is the []bool reference the leaf is checked against.
type model []bool

func (m model) rank(i uint64) uint64 {
	var r uint64
	for _, v := range m[:i] {
		if v {
			r++
		}
	}
	return r
}

func (m model) ones() uint64 { return m.rank(uint64(len(m))) }

func checkLeaf(t *testing.T, l *Leaf, m model) {
	t.Helper()
	require.Equal(t, uint64(len(m)), l.Len())
	require.Equal(t, m.ones(), l.Ones())
	var ones, zeros uint64
	for i, v := range m {
		require.Equal(t, v, l.Access(uint64(i)), "bit %d", i)
		require.Equal(t, m.rank(uint64(i)), l.Rank(uint64(i)), "rank %d", i)
		if v {
			ones++
			require.Equal(t, uint64(i), l.Select1(ones))
		} else {
			zeros++
			require.Equal(t, uint64(i), l.Select0(zeros))
		}
	}
	// bits beyond the length stay zero
	for i := l.Len(); i < l.Cap(); i++ {
		require.False(t, l.Access(i), "tail bit %d", i)
	}
}

func TestLeafInsertRemove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := New(4)
	var m model
	for len(m) < int(l.Cap()) {
		i := uint64(rng.Intn(len(m) + 1))
		v := rng.Intn(3) == 0
		l.Insert(i, v)
		m = append(m[:i], append(model{v}, m[i:]...)...)
	}
	require.True(t, l.Full())
	checkLeaf(t, l, m)

	for len(m) > 0 {
		i := uint64(rng.Intn(len(m)))
		dif := l.Remove(i)
		if m[i] {
			require.Equal(t, -1, dif)
		} else {
			require.Equal(t, 0, dif)
		}
		m = append(m[:i], m[i+1:]...)
		if len(m)%37 == 0 {
			checkLeaf(t, l, m)
		}
	}
	checkLeaf(t, l, m)
}

func TestLeafWrite(t *testing.T) {
	l := New(1)
	for i := uint64(0); i < 10; i++ {
		l.Insert(i, false)
	}
	assert.Equal(t, 1, l.Write(3, true))
	assert.Equal(t, 0, l.Write(3, true))
	assert.Equal(t, uint64(1), l.Ones())
	assert.Equal(t, -1, l.Write(3, false))
	assert.Equal(t, uint64(0), l.Ones())
}

func TestLeafNext(t *testing.T) {
	src := []uint64{1 << 5, 0, 1 << 2}
	l := FromBits(4, src, 140)
	assert.Equal(t, int64(5), l.Next1(0))
	assert.Equal(t, int64(5), l.Next1(5))
	assert.Equal(t, int64(130), l.Next1(6))
	assert.Equal(t, int64(-1), l.Next1(131))
	assert.Equal(t, int64(-1), l.Next1(140))

	assert.Equal(t, int64(0), l.Next0(0))
	assert.Equal(t, int64(6), l.Next0(5))
	assert.Equal(t, int64(131), l.Next0(130))
	assert.Equal(t, int64(139), l.Next0(139))

	full := FromBits(1, []uint64{^uint64(0)}, 40)
	assert.Equal(t, int64(-1), full.Next0(0))
	assert.Equal(t, uint64(40), full.Ones())
}

func TestLeafSplitMerge(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	src := []uint64{rng.Uint64(), rng.Uint64(), rng.Uint64(), rng.Uint64()}
	l := FromBits(4, src, 256)
	var m model
	for i := uint64(0); i < 256; i++ {
		m = append(m, l.Access(i))
	}

	r := l.Split()
	require.Equal(t, uint64(128), l.Len())
	require.Equal(t, uint64(128), r.Len())
	checkLeaf(t, l, m[:128])
	checkLeaf(t, r, m[128:])

	l.Merge(r)
	checkLeaf(t, l, m)

	odd := FromBits(4, src, 201)
	r = odd.Split()
	assert.Equal(t, uint64(104), odd.Len())
	assert.Equal(t, uint64(97), r.Len())
	checkLeaf(t, odd, m[:104])
	checkLeaf(t, r, m[104:201])
}

func TestLeafTransfer(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	src := []uint64{rng.Uint64(), rng.Uint64(), rng.Uint64(), rng.Uint64()}
	a := FromBits(4, src, 256)
	b := FromBits(4, src[1:], 70)
	var ma, mb model
	for i := uint64(0); i < a.Len(); i++ {
		ma = append(ma, a.Access(i))
	}
	for i := uint64(0); i < b.Len(); i++ {
		mb = append(mb, b.Access(i))
	}

	a.TransferTail(b, 93)
	mb = append(append(model{}, ma[256-93:]...), mb...)
	ma = ma[:256-93]
	checkLeaf(t, a, ma)
	checkLeaf(t, b, mb)

	b.TransferHead(a, 50)
	ma = append(ma, mb[:50]...)
	mb = mb[50:]
	checkLeaf(t, a, ma)
	checkLeaf(t, b, mb)
}

func TestLeafCopyTo(t *testing.T) {
	src := []uint64{0xdeadbeefcafebabe, 0x0123456789abcdef}
	l := FromBits(2, src, 128)
	out := make([]uint64, 1)
	l.CopyTo(out, 0, 60, 64)
	assert.Equal(t, src[0]>>60|src[1]<<4, out[0])

	c := l.Clone()
	c.Write(0, !c.Access(0))
	assert.NotEqual(t, l.Access(0), c.Access(0))
}
