// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/bitvector/internal/bitutil"
)

// recorder is a slog.Handler counting messages, used to observe
// representation changes.
type recorder struct {
	mu   sync.Mutex
	msgs map[string]int
}

func newRecorder() *recorder {
	return &recorder{msgs: make(map[string]int)}
}

func (r *recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[rec.Message]++
	return nil
}

func (r *recorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *recorder) WithGroup(string) slog.Handler      { return r }

func (r *recorder) count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[msg]
}

type model []bool

func (m model) rank1(i int) uint64 {
	var r uint64
	for _, v := range m[:i+1] {
		if v {
			r++
		}
	}
	return r
}

func (m model) ones() uint64 {
	if len(m) == 0 {
		return 0
	}
	return m.rank1(len(m) - 1)
}

func (m model) selectBit(j uint64, bit bool) uint64 {
	for i, v := range m {
		if v == bit {
			if j == 0 {
				return uint64(i)
			}
			j--
		}
	}
	panic("model select out of range")
}

func (m model) next(i int, bit bool) int64 {
	for ; i < len(m); i++ {
		if m[i] == bit {
			return int64(i)
		}
	}
	return -1
}

func (m model) words() []uint64 {
	out := make([]uint64, bitutil.WordsFor(uint64(len(m))))
	for i, v := range m {
		bitutil.Put(out, uint64(i), v)
	}
	return out
}

func newVector(t testing.TB, opts ...Option) *Hybrid {
	h, err := New(opts...)
	require.NoError(t, err)
	return h
}

// checkInvariants verifies the cached counts of every node against its
// children.
func checkInvariants(t *testing.T, h *Hybrid) {
	t.Helper()
	switch h.kind {
	case kindLeaf:
		l := h.leaf
		require.LessOrEqual(t, l.Len(), h.s.maxLeafBits)
		require.Equal(t, bitutil.Count(l.Words(), l.Len()), l.Ones())
		for i := l.Len(); i < l.Cap(); i++ {
			require.False(t, l.Access(i), "leaf tail bit %d set", i)
		}
	case kindStatic:
		require.Greater(t, h.static.Len(), h.s.newLeafBits)
	case kindDynamic:
		d := h.dyn
		checkInvariants(t, d.left)
		checkInvariants(t, d.right)
		require.NotZero(t, d.left.size())
		require.NotZero(t, d.right.size())
		require.Equal(t, d.left.size()+d.right.size(), d.size)
		require.Equal(t, d.left.ones()+d.right.ones(), d.ones)
		require.Equal(t, d.left.Leaves()+d.right.Leaves(), d.leaves)
	default:
		t.Fatalf("bad kind %d", h.kind)
	}
}

func checkAll(t *testing.T, h *Hybrid, m model) {
	t.Helper()
	checkInvariants(t, h)
	require.Equal(t, uint64(len(m)), h.Len())
	require.Equal(t, m.ones(), h.Ones())
	require.Equal(t, m.words(), h.Read(0, h.Len()))
	checkInvariants(t, h)
}

func TestScenarioSmall(t *testing.T) {
	h := newVector(t)
	for _, v := range []bool{true, false, true, true, false} {
		h.PushBack(v)
	}
	require.Equal(t, uint64(5), h.Len())
	require.Equal(t, uint64(3), h.Ones())
	assert.Equal(t, "Leaf", h.Type())
	assert.True(t, h.At(0))
	assert.False(t, h.At(1))
	assert.Equal(t, uint64(3), h.Rank1(4))
	assert.Equal(t, uint64(2), h.Rank0(4))
	assert.Equal(t, uint64(2), h.Rank(2, true))
	assert.Equal(t, uint64(1), h.Rank(2, false))
	// the third one and the second zero
	assert.Equal(t, uint64(3), h.Select1(2))
	assert.Equal(t, uint64(4), h.Select0(1))
	assert.Equal(t, uint64(0), h.Select(0, true))
	assert.Equal(t, uint64(1), h.Select(0, false))
	assert.Equal(t, int64(2), h.Next1(1))
	assert.Equal(t, int64(4), h.Next0(2))
	assert.Equal(t, int64(-1), h.Next1(4))
	assert.Equal(t, int64(-1), h.Next1(5))
	assert.Equal(t, int64(-1), h.Next0(h.Len()))
	assert.Equal(t, int64(-1), h.Next1(^uint64(0)))
	assert.Equal(t, int64(-1), h.Next0(^uint64(0)))
}

func TestScenarioLeafSplit(t *testing.T) {
	h := newVector(t)
	for i := 0; i < 2048; i++ {
		h.PushBack(false)
	}
	require.Equal(t, "Leaf", h.Type())
	h.PushBack(true)
	assert.Equal(t, "Dynamic", h.Type())
	assert.Equal(t, uint64(2), h.Leaves())
	assert.Equal(t, uint64(2049), h.Len())
	assert.True(t, h.At(2048))
	assert.Equal(t, uint64(2048), h.Select1(0))
	checkInvariants(t, h)
}

func TestScenarioFlattenToStatic(t *testing.T) {
	rec := newRecorder()
	h := newVector(t, WithEpsilon(1), WithLogger(slog.New(rec)))
	rng := rand.New(rand.NewSource(3))
	var m model
	for i := 0; i < 4096; i++ {
		v := rng.Intn(2) == 0
		h.PushBack(v)
		m = append(m, v)
	}
	require.Equal(t, "Dynamic", h.Type())
	for i := range m {
		require.Equal(t, m[i], h.At(uint64(i)))
	}
	assert.Equal(t, "Static", h.Type())
	assert.Equal(t, uint64(3), h.Leaves())
	assert.NotZero(t, rec.count("flatten"))

	// an update splits it again without changing the leaf count
	h.Set(100, !m[100])
	m[100] = !m[100]
	assert.Equal(t, "Dynamic", h.Type())
	assert.Equal(t, uint64(3), h.Leaves())
	assert.Equal(t, 1, rec.count("static split"))
	checkAll(t, h, m)
}

func TestRankSelectInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	h := newVector(t, WithLeafWords(4))
	for i := 0; i < 5000; i++ {
		h.Insert(uint64(rng.Intn(int(h.Len())+1)), rng.Intn(3) == 0)
	}
	for i := uint64(0); i < h.Len(); i++ {
		if h.At(i) {
			require.Equal(t, i, h.Select1(h.Rank1(i)-1))
		} else {
			require.Equal(t, i, h.Select0(h.Rank0(i)-1))
		}
	}
	for j := uint64(0); j < h.Ones(); j++ {
		require.Equal(t, j+1, h.Rank1(h.Select1(j)))
	}
	checkInvariants(t, h)
}

func TestRandomOperations(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"small leaves", []Option{WithLeafWords(4)}},
		{"eager flatten", []Option{WithLeafWords(4), WithEpsilon(1), WithTheta(0.05)}},
		{"one word leaves", []Option{WithLeafWords(2), WithNewFraction(0.5), WithMinFillFactor(0.2)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := newRecorder()
			opts := append([]Option{WithLogger(slog.New(rec))}, tc.opts...)
			h := newVector(t, opts...)
			rng := rand.New(rand.NewSource(42))
			var m model

			insert := func(i int, v bool) {
				h.Insert(uint64(i), v)
				m = append(m[:i], append(model{v}, m[i:]...)...)
			}
			query := func() {
				i := rng.Intn(len(m))
				require.Equal(t, m[i], h.At(uint64(i)), "At(%d)", i)
				require.Equal(t, m.rank1(i), h.Rank1(uint64(i)), "Rank1(%d)", i)
				require.Equal(t, m.next(i, true), h.Next1(uint64(i)), "Next1(%d)", i)
				require.Equal(t, m.next(i, false), h.Next0(uint64(i)), "Next0(%d)", i)
				if ones := m.ones(); ones > 0 {
					j := uint64(rng.Int63n(int64(ones)))
					require.Equal(t, m.selectBit(j, true), h.Select1(j), "Select1(%d)", j)
				}
				if zeros := uint64(len(m)) - m.ones(); zeros > 0 {
					j := uint64(rng.Int63n(int64(zeros)))
					require.Equal(t, m.selectBit(j, false), h.Select0(j), "Select0(%d)", j)
				}
			}

			// grow at the front to unbalance the tree
			for i := 0; i < 1500; i++ {
				insert(0, rng.Intn(2) == 0)
			}
			checkAll(t, h, m)
			for i := 0; i < 3000; i++ {
				insert(rng.Intn(len(m)+1), rng.Intn(4) == 0)
			}
			checkAll(t, h, m)

			// reads flatten hot regions, updates split them again
			for round := 0; round < 4000; round++ {
				switch rng.Intn(10) {
				case 0:
					i := rng.Intn(len(m))
					v := rng.Intn(2) == 0
					want := 0
					if v != m[i] {
						want = 1
						if !v {
							want = -1
						}
					}
					require.Equal(t, want, h.Set(uint64(i), v))
					m[i] = v
				case 1:
					insert(rng.Intn(len(m)+1), rng.Intn(2) == 0)
				case 2:
					i := rng.Intn(len(m))
					want := 0
					if m[i] {
						want = -1
					}
					require.Equal(t, want, h.Remove(uint64(i)))
					m = append(m[:i], m[i+1:]...)
				default:
					query()
				}
				if round%500 == 0 {
					checkAll(t, h, m)
				}
			}
			checkAll(t, h, m)

			// shrink from the back, then drain completely
			for len(m) > 0 {
				i := len(m) - 1
				if rng.Intn(3) == 0 {
					i = rng.Intn(len(m))
				}
				h.Remove(uint64(i))
				m = append(m[:i], m[i+1:]...)
				if len(m)%211 == 0 {
					if len(m) > 0 {
						query()
					}
					checkAll(t, h, m)
				}
			}
			checkAll(t, h, m)
			assert.Equal(t, "Leaf", h.Type())

			assert.NotZero(t, rec.count("leaf split"))
			assert.NotZero(t, rec.count("balance"))
			assert.NotZero(t, rec.count("flatten"))
			assert.NotZero(t, rec.count("static split"))
		})
	}
}

func TestRepresentationTransparency(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	var m model
	for i := 0; i < 6000; i++ {
		m = append(m, rng.Intn(5) == 0)
	}

	flat, err := FromWords(m.words(), uint64(len(m)))
	require.NoError(t, err)
	require.Equal(t, "Static", flat.Type())

	tree := newVector(t, WithLeafWords(4))
	for _, v := range m {
		tree.PushBack(v)
	}
	require.Equal(t, "Dynamic", tree.Type())

	leafy := newVector(t, WithLeafWords(128))
	for _, v := range m {
		leafy.PushBack(v)
	}
	require.Equal(t, "Leaf", leafy.Type())

	vectors := []*Hybrid{flat, tree, leafy}
	for i := 0; i < 2000; i++ {
		p := uint64(rng.Intn(len(m)))
		j := uint64(rng.Int63n(int64(m.ones())))
		for _, h := range vectors {
			require.Equal(t, m[p], h.At(p))
			require.Equal(t, m.rank1(int(p)), h.Rank1(p))
			require.Equal(t, m.selectBit(j, true), h.Select1(j))
			require.Equal(t, m.next(int(p), true), h.Next1(p))
		}
	}
}

func TestSetIdempotent(t *testing.T) {
	h := newVector(t, WithLeafWords(4))
	for i := 0; i < 1000; i++ {
		h.PushBack(i%3 == 0)
	}
	ones := h.Ones()
	assert.Equal(t, 1, h.Set(1, true))
	assert.Equal(t, 0, h.Set(1, true))
	assert.Equal(t, ones+1, h.Ones())
	assert.Equal(t, -1, h.Set(1, false))
	assert.Equal(t, 0, h.Set(1, false))
	assert.Equal(t, ones, h.Ones())
	checkInvariants(t, h)
}

func TestReadRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	h := newVector(t, WithLeafWords(4))
	var m model
	for i := 0; i < 3000; i++ {
		v := rng.Intn(2) == 0
		h.PushBack(v)
		m = append(m, v)
	}
	for _, r := range [][2]int{{0, 0}, {0, 1}, {5, 64}, {100, 700}, {191, 2}, {2999, 1}, {0, 3000}} {
		got := h.Read(uint64(r[0]), uint64(r[1]))
		require.Equal(t, model(m[r[0]:r[0]+r[1]]).words(), got, "Read(%d, %d)", r[0], r[1])
	}
}

func TestCloneIsDeep(t *testing.T) {
	h := newVector(t, WithLeafWords(4))
	for i := 0; i < 2000; i++ {
		h.PushBack(i%2 == 0)
	}
	c := h.Clone()
	c.Set(0, false)
	c.Remove(11)
	assert.True(t, h.At(0))
	assert.Equal(t, uint64(2000), h.Len())
	assert.Equal(t, uint64(1999), c.Len())
	assert.Equal(t, h.Ones()-1, c.Ones())
	checkInvariants(t, h)
	checkInvariants(t, c)
}

func expectContractPanic(t *testing.T, op string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "%s did not panic", op)
		err, ok := r.(*ContractError)
		require.True(t, ok, "%s panicked with %T", op, r)
		assert.Equal(t, op, err.Op)
		assert.Contains(t, err.Error(), op)
	}()
	f()
}

func TestContractViolations(t *testing.T) {
	h := newVector(t)
	h.PushBack(true)
	h.PushBack(false)
	expectContractPanic(t, "At", func() { h.At(2) })
	expectContractPanic(t, "Rank1", func() { h.Rank1(2) })
	expectContractPanic(t, "Rank0", func() { h.Rank0(5) })
	expectContractPanic(t, "Select1", func() { h.Select1(1) })
	expectContractPanic(t, "Select0", func() { h.Select0(1) })
	expectContractPanic(t, "Insert", func() { h.Insert(3, true) })
	expectContractPanic(t, "Remove", func() { h.Remove(2) })
	expectContractPanic(t, "Set", func() { h.Set(2, true) })
	expectContractPanic(t, "Read", func() { h.Read(1, 2) })
	expectContractPanic(t, "Read", func() { h.Read(^uint64(0), 2) })
	expectContractPanic(t, "Read", func() { h.Read(1, ^uint64(0)) })
	assert.Empty(t, h.Read(^uint64(0), 0))
}

func TestConfigValidation(t *testing.T) {
	for _, opt := range []Option{
		WithLeafWords(0),
		WithLeafWords(1),
		WithNewFraction(1),
		WithAlpha(0.5),
		WithAlpha(1),
		WithTheta(-1),
		WithEpsilon(-0.1),
		WithTransferFactor(1),
		WithMinLeavesToBalance(0),
		WithMinFillFactor(0.5),
		WithLogger(nil),
	} {
		_, err := New(opt)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	_, err := FromWords([]uint64{1}, 65)
	assert.Error(t, err)
}

func TestCanBalance(t *testing.T) {
	s, err := newSettings(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1536), s.newLeafBits)
	require.Equal(t, uint64(256), s.minTransfer)
	require.Equal(t, uint64(5*2048), s.minBalanceBits)

	// 10 new leaves split 5/5
	assert.True(t, s.canBalance(15360, 1, 0))
	assert.True(t, s.canBalance(15360, -1, 0))
	// 3 new leaves split 1/2, and the right side is already past alpha
	assert.False(t, s.canBalance(3*1536, 0, 1))

	assert.True(t, s.mustFlatten(100, 1, 1000))
	assert.False(t, s.mustFlatten(100, 0, 1000))
	assert.False(t, s.mustFlatten(200, 10, 1000))
}

func BenchmarkInsert(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	h := newVector(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Insert(uint64(rng.Intn(int(h.Len())+1)), i&1 == 0)
	}
}

func BenchmarkRank(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	words := make([]uint64, 1<<14)
	for i := range words {
		words[i] = rng.Uint64()
	}
	h, err := FromWords(words, uint64(len(words))*64)
	require.NoError(b, err)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Rank1(uint64(rng.Int63n(int64(h.Len()))))
	}
}
