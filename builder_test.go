// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"bytes"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bits.data")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	b, err := NewBuilder(path, WithBuilderLogger(logger), WithVectorOptions(WithLeafWords(8)))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	var m model
	for i := 0; i < 3000; i++ {
		v := rng.Intn(2) == 0
		b.Push(v)
		m = append(m, v)
	}
	word := uint64(0xdeadbeef)
	b.PushWord(word, 40)
	for i := uint64(0); i < 40; i++ {
		m = append(m, word&(1<<i) != 0)
	}
	require.Equal(t, uint64(len(m)), b.Len())

	h, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, m.words(), h.Read(0, h.Len()))
	assert.Contains(t, logs.String(), "finished bitvector")

	_, err = b.Finalize()
	assert.Error(t, err)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0444), fi.Mode().Perm())

	// no temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	g, err := Open(path, WithLeafWords(8))
	require.NoError(t, err)
	assert.Equal(t, "Static", g.Type())
	assert.Equal(t, uint64(len(m)), g.Len())
	assert.Equal(t, m.ones(), g.Ones())
	assert.Equal(t, m.words(), g.Read(0, g.Len()))

	// the opened vector is fully mutable
	g.Insert(0, true)
	g.Remove(g.Len() - 1)
	assert.True(t, g.At(0))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vec.data")

	h := newVector(t, WithLeafWords(4))
	for i := 0; i < 1000; i++ {
		h.Insert(uint64(i/2), i%3 == 0)
	}
	want := h.Clone().Read(0, h.Len())
	require.NoError(t, WriteFile(path, h))

	g, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, want, g.Read(0, g.Len()))
}

func TestOpenCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vec.data")
	h, err := FromWords([]uint64{1, 2, 3, 4}, 256)
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, h))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x80
	corrupt := filepath.Join(dir, "corrupt.data")
	require.NoError(t, os.WriteFile(corrupt, data, 0644))
	_, err = Open(corrupt)
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "missing.data"))
	assert.Error(t, err)
}

func TestNewBuilderErrors(t *testing.T) {
	_, err := NewBuilder(filepath.Join(t.TempDir(), "no", "such", "dir", "bits.data"))
	assert.Error(t, err)

	_, err = NewBuilder(filepath.Join(t.TempDir(), "bits.data"), WithVectorOptions(WithAlpha(2)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
