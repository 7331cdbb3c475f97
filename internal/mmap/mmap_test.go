// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	want := []byte("some bits and bytes")
	require.NoError(t, os.WriteFile(path, want, 0644))

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.Advise(unix.MADV_SEQUENTIAL))
	assert.Equal(t, len(want), m.Len())
	assert.Equal(t, want, m.Data())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Data())
}

func TestOpenEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Advise(unix.MADV_RANDOM))
	require.NoError(t, m.Close())

	_, err = Open(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
