// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap maps files read-only into memory.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map is a read-only memory mapping of a whole file.
type Map struct {
	data []byte
}

// Open maps the file at path.  Empty files produce an empty Map.
func Open(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		return &Map{}, nil
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: file %s too large (%d bytes)", path, size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap: %w", err)
	}
	return &Map{data: data}, nil
}

// Advise passes an madvise(2) hint, such as unix.MADV_SEQUENTIAL, for the
// whole mapping.
func (m *Map) Advise(advice int) error {
	if len(m.data) == 0 {
		return nil
	}
	if err := unix.Madvise(m.data, advice); err != nil {
		return fmt.Errorf("madvise: %w", err)
	}
	return nil
}

// Data returns the mapped bytes.  They are only valid until Close.
func (m *Map) Data() []byte { return m.data }

// Len returns the length of the mapping.
func (m *Map) Len() int { return len(m.data) }

// Close unmaps the file.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	return nil
}
