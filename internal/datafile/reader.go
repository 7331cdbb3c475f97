// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/bpowers/bitvector/internal/mmap"
)

// MmapReader gives access to the payload of a memory-mapped data file.
type MmapReader struct {
	h    fileHeader
	mmap *mmap.Map
}

func NewMMapReaderWithPath(path string) (*MmapReader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	r, err := newMmapReader(m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return r, nil
}

func newMmapReader(m *mmap.Map) (*MmapReader, error) {
	if m.Len() < fileHeaderSize {
		return nil, fmt.Errorf("data file too short: %d < %d", m.Len(), fileHeaderSize)
	}

	// the payload is read front to back exactly once
	if err := m.Advise(unix.MADV_SEQUENTIAL); err != nil {
		return nil, err
	}

	data := m.Data()
	var header fileHeader
	if err := header.UnmarshalBytes(data); err != nil {
		return nil, fmt.Errorf("fileHeader.UnmarshalBytes: %w", err)
	}
	if want := uint64(fileHeaderSize) + header.payloadLen; uint64(len(data)) != want {
		return nil, fmt.Errorf("data file length %d, header describes %d -- truncated or corrupted", len(data), want)
	}

	return &MmapReader{
		h:    header,
		mmap: m,
	}, nil
}

// BitLen returns the vector length recorded in the header.
func (r *MmapReader) BitLen() uint64 { return r.h.bitLen }

// Ones returns the number of set bits recorded in the header.
func (r *MmapReader) Ones() uint64 { return r.h.ones }

// Payload returns the payload after verifying its checksum.  The bytes are
// only valid until Close.
func (r *MmapReader) Payload() ([]byte, error) {
	payload := r.mmap.Data()[fileHeaderSize:]
	if sum := Checksum(payload); sum != r.h.checksum {
		return nil, fmt.Errorf("payload checksum %x, expected %x -- corrupted", sum, r.h.checksum)
	}
	return payload, nil
}

func (r *MmapReader) Close() error {
	return r.mmap.Close()
}
