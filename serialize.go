// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bpowers/bitvector/internal/bitutil"
	"github.com/bpowers/bitvector/internal/leaf"
	"github.com/bpowers/bitvector/internal/static"
)

const (
	sizeHeaderLen = 8
	// loadChunkWords bounds how much is allocated ahead of the bytes
	// actually read, so a corrupt length fails as a short read.
	loadChunkWords = 1 << 16
)

// words returns the flat bit array of a leaf or static root.
func (h *Hybrid) words() []uint64 {
	switch h.kind {
	case kindLeaf:
		return h.leaf.Words()
	case kindStatic:
		return h.static.Words()
	}
	panic(h.invalid())
}

// SerializedSize returns the number of bytes Serialize writes.
func (h *Hybrid) SerializedSize() int64 {
	return sizeHeaderLen + int64(bitutil.WordsFor(h.Len()))*8
}

// Serialize writes the vector as its length in bits followed by the bit
// array, all little endian.  A dynamic vector is flattened first.
func (h *Hybrid) Serialize(w io.Writer) (int64, error) {
	if h.kind == kindDynamic {
		h.flatten()
	}
	n := h.Len()
	words := h.words()
	buf := make([]byte, 0, sizeHeaderLen+len(words)*8)
	buf = binary.LittleEndian.AppendUint64(buf, n)
	for _, word := range words {
		buf = binary.LittleEndian.AppendUint64(buf, word)
	}
	written, err := w.Write(buf)
	if err != nil {
		return int64(written), fmt.Errorf("Serialize: %w", err)
	}
	if written != len(buf) {
		return int64(written), fmt.Errorf("Serialize: %w of %d bytes (wanted %d)", ErrShortWrite, written, len(buf))
	}
	return int64(written), nil
}

// Load replaces the contents of h with a vector read in the Serialize
// format, keeping the options h was created with.  On error h is left
// unchanged.
func (h *Hybrid) Load(r io.Reader) error {
	var header [sizeHeaderLen]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("Load: %w of %d bytes (wanted %d): %w", ErrShortRead, n, sizeHeaderLen, err)
	}
	size := binary.LittleEndian.Uint64(header[:])
	total := bitutil.WordsFor(size)

	var data []uint64
	chunk := make([]byte, 0, min(total, loadChunkWords)*8)
	for remaining := total; remaining > 0; {
		k := min(remaining, loadChunkWords)
		chunk = chunk[:k*8]
		if n, err := io.ReadFull(r, chunk); err != nil {
			read := (total-remaining)*8 + uint64(n)
			return fmt.Errorf("Load: %w of %d bytes (wanted %d): %w", ErrShortRead, sizeHeaderLen+read, sizeHeaderLen+total*8, err)
		}
		for off := 0; off < len(chunk); off += 8 {
			data = append(data, binary.LittleEndian.Uint64(chunk[off:]))
		}
		remaining -= k
	}

	var loaded *Hybrid
	if size > h.s.newLeafBits {
		loaded = h.s.newStatic(static.New(data, size))
	} else {
		loaded = h.s.newLeaf(leaf.FromBits(h.s.LeafWords, data, size))
	}
	h.replace(loaded)
	return nil
}

// Decode reads a vector written by Serialize.
func Decode(r io.Reader, opts ...Option) (*Hybrid, error) {
	h, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := h.Load(r); err != nil {
		return nil, err
	}
	return h, nil
}
