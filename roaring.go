// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"fmt"
	"iter"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/bpowers/bitvector/internal/bitutil"
)

// SetBits returns an iterator over the positions of the set bits, in
// increasing order.  The vector must not be modified during iteration.
func (h *Hybrid) SetBits() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for p := h.Next1(0); p >= 0; p = h.Next1(uint64(p) + 1) {
			if !yield(uint64(p)) {
				return
			}
		}
	}
}

// ToBitmap returns the positions of the set bits as a roaring bitmap.  Only
// vectors addressable with 32-bit positions can be converted.
func (h *Hybrid) ToBitmap() (*roaring.Bitmap, error) {
	if h.Len() > math.MaxUint32+1 {
		return nil, fmt.Errorf("ToBitmap: %w: %d bits", ErrTooLarge, h.Len())
	}
	rb := roaring.New()
	for p := range h.SetBits() {
		rb.Add(uint32(p))
	}
	return rb, nil
}

// FromBitmap returns an n-bit vector with the positions in rb set.
func FromBitmap(rb *roaring.Bitmap, n uint64, opts ...Option) (*Hybrid, error) {
	if !rb.IsEmpty() && uint64(rb.Maximum()) >= n {
		return nil, fmt.Errorf("FromBitmap: position %d does not fit in %d bits", rb.Maximum(), n)
	}
	words := make([]uint64, bitutil.WordsFor(n))
	it := rb.Iterator()
	for it.HasNext() {
		bitutil.Put(words, uint64(it.Next()), true)
	}
	return FromWords(words, n, opts...)
}
