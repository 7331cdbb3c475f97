// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"github.com/dgryski/go-farm"
)

// checksumChunkSize is the granularity of the payload checksum.  Each chunk
// is hashed with the previous chunk's hash as its seed, so the payload can
// be checksummed while streaming.
const checksumChunkSize = 64 * 1024

type chunkHash struct {
	sum uint64
	buf []byte
}

func newChunkHash() *chunkHash {
	return &chunkHash{buf: make([]byte, 0, checksumChunkSize)}
}

func (c *chunkHash) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		k := min(len(p), checksumChunkSize-len(c.buf))
		c.buf = append(c.buf, p[:k]...)
		p = p[k:]
		if len(c.buf) == checksumChunkSize {
			c.sum = farm.Hash64WithSeed(c.buf, c.sum)
			c.buf = c.buf[:0]
		}
	}
	return n, nil
}

func (c *chunkHash) Sum64() uint64 {
	if len(c.buf) > 0 {
		return farm.Hash64WithSeed(c.buf, c.sum)
	}
	return c.sum
}

// Checksum returns the payload checksum stored in file headers.
func Checksum(payload []byte) uint64 {
	var sum uint64
	for len(payload) >= checksumChunkSize {
		sum = farm.Hash64WithSeed(payload[:checksumChunkSize], sum)
		payload = payload[checksumChunkSize:]
	}
	if len(payload) > 0 {
		sum = farm.Hash64WithSeed(payload, sum)
	}
	return sum
}
