// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package datafile implements the on-disk container for a serialized
// bitvector: a fixed-size header describing and checksumming the payload,
// followed by the payload itself.
package datafile

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magicDataHeader   = 0xC0FFEE0B
	fileFormatVersion = 1

	// make the header the minimum cache-width we expect to see
	fileHeaderSize = 128

	headerBitLenOff     = 8
	headerOnesOff       = 16
	headerPayloadLenOff = 24
	headerChecksumOff   = 32
)

type fileHeader struct {
	magic         uint32
	formatVersion uint32
	bitLen        uint64
	ones          uint64
	payloadLen    uint64
	checksum      uint64
}

func newFileHeader() *fileHeader {
	return &fileHeader{
		magic:         magicDataHeader,
		formatVersion: fileFormatVersion,
	}
}

func (h *fileHeader) MarshalTo(headerBuf []byte) error {
	if len(headerBuf) < fileHeaderSize {
		return fmt.Errorf("buffer too short: %d < %d", len(headerBuf), fileHeaderSize)
	}
	clear(headerBuf[:fileHeaderSize])
	binary.LittleEndian.PutUint32(headerBuf[:4], h.magic)
	binary.LittleEndian.PutUint32(headerBuf[4:8], h.formatVersion)
	binary.LittleEndian.PutUint64(headerBuf[headerBitLenOff:], h.bitLen)
	binary.LittleEndian.PutUint64(headerBuf[headerOnesOff:], h.ones)
	binary.LittleEndian.PutUint64(headerBuf[headerPayloadLenOff:], h.payloadLen)
	binary.LittleEndian.PutUint64(headerBuf[headerChecksumOff:], h.checksum)
	return nil
}

func (h *fileHeader) WriteTo(w io.Writer) (n int64, err error) {
	var headerBuf [fileHeaderSize]byte
	if err := h.MarshalTo(headerBuf[:]); err != nil {
		return 0, err
	}
	if _, err = w.Write(headerBuf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return int64(fileHeaderSize), nil
}

// UpdatePayload records the payload description and rewrites the header at
// the start of w.
func (h *fileHeader) UpdatePayload(bitLen, ones, payloadLen, checksum uint64, w io.WriterAt) error {
	h.bitLen = bitLen
	h.ones = ones
	h.payloadLen = payloadLen
	h.checksum = checksum

	var headerBuf [fileHeaderSize]byte
	if err := h.MarshalTo(headerBuf[:]); err != nil {
		return err
	}
	if _, err := w.WriteAt(headerBuf[:], 0); err != nil {
		return fmt.Errorf("f.WriteAt: %w", err)
	}
	return nil
}

func (h *fileHeader) UnmarshalBytes(headerBytes []byte) error {
	if len(headerBytes) < fileHeaderSize {
		return fmt.Errorf("headerBytes too short: %d < %d", len(headerBytes), fileHeaderSize)
	}

	headerBytes = headerBytes[:fileHeaderSize]

	h.magic = binary.LittleEndian.Uint32(headerBytes[:4])
	if h.magic != magicDataHeader {
		return fmt.Errorf("bad magic number on data file (%x) -- not a bitvector file or corrupted", h.magic)
	}

	h.formatVersion = binary.LittleEndian.Uint32(headerBytes[4:8])
	if h.formatVersion != fileFormatVersion {
		return fmt.Errorf("this version of the bitvector library can only read v%d data files; found v%d", fileFormatVersion, h.formatVersion)
	}

	h.bitLen = binary.LittleEndian.Uint64(headerBytes[headerBitLenOff:])
	h.ones = binary.LittleEndian.Uint64(headerBytes[headerOnesOff:])
	h.payloadLen = binary.LittleEndian.Uint64(headerBytes[headerPayloadLenOff:])
	h.checksum = binary.LittleEndian.Uint64(headerBytes[headerChecksumOff:])

	return nil
}
