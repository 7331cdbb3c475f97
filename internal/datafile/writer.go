// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const defaultBufferSize = 4 * 1024 * 1024

var errFinished = errors.New("datafile: writer already finished")

// FileWriter is usually an *os.File, but specified as an interface for easier testing.
type FileWriter interface {
	io.Writer
	io.WriterAt
}

// Writer streams a payload after a placeholder header, then fills in the
// header on Finish.
type Writer struct {
	f        FileWriter
	h        *fileHeader
	w        *bufio.Writer
	sum      *chunkHash
	n        uint64
	finished bool
}

func NewWriter(f FileWriter) (*Writer, error) {
	w := &Writer{
		f:   f,
		h:   newFileHeader(),
		w:   bufio.NewWriterSize(f, defaultBufferSize),
		sum: newChunkHash(),
	}

	if _, err := w.h.WriteTo(w.w); err != nil {
		return nil, fmt.Errorf("fileHeader.WriteTo: %w", err)
	}

	// try to expose errors when writing to the backing file early
	if err := w.w.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	return w, nil
}

// Write appends payload bytes.
func (w *Writer) Write(p []byte) (int, error) {
	if w.finished {
		return 0, errFinished
	}
	n, err := w.w.Write(p)
	_, _ = w.sum.Write(p[:n])
	w.n += uint64(n)
	return n, err
}

// Finish flushes the payload and records it in the header.
func (w *Writer) Finish(bitLen, ones uint64) error {
	if w.finished {
		return errFinished
	}
	w.finished = true
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := w.h.UpdatePayload(bitLen, ones, w.n, w.sum.Sum64(), w.f); err != nil {
		return fmt.Errorf("h.UpdatePayload: %w", err)
	}
	return nil
}
