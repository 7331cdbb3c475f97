// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bpowers/bitvector/internal/bitutil"
	"github.com/bpowers/bitvector/internal/datafile"
)

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger  *slog.Logger
	options []Option
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// WithVectorOptions sets the options used for the vector returned by
// Finalize.
func WithVectorOptions(opts ...Option) BuilderOption {
	return func(o *builderOptions) {
		o.options = append(o.options, opts...)
	}
}

// Builder accumulates bits in order and writes them to a bitvector file.
type Builder struct {
	resultPath string
	dataFile   *os.File
	words      []uint64
	n          uint64
	logger     *slog.Logger
	options    []Option
}

// NewBuilder creates a Builder that writes to dataFilePath on Finalize.
// Building should happen once.
func NewBuilder(dataFilePath string, opts ...BuilderOption) (*Builder, error) {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}
	// fail on validation errors before any file is created
	if _, err := newSettings(options.options); err != nil {
		return nil, err
	}
	dataFilePath, dataFile, err := createTemp(dataFilePath)
	if err != nil {
		return nil, err
	}
	return &Builder{
		resultPath: dataFilePath,
		dataFile:   dataFile,
		logger:     options.logger,
		options:    options.options,
	}, nil
}

// createTemp creates a temporary file next to path, so that it can later be
// renamed over path atomically.
func createTemp(path string) (string, *os.File, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "bitvector-builder.*.data")
	if err != nil {
		return "", nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q containing dataFile): %w", dir, err)
	}
	return path, f, nil
}

// Len returns the number of bits pushed so far.
func (b *Builder) Len() uint64 { return b.n }

// Push appends a single bit.
func (b *Builder) Push(v bool) {
	w, off := bitutil.Offsets(b.n)
	if w == uint64(len(b.words)) {
		b.words = append(b.words, 0)
	}
	if v {
		b.words[w] |= 1 << off
	}
	b.n++
}

// PushWord appends the low nbits bits of word, lowest bit first.
func (b *Builder) PushWord(word uint64, nbits uint) {
	if nbits > bitutil.WordBits {
		panic(fmt.Sprintf("PushWord: %d bits do not fit in a word", nbits))
	}
	end := b.n + uint64(nbits)
	for uint64(len(b.words)) < bitutil.WordsFor(end) {
		b.words = append(b.words, 0)
	}
	src := [1]uint64{word}
	bitutil.CopyBits(b.words, b.n, src[:], 0, uint64(nbits))
	b.n = end
}

// Finalize writes the file and returns the finished vector.
func (b *Builder) Finalize() (*Hybrid, error) {
	if b.dataFile == nil {
		return nil, fmt.Errorf("Finalize: builder already finalized")
	}
	f := b.dataFile
	b.dataFile = nil

	h, err := FromWords(b.words, b.n, b.options...)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	b.words = nil
	b.logger.Info("writing bitvector", "path", b.resultPath, "bits", h.Len(), "ones", h.Ones())
	if err := commit(f, b.resultPath, h); err != nil {
		return nil, err
	}
	b.logger.Info("finished bitvector", "path", b.resultPath, "bytes", h.SerializedSize())
	return h, nil
}

// WriteFile atomically writes h to path in the bitvector file format.
func WriteFile(path string, h *Hybrid) error {
	path, f, err := createTemp(path)
	if err != nil {
		return err
	}
	return commit(f, path, h)
}

// commit writes h to the temporary file f, makes it read-only and renames
// it to resultPath.  f is closed, and removed on error.
func commit(f *os.File, resultPath string, h *Hybrid) error {
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	w, err := datafile.NewWriter(f)
	if err != nil {
		return fail(fmt.Errorf("datafile.NewWriter: %w", err))
	}
	if _, err := h.Serialize(w); err != nil {
		return fail(fmt.Errorf("Serialize: %w", err))
	}
	if err := w.Finish(h.Len(), h.Ones()); err != nil {
		return fail(fmt.Errorf("datafile.Finish: %w", err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("f.Sync: %w", err))
	}
	if err := f.Close(); err != nil {
		return fail(fmt.Errorf("f.Close: %w", err))
	}
	// make the file read-only
	if err := os.Chmod(f.Name(), 0444); err != nil {
		return fail(fmt.Errorf("os.Chmod(0444): %w", err))
	}
	if err := os.Rename(f.Name(), resultPath); err != nil {
		return fail(fmt.Errorf("os.Rename: %w", err))
	}
	return nil
}
