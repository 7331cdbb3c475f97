// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/bpowers/bitvector/internal/bitutil"
)

// Config holds the tunables that decide when a vector changes
// representation.  It is fixed when a vector is constructed and shared by
// every node of that vector.
type Config struct {
	// Theta is the fraction of a dynamic subtree's size that must be read
	// without intervening updates before it is flattened.
	Theta float64
	// Epsilon bounds the size of a flattenable subtree relative to the
	// whole vector.
	Epsilon float64
	// LeafWords is the capacity of a leaf, in 64-bit words.
	LeafWords int
	// NewFraction is the fill of a freshly cut leaf relative to LeafWords.
	NewFraction float64
	// TransferFactor is the smallest transfer between sibling leaves,
	// relative to the leaf capacity.
	TransferFactor float64
	// Alpha is the largest share of a node one child may hold before the
	// node is rebalanced.
	Alpha float64
	// MinLeavesToBalance is the size, in full leaves, below which a node is
	// never rebalanced.
	MinLeavesToBalance int
	// MinFillFactor is the average leaf fill below which a node is
	// flattened after a removal.
	MinFillFactor float64

	Logger *slog.Logger
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		Theta:              0.01,
		Epsilon:            0.1,
		LeafWords:          32,
		NewFraction:        0.75,
		TransferFactor:     0.125,
		Alpha:              0.65,
		MinLeavesToBalance: 5,
		MinFillFactor:      0.3,
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a vector at construction.
type Option func(*Config)

// WithTheta sets the read-to-size ratio that triggers flattening.
func WithTheta(theta float64) Option {
	return func(c *Config) { c.Theta = theta }
}

// WithEpsilon sets the largest subtree, as a fraction of the vector, that
// may be flattened.
func WithEpsilon(eps float64) Option {
	return func(c *Config) { c.Epsilon = eps }
}

// WithLeafWords sets the leaf capacity in 64-bit words.
func WithLeafWords(words int) Option {
	return func(c *Config) { c.LeafWords = words }
}

// WithNewFraction sets how full a freshly cut leaf is, as a fraction of its capacity.
func WithNewFraction(f float64) Option {
	return func(c *Config) { c.NewFraction = f }
}

// WithTransferFactor sets the smallest move between sibling leaves, as a fraction of leaf capacity.
func WithTransferFactor(f float64) Option {
	return func(c *Config) { c.TransferFactor = f }
}

// WithAlpha sets the largest share of a node one child may hold before it is rebalanced.
func WithAlpha(alpha float64) Option {
	return func(c *Config) { c.Alpha = alpha }
}

// WithMinLeavesToBalance sets the size, in full leaves, below which a node is never rebalanced.
func WithMinLeavesToBalance(n int) Option {
	return func(c *Config) { c.MinLeavesToBalance = n }
}

// WithMinFillFactor sets the average leaf fill below which a node is flattened after a removal.
func WithMinFillFactor(f float64) Option {
	return func(c *Config) { c.MinFillFactor = f }
}

// WithLogger sets an optional logger that receives representation changes
// at debug level.  If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// Validate reports whether the tunables describe a usable vector.
func (c *Config) Validate() error {
	switch {
	case c.LeafWords <= 0:
		return fmt.Errorf("%w: LeafWords must be positive, got %d", ErrInvalidConfig, c.LeafWords)
	case c.NewFraction <= 0 || c.NewFraction >= 1:
		return fmt.Errorf("%w: NewFraction must be in (0, 1), got %v", ErrInvalidConfig, c.NewFraction)
	case math.Floor(float64(c.LeafWords)*c.NewFraction) < 1:
		return fmt.Errorf("%w: LeafWords*NewFraction must be at least one word", ErrInvalidConfig)
	case c.Alpha <= 0.5 || c.Alpha >= 1:
		return fmt.Errorf("%w: Alpha must be in (0.5, 1), got %v", ErrInvalidConfig, c.Alpha)
	case c.Theta < 0:
		return fmt.Errorf("%w: Theta must not be negative, got %v", ErrInvalidConfig, c.Theta)
	case c.Epsilon < 0:
		return fmt.Errorf("%w: Epsilon must not be negative, got %v", ErrInvalidConfig, c.Epsilon)
	case c.TransferFactor < 0 || c.TransferFactor >= 1:
		return fmt.Errorf("%w: TransferFactor must be in [0, 1), got %v", ErrInvalidConfig, c.TransferFactor)
	case c.MinLeavesToBalance < 1:
		return fmt.Errorf("%w: MinLeavesToBalance must be positive, got %d", ErrInvalidConfig, c.MinLeavesToBalance)
	case c.MinFillFactor < 0 || c.MinFillFactor > c.NewFraction/2:
		return fmt.Errorf("%w: MinFillFactor must be in [0, NewFraction/2], got %v", ErrInvalidConfig, c.MinFillFactor)
	case c.Logger == nil:
		return fmt.Errorf("%w: Logger must not be nil", ErrInvalidConfig)
	}
	return nil
}

// settings are the validated tunables plus the bit thresholds derived from
// them.
type settings struct {
	Config
	maxLeafBits    uint64
	newLeafBits    uint64
	minTransfer    uint64
	minBalanceBits uint64
}

func newSettings(opts []Option) (*settings, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxLeafBits := uint64(cfg.LeafWords) * bitutil.WordBits
	return &settings{
		Config:         cfg,
		maxLeafBits:    maxLeafBits,
		newLeafBits:    uint64(math.Floor(float64(cfg.LeafWords)*cfg.NewFraction)) * bitutil.WordBits,
		minTransfer:    uint64(float64(maxLeafBits) * cfg.TransferFactor),
		minBalanceBits: uint64(cfg.MinLeavesToBalance) * maxLeafBits,
	}, nil
}

// mustFlatten reports whether a dynamic node of the given size, read
// accesses times since its last update, should be flattened in a vector of
// rootSize bits.
func (s *settings) mustFlatten(size, accesses, rootSize uint64) bool {
	return float64(size) <= s.Epsilon*float64(rootSize) &&
		float64(accesses) >= s.Theta*float64(size)
}

// canBalance reports whether splitting n bits into new-size leaves would
// leave both halves within Alpha once dl and dr bits are added to the left
// and right halves.
func (s *settings) canBalance(n uint64, dl, dr int64) bool {
	b := s.newLeafBits
	left := ((n + b - 1) / b / 2) * b
	right := n - left
	total := s.Alpha * float64(int64(n)+dl+dr)
	if float64(int64(left)+dl) > total || float64(int64(right)+dr) > total {
		return false
	}
	return true
}
