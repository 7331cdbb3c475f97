// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"errors"
	"fmt"
)

var (
	ErrShortRead     = errors.New("short read")
	ErrShortWrite    = errors.New("short write")
	ErrInvalidConfig = errors.New("invalid config")
	ErrTooLarge      = errors.New("bitvector too large")
)

// ContractError is the panic value used when a caller violates an
// operation's preconditions, such as indexing past the end of the vector.
type ContractError struct {
	Op    string
	Index uint64
	Bound uint64
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("bitvector.%s: index %d out of range [0, %d)", e.Op, e.Index, e.Bound)
}

func checkIndex(op string, i, bound uint64) {
	if i >= bound {
		panic(&ContractError{Op: op, Index: i, Bound: bound})
	}
}

// checkRange panics unless [i, i+n) lies within [0, bound).
func checkRange(op string, i, n, bound uint64) {
	if n > 0 && (i >= bound || n > bound-i) {
		panic(&ContractError{Op: op, Index: i, Bound: bound})
	}
}
