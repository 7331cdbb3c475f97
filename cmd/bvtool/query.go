// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/bpowers/bitvector"
)

var QueryCmd = cli.Command{
	Action:    doQuery,
	Name:      "query",
	Usage:     "run access, rank, select or next queries against a bitvector file",
	ArgsUsage: "<file> <access|rank1|rank0|select1|select0|next1|next0> <arg>...",
}

type query func(h *bitvector.Hybrid, arg uint64) (string, error)

var queries = map[string]query{
	"access": func(h *bitvector.Hybrid, i uint64) (string, error) {
		if i >= h.Len() {
			return "", fmt.Errorf("position %d out of range [0, %d)", i, h.Len())
		}
		if h.At(i) {
			return "1", nil
		}
		return "0", nil
	},
	"rank1": func(h *bitvector.Hybrid, i uint64) (string, error) {
		if i >= h.Len() {
			return "", fmt.Errorf("position %d out of range [0, %d)", i, h.Len())
		}
		return strconv.FormatUint(h.Rank1(i), 10), nil
	},
	"rank0": func(h *bitvector.Hybrid, i uint64) (string, error) {
		if i >= h.Len() {
			return "", fmt.Errorf("position %d out of range [0, %d)", i, h.Len())
		}
		return strconv.FormatUint(h.Rank0(i), 10), nil
	},
	"select1": func(h *bitvector.Hybrid, j uint64) (string, error) {
		if j >= h.Ones() {
			return "", fmt.Errorf("only %d ones", h.Ones())
		}
		return strconv.FormatUint(h.Select1(j), 10), nil
	},
	"select0": func(h *bitvector.Hybrid, j uint64) (string, error) {
		if zeros := h.Len() - h.Ones(); j >= zeros {
			return "", fmt.Errorf("only %d zeros", zeros)
		}
		return strconv.FormatUint(h.Select0(j), 10), nil
	},
	"next1": func(h *bitvector.Hybrid, i uint64) (string, error) {
		return strconv.FormatInt(h.Next1(i), 10), nil
	},
	"next0": func(h *bitvector.Hybrid, i uint64) (string, error) {
		return strconv.FormatInt(h.Next0(i), 10), nil
	},
}

func doQuery(ctx *cli.Context) error {
	args := ctx.Args()
	if args.Len() < 3 {
		return fmt.Errorf("expected a file, an operation and at least one argument")
	}
	op := args.Get(1)
	q, ok := queries[op]
	if !ok {
		return fmt.Errorf("unknown operation %q", op)
	}
	h, err := bitvector.Open(args.Get(0), bitvector.WithLogger(newLogger(ctx)))
	if err != nil {
		return err
	}
	for _, s := range args.Slice()[2:] {
		arg, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("bad argument %q: %w", s, err)
		}
		result, err := q(h, arg)
		if err != nil {
			return fmt.Errorf("%s(%d): %w", op, arg, err)
		}
		fmt.Fprintf(ctx.App.Writer, "%s(%d) = %s\n", op, arg, result)
	}
	return nil
}
