// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v2"

	"github.com/bpowers/bitvector"
)

var (
	bitsFlag = cli.Uint64Flag{
		Name:  "bits",
		Usage: "number of bits to generate",
		Value: 1 << 20,
	}
	densityFlag = cli.Float64Flag{
		Name:  "density",
		Usage: "probability of each bit being set",
		Value: 0.5,
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "random seed, chosen at random if zero",
		Value: 0,
	}
)

var GenCmd = cli.Command{
	Action:    doGen,
	Name:      "gen",
	Usage:     "write a file of random bits",
	ArgsUsage: "<output file>",
	Flags: []cli.Flag{
		&bitsFlag,
		&densityFlag,
		&seedFlag,
	},
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

func doGen(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("missing output file parameter")
	}
	density := ctx.Float64(densityFlag.Name)
	if density < 0 || density > 1 {
		return fmt.Errorf("--%s must be in [0, 1], got %v", densityFlag.Name, density)
	}

	logger := newLogger(ctx)
	b, err := bitvector.NewBuilder(ctx.Args().Get(0),
		bitvector.WithBuilderLogger(logger),
		bitvector.WithVectorOptions(bitvector.WithLogger(logger)))
	if err != nil {
		return err
	}

	rng := newRand(ctx.Int64(seedFlag.Name))
	n := ctx.Uint64(bitsFlag.Name)
	for i := uint64(0); i < n; i++ {
		b.Push(rng.Float64() < density)
	}
	h, err := b.Finalize()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "wrote %d bits (%d ones)\n", h.Len(), h.Ones())
	return nil
}
