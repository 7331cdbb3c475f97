// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bpowers/bitvector"
)

var InfoCmd = cli.Command{
	Action:    doInfo,
	Name:      "info",
	Usage:     "print the shape of a bitvector file",
	ArgsUsage: "<file>",
}

func doInfo(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("missing file parameter")
	}
	h, err := bitvector.Open(ctx.Args().Get(0), bitvector.WithLogger(newLogger(ctx)))
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	fmt.Fprintf(w, "length: %d\n", h.Len())
	fmt.Fprintf(w, "ones:   %d\n", h.Ones())
	fmt.Fprintf(w, "type:   %s\n", h.Type())
	fmt.Fprintf(w, "leaves: %d\n", h.Leaves())
	fmt.Fprintf(w, "space:  %d words\n", h.Space())
	return nil
}
