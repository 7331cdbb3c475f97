// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./cmd/bvtool <command> <flags>

var verboseFlag = cli.BoolFlag{
	Name:  "verbose",
	Usage: "log progress and representation changes to stderr",
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bvtool",
		Usage: "create and query bitvector files",
		Flags: []cli.Flag{
			&verboseFlag,
		},
		Commands: []*cli.Command{
			&GenCmd,
			&InfoCmd,
			&QueryCmd,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(ctx *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if ctx.Bool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(ctx.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}
