// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command cells runs a life-like cellular automaton on the GPU and draws it
// into a window, or headless into an offscreen target.
//
// Usage:
//
//	cells [flags]
//
// Keys: Space pauses, N steps once while paused, Escape quits.
//
// Exit status is 0 on a graceful close, 1 on a configuration or device
// error and 2 on invalid flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/cells"
	_ "github.com/gogpu/cells/backend/native" // Register the native backend
	_ "github.com/gogpu/cells/backend/soft"   // Register the software backend
	"github.com/gogpu/cells/internal/app"
	_ "github.com/gogpu/wgpu/hal/vulkan" // Register the Vulkan HAL for headless runs
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := app.NewConfig()
	fs := flag.NewFlagSet("cells", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "cells:", err)
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	cells.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	if cfg.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = app.RunHeadless(ctx, cfg)
		stop()
	} else {
		err = app.RunWindow(cfg)
	}
	if err != nil {
		cells.Logger().Error("cells: exiting", "err", err)
		return 1
	}
	return 0
}
