// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/internal/app"
)

// requireSoftPipeline skips when the soft backend cannot build the step
// and present pipelines on this naga version.
func requireSoftPipeline(t *testing.T) {
	t.Helper()
	cfg := app.NewConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.GridWidth, cfg.GridHeight = 8, 8
	cfg.Headless, cfg.Frames, cfg.Backend = true, 1, app.BackendSoft
	err := app.RunHeadless(context.Background(), cfg)
	if err != nil && (strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported")) {
		t.Skipf("Skipping: naga feature not yet implemented: %v", err)
	}
}

func TestRunExitCodes(t *testing.T) {
	t.Cleanup(func() { cells.SetLogger(nil) })
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	small := []string{"-width", "16", "-height", "16", "-grid-width", "8", "-grid-height", "8"}

	tests := []struct {
		name     string
		args     []string
		want     int
		pipeline bool
	}{
		{"headless run", append([]string{"-headless", "-backend", "soft", "-frames", "2", "-out", out}, small...), 0, true},
		{"help", []string{"-h"}, 0, false},
		{"unknown flag", []string{"-bogus"}, 2, false},
		{"unknown stamp", []string{"-stamp", "nope"}, 2, false},
		{"bad rule", []string{"-rule", "B3/B23"}, 2, false},
		{"missing pattern", append([]string{"-headless", "-backend", "soft", "-pattern", filepath.Join(dir, "nonexistent.png")}, small...), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pipeline {
				requireSoftPipeline(t)
			}
			if got := run(tt.args); got != tt.want {
				t.Fatalf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
			if tt.pipeline {
				if _, err := os.Stat(out); err != nil {
					t.Errorf("headless run wrote no snapshot: %v", err)
				}
			}
		})
	}
}
