// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"github.com/gogpu/cells/loop"
	"github.com/gogpu/gpucontext"
)

// MapKey translates a host key into a frame loop key.
func MapKey(k gpucontext.Key) loop.Key {
	switch k {
	case gpucontext.KeyEscape:
		return loop.KeyEscape
	case gpucontext.KeySpace:
		return loop.KeySpace
	case gpucontext.KeyN:
		return loop.KeyStep
	default:
		return loop.KeyOther
	}
}

// SizeTracker turns the size a host reports on every draw into resize
// events, one per change.
type SizeTracker struct {
	width, height uint32
	scale         float64
}

// Observe returns a resize event when width or height differ from the last
// observation. Non-positive sizes (a minimized window) are reported too;
// the frame loop ignores them.
func (t *SizeTracker) Observe(width, height int) (loop.Event, bool) {
	w, h := uint32(max(width, 0)), uint32(max(height, 0))
	if w == t.width && h == t.height {
		return loop.Event{}, false
	}
	t.width, t.height = w, h
	return loop.Resize(w, h), true
}

// ObserveScale returns a scale change event when the content scale moved.
func (t *SizeTracker) ObserveScale(scale float64) (loop.Event, bool) {
	if scale == t.scale || scale <= 0 {
		return loop.Event{}, false
	}
	first := t.scale == 0
	t.scale = scale
	if first {
		return loop.Event{}, false
	}
	return loop.ScaleChange(scale, t.width, t.height), true
}
