// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gogpuhost

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/backend/native"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
)

// Surface is a gpucore.Surface over the swapchain of a host window. The host
// acquires and presents the texture itself; Surface only lends the current
// frame's view to the frame loop.
//
// Call SetFrame at the start of every draw callback and ClearFrame when it
// returns.
type Surface struct {
	dev *native.Device

	view   hal.TextureView
	width  uint32
	height uint32
	cfg    gpucore.SurfaceConfig

	id         gpucore.TextureViewID
	configures int
}

// NewSurface returns a surface lending host views to dev.
func NewSurface(dev *native.Device) *Surface {
	return &Surface{dev: dev}
}

// SetFrame records the view and size of the frame being drawn. A nil view
// makes the next Acquire fail with ErrSurfaceOutdated.
func (s *Surface) SetFrame(view hal.TextureView, width, height uint32) {
	s.view, s.width, s.height = view, width, height
}

// ClearFrame forgets the current view. A view still acquired is released.
func (s *Surface) ClearFrame() {
	s.release()
	s.view = nil
}

// Configure records the size the frame loop expects. The host owns the
// real swapchain, so a mismatch with the host's frame is reported as
// outdated on the next Acquire.
func (s *Surface) Configure(cfg gpucore.SurfaceConfig) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("gogpuhost: surface size %dx%d: %w", cfg.Width, cfg.Height, cells.ErrSurfaceOutdated)
	}
	s.release()
	s.cfg = cfg
	s.configures++
	return nil
}

// Configures returns how many times Configure succeeded.
func (s *Surface) Configures() int { return s.configures }

// Acquire registers the host view with the device.
func (s *Surface) Acquire() (gpucore.TextureViewID, error) {
	if s.view == nil {
		return gpucore.InvalidID, fmt.Errorf("gogpuhost: no host frame: %w", cells.ErrSurfaceOutdated)
	}
	if s.width != s.cfg.Width || s.height != s.cfg.Height {
		return gpucore.InvalidID, fmt.Errorf("gogpuhost: host frame %dx%d, configured %dx%d: %w",
			s.width, s.height, s.cfg.Width, s.cfg.Height, cells.ErrSurfaceOutdated)
	}
	if s.id != gpucore.InvalidID {
		return gpucore.InvalidID, cells.ErrFrameOutstanding
	}
	s.id = s.dev.RegisterView(s.view)
	return s.id, nil
}

// Present releases the view. The host presents after its draw callback.
func (s *Surface) Present(view gpucore.TextureViewID) error {
	if view == gpucore.InvalidID || view != s.id {
		return fmt.Errorf("gogpuhost: present of view %d that was not acquired", view)
	}
	s.release()
	return nil
}

// Release forgets the current frame.
func (s *Surface) Release() {
	s.ClearFrame()
}

func (s *Surface) release() {
	if s.id != gpucore.InvalidID {
		s.dev.ReleaseView(s.id)
		s.id = gpucore.InvalidID
	}
}

// ViewOf unwraps the surface view a host hands to its draw callback. It
// accepts the gpucontext handle, a *wgpu.TextureView, or a raw hal view,
// and returns nil for anything else or an empty handle.
func ViewOf(v any) hal.TextureView {
	switch tv := v.(type) {
	case nil:
		return nil
	case gpucontext.TextureView:
		return native.HostView(tv)
	case *wgpu.TextureView:
		if tv == nil {
			return nil
		}
		return tv.HalTextureView()
	case hal.TextureView:
		return tv
	}
	return nil
}

var _ gpucore.Surface = (*Surface)(nil)
