// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuhost connects the frame loop to a gogpu window.
//
// The window owns the GPU device and the swapchain. The frame loop borrows
// both: backend/native.FromProvider wraps the window's device, and Surface
// lends each frame's swapchain view to render.Context for the duration of
// one draw callback:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    surface.SetFrame(gogpuhost.ViewOf(dc.SurfaceView()), w, h)
//	    defer surface.ClearFrame()
//	    controller.Tick()
//	})
//
// The package depends on gpucontext only, not on gogpu, so it can be used
// with any host that implements the same contracts.
package gogpuhost
