//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Surface implements gpucore.Surface over a hal swapchain.
type Surface struct {
	dev     *Device
	surface hal.Surface
	owned   bool

	configured bool

	// Current acquired texture, valid between Acquire and Present.
	tex  hal.SurfaceTexture
	view hal.TextureView
	id   gpucore.TextureViewID
}

// NewSurface wraps a hal surface created on the same instance as dev. When
// owned is true Release also destroys the hal surface.
func NewSurface(dev *Device, surface hal.Surface, owned bool) *Surface {
	return &Surface{dev: dev, surface: surface, owned: owned}
}

// Configure (re)creates the swapchain with FIFO presentation.
func (s *Surface) Configure(cfg gpucore.SurfaceConfig) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("native: configure %dx%d: %w", cfg.Width, cfg.Height, cells.ErrSurfaceOutdated)
	}
	format, err := convertTextureFormat(cfg.Format)
	if err != nil {
		return err
	}
	s.discard()
	err = s.surface.Configure(s.dev.device, &hal.SurfaceConfiguration{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: gputypes.PresentModeFifo,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	})
	if err != nil {
		s.configured = false
		return fmt.Errorf("native: configure surface: %w", mapError(err))
	}
	s.configured = true
	return nil
}

// Acquire returns a view of the next swapchain texture.
func (s *Surface) Acquire() (gpucore.TextureViewID, error) {
	if !s.configured {
		return gpucore.InvalidID, fmt.Errorf("native: surface not configured: %w", cells.ErrSurfaceOutdated)
	}
	if s.tex != nil {
		return gpucore.InvalidID, cells.ErrFrameOutstanding
	}

	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: acquire: %w", mapError(err))
	}
	if acquired.Suboptimal {
		cells.Logger().Debug("native: suboptimal surface texture")
	}

	view, err := s.dev.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:     "surface-view",
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return gpucore.InvalidID, fmt.Errorf("native: surface view: %w", mapError(err))
	}

	s.tex = acquired.Texture
	s.view = view
	s.id = s.dev.RegisterView(view)
	return s.id, nil
}

// Present queues the acquired texture for display.
func (s *Surface) Present(view gpucore.TextureViewID) error {
	if s.tex == nil || view != s.id {
		return fmt.Errorf("native: present of view %d that was not acquired", view)
	}
	tex := s.tex
	s.releaseView()
	s.tex = nil
	if err := s.dev.queue.Present(s.surface, tex, nil); err != nil {
		return fmt.Errorf("native: present: %w", mapError(err))
	}
	return nil
}

// Release discards any acquired texture and unconfigures the swapchain.
func (s *Surface) Release() {
	s.discard()
	if s.configured {
		s.surface.Unconfigure(s.dev.device)
		s.configured = false
	}
	if s.owned {
		s.surface.Destroy()
		s.owned = false
	}
}

func (s *Surface) discard() {
	if s.tex == nil {
		return
	}
	s.releaseView()
	s.surface.DiscardTexture(s.tex)
	s.tex = nil
}

func (s *Surface) releaseView() {
	s.dev.ReleaseView(s.id)
	s.dev.device.DestroyTextureView(s.view)
	s.view = nil
	s.id = gpucore.InvalidID
}

var _ gpucore.Surface = (*Surface)(nil)
