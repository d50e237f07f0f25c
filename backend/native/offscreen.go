//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// OffscreenSurface renders into a device texture instead of a window. It
// backs headless runs on a real GPU; Present only returns the view.
type OffscreenSurface struct {
	dev  *Device
	tex  hal.Texture
	view hal.TextureView
	id   gpucore.TextureViewID
	cfg  gpucore.SurfaceConfig

	acquired bool
}

// NewOffscreenSurface returns an unconfigured offscreen surface.
func NewOffscreenSurface(dev *Device) *OffscreenSurface {
	return &OffscreenSurface{dev: dev}
}

// Configure recreates the render texture when the size or format changes.
func (s *OffscreenSurface) Configure(cfg gpucore.SurfaceConfig) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("native: offscreen %dx%d: %w", cfg.Width, cfg.Height, cells.ErrSurfaceOutdated)
	}
	format, err := convertTextureFormat(cfg.Format)
	if err != nil {
		return err
	}
	if s.tex != nil && cfg == s.cfg {
		return nil
	}
	s.destroyTarget()

	tex, err := s.dev.device.CreateTexture(&hal.TextureDescriptor{
		Label: "offscreen-target",
		Size: hal.Extent3D{
			Width:              cfg.Width,
			Height:             cfg.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("native: offscreen texture: %w", mapError(err))
	}
	view, err := s.dev.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     "offscreen-view",
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		s.dev.device.DestroyTexture(tex)
		return fmt.Errorf("native: offscreen view: %w", mapError(err))
	}
	s.tex, s.view, s.cfg = tex, view, cfg
	s.id = s.dev.RegisterView(view)
	return nil
}

// Acquire returns the single offscreen view.
func (s *OffscreenSurface) Acquire() (gpucore.TextureViewID, error) {
	if s.tex == nil {
		return gpucore.InvalidID, fmt.Errorf("native: offscreen not configured: %w", cells.ErrSurfaceOutdated)
	}
	if s.acquired {
		return gpucore.InvalidID, cells.ErrFrameOutstanding
	}
	s.acquired = true
	return s.id, nil
}

// Present returns the view to the surface.
func (s *OffscreenSurface) Present(view gpucore.TextureViewID) error {
	if !s.acquired || view != s.id {
		return fmt.Errorf("native: present of view %d that was not acquired", view)
	}
	s.acquired = false
	return nil
}

// Release destroys the render texture.
func (s *OffscreenSurface) Release() {
	s.destroyTarget()
}

func (s *OffscreenSurface) destroyTarget() {
	if s.tex == nil {
		return
	}
	s.dev.ReleaseView(s.id)
	s.dev.device.DestroyTextureView(s.view)
	s.dev.device.DestroyTexture(s.tex)
	s.tex, s.view, s.id = nil, nil, gpucore.InvalidID
	s.acquired = false
}

var _ gpucore.Surface = (*OffscreenSurface)(nil)
