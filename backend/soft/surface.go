package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
)

// swapchainLength is the number of images a configured Surface rotates
// through.
const swapchainLength = 2

// Surface is an offscreen gpucore.Surface backed by RGBA images.
type Surface struct {
	dev *Device
	cfg gpucore.SurfaceConfig

	images   [swapchainLength]*image.RGBA
	views    [swapchainLength]gpucore.TextureViewID
	next     int
	acquired gpucore.TextureViewID

	faults          []error
	configureFaults []error
	last   *image.RGBA

	configures int
	presents   int
}

// NewSurface creates an unconfigured surface rendering through dev.
func NewSurface(dev *Device) *Surface {
	return &Surface{dev: dev}
}

// Configure implements gpucore.Surface.
func (s *Surface) Configure(cfg gpucore.SurfaceConfig) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("soft: surface size %dx%d: %w", cfg.Width, cfg.Height, cells.ErrSurfaceOutdated)
	}
	switch cfg.Format {
	case gpucore.TextureFormatRGBA8Unorm, gpucore.TextureFormatBGRA8Unorm:
	default:
		return fmt.Errorf("soft: surface format %v: %w", cfg.Format, cells.ErrUnsupportedFormat)
	}
	if len(s.configureFaults) > 0 {
		err := s.configureFaults[0]
		s.configureFaults = s.configureFaults[1:]
		return err
	}
	s.Release()
	for i := range s.images {
		s.images[i] = image.NewRGBA(image.Rect(0, 0, int(cfg.Width), int(cfg.Height)))
		s.views[i] = s.dev.registerTarget(s.images[i], cfg.Format)
	}
	s.cfg = cfg
	s.next = 0
	s.configures++
	return nil
}

// Acquire implements gpucore.Surface.
func (s *Surface) Acquire() (gpucore.TextureViewID, error) {
	if len(s.faults) > 0 {
		err := s.faults[0]
		s.faults = s.faults[1:]
		return gpucore.InvalidID, err
	}
	if s.images[0] == nil {
		return gpucore.InvalidID, fmt.Errorf("soft: surface not configured: %w", cells.ErrSurfaceOutdated)
	}
	if s.acquired != gpucore.InvalidID {
		return gpucore.InvalidID, cells.ErrFrameOutstanding
	}
	s.acquired = s.views[s.next]
	return s.acquired, nil
}

// Present implements gpucore.Surface.
func (s *Surface) Present(view gpucore.TextureViewID) error {
	if view == gpucore.InvalidID || view != s.acquired {
		return errors.New("soft: present of a view that was not acquired")
	}
	img := s.images[s.next]
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	if s.cfg.Format == gpucore.TextureFormatBGRA8Unorm {
		for i := 0; i < len(out.Pix); i += 4 {
			out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
		}
	}
	s.last = out
	s.acquired = gpucore.InvalidID
	s.next = (s.next + 1) % swapchainLength
	s.presents++
	return nil
}

// Release implements gpucore.Surface.
func (s *Surface) Release() {
	for i, v := range s.views {
		if v != gpucore.InvalidID {
			s.dev.releaseTarget(v)
		}
		s.views[i] = gpucore.InvalidID
		s.images[i] = nil
	}
	s.acquired = gpucore.InvalidID
}

// FailAcquire queues err to be returned by the next Acquire. Multiple calls
// queue errors in order.
func (s *Surface) FailAcquire(err error) {
	s.faults = append(s.faults, err)
}

// FailConfigure queues err to be returned by the next Configure of a valid
// size. The previous swapchain is left in place.
func (s *Surface) FailConfigure(err error) {
	s.configureFaults = append(s.configureFaults, err)
}

// Config returns the current configuration.
func (s *Surface) Config() gpucore.SurfaceConfig { return s.cfg }

// Configures returns how many times the swapchain was (re)created.
func (s *Surface) Configures() int { return s.configures }

// Presents returns the number of presented frames.
func (s *Surface) Presents() int { return s.presents }

// LastFrame returns a copy of the most recently presented image in RGBA
// order, or nil before the first present.
func (s *Surface) LastFrame() *image.RGBA { return s.last }
