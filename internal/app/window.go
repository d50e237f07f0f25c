//go:build !nogpu

package app

import (
	"errors"
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/backend/native"
	"github.com/gogpu/cells/integration/gogpuhost"
	"github.com/gogpu/cells/loop"
	"github.com/gogpu/cells/render"
	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
)

// window is the frame loop hosted by a gogpu window. Every field is touched
// only from the host's draw and close callbacks.
type window struct {
	quit     func()
	provider func() (gpucontext.DeviceProvider, bool)

	cfg     *Config
	events  chan loop.Event
	sizes   gogpuhost.SizeTracker
	scale   gpucontext.WindowProvider
	surface *gogpuhost.Surface
	session *Session
	err     error
}

// RunWindow opens a window, shares its device with the simulation and
// runs until the window closes or the frame loop exits.
func RunWindow(cfg *Config) error {
	w := &window{
		cfg:    cfg,
		events: make(chan loop.Event, 64),
	}
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(cfg.Title).
		WithSize(cfg.Width, cfg.Height).
		WithContinuousRender(true))
	w.quit = func() { app.Quit() }
	w.provider = func() (gpucontext.DeviceProvider, bool) {
		p := app.GPUContextProvider()
		if p == nil {
			return nil, false
		}
		return p, true
	}

	app.OnDraw(w.draw)
	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		w.post(loop.KeyPress(gogpuhost.MapKey(key)))
	})
	app.OnClose(w.close)

	if err := app.Run(); err != nil {
		return errors.Join(err, w.err)
	}
	return w.err
}

// post queues ev for the next draw, dropping it when the queue is full.
func (w *window) post(ev loop.Event) {
	select {
	case w.events <- ev:
	default:
		cells.Logger().Warn("app: event queue full, dropping event", "kind", ev.Kind)
	}
}

func (w *window) draw(dc *gogpu.Context) {
	if w.err != nil {
		return
	}
	sw, sh := dc.SurfaceSize()
	width, height := frameSize(sw, sh)
	if w.session == nil {
		if width == 0 || height == 0 {
			return
		}
		if err := w.open(width, height); err != nil {
			w.stop(err)
			return
		}
		cells.Logger().Info("app: window ready", "backend", dc.Backend(), "width", width, "height", height)
	}
	c := w.session.Loop
	if c.State() == loop.Exiting {
		return
	}

	if ev, ok := w.sizes.Observe(int(width), int(height)); ok {
		w.post(ev)
	}
	if w.scale != nil {
		if ev, ok := w.sizes.ObserveScale(w.scale.ScaleFactor()); ok {
			w.post(ev)
		}
	}
	if err := loop.Pump(c, w.events); err != nil {
		w.stop(err)
		return
	}
	if c.State() == loop.Exiting {
		w.stop(nil)
		return
	}

	w.surface.SetFrame(gogpuhost.ViewOf(dc.SurfaceView()), width, height)
	err := c.Tick()
	w.surface.ClearFrame()
	if err != nil || c.State() == loop.Exiting {
		w.stop(err)
	}
}

// open builds the session on the window's device.
func (w *window) open(width, height uint32) error {
	provider, ok := w.provider()
	if !ok {
		return fmt.Errorf("app: window has no GPU context: %w", cells.ErrConfiguration)
	}
	dev, err := native.FromProvider(provider)
	if err != nil {
		return err
	}
	format, ok := native.FormatFromGPUTypes(provider.SurfaceFormat())
	if !ok {
		return fmt.Errorf("app: surface format %v: %w", provider.SurfaceFormat(), cells.ErrUnsupportedFormat)
	}

	if wp, ok := provider.(gpucontext.WindowProvider); ok {
		w.scale = wp
	}

	w.surface = gogpuhost.NewSurface(dev)
	rctx, err := render.New(dev, w.surface, render.WithSurfaceFormat(format))
	if err != nil {
		return err
	}
	if err := rctx.Reconfigure(width, height); err != nil {
		rctx.Release()
		return err
	}
	s, err := Build(rctx, w.cfg, loop.WithPacer(loop.NewPacer(w.cfg.TPS)))
	if err != nil {
		rctx.Release()
		return err
	}
	w.session = s
	return nil
}

// stop records err and asks the host to close the window.
func (w *window) stop(err error) {
	if err != nil && w.err == nil {
		w.err = err
	}
	w.quit()
}

func (w *window) close() {
	if w.session == nil {
		return
	}
	c := w.session.Loop
	if c.State() != loop.Exiting {
		_ = c.HandleEvent(loop.Close())
	}
	if err := c.Shutdown(); err != nil && w.err == nil {
		w.err = err
	}
}

// frameSize converts the surface size a host reports into pixels.
func frameSize[T ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64](width, height T) (uint32, uint32) {
	return uint32(max(width, 0)), uint32(max(height, 0))
}
