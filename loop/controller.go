package loop

import (
	"fmt"
	"time"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/grid"
	"github.com/gogpu/cells/present"
	"github.com/gogpu/cells/render"
	"github.com/gogpu/cells/sim"
)

// DefaultDrainTimeout bounds how long Shutdown waits for submitted work.
const DefaultDrainTimeout = 5 * time.Second

// Stats counts what the controller has done.
type Stats struct {
	Ticks    uint64 // Tick calls in Running
	Frames   uint64 // presented frames
	Steps    uint64 // submitted simulation steps
	Skipped  uint64 // ticks lost to transient surface errors
	Resizes  uint64 // resize and scale events that reconfigured the surface
	Recovers uint64 // forced surface reconfigurations
}

// Option configures a Controller.
type Option func(*Controller)

// WithPacer runs the simulation at the pacer's rate instead of one step
// per tick.
func WithPacer(p *Pacer) Option {
	return func(c *Controller) { c.pacer = p }
}

// WithDrainTimeout sets how long Shutdown waits for submitted work.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Controller) { c.drainTimeout = d }
}

// WithClock replaces time.Now for the pacer.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller runs the frame loop: it routes window events to the device
// context, and each tick steps the simulation once and presents the newest
// generation.
//
// Transient surface errors skip the tick and reconfigure the surface so the
// next tick retries. Any other failure moves the controller to Exiting and
// is kept in Err.
type Controller struct {
	ctx       *render.Context
	store     *grid.Store
	engine    *sim.Engine
	presenter *present.Presenter

	state        State
	err          error
	paused       bool
	stepOnce     bool
	released     bool
	pacer        *Pacer
	drainTimeout time.Duration
	now          func() time.Time
	stats        Stats
}

// New creates a controller in Running. It takes ownership of the store,
// engines and context, and releases them in Shutdown.
func New(ctx *render.Context, store *grid.Store, engine *sim.Engine, presenter *present.Presenter, opts ...Option) *Controller {
	c := &Controller{
		ctx:          ctx,
		store:        store,
		engine:       engine,
		presenter:    presenter,
		state:        Running,
		drainTimeout: DefaultDrainTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Err returns the error that moved the controller to Exiting, or nil after
// a graceful close.
func (c *Controller) Err() error { return c.err }

// Stats returns the counters.
func (c *Controller) Stats() Stats { return c.stats }

// Paused reports whether stepping is paused. Paused controllers still draw.
func (c *Controller) Paused() bool { return c.paused }

// Generation returns the store's generation.
func (c *Controller) Generation() uint64 { return c.store.Generation() }

// HandleEvent applies one window event. Events after Exiting are ignored.
func (c *Controller) HandleEvent(ev Event) error {
	if c.state == Exiting {
		return nil
	}
	switch ev.Kind {
	case EventClose:
		cells.Logger().Info("loop: close requested")
		c.state = Exiting
	case EventKey:
		c.handleKey(ev.Key)
	case EventResize, EventScaleChange:
		c.state = Resizing
		before := c.ctx.Configures()
		err := c.ctx.Reconfigure(ev.Width, ev.Height)
		c.state = Running
		if c.ctx.Configures() != before {
			c.stats.Resizes++
		}
		if err == nil {
			return nil
		}
		if cells.IsTransient(err) {
			cells.Logger().Warn("loop: reconfigure failed, retrying next tick", "err", err)
			return nil
		}
		return c.fail(fmt.Errorf("loop: reconfigure %dx%d: %w", ev.Width, ev.Height, err))
	}
	return nil
}

func (c *Controller) handleKey(k Key) {
	switch k {
	case KeyEscape:
		cells.Logger().Info("loop: exit key pressed")
		c.state = Exiting
	case KeySpace:
		c.paused = !c.paused
		if c.pacer != nil {
			c.pacer.Reset()
		}
		cells.Logger().Debug("loop: pause toggled", "paused", c.paused)
	case KeyStep:
		if c.paused {
			c.stepOnce = true
		}
	}
}

// Tick runs one frame. It returns nil when the frame was presented or
// skipped for a transient surface error, and the cause when the controller
// moved to Exiting. Ticks outside Running do nothing.
func (c *Controller) Tick() error {
	if c.state != Running {
		return nil
	}
	c.stats.Ticks++

	frame, err := c.ctx.AcquireFrame()
	if err != nil {
		if cells.IsTransient(err) {
			return c.recover(err)
		}
		return c.fail(fmt.Errorf("loop: acquire: %w", err))
	}

	for range c.due() {
		if err := c.engine.Step(); err != nil {
			return c.fail(fmt.Errorf("loop: step: %w", err))
		}
		c.stats.Steps++
	}

	cmd, err := c.presenter.Render(frame, c.store.ReadIndex())
	if err != nil {
		return c.fail(fmt.Errorf("loop: render: %w", err))
	}
	if err := c.ctx.Submit(cmd); err != nil {
		return c.fail(fmt.Errorf("loop: submit: %w", err))
	}
	if err := c.ctx.Present(frame); err != nil {
		if cells.IsTransient(err) {
			return c.recover(err)
		}
		return c.fail(fmt.Errorf("loop: present: %w", err))
	}
	c.stats.Frames++
	return nil
}

// due returns the number of steps this tick runs.
func (c *Controller) due() int {
	if c.paused {
		if c.stepOnce {
			c.stepOnce = false
			return 1
		}
		return 0
	}
	if c.pacer == nil {
		return 1
	}
	return c.pacer.Steps(c.now())
}

func (c *Controller) recover(cause error) error {
	c.stats.Skipped++
	cells.Logger().Warn("loop: surface needs reconfiguration", "err", cause)
	if err := c.ctx.Recover(); err != nil {
		if cells.IsTransient(err) {
			cells.Logger().Debug("loop: reconfigure failed, retrying next tick", "err", err)
			return nil
		}
		return c.fail(fmt.Errorf("loop: recover: %w", err))
	}
	c.stats.Recovers++
	return nil
}

func (c *Controller) fail(err error) error {
	cells.Logger().Error("loop: stopping", "err", err)
	c.err = err
	c.state = Exiting
	return err
}

// Shutdown moves to Exiting, waits for submitted GPU work and then
// releases the presenter, the step engine, the store and the context, in
// that order. It returns the drain error, if any. Calling it again does
// nothing.
func (c *Controller) Shutdown() error {
	c.state = Exiting
	if c.released {
		return nil
	}
	c.released = true

	drainErr := c.ctx.Drain(c.drainTimeout)
	if drainErr != nil {
		cells.Logger().Warn("loop: drain failed, releasing anyway", "err", drainErr)
	}
	c.presenter.Destroy()
	c.engine.Destroy()
	c.store.Destroy()
	c.ctx.Release()

	cells.Logger().Info("loop: stopped",
		"generation", c.store.Generation(), "frames", c.stats.Frames, "skipped", c.stats.Skipped)
	if drainErr != nil {
		return fmt.Errorf("loop: drain: %w", drainErr)
	}
	return nil
}
