package loop

import (
	"context"

	"github.com/gogpu/cells"
)

// Drive runs c without a window. Before every tick it applies all events
// pending on events, in order. It stops when the controller reaches
// Exiting, after maxTicks ticks (no limit when maxTicks <= 0), or when ctx
// is done, and returns the controller's error or the context's.
//
// Drive does not call Shutdown.
func Drive(ctx context.Context, c *Controller, events <-chan Event, maxTicks int) error {
	cells.Logger().Info("loop: driving", "max_ticks", maxTicks)
	for tick := 0; maxTicks <= 0 || tick < maxTicks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Pump(c, events); err != nil {
			return err
		}
		if c.State() == Exiting {
			break
		}
		if err := c.Tick(); err != nil {
			return err
		}
	}
	return c.Err()
}

// Pump applies every event pending on events without blocking. It returns
// the first error HandleEvent reports.
func Pump(c *Controller, events <-chan Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.HandleEvent(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
