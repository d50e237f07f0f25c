package app

import (
	"context"
	"errors"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/backend"
	"github.com/gogpu/cells/loop"
	"github.com/gogpu/cells/render"
)

// OpenTarget opens the backend cfg names, or the best available one for
// BackendAuto.
func OpenTarget(name string) (*backend.Target, error) {
	if name == "" || name == BackendAuto {
		return backend.OpenDefault()
	}
	return backend.Open(name)
}

// RunHeadless runs the simulation into an offscreen surface of the window
// size for cfg.Frames frames, or until ctx is done when Frames is zero.
// With cfg.Out set the final generation is written as a PNG.
func RunHeadless(ctx context.Context, cfg *Config) error {
	target, err := OpenTarget(cfg.Backend)
	if err != nil {
		return err
	}
	defer target.Close()
	cells.Logger().Info("app: headless", "backend", target.Name, "device", target.Device.Name())

	rctx, err := render.New(target.Device, target.Surface)
	if err != nil {
		return err
	}
	if err := rctx.Reconfigure(uint32(cfg.Width), uint32(cfg.Height)); err != nil {
		rctx.Release()
		return err
	}
	s, err := Build(rctx, cfg)
	if err != nil {
		rctx.Release()
		return err
	}

	runErr := loop.Drive(ctx, s.Loop, nil, cfg.Frames)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr == nil && cfg.Out != "" {
		runErr = s.WriteSnapshot(cfg.Out, cfg.Scale)
	}
	return errors.Join(runErr, s.Loop.Shutdown())
}
