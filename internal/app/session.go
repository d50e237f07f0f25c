package app

import (
	"fmt"
	"image/png"
	"os"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/grid"
	"github.com/gogpu/cells/loop"
	"github.com/gogpu/cells/present"
	"github.com/gogpu/cells/render"
	"github.com/gogpu/cells/sim"
)

// Session is a grid wired to its step engine, presenter and frame loop.
type Session struct {
	Store *grid.Store
	Loop  *loop.Controller

	style grid.Style
}

// Seed returns the initial grid cfg describes: an image, a named pattern
// stamped at the center, or random cells.
func Seed(cfg *Config) ([]grid.Cell, error) {
	w, h := cfg.gridSize()
	switch {
	case cfg.Pattern != "":
		f, err := os.Open(cfg.Pattern)
		if err != nil {
			return nil, fmt.Errorf("app: seed image: %w", err)
		}
		defer f.Close()
		img, err := grid.LoadImage(f)
		if err != nil {
			return nil, err
		}
		return grid.FromImage(img, w, h, cfg.Threshold), nil
	case cfg.Stamp != "":
		rows, err := grid.Pattern(cfg.Stamp)
		if err != nil {
			return nil, err
		}
		cs := grid.Empty(w, h)
		x := int(w)/2 - len(rows[0])/2
		y := int(h)/2 - len(rows)/2
		if err := grid.Stamp(cs, w, h, x, y, rows...); err != nil {
			return nil, err
		}
		return cs, nil
	}
	return grid.Random(w, h, cfg.Density, cfg.Seed), nil
}

// Build creates the store, step engine and presenter on rctx and hands them
// to a new frame loop. On error everything created so far is destroyed;
// rctx itself is left to the caller.
func Build(rctx *render.Context, cfg *Config, opts ...loop.Option) (*Session, error) {
	rule, err := sim.ParseRule(cfg.Rule)
	if err != nil {
		return nil, err
	}
	initial, err := Seed(cfg)
	if err != nil {
		return nil, err
	}

	w, h := cfg.gridSize()
	store, err := grid.New(rctx, w, h, initial)
	if err != nil {
		return nil, err
	}
	engine, err := sim.New(rctx, store, sim.WithRule(rule))
	if err != nil {
		store.Destroy()
		return nil, err
	}
	style := grid.DefaultStyle()
	presenter, err := present.New(rctx, store, present.WithStyle(style))
	if err != nil {
		engine.Destroy()
		store.Destroy()
		return nil, err
	}

	cells.Logger().Info("app: session ready",
		"grid_width", w, "grid_height", h, "rule", rule.String(), "dispatch", engine.Dispatch())
	return &Session{
		Store: store,
		Loop:  loop.New(rctx, store, engine, presenter, opts...),
		style: style,
	}, nil
}

// WriteSnapshot reads the current generation back and writes it to path
// as a PNG, each cell scale pixels wide.
func (s *Session) WriteSnapshot(path string, scale int) error {
	cs, err := s.Store.Snapshot()
	if err != nil {
		return err
	}
	img, err := grid.Image(cs, s.Store.Width(), s.Store.Height(), s.style)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("app: snapshot: %w", err)
	}
	if err := png.Encode(f, grid.Upscale(img, scale)); err != nil {
		_ = f.Close()
		return fmt.Errorf("app: encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("app: snapshot: %w", err)
	}
	cells.Logger().Info("app: snapshot written", "path", path, "generation", s.Store.Generation())
	return nil
}
