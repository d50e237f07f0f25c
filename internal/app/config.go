package app

import (
	"errors"
	"flag"
	"fmt"
	"math"

	"github.com/gogpu/cells/grid"
	"github.com/gogpu/cells/sim"
)

// ErrUsage marks configuration rejected before anything is opened.
var ErrUsage = errors.New("app: invalid flags")

// Backend names accepted by -backend.
const (
	BackendAuto   = "auto"
	BackendNative = "native"
	BackendSoft   = "soft"
)

// Config represents the command-line parameters for the application.
type Config struct {
	Title  string
	Width  int
	Height int

	GridWidth  int
	GridHeight int
	Seed       uint64
	Density    float64
	Rule       string
	Pattern    string
	Stamp      string
	Threshold  float64
	TPS        float64

	Headless bool
	Frames   int
	Out      string
	Scale    int
	Backend  string
	Verbose  bool
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Title:      "Cells",
		Width:      1024,
		Height:     768,
		GridWidth:  256,
		GridHeight: 192,
		Seed:       42,
		Density:    0.25,
		Rule:       "B3/S23",
		Threshold:  0.5,
		TPS:        30,
		Scale:      1,
		Backend:    BackendAuto,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Title, "title", c.Title, "window title")
	fs.IntVar(&c.Width, "width", c.Width, "window width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "window height in pixels")
	fs.IntVar(&c.GridWidth, "grid-width", c.GridWidth, "grid width in cells")
	fs.IntVar(&c.GridHeight, "grid-height", c.GridHeight, "grid height in cells")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "seed for the random initial grid")
	fs.Float64Var(&c.Density, "density", c.Density, "fraction of cells alive in the random initial grid")
	fs.StringVar(&c.Rule, "rule", c.Rule, "life-like rule in B/S notation")
	fs.StringVar(&c.Pattern, "pattern", c.Pattern, "image file to seed the grid from (png, jpeg, gif, bmp, webp)")
	fs.StringVar(&c.Stamp, "stamp", c.Stamp, "named pattern stamped at the grid center (blinker, glider, r-pentomino)")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "luminance above which an image pixel is alive")
	fs.Float64Var(&c.TPS, "tps", c.TPS, "simulation steps per second in a window (0 steps every frame)")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "run without a window")
	fs.IntVar(&c.Frames, "frames", c.Frames, "frames to run headless (0 runs until interrupted)")
	fs.StringVar(&c.Out, "out", c.Out, "PNG file for the final grid when headless")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale of the PNG snapshot")
	fs.StringVar(&c.Backend, "backend", c.Backend, "headless device: auto, native or soft")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "verbose logging")
}

// Validate reports the first invalid field. Errors wrap ErrUsage.
func (c *Config) Validate() error {
	// Float ranges are negated so NaN, which fails every comparison, is rejected.
	switch {
	case !validSize(c.Width, c.Height):
		return fmt.Errorf("%w: window size %dx%d", ErrUsage, c.Width, c.Height)
	case !validSize(c.GridWidth, c.GridHeight):
		return fmt.Errorf("%w: grid size %dx%d", ErrUsage, c.GridWidth, c.GridHeight)
	case !(c.Density >= 0 && c.Density <= 1):
		return fmt.Errorf("%w: density %v outside [0,1]", ErrUsage, c.Density)
	case !(c.Threshold >= 0 && c.Threshold <= 1):
		return fmt.Errorf("%w: threshold %v outside [0,1]", ErrUsage, c.Threshold)
	case !(c.TPS >= 0) || math.IsInf(c.TPS, 1):
		return fmt.Errorf("%w: tps %v", ErrUsage, c.TPS)
	case c.Frames < 0:
		return fmt.Errorf("%w: negative frame count %d", ErrUsage, c.Frames)
	case c.Scale < 1:
		return fmt.Errorf("%w: scale %d", ErrUsage, c.Scale)
	case c.Pattern != "" && c.Stamp != "":
		return fmt.Errorf("%w: -pattern and -stamp are exclusive", ErrUsage)
	case c.Out != "" && !c.Headless:
		return fmt.Errorf("%w: -out needs -headless", ErrUsage)
	}
	switch c.Backend {
	case BackendAuto, BackendNative, BackendSoft:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrUsage, c.Backend)
	}
	if _, err := sim.ParseRule(c.Rule); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if c.Stamp != "" {
		if _, err := grid.Pattern(c.Stamp); err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
	}
	return nil
}

// validSize reports whether both dimensions are positive and fit a uint32.
func validSize(width, height int) bool {
	return width > 0 && height > 0 && uint64(width) <= math.MaxUint32 && uint64(height) <= math.MaxUint32
}

func (c *Config) gridSize() (uint32, uint32) {
	return uint32(c.GridWidth), uint32(c.GridHeight)
}
