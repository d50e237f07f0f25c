package grid

import (
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"strings"

	// Decoders for LoadImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Empty returns a grid of dead cells.
func Empty(width, height uint32) []Cell {
	return make([]Cell, int(width)*int(height))
}

// Random returns a grid where each cell is live with probability density.
// The same seed always yields the same grid.
func Random(width, height uint32, density float64, seed uint64) []Cell {
	r := rand.New(rand.NewPCG(seed, 0))
	cs := Empty(width, height)
	for i := range cs {
		if r.Float64() < density {
			cs[i] = Alive()
		}
	}
	return cs
}

// Stamp writes a plaintext pattern into cs with its top-left corner at
// (x, y). 'O', '*' and '#' mark live cells; any other rune is dead. The
// pattern wraps around the grid edges.
func Stamp(cs []Cell, width, height uint32, x, y int, rows ...string) error {
	if err := checkSize(width, height, len(cs)); err != nil {
		return err
	}
	w, h := int(width), int(height)
	for dy, row := range rows {
		for dx, r := range row {
			if r != 'O' && r != '*' && r != '#' {
				continue
			}
			px := ((x+dx)%w + w) % w
			py := ((y+dy)%h + h) % h
			cs[py*w+px] = Alive()
		}
	}
	return nil
}

// Named patterns for Stamp.
var (
	Blinker    = []string{"OOO"}
	Glider     = []string{".O.", "..O", "OOO"}
	RPentomino = []string{".OO", "OO.", ".O."}
)

// Pattern looks up a named pattern.
func Pattern(name string) ([]string, error) {
	switch strings.ToLower(name) {
	case "blinker":
		return Blinker, nil
	case "glider":
		return Glider, nil
	case "r-pentomino", "rpentomino":
		return RPentomino, nil
	}
	return nil, fmt.Errorf("grid: unknown pattern %q", name)
}

// LoadImage decodes a PNG, GIF, JPEG, BMP or WebP image.
func LoadImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("grid: decode seed image: %w", err)
	}
	return img, nil
}

// FromImage scales img to width x height and marks every cell whose
// luminance is at or above threshold (0..1) as live.
func FromImage(img image.Image, width, height uint32, threshold float64) []Cell {
	dst := image.NewGray(image.Rect(0, 0, int(width), int(height)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	cs := Empty(width, height)
	limit := uint8(clamp01(threshold) * 255)
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			if dst.GrayAt(x, y).Y >= limit {
				cs[y*int(width)+x] = Alive()
			}
		}
	}
	return cs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

