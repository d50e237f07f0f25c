package grid

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// StyleSize is the size of the encoded Style uniform in bytes.
const StyleSize = 48

// Style holds the colors cells are drawn with, as linear RGBA in [0,1]:
//
//	struct Style { background: vec4<f32>, alive: vec4<f32>, trail: vec4<f32> }
type Style struct {
	Background [4]float32
	Alive      [4]float32
	Trail      [4]float32
}

// DefaultStyle draws white live cells over a dark background with blue
// trails.
func DefaultStyle() Style {
	return Style{
		Background: [4]float32{0.02, 0.02, 0.05, 1},
		Alive:      [4]float32{1, 1, 1, 1},
		Trail:      [4]float32{0.15, 0.45, 0.9, 1},
	}
}

// Bytes returns the uniform encoding.
func (s Style) Bytes() []byte {
	out := make([]byte, StyleSize)
	for i, c := range [3][4]float32{s.Background, s.Alive, s.Trail} {
		for j, v := range c {
			binary.LittleEndian.PutUint32(out[(i*4+j)*4:], math.Float32bits(v))
		}
	}
	return out
}

// DecodeStyle reads a Style written by Bytes.
func DecodeStyle(b []byte) Style {
	var cs [3][4]float32
	for i := range cs {
		for j := range cs[i] {
			cs[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(b[(i*4+j)*4:]))
		}
	}
	return Style{Background: cs[0], Alive: cs[1], Trail: cs[2]}
}

// Shade returns the color of c: the alive color for live cells, otherwise
// the background blended toward the trail color by c.Trail.
func (s Style) Shade(c Cell) [4]float32 {
	if c.IsAlive() {
		return s.Alive
	}
	t := min(max(c.Trail, 0), 1)
	var out [4]float32
	for i := range out {
		out[i] = s.Background[i] + (s.Trail[i]-s.Background[i])*t
	}
	return out
}

// Image renders cs as an RGBA image with one pixel per cell, row 0 at the
// top.
func Image(cs []Cell, width, height uint32, style Style) (*image.RGBA, error) {
	if err := checkSize(width, height, len(cs)); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			c := style.Shade(cs[y*int(width)+x])
			img.SetRGBA(x, y, color.RGBA{unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])})
		}
	}
	return img, nil
}

// Upscale enlarges img by an integer factor without smoothing so each cell
// stays a crisp square.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func unorm8(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
