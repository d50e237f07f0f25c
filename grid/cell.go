package grid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/cells"
)

// CellSize is the size of one encoded Cell in bytes, matching
//
//	struct Cell { state: u32, trail: f32 }
const CellSize = 8

// Cell is one automaton cell as stored on the GPU.
type Cell struct {
	// State is 1 for a live cell and 0 for a dead one.
	State uint32

	// Trail is a decaying intensity in [0,1] left behind by live cells.
	Trail float32
}

// Alive returns a live cell with a full trail.
func Alive() Cell { return Cell{State: 1, Trail: 1} }

// IsAlive reports whether the cell is live.
func (c Cell) IsAlive() bool { return c.State != 0 }

// EncodeCells packs cells into their little-endian GPU layout.
func EncodeCells(cs []Cell) []byte {
	out := make([]byte, len(cs)*CellSize)
	for i, c := range cs {
		binary.LittleEndian.PutUint32(out[i*CellSize:], c.State)
		binary.LittleEndian.PutUint32(out[i*CellSize+4:], math.Float32bits(c.Trail))
	}
	return out
}

// DecodeCells unpacks the GPU layout. len(b) must be a multiple of CellSize.
func DecodeCells(b []byte) ([]Cell, error) {
	if len(b)%CellSize != 0 {
		return nil, fmt.Errorf("grid: %d bytes is not a whole number of cells", len(b))
	}
	out := make([]Cell, len(b)/CellSize)
	for i := range out {
		out[i] = Cell{
			State: binary.LittleEndian.Uint32(b[i*CellSize:]),
			Trail: math.Float32frombits(binary.LittleEndian.Uint32(b[i*CellSize+4:])),
		}
	}
	return out, nil
}

// ParamsSize is the size of the uniform parameter block in bytes.
const ParamsSize = 16

// Params is the simulation parameter block shared by the compute and render
// shaders:
//
//	struct Params { width: u32, height: u32, _pad0: u32, _pad1: u32 }
type Params struct {
	Width  uint32
	Height uint32
}

// Bytes returns the padded uniform encoding.
func (p Params) Bytes() []byte {
	out := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(out[0:], p.Width)
	binary.LittleEndian.PutUint32(out[4:], p.Height)
	return out
}

// DecodeParams reads a parameter block written by Bytes.
func DecodeParams(b []byte) Params {
	return Params{
		Width:  binary.LittleEndian.Uint32(b[0:]),
		Height: binary.LittleEndian.Uint32(b[4:]),
	}
}

// Cells returns the number of cells in the grid.
func (p Params) Cells() int { return int(p.Width) * int(p.Height) }

func checkSize(width, height uint32, n int) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("grid: %dx%d: %w", width, height, cells.ErrGridSize)
	}
	if uint64(n) != uint64(width)*uint64(height) {
		return fmt.Errorf("grid: %d cells for a %dx%d grid: %w", n, width, height, cells.ErrGridSize)
	}
	return nil
}
