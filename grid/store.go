package grid

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/render"
)

// Store owns the two cell buffers and the generation counter that decides
// which of them holds the current state.
//
// Buffer handles never change after New. Only the generation moves, so the
// read and write roles swap by parity:
//
//	read  = generation % 2
//	write = (generation + 1) % 2
type Store struct {
	ctx     *render.Context
	params  Params
	buffers [2]gpucore.BufferID
	uniform gpucore.BufferID
	gen     uint64
}

// New allocates both cell buffers, uploads initial into each of them and
// writes the parameter block. initial must hold exactly width*height cells.
func New(ctx *render.Context, width, height uint32, initial []Cell) (*Store, error) {
	if err := checkSize(width, height, len(initial)); err != nil {
		return nil, err
	}
	s := &Store{ctx: ctx, params: Params{Width: width, Height: height}}
	size := s.BufferSize()
	data := EncodeCells(initial)

	for i := range s.buffers {
		id, err := ctx.CreateBuffer(fmt.Sprintf("cells-%d", i), size,
			gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst|gpucore.BufferUsageCopySrc)
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("grid: cell buffer %d: %w", i, err)
		}
		s.buffers[i] = id
		if err := ctx.WriteBuffer(id, 0, data); err != nil {
			s.Destroy()
			return nil, fmt.Errorf("grid: upload cell buffer %d: %w", i, err)
		}
	}

	uniform, err := ctx.CreateBuffer("cell-params", ParamsSize, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("grid: params buffer: %w", err)
	}
	s.uniform = uniform
	if err := ctx.WriteBuffer(uniform, 0, s.params.Bytes()); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("grid: upload params: %w", err)
	}

	cells.Logger().Debug("grid: store created", "width", width, "height", height, "bytes", size)
	return s, nil
}

// Width returns the grid width in cells.
func (s *Store) Width() uint32 { return s.params.Width }

// Height returns the grid height in cells.
func (s *Store) Height() uint32 { return s.params.Height }

// Params returns the parameter block.
func (s *Store) Params() Params { return s.params }

// BufferSize returns the size of one cell buffer in bytes.
func (s *Store) BufferSize() uint64 {
	return uint64(s.params.Width) * uint64(s.params.Height) * CellSize
}

// Generation returns the number of completed steps.
func (s *Store) Generation() uint64 { return s.gen }

// ReadIndex returns the index of the buffer holding the newest generation.
func (s *Store) ReadIndex() int { return int(s.gen % 2) }

// WriteIndex returns the index of the buffer the next step writes.
func (s *Store) WriteIndex() int { return int((s.gen + 1) % 2) }

// Advance records that a step writing WriteIndex has been submitted.
func (s *Store) Advance() { s.gen++ }

// Buffer returns the cell buffer at index i (0 or 1).
func (s *Store) Buffer(i int) gpucore.BufferID { return s.buffers[i&1] }

// ParamsBuffer returns the uniform parameter buffer.
func (s *Store) ParamsBuffer() gpucore.BufferID { return s.uniform }

// Snapshot reads the current generation back to the CPU. It waits for all
// submitted work first.
func (s *Store) Snapshot() ([]Cell, error) {
	b, err := s.ctx.Device().ReadBuffer(s.buffers[s.ReadIndex()], 0, s.BufferSize())
	if err != nil {
		return nil, fmt.Errorf("grid: snapshot: %w", err)
	}
	return DecodeCells(b)
}

// Reset uploads a new state into both buffers and restarts the generation
// count. It must not race with in-flight steps.
func (s *Store) Reset(initial []Cell) error {
	if err := checkSize(s.params.Width, s.params.Height, len(initial)); err != nil {
		return err
	}
	data := EncodeCells(initial)
	for i, id := range s.buffers {
		if err := s.ctx.WriteBuffer(id, 0, data); err != nil {
			return fmt.Errorf("grid: reset buffer %d: %w", i, err)
		}
	}
	s.gen = 0
	return nil
}

// Destroy releases the buffers.
func (s *Store) Destroy() {
	if s.uniform != gpucore.InvalidID {
		s.ctx.DestroyBuffer(s.uniform)
		s.uniform = gpucore.InvalidID
	}
	for i := len(s.buffers) - 1; i >= 0; i-- {
		if s.buffers[i] != gpucore.InvalidID {
			s.ctx.DestroyBuffer(s.buffers[i])
			s.buffers[i] = gpucore.InvalidID
		}
	}
}
