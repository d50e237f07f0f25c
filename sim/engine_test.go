package sim

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/backend/soft"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/grid"
	"github.com/gogpu/cells/internal/shader"
	"github.com/gogpu/cells/render"
)

func newContext(t *testing.T, opts ...soft.Option) (*render.Context, *soft.Device) {
	t.Helper()
	dev := soft.New(append([]soft.Option{soft.WithWorkers(2)}, opts...)...)
	t.Cleanup(dev.Destroy)
	ctx, err := render.New(dev, soft.NewSurface(dev), render.WithShaderValidation(false))
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return ctx, dev
}

func newEngine(t *testing.T, w, h uint32, init []grid.Cell, opts ...Option) (*Engine, *grid.Store) {
	t.Helper()
	ctx, _ := newContext(t)
	store, err := grid.New(ctx, w, h, init)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	e, err := New(ctx, store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		e.Destroy()
		store.Destroy()
	})
	return e, store
}

func liveSet(cs []grid.Cell) map[int]bool {
	out := make(map[int]bool)
	for i, c := range cs {
		if c.IsAlive() {
			out[i] = true
		}
	}
	return out
}

func snapshot(t *testing.T, s *grid.Store) []grid.Cell {
	t.Helper()
	cs, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return cs
}

// =============================================================================
// Transitions
// =============================================================================

func TestIdentityKeepsState(t *testing.T) {
	init := []grid.Cell{
		{State: 1, Trail: 1}, {}, {State: 0, Trail: 0.5},
		{}, {State: 1, Trail: 1}, {},
		{State: 0, Trail: 0.25}, {}, {State: 1, Trail: 1},
	}
	e, store := newEngine(t, 3, 3, init, WithTransition(Identity()))

	for gen := 1; gen <= 4; gen++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step %d: %v", gen, err)
		}
		got := snapshot(t, store)
		for i := range init {
			if got[i] != init[i] {
				t.Fatalf("gen %d: cell %d = %+v, want %+v", gen, i, got[i], init[i])
			}
		}
	}
	if store.Generation() != 4 {
		t.Errorf("Generation() = %d, want 4", store.Generation())
	}
}

func TestIdentityStepOnEmptyGrid(t *testing.T) {
	e, store := newEngine(t, 4, 4, grid.Empty(4, 4), WithTransition(Identity()))

	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if store.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", store.Generation())
	}
	if store.ReadIndex() != 1 {
		t.Errorf("ReadIndex() = %d, want 1", store.ReadIndex())
	}
	got := snapshot(t, store)
	if len(got) != 16 {
		t.Fatalf("len(Snapshot()) = %d, want 16", len(got))
	}
	for i, c := range got {
		if c != (grid.Cell{}) {
			t.Errorf("cell %d = %+v, want zero", i, c)
		}
	}
}

func TestBlinkerOscillates(t *testing.T) {
	init := grid.Empty(5, 5)
	if err := grid.Stamp(init, 5, 5, 1, 2, grid.Blinker...); err != nil {
		t.Fatal(err)
	}
	e, store := newEngine(t, 5, 5, init)

	horizontal := map[int]bool{11: true, 12: true, 13: true}
	vertical := map[int]bool{7: true, 12: true, 17: true}

	for gen := 1; gen <= 4; gen++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		want := vertical
		if gen%2 == 0 {
			want = horizontal
		}
		got := liveSet(snapshot(t, store))
		if len(got) != len(want) {
			t.Fatalf("gen %d: live = %v, want %v", gen, got, want)
		}
		for i := range want {
			if !got[i] {
				t.Fatalf("gen %d: live = %v, want %v", gen, got, want)
			}
		}
	}
}

func TestGliderWrapsTorus(t *testing.T) {
	const n = 6
	init := grid.Empty(n, n)
	_ = grid.Stamp(init, n, n, 0, 0, grid.Glider...)
	e, store := newEngine(t, n, n, init)

	// A glider moves one cell diagonally every 4 generations; after 4*n
	// generations it is back where it started.
	for range 4 * n {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	got := liveSet(snapshot(t, store))
	want := liveSet(init)
	if len(got) != len(want) {
		t.Fatalf("live = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i] {
			t.Fatalf("live = %v, want %v", got, want)
		}
	}
}

func TestTrailDecays(t *testing.T) {
	init := grid.Empty(4, 4)
	init[5] = grid.Alive()
	e, store := newEngine(t, 4, 4, init)

	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	got := snapshot(t, store)[5]
	if got.IsAlive() || got.Trail != DefaultDecay {
		t.Errorf("lonely cell after one step = %+v, want dead with trail %v", got, DefaultDecay)
	}

	if err := e.SetRule(Rule{Decay: 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	if got := snapshot(t, store)[5]; got.Trail != DefaultDecay*0.5 {
		t.Errorf("trail after SetRule = %v, want %v", got.Trail, DefaultDecay*0.5)
	}
}

// =============================================================================
// Limits
// =============================================================================

func TestDispatchSize(t *testing.T) {
	tests := []struct {
		w, h uint32
		want [3]uint32
	}{
		{1, 1, [3]uint32{1, 1, 1}},
		{8, 8, [3]uint32{1, 1, 1}},
		{9, 16, [3]uint32{2, 2, 1}},
		{800, 600, [3]uint32{100, 75, 1}},
		{801, 601, [3]uint32{101, 76, 1}},
	}
	for _, tt := range tests {
		if got := DispatchSize(tt.w, tt.h); got != tt.want {
			t.Errorf("DispatchSize(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestNewLimitsExceeded(t *testing.T) {
	tests := []struct {
		name  string
		limit func(*gpucore.Limits)
	}{
		{"workgroups per dimension", func(l *gpucore.Limits) { l.MaxComputeWorkgroupsPerDimension = 1 }},
		{"storage binding size", func(l *gpucore.Limits) { l.MaxStorageBufferBindingSize = 64 }},
		{"invocations per workgroup", func(l *gpucore.Limits) { l.MaxComputeInvocationsPerWorkgroup = 32 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lim := gpucore.DefaultLimits()
			tt.limit(&lim)
			ctx, _ := newContext(t, soft.WithLimits(lim))
			store, err := grid.New(ctx, 16, 16, grid.Empty(16, 16))
			if err != nil {
				t.Fatalf("grid.New: %v", err)
			}
			_, err = New(ctx, store)
			if !errors.Is(err, cells.ErrLimitsExceeded) {
				t.Fatalf("New error = %v, want ErrLimitsExceeded", err)
			}
			if !cells.IsConfiguration(err) {
				t.Errorf("IsConfiguration(%v) = false", err)
			}
			store.Destroy()
			if ctx.Live() != 0 {
				t.Errorf("Live() = %d after failed New, want 0", ctx.Live())
			}
		})
	}
}

func TestDestroyReleasesResources(t *testing.T) {
	ctx, dev := newContext(t)
	store, err := grid.New(ctx, 8, 8, grid.Empty(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	e.Destroy()
	e.Destroy()
	store.Destroy()
	if ctx.Live() != 0 || dev.Live() != 0 {
		t.Errorf("Live() = %d/%d, want 0/0", ctx.Live(), dev.Live())
	}
}

// =============================================================================
// Shader
// =============================================================================

func TestStepShaderCompiles(t *testing.T) {
	m, err := shader.Compile("step", stepWGSL)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("Compile: %v", err)
	}
	for _, name := range []string{"step_life", "step_identity"} {
		ep, err := m.Require(name, shader.StageCompute)
		if err != nil {
			t.Errorf("Require(%q): %v", name, err)
			continue
		}
		if ep.Workgroup != [3]uint32{WorkgroupSize, WorkgroupSize, 1} {
			t.Errorf("%s workgroup = %v, want 8x8x1", name, ep.Workgroup)
		}
	}
}
