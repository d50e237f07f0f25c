package grid

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestCellEncoding(t *testing.T) {
	cs := []Cell{{State: 1, Trail: 0.5}, {State: 0, Trail: 0.25}}
	b := EncodeCells(cs)
	if len(b) != 2*CellSize {
		t.Fatalf("len = %d, want %d", len(b), 2*CellSize)
	}
	// state is a little-endian u32 followed by an f32.
	if b[0] != 1 || b[1] != 0 || b[2] != 0 || b[3] != 0 {
		t.Errorf("state bytes = %v", b[:4])
	}
	got, err := DecodeCells(b)
	if err != nil {
		t.Fatalf("DecodeCells: %v", err)
	}
	if got[0] != cs[0] || got[1] != cs[1] {
		t.Errorf("DecodeCells = %+v, want %+v", got, cs)
	}
	if _, err := DecodeCells(b[:5]); err == nil {
		t.Error("DecodeCells of a partial cell should fail")
	}
}

func TestParamsLayout(t *testing.T) {
	b := Params{Width: 800, Height: 600}.Bytes()
	if len(b) != ParamsSize {
		t.Fatalf("len = %d, want %d", len(b), ParamsSize)
	}
	for _, v := range b[8:] {
		if v != 0 {
			t.Fatalf("padding not zero: %v", b)
		}
	}
}

func TestRandomDeterministic(t *testing.T) {
	a := Random(32, 32, 0.3, 42)
	b := Random(32, 32, 0.3, 42)
	live := 0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs between runs with the same seed", i)
		}
		if a[i].IsAlive() {
			live++
		}
	}
	if live == 0 || live == len(a) {
		t.Errorf("live = %d of %d, want a mix", live, len(a))
	}
	if Random(8, 8, 0, 1)[0].IsAlive() {
		t.Error("density 0 produced a live cell")
	}
}

func TestStampWraps(t *testing.T) {
	cs := Empty(4, 4)
	if err := Stamp(cs, 4, 4, 3, 3, "OO", "O."); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	for _, i := range []int{15, 12, 3} {
		if !cs[i].IsAlive() {
			t.Errorf("cell %d not live", i)
		}
	}
	if err := Stamp(cs, 5, 5, 0, 0, Blinker...); err == nil {
		t.Error("Stamp with mismatched size should fail")
	}
	if _, err := Pattern("unknown"); err == nil {
		t.Error("Pattern(unknown) should fail")
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				src.Set(x, y, color.White)
			} else {
				src.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImage(&buf)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	cs := FromImage(img, 2, 2, 0.5)
	if !cs[0].IsAlive() || cs[1].IsAlive() || !cs[2].IsAlive() || cs[3].IsAlive() {
		t.Errorf("FromImage = %+v, want left column live", cs)
	}
	if _, err := LoadImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("LoadImage of garbage should fail")
	}
}

func TestImageShading(t *testing.T) {
	style := DefaultStyle()
	cs := []Cell{Alive(), {}, {Trail: 1}, {Trail: 0.5}}
	img, err := Image(cs, 2, 2, style)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("live pixel = %v, want white", got)
	}
	bg := style.Shade(Cell{})
	if bg != style.Background {
		t.Errorf("Shade(dead) = %v, want background", bg)
	}
	if got := style.Shade(Cell{Trail: 1}); got != style.Trail {
		t.Errorf("Shade(full trail) = %v, want trail color", got)
	}
	if DecodeStyle(style.Bytes()) != style {
		t.Error("Style encoding does not survive a decode")
	}

	big := Upscale(img, 3)
	if b := big.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Errorf("Upscale bounds = %v, want 6x6", b)
	}
}
