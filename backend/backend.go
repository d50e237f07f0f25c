package backend

import (
	"errors"

	"github.com/gogpu/cells/gpucore"
)

// Backend name constants.
const (
	// NameNative is the GPU backend built on gogpu/wgpu's HAL.
	NameNative = "native"
	// NameSoft is the CPU backend.
	NameSoft = "soft"
)

// Common backend errors.
var (
	// ErrNotAvailable is returned when a requested backend is not registered
	// or failed to open.
	ErrNotAvailable = errors.New("backend: not available")
)

// Target is an opened device together with an offscreen surface to render
// frames into.
type Target struct {
	Name    string
	Device  gpucore.Device
	Surface gpucore.Surface
}

// Close releases the surface and destroys the device.
func (t *Target) Close() {
	if t == nil {
		return
	}
	if t.Surface != nil {
		t.Surface.Release()
	}
	if t.Device != nil {
		t.Device.Destroy()
	}
}
