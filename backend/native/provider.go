//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
)

// halAccessor is implemented by *wgpu.Device.
type halAccessor interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// limitsReporter is implemented by *wgpu.Device.
type limitsReporter interface {
	Limits() gputypes.Limits
}

// FromProvider wraps the device of a host application, such as a gogpu
// window, so that simulation and rendering share its queue. The host keeps
// ownership of the device.
func FromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrNoHALDevice
	}
	acc, ok := p.Device().(halAccessor)
	if !ok {
		return nil, fmt.Errorf("%w (device is %T)", ErrNoHALDevice, p.Device())
	}
	device, queue := acc.HalDevice(), acc.HalQueue()
	if device == nil || queue == nil {
		return nil, ErrNoHALDevice
	}

	limits := gputypes.DefaultLimits()
	if lr, ok := p.Device().(limitsReporter); ok {
		limits = lr.Limits()
	}

	name := p.AdapterInfo().Name
	if name == "" {
		name = "shared"
	}
	return newDevice(device, queue, name, limits), nil
}

// HostView unwraps a texture view handed out by the host for the current
// frame. It returns nil when the handle is empty.
func HostView(tv gpucontext.TextureView) hal.TextureView {
	if tv.IsNil() {
		return nil
	}
	return (*wgpu.TextureView)(tv.Pointer()).HalTextureView()
}
