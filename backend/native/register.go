//go:build !nogpu

package native

import "github.com/gogpu/cells/backend"

// init registers the native backend. Opening it needs a HAL backend
// registered too, for example by importing github.com/gogpu/wgpu/hal/vulkan.
func init() {
	backend.Register(backend.NameNative, func() (*backend.Target, error) {
		d, err := Open()
		if err != nil {
			return nil, err
		}
		return &backend.Target{Name: backend.NameNative, Device: d, Surface: NewOffscreenSurface(d)}, nil
	})
}
