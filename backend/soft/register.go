package soft

import "github.com/gogpu/cells/backend"

func init() {
	backend.Register(backend.NameSoft, func() (*backend.Target, error) {
		d := New()
		return &backend.Target{Name: backend.NameSoft, Device: d, Surface: NewSurface(d)}, nil
	})
}
