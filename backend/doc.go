// Package backend selects the device frames are computed and drawn on.
//
// Backends register a Factory under a name from an init function, and are
// opened by name or by priority:
//
//	import (
//	    _ "github.com/gogpu/cells/backend/native"
//	    _ "github.com/gogpu/cells/backend/soft"
//	)
//
//	t, err := backend.OpenDefault() // native, then soft
//	if err != nil {
//	    return err
//	}
//	defer t.Close()
//
// A Target pairs the device with an offscreen surface. Windowed runs do
// not go through the registry: the window host provides the device and the
// surface (see integration/gogpuhost).
package backend
