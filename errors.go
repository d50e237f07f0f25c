package cells

import "errors"

// Error classes. Every concrete error below belongs to exactly one class and
// matches it with errors.Is.
var (
	// ErrConfiguration is fatal at startup: bad grid size, unsupported
	// format, exceeded device limits, or a shader that fails to compile.
	ErrConfiguration = errors.New("cells: configuration error")

	// ErrTransientSurface is recovered by reconfiguring the surface and
	// retrying on the next frame.
	ErrTransientSurface = errors.New("cells: transient surface error")

	// ErrFatalDevice ends the frame loop.
	ErrFatalDevice = errors.New("cells: fatal device error")
)

// Configuration errors.
var (
	ErrGridSize          = newClassError("initial grid does not match width*height", ErrConfiguration)
	ErrLimitsExceeded    = newClassError("device limits exceeded", ErrConfiguration)
	ErrShaderCompile     = newClassError("shader compilation failed", ErrConfiguration)
	ErrUnsupportedFormat = newClassError("unsupported format", ErrConfiguration)
)

// Transient surface errors.
var (
	ErrSurfaceLost     = newClassError("surface lost", ErrTransientSurface)
	ErrSurfaceOutdated = newClassError("surface outdated", ErrTransientSurface)
)

// Fatal device errors.
var (
	ErrTimeout     = newClassError("timed out waiting for the GPU", ErrFatalDevice)
	ErrOutOfMemory = newClassError("out of memory", ErrFatalDevice)
	ErrDeviceLost  = newClassError("device lost", ErrFatalDevice)
)

// ErrFrameOutstanding is returned when a frame is acquired before the
// previous one was presented. It is a programming error, not a device state.
var ErrFrameOutstanding = errors.New("cells: previous frame not presented")

// classError is a sentinel that also matches its class.
type classError struct {
	msg   string
	class error
}

func newClassError(msg string, class error) error {
	return &classError{msg: msg, class: class}
}

func (e *classError) Error() string { return "cells: " + e.msg }

func (e *classError) Unwrap() error { return e.class }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsTransient reports whether err can be recovered by reconfiguring the
// surface.
func IsTransient(err error) bool { return errors.Is(err, ErrTransientSurface) }

// IsFatal reports whether err is an unrecoverable device error.
func IsFatal(err error) bool { return errors.Is(err, ErrFatalDevice) }
