// Package loop is the frame loop controller.
//
// A Controller owns the device context, the grid store and both engines.
// Window events arrive through HandleEvent; Tick draws one frame:
//
//	acquire -> step -> render -> submit -> present
//
// Lost or outdated surfaces skip the tick and reconfigure at the last known
// size, so the next tick retries. Any other error moves the controller to
// Exiting. Shutdown drains submitted GPU work and releases everything in
// reverse creation order.
//
// Drive runs a controller without a window, which is how the headless CLI
// mode and the tests use it.
package loop
