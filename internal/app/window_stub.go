//go:build nogpu

package app

import "fmt"

// RunWindow always fails in a nogpu build. Use -headless.
func RunWindow(*Config) error {
	return fmt.Errorf("%w: built with the nogpu tag, run with -headless", ErrUsage)
}
