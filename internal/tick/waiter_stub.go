//go:build !giouring
// +build !giouring

package tick

import "fmt"

// NewRealWaiter is available when built with -tags giouring.
func NewRealWaiter() (Waiter, error) {
	return nil, fmt.Errorf("giouring not enabled; build with -tags giouring")
}
