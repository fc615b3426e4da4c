// Package camera models the capture device the wizard acquires on the
// camera step. A device is exclusive: one holder at a time, released
// exactly once.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrUnavailable is returned when the device is disabled or denied
	ErrUnavailable = errors.New("capture device unavailable")
	// ErrBusy is returned when the device is already held
	ErrBusy = errors.New("capture device already in use")
	// ErrReleased is returned when a released device is used
	ErrReleased = errors.New("capture device released")
	// ErrNoFrame is returned when no frame has been received yet
	ErrNoFrame = errors.New("no frame available")
)

// Facing is the preferred camera direction
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Constraints are the acquisition preferences
type Constraints struct {
	Facing Facing
}

// DeviceProvider grants access to a capture device
type DeviceProvider interface {
	Acquire(ctx context.Context, constraints Constraints) (Device, error)
}

// Device is an acquired capture device
type Device interface {
	// Frame returns the current still frame
	Frame(ctx context.Context) (image.Image, error)
	// Release gives the device back. Calling it more than once is a no-op.
	Release() error
}
