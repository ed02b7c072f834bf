package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceQueryFailed means the device listing could not be obtained.
	// Attachment state is unknown, never assume Attached or Detached.
	ErrDeviceQueryFailed = errors.New("device query failed")

	// ErrOverlayLaunchFailed means the overlay process could not be started.
	ErrOverlayLaunchFailed = errors.New("overlay launch failed")

	// ErrInterruptedDuringBreak is returned when a stop signal arrives while a
	// break is in flight. Input has already been restored when it is returned.
	ErrInterruptedDuringBreak = errors.New("interrupted during break")

	// ErrAlreadyRunning is returned when another scheduler owns the session registry.
	ErrAlreadyRunning = errors.New("a pomlock session is already running")

	// ErrXInputUnavailable means the X server does not expose the XInput extension.
	ErrXInputUnavailable = errors.New("XInputExtension not available on display")
)

// PartialLockFailure reports a Disable/Enable where some device actions failed.
// Succeeded may be empty when every action failed.
type PartialLockFailure struct {
	Class     DeviceClass
	Action    LockAction
	Succeeded []int
	Failed    []int
	Causes    []error
}

func (e *PartialLockFailure) Error() string {
	return fmt.Sprintf("%s %s: %d succeeded, %d failed (ids %v)",
		e.Action, e.Class, len(e.Succeeded), len(e.Failed), e.Failed)
}

// Unwrap exposes the per-device causes to errors.Is/As.
func (e *PartialLockFailure) Unwrap() []error {
	return e.Causes
}

// IsPartialLockFailure reports whether err carries a PartialLockFailure.
func IsPartialLockFailure(err error) bool {
	var plf *PartialLockFailure
	return errors.As(err, &plf)
}
