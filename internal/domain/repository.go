package domain

import (
	"context"
	"time"
)

// DeviceLister queries the local input stack.
// Implementation: `xinput list`. Pure query, no mutation.
type DeviceLister interface {
	// ListInputDevices returns the unfiltered listing, one raw record per line,
	// in the order the input stack reports them. Failures wrap ErrDeviceQueryFailed.
	ListInputDevices(ctx context.Context) ([]string, error)
}

// DeviceActuator applies the per-device attach/float primitive.
// Implementation: `xinput disable|enable <id>`.
type DeviceActuator interface {
	// Detach floats the device off its master.
	Detach(ctx context.Context, id int) error

	// Attach re-binds a floating device to its master.
	Attach(ctx context.Context, id int) error
}

// DeviceMatcher classifies enumerator output for a device class.
type DeviceMatcher interface {
	// Classify returns the aggregate state of the class in listing.
	// A class with no matching lines is Attached.
	Classify(listing []string, class DeviceClass) AttachmentState

	// Extract returns every device of class currently in state.
	Extract(listing []string, class DeviceClass, state AttachmentState) []DeviceRecord

	// ExtractFloating returns every floating device regardless of class.
	ExtractFloating(listing []string) []DeviceRecord
}

// LockController answers and toggles per-class lock state.
// Every call re-derives truth from a fresh listing; nothing is cached.
type LockController interface {
	// Status returns Unknown with an ErrDeviceQueryFailed error when the
	// listing is unavailable.
	Status(ctx context.Context, class DeviceClass) (AttachmentState, error)

	// Disable floats every attached device of class. No-op when none is attached.
	Disable(ctx context.Context, class DeviceClass) (LockResult, error)

	// Enable re-attaches every floating device of class. No-op when none is floating.
	Enable(ctx context.Context, class DeviceClass) (LockResult, error)
}

// OverlayRunner owns the external countdown overlay process.
type OverlayRunner interface {
	// RunOverlay starts one overlay for duration and blocks until it exits,
	// is terminated, or ctx is canceled. Start failures wrap ErrOverlayLaunchFailed.
	RunOverlay(ctx context.Context, duration time.Duration, opts OverlayOptions) error

	// Terminate kills the live overlay instance, if any.
	Terminate() error
}

// EventLog is the append-only session log.
type EventLog interface {
	Append(entry LogEntry) error
}

// Notifier sends desktop notifications.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// TransitionHook is told about every scheduler transition (status files, callbacks).
type TransitionHook interface {
	OnTransition(ctx context.Context, t Transition) error
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)

	// Kill terminates a process by PID (SIGKILL).
	Kill(pid int) error

	// Terminate sends SIGTERM and escalates to SIGKILL after grace.
	Terminate(pid int, grace time.Duration) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// SessionRegistry provides discovery of the running session.
// Implementation: JSON file in the user runtime dir guarded by flock.
type SessionRegistry interface {
	// Register claims the registry for schedulerPID. Returns ErrAlreadyRunning
	// when another live scheduler holds it.
	Register(schedulerPID int, blockInput bool) error

	// SetGuardian records the guardian watchdog PID.
	SetGuardian(pid int) error

	// SetOverlay records the live overlay PID (0 when none).
	SetOverlay(pid int) error

	// Publish records the current phase.
	Publish(t Transition) error

	// Get returns the current entry, nil when no session is registered.
	Get() (*SessionEntry, error)

	// Clear removes the registry file.
	Clear() error

	// Path returns the registry file path.
	Path() string
}
