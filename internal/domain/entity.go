// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// DeviceClass identifies which physical role is being controlled.
type DeviceClass string

const (
	ClassKeyboard DeviceClass = "keyboard"
	ClassPointer  DeviceClass = "pointer"
)

// AllClasses lists every controllable device class in lock order.
func AllClasses() []DeviceClass {
	return []DeviceClass{ClassKeyboard, ClassPointer}
}

// AttachmentState reports whether a device delivers events to applications.
type AttachmentState string

const (
	// Attached means the device is a live slave under its master.
	Attached AttachmentState = "attached"
	// Detached means the device has been floated off its master.
	Detached AttachmentState = "detached"
	// Unknown is returned alongside ErrDeviceQueryFailed. Callers must not
	// treat it as either of the other two states.
	Unknown AttachmentState = "unknown"
)

// DeviceRecord is one matched line of enumerator output. Never persisted.
type DeviceRecord struct {
	Class   DeviceClass
	ID      int
	Name    string
	State   AttachmentState
	RawLine string
}

// LockAction is the mutation applied to a device.
type LockAction string

const (
	ActionDisable LockAction = "disable"
	ActionEnable  LockAction = "enable"
)

// LockResult captures what a single Disable/Enable call did.
type LockResult struct {
	Class     DeviceClass
	Action    LockAction
	Succeeded []int
	Failed    []int
	Noop      bool // state already matched the target, nothing was touched
}

// Changed reports whether at least one device was mutated.
func (r LockResult) Changed() bool {
	return len(r.Succeeded) > 0
}

// OverlayOptions is passed through to the overlay process unmodified.
type OverlayOptions map[string]string

// Keys returns option keys in a stable order.
func (o OverlayOptions) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SessionConfig is the resolved, immutable configuration for one scheduler run.
type SessionConfig struct {
	WorkMinutes            int
	ShortBreakMinutes      int
	LongBreakMinutes       int
	CyclesBeforeLong       int
	EnableInputDuringBreak bool
	OverlayOptions         OverlayOptions

	Notify             bool
	PomodoroNotifyMsg  string
	BreakNotifyMsg     string
	LongBreakNotifyMsg string
}

// Validate checks that every duration and the cycle count are positive.
func (c SessionConfig) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"work_minutes", c.WorkMinutes},
		{"short_break_minutes", c.ShortBreakMinutes},
		{"long_break_minutes", c.LongBreakMinutes},
		{"cycles_before_long", c.CyclesBeforeLong},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %d", f.name, f.value)
		}
	}
	return nil
}

// WorkDuration returns the work period length.
func (c SessionConfig) WorkDuration() time.Duration {
	return time.Duration(c.WorkMinutes) * time.Minute
}

// BreakDuration returns the length of the given break kind.
func (c SessionConfig) BreakDuration(kind BreakKind) time.Duration {
	if kind == LongBreak {
		return time.Duration(c.LongBreakMinutes) * time.Minute
	}
	return time.Duration(c.ShortBreakMinutes) * time.Minute
}

// SessionState is the scheduler's current state.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateWorking    SessionState = "pomodoro"
	StateShortBreak SessionState = "short_break"
	StateLongBreak  SessionState = "long_break"
)

// BreakKind distinguishes the two break states.
type BreakKind string

const (
	ShortBreak BreakKind = "short_break"
	LongBreak  BreakKind = "long_break"
)

// State maps a break kind onto the scheduler state it enters.
func (k BreakKind) State() SessionState {
	if k == LongBreak {
		return StateLongBreak
	}
	return StateShortBreak
}

// EventKind is the event column of the append-only log.
type EventKind string

const (
	EventSessionStarted    EventKind = "SessionStarted"
	EventWorkCompleted     EventKind = "WorkCompleted"
	EventShortBreakStarted EventKind = "ShortBreakStarted"
	EventLongBreakStarted  EventKind = "LongBreakStarted"
	EventBreakCompleted    EventKind = "BreakCompleted"
)

// LogEntry is one line of the event log. Never read back by this process.
type LogEntry struct {
	Timestamp       time.Time
	Kind            EventKind
	DurationSeconds int
	CycleCount      int
}

// Transition describes a scheduler state change for status publishers and hooks.
type Transition struct {
	State            SessionState
	StartedAt        time.Time
	Duration         time.Duration
	Cycle            int
	CyclesBeforeLong int
}

// SessionEntry is the runtime session registry record.
// Persisted to a JSON file under the runtime dir while a session is active.
type SessionEntry struct {
	Version          int          `json:"version"`
	SchedulerPID     int          `json:"scheduler_pid"`
	GuardianPID      int          `json:"guardian_pid,omitempty"`
	OverlayPID       int          `json:"overlay_pid,omitempty"`
	BlockInput       bool         `json:"block_input"`
	Phase            SessionState `json:"action"`
	PhaseStartedAt   int64        `json:"start_time"`
	PhaseSeconds     int          `json:"duration_seconds"`
	Cycle            int          `json:"crr_cycle"`
	CyclesBeforeLong int          `json:"total_cycles"`
	LastUpdate       int64        `json:"last_update"`
}

// Remaining returns how much of the current phase is left at now.
func (e SessionEntry) Remaining(now time.Time) time.Duration {
	end := time.Unix(e.PhaseStartedAt, 0).Add(time.Duration(e.PhaseSeconds) * time.Second)
	left := end.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
