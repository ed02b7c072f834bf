// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// FakeDevice is one slave device in the fake input stack.
type FakeDevice struct {
	ID       int
	Name     string
	Role     string // "keyboard" or "pointer"
	Floating bool
}

// FakeXInput is an in-memory input stack implementing domain.DeviceLister and
// domain.DeviceActuator. It renders listings in `xinput list` format.
type FakeXInput struct {
	mu       sync.Mutex
	devices  []*FakeDevice
	listErr  error
	failures map[int]error
	detached []int
	attached []int
	listings int
}

// NewFakeXInput creates a fake input stack with the given devices.
func NewFakeXInput(devices ...FakeDevice) *FakeXInput {
	f := &FakeXInput{failures: make(map[int]error)}
	for i := range devices {
		d := devices[i]
		f.devices = append(f.devices, &d)
	}
	return f
}

// NewLaptopXInput models a laptop with a touchpad, a USB mouse, the built-in
// keyboard, an external keyboard, and the XTEST virtual devices.
func NewLaptopXInput() *FakeXInput {
	return NewFakeXInput(
		FakeDevice{ID: 4, Name: "Virtual core XTEST pointer", Role: "pointer"},
		FakeDevice{ID: 12, Name: "SynPS/2 Synaptics TouchPad", Role: "pointer"},
		FakeDevice{ID: 10, Name: "Logitech USB Optical Mouse", Role: "pointer"},
		FakeDevice{ID: 5, Name: "Virtual core XTEST keyboard", Role: "keyboard"},
		FakeDevice{ID: 6, Name: "Power Button", Role: "keyboard"},
		FakeDevice{ID: 11, Name: "AT Translated Set 2 keyboard", Role: "keyboard"},
		FakeDevice{ID: 14, Name: "SONiX USB DEVICE Keyboard", Role: "keyboard"},
	)
}

// ListInputDevices renders the current device table.
func (f *FakeXInput) ListInputDevices(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listings++
	if f.listErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDeviceQueryFailed, f.listErr)
	}

	lines := []string{"⎡ Virtual core pointer                    \tid=2\t[master pointer  (3)]"}
	lines = append(lines, f.render("pointer", "⎜   ↳ ", "[slave  pointer  (2)]")...)
	lines = append(lines, "⎣ Virtual core keyboard                   \tid=3\t[master keyboard (2)]")
	lines = append(lines, f.render("keyboard", "    ↳ ", "[slave  keyboard (3)]")...)
	for _, d := range f.devices {
		if d.Floating {
			lines = append(lines, fmt.Sprintf("∼ %-40s\tid=%d\t[floating slave]", d.Name, d.ID))
		}
	}
	return lines, nil
}

func (f *FakeXInput) render(role, prefix, marker string) []string {
	var lines []string
	for _, d := range f.devices {
		if d.Role == role && !d.Floating {
			lines = append(lines, fmt.Sprintf("%s%-38s\tid=%d\t%s", prefix, d.Name, d.ID, marker))
		}
	}
	return lines
}

// Detach floats device id.
func (f *FakeXInput) Detach(ctx context.Context, id int) error {
	return f.set(id, true)
}

// Attach re-attaches device id.
func (f *FakeXInput) Attach(ctx context.Context, id int) error {
	return f.set(id, false)
}

func (f *FakeXInput) set(id int, floating bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if floating {
		f.detached = append(f.detached, id)
	} else {
		f.attached = append(f.attached, id)
	}
	if err := f.failures[id]; err != nil {
		return err
	}
	for _, d := range f.devices {
		if d.ID == id {
			d.Floating = floating
			return nil
		}
	}
	return fmt.Errorf("unable to find device %d", id)
}

// FailListing makes every listing fail with err (nil restores it).
func (f *FakeXInput) FailListing(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// FailDevice makes every action on id fail with err (nil restores it).
func (f *FakeXInput) FailDevice(id int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, id)
		return
	}
	f.failures[id] = err
}

// SetFloating changes a device's state without recording an action, as if
// something outside pomlock toggled it.
func (f *FakeXInput) SetFloating(id int, floating bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.devices {
		if d.ID == id {
			d.Floating = floating
		}
	}
}

// Floating returns the IDs of floating devices.
func (f *FakeXInput) Floating() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	for _, d := range f.devices {
		if d.Floating {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// DetachCalls returns every Detach call in order, including failed ones.
func (f *FakeXInput) DetachCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.detached...)
}

// AttachCalls returns every Attach call in order, including failed ones.
func (f *FakeXInput) AttachCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.attached...)
}

// Listings returns how many times the device table was queried.
func (f *FakeXInput) Listings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings
}

// Ensure FakeXInput implements the device interfaces.
var (
	_ domain.DeviceLister   = (*FakeXInput)(nil)
	_ domain.DeviceActuator = (*FakeXInput)(nil)
)
