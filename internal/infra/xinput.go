package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// DefaultXInputBinary is the X input device tool.
const DefaultXInputBinary = "xinput"

// XInput implements domain.DeviceLister and domain.DeviceActuator by shelling
// out to xinput. Disabling a device floats it off its master; enabling
// re-attaches it to the master it was last bound to.
type XInput struct {
	binary string
	runner CommandRunner
}

// NewXInput creates an adapter for the xinput binary in PATH.
func NewXInput() *XInput {
	return NewXInputWithRunner(DefaultXInputBinary, NewExecRunner())
}

// NewXInputWithRunner creates an adapter with a custom binary and runner (for testing).
func NewXInputWithRunner(binary string, runner CommandRunner) *XInput {
	if binary == "" {
		binary = DefaultXInputBinary
	}
	return &XInput{binary: binary, runner: runner}
}

// IsAvailable checks whether the xinput binary can be found.
func (x *XInput) IsAvailable() bool {
	_, err := x.runner.LookPath(x.binary)
	return err == nil
}

// ListInputDevices runs `xinput list` and returns its non-empty lines.
func (x *XInput) ListInputDevices(ctx context.Context) ([]string, error) {
	out, err := x.runner.Run(ctx, x.binary, "list")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDeviceQueryFailed, err)
	}

	var listing []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		listing = append(listing, strings.TrimRight(line, "\r"))
	}
	return listing, nil
}

// Detach floats the device off its master.
func (x *XInput) Detach(ctx context.Context, id int) error {
	return x.set(ctx, "disable", id)
}

// Attach re-binds a floating device.
func (x *XInput) Attach(ctx context.Context, id int) error {
	return x.set(ctx, "enable", id)
}

func (x *XInput) set(ctx context.Context, action string, id int) error {
	if _, err := x.runner.Run(ctx, x.binary, action, strconv.Itoa(id)); err != nil {
		return fmt.Errorf("failed to %s device %d: %w", action, id, err)
	}
	return nil
}

// Ensure XInput implements the device interfaces.
var (
	_ domain.DeviceLister   = (*XInput)(nil)
	_ domain.DeviceActuator = (*XInput)(nil)
)
