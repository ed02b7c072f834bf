package infra

import (
	"fmt"
	"os"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

const xinputExtension = "XInputExtension"

// DisplayInfo describes the X display pomlock will lock.
type DisplayInfo struct {
	Display       string
	Vendor        string
	XInputPresent bool
	XInputOpcode  byte
}

// DisplayProbe checks that an X server with the XInput extension is reachable
// before any device is touched.
type DisplayProbe struct {
	display string
}

// NewDisplayProbe creates a probe for display ("" means $DISPLAY).
func NewDisplayProbe(display string) *DisplayProbe {
	return &DisplayProbe{display: display}
}

// Probe connects to the display and queries for XInputExtension.
func (p *DisplayProbe) Probe() (*DisplayInfo, error) {
	display := p.display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return nil, fmt.Errorf("%w: DISPLAY is not set", domain.ErrXInputUnavailable)
	}

	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display %s: %w", display, err)
	}
	defer conn.Close()

	info := &DisplayInfo{
		Display: display,
		Vendor:  xproto.Setup(conn).Vendor,
	}

	reply, err := xproto.QueryExtension(conn, uint16(len(xinputExtension)), xinputExtension).Reply()
	if err != nil {
		return info, fmt.Errorf("failed to query %s: %w", xinputExtension, err)
	}
	if !reply.Present {
		return info, fmt.Errorf("%w: %s", domain.ErrXInputUnavailable, display)
	}

	info.XInputPresent = true
	info.XInputOpcode = reply.MajorOpcode
	return info, nil
}
