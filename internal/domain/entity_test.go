package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionConfig_Validate(t *testing.T) {
	cfg := SessionConfig{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 20, CyclesBeforeLong: 4}
	assert.NoError(t, cfg.Validate())

	cfg.CyclesBeforeLong = 0
	assert.ErrorContains(t, cfg.Validate(), "cycles_before_long")

	cfg.CyclesBeforeLong = 4
	cfg.ShortBreakMinutes = -1
	assert.ErrorContains(t, cfg.Validate(), "short_break_minutes")
}

func TestSessionConfig_Durations(t *testing.T) {
	cfg := SessionConfig{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 20}

	assert.Equal(t, 25*time.Minute, cfg.WorkDuration())
	assert.Equal(t, 5*time.Minute, cfg.BreakDuration(ShortBreak))
	assert.Equal(t, 20*time.Minute, cfg.BreakDuration(LongBreak))
}

func TestBreakKind_State(t *testing.T) {
	assert.Equal(t, StateShortBreak, ShortBreak.State())
	assert.Equal(t, StateLongBreak, LongBreak.State())
}

func TestOverlayOptions_Keys(t *testing.T) {
	opts := OverlayOptions{"opacity": "0.8", "color": "white", "font_size": "48"}

	assert.Equal(t, []string{"color", "font_size", "opacity"}, opts.Keys())
	assert.Empty(t, OverlayOptions(nil).Keys())
}

func TestPartialLockFailure(t *testing.T) {
	cause := assert.AnError
	var err error = &PartialLockFailure{
		Class:     ClassPointer,
		Action:    ActionDisable,
		Succeeded: []int{10},
		Failed:    []int{12},
		Causes:    []error{cause},
	}

	assert.True(t, IsPartialLockFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disable pointer: 1 succeeded, 1 failed")
	assert.False(t, IsPartialLockFailure(ErrDeviceQueryFailed))
}
