package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// Tuple is (work, short break, long break, cycles before long).
type Tuple struct {
	Work, Short, Long, Cycles int
}

// String renders the tuple in preset notation.
func (t Tuple) String() string {
	return fmt.Sprintf("%d %d %d %d", t.Work, t.Short, t.Long, t.Cycles)
}

// ParseTuple parses "WORK SHORT LONG CYCLES".
func ParseTuple(s string) (Tuple, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return Tuple{}, fmt.Errorf("expected 4 values \"WORK SHORT LONG CYCLES\", got %q", s)
	}

	var vals [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Tuple{}, fmt.Errorf("invalid number %q in %q", f, s)
		}
		if n <= 0 {
			return Tuple{}, fmt.Errorf("values must be positive integers, got %d in %q", n, s)
		}
		vals[i] = n
	}
	return Tuple{Work: vals[0], Short: vals[1], Long: vals[2], Cycles: vals[3]}, nil
}

// Timer resolves the timer setting: a preset name, or a custom tuple.
func (c *Config) Timer() (Tuple, error) {
	timer := strings.TrimSpace(c.Pomodoro.Timer)
	if timer == "" {
		timer = Default().Pomodoro.Timer
	}

	if preset, ok := c.Presets[strings.ToLower(timer)]; ok {
		t, err := ParseTuple(preset)
		if err != nil {
			return Tuple{}, fmt.Errorf("preset %q: %w", timer, err)
		}
		return t, nil
	}

	if len(strings.Fields(timer)) == 4 {
		return ParseTuple(timer)
	}
	return Tuple{}, fmt.Errorf("unknown preset %q (available: %s)", timer, strings.Join(c.PresetNames(), ", "))
}

// Resolve produces the immutable session config: the timer gives the base
// tuple and every non-zero individual duration overrides it.
func (c *Config) Resolve() (domain.SessionConfig, error) {
	t, err := c.Timer()
	if err != nil {
		return domain.SessionConfig{}, err
	}

	p := c.Pomodoro
	if p.WorkMinutes > 0 {
		t.Work = p.WorkMinutes
	}
	if p.ShortBreakMinutes > 0 {
		t.Short = p.ShortBreakMinutes
	}
	if p.LongBreakMinutes > 0 {
		t.Long = p.LongBreakMinutes
	}
	if p.CyclesBeforeLong > 0 {
		t.Cycles = p.CyclesBeforeLong
	}

	opts := make(domain.OverlayOptions, len(c.Overlay.Options))
	for k, v := range c.Overlay.Options {
		opts[k] = v
	}

	sc := domain.SessionConfig{
		WorkMinutes:            t.Work,
		ShortBreakMinutes:      t.Short,
		LongBreakMinutes:       t.Long,
		CyclesBeforeLong:       t.Cycles,
		EnableInputDuringBreak: !p.BlockInput,
		OverlayOptions:         opts,
		Notify:                 p.Notify,
		PomodoroNotifyMsg:      p.PomoNotifyMsg,
		BreakNotifyMsg:         p.BreakNotifyMsg,
		LongBreakNotifyMsg:     p.LongBreakNotifyMsg,
	}
	return sc, sc.Validate()
}
