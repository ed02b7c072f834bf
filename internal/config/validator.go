package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "overlay.grace_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validatePomodoro()...)
	errs = append(errs, c.validateOverlay()...)
	errs = append(errs, c.validatePresets()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validatePomodoro() []ValidationError {
	var errs []ValidationError
	p := c.Pomodoro

	overrides := []struct {
		field string
		value int
	}{
		{"pomodoro.work_minutes", p.WorkMinutes},
		{"pomodoro.short_break_minutes", p.ShortBreakMinutes},
		{"pomodoro.long_break_minutes", p.LongBreakMinutes},
		{"pomodoro.cycles_before_long", p.CyclesBeforeLong},
	}
	for _, o := range overrides {
		if o.value < 0 {
			errs = append(errs, ValidationError{Field: o.field, Value: o.value, Message: "must be a positive integer"})
		}
	}

	if _, err := c.Timer(); err != nil {
		errs = append(errs, ValidationError{Field: "pomodoro.timer", Value: p.Timer, Message: err.Error()})
	}

	if p.CallbackTimeoutSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "pomodoro.callback_timeout_seconds",
			Value:   p.CallbackTimeoutSeconds,
			Message: "must not be negative",
		})
	}
	return errs
}

func (c *Config) validateOverlay() []ValidationError {
	var errs []ValidationError

	if c.Overlay.Enabled && strings.TrimSpace(c.Overlay.Command) == "" {
		errs = append(errs, ValidationError{Field: "overlay.command", Value: c.Overlay.Command, Message: "must be set when the overlay is enabled"})
	}
	if c.Overlay.GraceSeconds < 0 {
		errs = append(errs, ValidationError{Field: "overlay.grace_seconds", Value: c.Overlay.GraceSeconds, Message: "must not be negative"})
	}

	// Non-numeric opacity is the overlay's business
	if raw, ok := c.Overlay.Options["opacity"]; ok {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && (f < 0 || f > 1) {
			errs = append(errs, ValidationError{Field: "overlay.options.opacity", Value: raw, Message: "must be between 0.0 and 1.0"})
		}
	}
	return errs
}

func (c *Config) validatePresets() []ValidationError {
	var errs []ValidationError
	for _, name := range c.PresetNames() {
		if _, err := ParseTuple(c.Presets[name]); err != nil {
			errs = append(errs, ValidationError{Field: "presets." + name, Value: c.Presets[name], Message: err.Error()})
		}
	}
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	if c.Logging.Level == "" || slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		return nil
	}
	return []ValidationError{{
		Field:   "logging.level",
		Value:   c.Logging.Level,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
	}}
}
