// Package config loads pomlock settings from defaults, the YAML config file,
// POMLOCK_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
)

// EnvPrefix is the environment variable prefix, e.g. POMLOCK_POMODORO_NOTIFY.
const EnvPrefix = "POMLOCK"

// Config represents the complete pomlock configuration
type Config struct {
	Pomodoro PomodoroConfig    `mapstructure:"pomodoro" yaml:"pomodoro"`
	Overlay  OverlayConfig     `mapstructure:"overlay" yaml:"overlay"`
	Devices  DevicesConfig     `mapstructure:"devices" yaml:"devices"`
	Presets  map[string]string `mapstructure:"presets" yaml:"presets"`
	Logging  LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// PomodoroConfig controls the session timing and side effects
type PomodoroConfig struct {
	// Timer is a preset name or a custom "WORK SHORT LONG CYCLES" tuple
	Timer string `mapstructure:"timer" yaml:"timer"`
	// Individual overrides; zero means "use the preset value"
	WorkMinutes       int `mapstructure:"work_minutes" yaml:"work_minutes,omitempty"`
	ShortBreakMinutes int `mapstructure:"short_break_minutes" yaml:"short_break_minutes,omitempty"`
	LongBreakMinutes  int `mapstructure:"long_break_minutes" yaml:"long_break_minutes,omitempty"`
	CyclesBeforeLong  int `mapstructure:"cycles_before_long" yaml:"cycles_before_long,omitempty"`

	// BlockInput floats keyboard and pointer devices during breaks
	BlockInput bool `mapstructure:"block_input" yaml:"block_input"`

	Notify             bool   `mapstructure:"notify" yaml:"notify"`
	PomoNotifyMsg      string `mapstructure:"pomo_notify_msg" yaml:"pomo_notify_msg"`
	BreakNotifyMsg     string `mapstructure:"break_notify_msg" yaml:"break_notify_msg"`
	LongBreakNotifyMsg string `mapstructure:"long_break_notify_msg" yaml:"long_break_notify_msg"`

	// Callback is a script run with one JSON argument on every transition
	Callback               string `mapstructure:"callback" yaml:"callback"`
	CallbackTimeoutSeconds int    `mapstructure:"callback_timeout_seconds" yaml:"callback_timeout_seconds"`
}

// OverlayConfig controls the break overlay process
type OverlayConfig struct {
	// Enabled false times breaks in-process without a window
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args,omitempty"`
	// GraceSeconds is how long an overlay may outlive its break
	GraceSeconds int `mapstructure:"grace_seconds" yaml:"grace_seconds"`
	// Options are passed to the overlay as --key=value
	Options map[string]string `mapstructure:"options" yaml:"options"`
}

// DevicesConfig controls which input devices belong to each class
type DevicesConfig struct {
	KeyboardTokens []string `mapstructure:"keyboard_tokens" yaml:"keyboard_tokens"`
	PointerTokens  []string `mapstructure:"pointer_tokens" yaml:"pointer_tokens"`
	// ExcludeTokens are added to the built-in "xtest" exclusion
	ExcludeTokens []string `mapstructure:"exclude_tokens" yaml:"exclude_tokens"`
}

// LoggingConfig controls the event log and operational logging
type LoggingConfig struct {
	// EventLog is the append-only session log; empty uses the XDG data dir
	EventLog string `mapstructure:"event_log" yaml:"event_log"`
	Level    string `mapstructure:"level" yaml:"level"`
}

// BuiltinPresets are always available; user presets with the same name win.
var BuiltinPresets = map[string]string{
	"standard":  "25 5 20 4",
	"ultradian": "90 20 20 1",
	"fifty_ten": "50 10 10 1",
}

// Default returns the default configuration
func Default() *Config {
	presets := make(map[string]string, len(BuiltinPresets))
	for k, v := range BuiltinPresets {
		presets[k] = v
	}

	return &Config{
		Pomodoro: PomodoroConfig{
			Timer:                  "standard",
			BlockInput:             true,
			Notify:                 true,
			PomoNotifyMsg:          "Time for a pomodoro!",
			BreakNotifyMsg:         "Time for a break!",
			LongBreakNotifyMsg:     "Time for a long break!",
			CallbackTimeoutSeconds: 10,
		},
		Overlay: OverlayConfig{
			Enabled:      true,
			Command:      "pomlock-overlay",
			GraceSeconds: 10,
			Options: map[string]string{
				"font_size": "48",
				"color":     "white",
				"bg_color":  "black",
				"opacity":   "0.8",
			},
		},
		Devices: DevicesConfig{
			KeyboardTokens: append([]string{}, policy.DefaultKeyboardTokens...),
			PointerTokens:  append([]string{}, policy.DefaultPointerTokens...),
			ExcludeTokens:  []string{},
		},
		Presets: presets,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers every default with v. The per-duration overrides get
// no default so that zero keeps meaning "unset".
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("pomodoro.timer", defaults.Pomodoro.Timer)
	v.SetDefault("pomodoro.block_input", defaults.Pomodoro.BlockInput)
	v.SetDefault("pomodoro.notify", defaults.Pomodoro.Notify)
	v.SetDefault("pomodoro.pomo_notify_msg", defaults.Pomodoro.PomoNotifyMsg)
	v.SetDefault("pomodoro.break_notify_msg", defaults.Pomodoro.BreakNotifyMsg)
	v.SetDefault("pomodoro.long_break_notify_msg", defaults.Pomodoro.LongBreakNotifyMsg)
	v.SetDefault("pomodoro.callback", defaults.Pomodoro.Callback)
	v.SetDefault("pomodoro.callback_timeout_seconds", defaults.Pomodoro.CallbackTimeoutSeconds)

	v.SetDefault("overlay.enabled", defaults.Overlay.Enabled)
	v.SetDefault("overlay.command", defaults.Overlay.Command)
	v.SetDefault("overlay.args", defaults.Overlay.Args)
	v.SetDefault("overlay.grace_seconds", defaults.Overlay.GraceSeconds)
	v.SetDefault("overlay.options", defaults.Overlay.Options)

	v.SetDefault("devices.keyboard_tokens", defaults.Devices.KeyboardTokens)
	v.SetDefault("devices.pointer_tokens", defaults.Devices.PointerTokens)
	v.SetDefault("devices.exclude_tokens", defaults.Devices.ExcludeTokens)

	v.SetDefault("presets", defaults.Presets)

	v.SetDefault("logging.event_log", defaults.Logging.EventLog)
	v.SetDefault("logging.level", defaults.Logging.Level)
}

// Init prepares v: defaults, config file location and environment binding.
// configFile overrides the XDG location when non-empty.
func Init(v *viper.Viper, configFile string) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	// POMLOCK_POMODORO_BLOCK_INPUT for pomodoro.block_input
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to Unmarshal unless bound
	for _, key := range overrideKeys {
		_ = v.BindEnv(key)
	}
}

// overrideKeys are the per-duration settings that deliberately have no default.
var overrideKeys = []string{
	"pomodoro.work_minutes",
	"pomodoro.short_break_minutes",
	"pomodoro.long_break_minutes",
	"pomodoro.cycles_before_long",
}

// Read reads the config file into v. A missing file is not an error; a file
// that exists but cannot be parsed is returned so the caller can warn and
// continue on defaults.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Presets = mergePresets(cfg.Presets)
	cfg.Overlay.Options = mergeOverlayOptions(Default().Overlay.Options, cfg.Overlay.Options)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// PresetNames returns preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeviceRegistry builds the matching policies from the devices section.
func (c *Config) DeviceRegistry() *policy.Registry {
	reg := policy.NewRegistryWithPolicies(
		policy.NewKeyboardPolicy(c.Devices.KeyboardTokens...),
		policy.NewPointerPolicy(c.Devices.PointerTokens...),
	)
	reg.SetExcludeTokens(c.Devices.ExcludeTokens...)
	return reg
}

// EventLogPath returns the configured event log, defaulting to the XDG data dir.
func (c *Config) EventLogPath() string {
	if c.Logging.EventLog == "" {
		return infra.ResolvePaths().EventLogFile()
	}
	return infra.NewFileSystem().ExpandHome(c.Logging.EventLog)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return &os.PathError{Op: "write", Path: path, Err: os.ErrExist}
	}

	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	return infra.ResolvePaths().ConfigDir
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return infra.ResolvePaths().ConfigFile()
}

func mergePresets(user map[string]string) map[string]string {
	merged := make(map[string]string, len(BuiltinPresets)+len(user))
	for k, v := range BuiltinPresets {
		merged[k] = v
	}
	for k, v := range user {
		merged[k] = v
	}
	return merged
}

// mergeOverlayOptions layers user overlay options over the defaults key by key.
func mergeOverlayOptions(defaults, user map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(user))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range user {
		merged[k] = v
	}
	return merged
}
