package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/daemon"
	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/internal/usecase"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a pomodoro session in the foreground",
	Long: `Runs work and break periods until interrupted with Ctrl-C.

The timer is a preset name (see 'pomlock presets') or a custom
"WORK SHORT LONG CYCLES" tuple in minutes; individual flags override it:

  pomlock start -t ultradian
  pomlock start -t "50 10 30 3"
  pomlock start -p 45 -s 10

Input devices are detached during every break unless --safe is given.`,
	RunE: runStart,
}

var (
	safeMode   bool
	noGuardian bool
)

func init() {
	f := startCmd.Flags()
	f.StringP("timer", "t", "", "preset name or \"WORK SHORT LONG CYCLES\"")
	f.IntP("pomodoro", "p", 0, "work period in minutes")
	f.IntP("short-break", "s", 0, "short break in minutes")
	f.IntP("long-break", "l", 0, "long break in minutes")
	f.IntP("cycles", "c", 0, "work periods before a long break")
	f.Bool("block-input", true, "detach keyboard and pointer during breaks")
	f.Bool("notify", true, "send desktop notifications")
	f.Bool("overlay", true, "show the break overlay window")
	f.BoolVar(&safeMode, "safe", false, "never touch input devices (same as --block-input=false)")
	f.BoolVar(&noGuardian, "no-guardian", false, "do not start the guardian process")

	_ = v.BindPFlag("pomodoro.timer", f.Lookup("timer"))
	_ = v.BindPFlag("pomodoro.work_minutes", f.Lookup("pomodoro"))
	_ = v.BindPFlag("pomodoro.short_break_minutes", f.Lookup("short-break"))
	_ = v.BindPFlag("pomodoro.long_break_minutes", f.Lookup("long-break"))
	_ = v.BindPFlag("pomodoro.cycles_before_long", f.Lookup("cycles"))
	_ = v.BindPFlag("pomodoro.block_input", f.Lookup("block-input"))
	_ = v.BindPFlag("pomodoro.notify", f.Lookup("notify"))
	_ = v.BindPFlag("overlay.enabled", f.Lookup("overlay"))

	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	if safeMode {
		v.Set("pomodoro.block_input", false)
	}

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	sessionConfig, err := cfg.Resolve()
	if err != nil {
		return fmt.Errorf("invalid session settings: %w", err)
	}

	paths := infra.ResolvePaths()
	fs := infra.NewFileSystem()
	pm := infra.NewProcessManager()
	runner := infra.NewExecRunner()
	blockInput := !sessionConfig.EnableInputDuringBreak

	xinput := infra.NewXInputWithRunner(infra.DefaultXInputBinary, runner)
	if blockInput {
		preflight(xinput, logger)
	}
	lock := usecase.NewLockController(xinput, xinput, policy.NewMatcher(cfg.DeviceRegistry()), logger)

	registry := infra.NewFileRegistry(paths.SessionFile(), pm)

	overlays := infra.NewOverlayManager(infra.OverlayConfig{
		Command: fs.ExpandHome(cfg.Overlay.Command),
		Args:    cfg.Overlay.Args,
		Grace:   time.Duration(cfg.Overlay.GraceSeconds) * time.Second,
	}, pm, logger)
	overlays.OnPIDChange(func(pid int) {
		if err := registry.SetOverlay(pid); err != nil {
			logger.Debug("failed to record overlay pid", zap.Error(err))
		}
	})

	var overlay domain.OverlayRunner = overlays
	if !cfg.Overlay.Enabled {
		overlay = infra.NewTimerOverlay()
	} else if _, err := runner.LookPath(cfg.Overlay.Command); err != nil && !fs.IsExecutable(cfg.Overlay.Command) {
		logger.Warn("overlay command not found, breaks will run without an overlay",
			zap.String("command", cfg.Overlay.Command))
	}

	hooks := []domain.TransitionHook{registry}
	if cfg.Pomodoro.Callback != "" {
		timeout := time.Duration(cfg.Pomodoro.CallbackTimeoutSeconds) * time.Second
		hooks = append(hooks, infra.NewCallbackHook(fs.ExpandHome(cfg.Pomodoro.Callback), timeout, runner, logger))
	}
	opts := []usecase.SchedulerOption{usecase.WithHooks(hooks...)}
	if sessionConfig.Notify {
		notifier := infra.NewDesktopNotifier(runner)
		if !notifier.Available() {
			logger.Info("notify-send not found, notifications disabled")
		}
		opts = append(opts, usecase.WithNotifier(notifier))
	}

	eventLog := infra.NewEventLog(cfg.EventLogPath())
	scheduler := usecase.NewScheduler(sessionConfig, lock, overlay, eventLog, logger, opts...)

	var guardianArgs []string
	if cfgFile != "" {
		guardianArgs = append(guardianArgs, "--config", cfgFile)
	}
	var spawner daemon.GuardianSpawner
	if s, err := daemon.NewSpawner(guardianArgs...); err != nil {
		logger.Warn("cannot locate own executable, running without guardian", zap.Error(err))
	} else {
		spawner = s
	}

	runnerConfig := daemon.DefaultSessionConfig()
	runnerConfig.BlockInput = blockInput
	runnerConfig.Guardian = !noGuardian

	logger.Info("starting session",
		zap.Int("work_minutes", sessionConfig.WorkMinutes),
		zap.Int("short_break_minutes", sessionConfig.ShortBreakMinutes),
		zap.Int("long_break_minutes", sessionConfig.LongBreakMinutes),
		zap.Int("cycles_before_long", sessionConfig.CyclesBeforeLong),
		zap.Bool("block_input", blockInput),
		zap.String("event_log", eventLog.Path()))

	ctx, stop := signalContext()
	defer stop()

	session := daemon.NewSessionRunner(runnerConfig, scheduler, lock, overlay, registry, pm, overlays, spawner, logger)
	if err := session.Run(ctx); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			return fmt.Errorf("%w (see 'pomlock status')", err)
		}
		return err
	}
	return nil
}

// preflight warns when the display or xinput cannot be used.
func preflight(xinput *infra.XInput, logger *zap.Logger) {
	if !xinput.IsAvailable() {
		logger.Warn("xinput not found in PATH, input will not be locked")
		return
	}
	info, err := infra.NewDisplayProbe("").Probe()
	if err != nil {
		logger.Warn("X display check failed, locking may not work", zap.Error(err))
		return
	}
	logger.Debug("display ready",
		zap.String("display", info.Display),
		zap.String("vendor", info.Vendor))
}
