// Package daemon implements the foreground session runner and the guardian
// watchdog that restores input if the runner dies.
package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// SessionScheduler is the loop a SessionRunner drives.
type SessionScheduler interface {
	Run(ctx context.Context) error
}

// OverlaySweeper terminates overlay processes left by earlier runs.
type OverlaySweeper interface {
	SweepStale() []int
}

// GuardianSpawner starts the guardian for schedulerPID and returns its PID.
type GuardianSpawner interface {
	StartGuardian(schedulerPID int) (int, error)
}

// SessionConfig holds session runner configuration.
type SessionConfig struct {
	BlockInput     bool          // Input is locked during breaks
	Guardian       bool          // Spawn the guardian watchdog
	RestoreTimeout time.Duration // Bound on the last-chance Enable
}

// DefaultSessionConfig returns default session runner configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		BlockInput:     true,
		Guardian:       true,
		RestoreTimeout: 10 * time.Second,
	}
}

// SessionRunner owns one foreground session: it claims the registry, starts
// the guardian, runs the scheduler, and on every exit path terminates the
// overlay and re-enables input.
type SessionRunner struct {
	config         SessionConfig
	scheduler      SessionScheduler
	lock           domain.LockController
	overlay        domain.OverlayRunner
	registry       domain.SessionRegistry
	processManager domain.ProcessManager
	sweeper        OverlaySweeper
	spawner        GuardianSpawner
	logger         *zap.Logger
}

// NewSessionRunner creates a session runner. sweeper and spawner may be nil.
func NewSessionRunner(
	config SessionConfig,
	scheduler SessionScheduler,
	lock domain.LockController,
	overlay domain.OverlayRunner,
	registry domain.SessionRegistry,
	pm domain.ProcessManager,
	sweeper OverlaySweeper,
	spawner GuardianSpawner,
	logger *zap.Logger,
) *SessionRunner {
	return &SessionRunner{
		config:         config,
		scheduler:      scheduler,
		lock:           lock,
		overlay:        overlay,
		registry:       registry,
		processManager: pm,
		sweeper:        sweeper,
		spawner:        spawner,
		logger:         logger,
	}
}

// Run blocks until ctx is canceled or the scheduler fails. A stop via ctx
// is a clean exit and returns nil.
func (r *SessionRunner) Run(ctx context.Context) error {
	pid := r.processManager.GetCurrentPID()
	if err := r.registry.Register(pid, r.config.BlockInput); err != nil {
		r.logger.Error("failed to register session", zap.Error(err))
		return err
	}
	defer func() {
		if err := r.registry.Clear(); err != nil {
			r.logger.Warn("failed to clear session registry", zap.Error(err))
		}
	}()

	r.logger.Info("session registered",
		zap.Int("pid", pid),
		zap.String("registry", r.registry.Path()))

	if r.sweeper != nil {
		if swept := r.sweeper.SweepStale(); len(swept) > 0 {
			r.logger.Info("terminated stale overlays", zap.Ints("pids", swept))
		}
	}

	r.startGuardian(pid)

	// Runs before the registry is cleared so the guardian never sees a
	// cleared registry while input is still locked.
	defer r.shutdown(ctx)

	err := r.scheduler.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInterruptedDuringBreak):
		r.logger.Info("session stopped during break", zap.Error(err))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.logger.Info("session stopped")
		return nil
	default:
		r.logger.Error("session failed", zap.Error(err))
		return err
	}
}

func (r *SessionRunner) startGuardian(schedulerPID int) {
	if !r.config.Guardian || !r.config.BlockInput || r.spawner == nil {
		return
	}

	gpid, err := r.spawner.StartGuardian(schedulerPID)
	if err != nil {
		// Input is still restored on every in-process exit path
		r.logger.Warn("failed to start guardian", zap.Error(err))
		return
	}
	if err := r.registry.SetGuardian(gpid); err != nil {
		r.logger.Warn("failed to record guardian", zap.Error(err))
	}
	r.logger.Info("guardian started", zap.Int("pid", gpid))
}

// shutdown terminates any live overlay and runs the last-chance Enable.
func (r *SessionRunner) shutdown(ctx context.Context) {
	if err := r.overlay.Terminate(); err != nil {
		r.logger.Warn("failed to terminate overlay", zap.Error(err))
	}

	if !r.config.BlockInput {
		return
	}
	RestoreInput(ctx, r.lock, r.config.RestoreTimeout, r.logger)
}

// RestoreInput runs Enable for every device class, even when ctx is
// already canceled.
func RestoreInput(ctx context.Context, lock domain.LockController, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	for _, class := range domain.AllClasses() {
		result, err := lock.Enable(ctx, class)
		if err != nil {
			logger.Error("failed to restore input",
				zap.String("class", string(class)),
				zap.Ints("failed", result.Failed),
				zap.Error(err))
			continue
		}
		if result.Changed() {
			logger.Info("input restored",
				zap.String("class", string(class)),
				zap.Ints("ids", result.Succeeded))
		}
	}
}
