package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// GuardianConfig holds guardian daemon configuration.
type GuardianConfig struct {
	CheckInterval  time.Duration // How often to check the scheduler
	RestoreTimeout time.Duration // Bound on the restoring Enable calls
}

// DefaultGuardianConfig returns default guardian configuration.
func DefaultGuardianConfig() GuardianConfig {
	return GuardianConfig{
		CheckInterval:  time.Second,
		RestoreTimeout: 10 * time.Second,
	}
}

// Guardian watches one scheduler process. If the scheduler dies without
// clearing the session registry, it re-enables input, terminates stray
// overlays and clears the registry.
type Guardian struct {
	config         GuardianConfig
	schedulerPID   int
	registry       domain.SessionRegistry
	processManager domain.ProcessManager
	lock           domain.LockController
	sweeper        OverlaySweeper
	logger         *zap.Logger
}

// NewGuardian creates a new guardian daemon.
func NewGuardian(
	config GuardianConfig,
	schedulerPID int,
	registry domain.SessionRegistry,
	pm domain.ProcessManager,
	lock domain.LockController,
	sweeper OverlaySweeper,
	logger *zap.Logger,
) *Guardian {
	return &Guardian{
		config:         config,
		schedulerPID:   schedulerPID,
		registry:       registry,
		processManager: pm,
		lock:           lock,
		sweeper:        sweeper,
		logger:         logger,
	}
}

// Run polls until the watched session ends. This blocks until the session
// ends or ctx is canceled.
func (g *Guardian) Run(ctx context.Context) error {
	g.logger.Info("guardian started",
		zap.Int("pid", g.processManager.GetCurrentPID()),
		zap.Int("scheduler_pid", g.schedulerPID))

	ticker := time.NewTicker(g.config.CheckInterval)
	defer ticker.Stop()

	for {
		if g.Check(ctx) {
			return nil
		}

		select {
		case <-ctx.Done():
			g.logger.Info("guardian stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check inspects the session once and reports whether the guardian is done.
func (g *Guardian) Check(ctx context.Context) bool {
	entry, err := g.registry.Get()
	if err != nil {
		// Unreadable registry: fall back to the PID alone
		g.logger.Warn("failed to read session registry", zap.Error(err))
	} else if entry == nil {
		g.logger.Info("session ended cleanly")
		RestoreInput(ctx, g.lock, g.config.RestoreTimeout, g.logger)
		return true
	} else if entry.SchedulerPID != g.schedulerPID {
		g.logger.Info("registry owned by another session, exiting",
			zap.Int("scheduler_pid", entry.SchedulerPID))
		return true
	}

	if g.processManager.IsRunning(g.schedulerPID) {
		return false
	}

	g.logger.Warn("scheduler exited without cleanup, restoring input",
		zap.Int("scheduler_pid", g.schedulerPID))
	g.recover(ctx)
	return true
}

func (g *Guardian) recover(ctx context.Context) {
	RestoreInput(ctx, g.lock, g.config.RestoreTimeout, g.logger)

	if g.sweeper != nil {
		if swept := g.sweeper.SweepStale(); len(swept) > 0 {
			g.logger.Info("terminated orphaned overlays", zap.Ints("pids", swept))
		}
	}

	if err := g.registry.Clear(); err != nil {
		g.logger.Warn("failed to clear session registry", zap.Error(err))
	}
}
