package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/config"
	"github.com/eliteGoblin/focusd/pomlock/internal/daemon"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/internal/usecase"
)

// Hidden guardian command - spawned by 'start' via self-exec
var guardianCmd = &cobra.Command{
	Use:    "guardian",
	Hidden: true,
	RunE:   runGuardian,
}

var guardianPID int

func init() {
	guardianCmd.Flags().IntVar(&guardianPID, "pid", 0, "scheduler PID to watch")

	rootCmd.AddCommand(guardianCmd)
}

func runGuardian(cmd *cobra.Command, args []string) error {
	if guardianPID <= 0 {
		return fmt.Errorf("--pid is required")
	}

	paths := infra.ResolvePaths()
	logger := createDaemonLogger(paths)
	defer func() { _ = logger.Sync() }()

	// Restoring input matters more than honoring a broken config
	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Warn("invalid configuration, matching devices with defaults", zap.Error(err))
		cfg = config.Default()
	}

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(paths.SessionFile(), pm)
	xinput := infra.NewXInput()
	lock := usecase.NewLockController(xinput, xinput, policy.NewMatcher(cfg.DeviceRegistry()), logger)
	overlays := infra.NewOverlayManager(infra.OverlayConfig{
		Command: infra.NewFileSystem().ExpandHome(cfg.Overlay.Command),
	}, pm, logger)

	ctx, stop := signalContext()
	defer stop()

	guardian := daemon.NewGuardian(daemon.DefaultGuardianConfig(), guardianPID, registry, pm, lock, overlays, logger)
	if err := guardian.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
