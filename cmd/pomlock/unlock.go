package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/internal/usecase"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Re-attach keyboard and pointer devices",
	Long: `Re-attaches every floating keyboard and pointer device. Use this if a
session was killed in a way the guardian could not recover from.

--all re-attaches every floating device, whatever its name.`,
	RunE: runUnlock,
}

var unlockAll bool

func init() {
	unlockCmd.Flags().BoolVar(&unlockAll, "all", false, "re-attach every floating device")

	rootCmd.AddCommand(unlockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(infra.ResolvePaths().SessionFile(), pm)
	if entry, _ := registry.Get(); entry != nil && pm.IsRunning(entry.SchedulerPID) {
		fmt.Println(warnStyle.Render(fmt.Sprintf(
			"A session is running (pid %d); it will lock input again at its next break.", entry.SchedulerPID)))
	}

	xinput := infra.NewXInput()
	lock := usecase.NewLockController(xinput, xinput, policy.NewMatcher(cfg.DeviceRegistry()), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var failed bool
	report := func(label string, result domain.LockResult, err error) {
		switch {
		case err != nil:
			failed = true
			fmt.Println(row(label, errStyle.Render(err.Error())))
		case result.Noop:
			fmt.Println(row(label, mutedStyle.Render("nothing to re-attach")))
		default:
			fmt.Println(row(label, okStyle.Render(fmt.Sprintf("re-attached %v", result.Succeeded))))
		}
	}

	if unlockAll {
		result, err := lock.EnableAllFloating(ctx)
		report("All devices", result, err)
	} else {
		for _, class := range domain.AllClasses() {
			result, err := lock.Enable(ctx, class)
			report(classLabel(class), result, err)
		}
	}

	if failed {
		return fmt.Errorf("some devices could not be re-attached")
	}
	return nil
}
