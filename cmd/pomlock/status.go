package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/internal/usecase"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device and session status",
	Long: `Shows whether keyboard and pointer devices are attached, whether the X
display supports XInput, and the phase of the running session.

--waybar prints one JSON line for a waybar custom module:

  "custom/pomlock": {
      "exec": "pomlock status --waybar",
      "return-type": "json",
      "interval": 1
  }`,
	RunE: runStatus,
}

var (
	waybarOutput bool
	statusJSON   bool
)

func init() {
	statusCmd.Flags().BoolVar(&waybarOutput, "waybar", false, "print status-bar JSON")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print machine-readable status")

	rootCmd.AddCommand(statusCmd)
}

// statusReport is the --json output.
type statusReport struct {
	Display string                                        `json:"display,omitempty"`
	XInput  bool                                          `json:"xinput"`
	Devices map[domain.DeviceClass]domain.AttachmentState `json:"devices"`
	Session *domain.SessionEntry                          `json:"session"`
	Running bool                                          `json:"running"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	paths := infra.ResolvePaths()
	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(paths.SessionFile(), pm)

	entry, err := registry.Get()
	if err != nil {
		entry = nil
	}
	alive := entry != nil && pm.IsRunning(entry.SchedulerPID)

	if waybarOutput {
		return json.NewEncoder(os.Stdout).Encode(usecase.RenderStatusLine(entry, alive, time.Now()))
	}

	logger := zap.NewNop()
	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	report := statusReport{
		Devices: make(map[domain.DeviceClass]domain.AttachmentState),
		Running: alive,
	}
	if alive {
		report.Session = entry
	}

	info, probeErr := infra.NewDisplayProbe("").Probe()
	if info != nil {
		report.Display = info.Display
		report.XInput = info.XInputPresent
	}

	xinput := infra.NewXInput()
	lock := usecase.NewLockController(xinput, xinput, policy.NewMatcher(cfg.DeviceRegistry()), logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, class := range domain.AllClasses() {
		state, err := lock.Status(ctx, class)
		if err != nil {
			state = domain.Unknown
		}
		report.Devices[class] = state
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(titleStyle.Render("pomlock status"))
	fmt.Println()

	switch {
	case probeErr != nil:
		fmt.Println(row("Display", errStyle.Render(probeErr.Error())))
	default:
		fmt.Println(row("Display", fmt.Sprintf("%s (%s)", info.Display, info.Vendor)))
		fmt.Println(row("XInput", okStyle.Render("available")))
	}

	for _, class := range domain.AllClasses() {
		state := report.Devices[class]
		fmt.Println(row(classLabel(class), stateStyle(state).Render(string(state))))
	}
	fmt.Println()

	if !alive {
		fmt.Println(row("Session", mutedStyle.Render("not running")))
		fmt.Println("\nRun 'pomlock start' to begin a session.")
		return nil
	}

	line := usecase.RenderStatusLine(entry, alive, time.Now())
	fmt.Println(row("Session", activeStyle.Render(usecase.PhaseTitle(entry.Phase))))
	fmt.Println(row("Remaining", line.Text))
	fmt.Println(row("Cycle", fmt.Sprintf("%d/%d", entry.Cycle, entry.CyclesBeforeLong)))
	fmt.Println(row("Scheduler", fmt.Sprintf("pid %d", entry.SchedulerPID)))
	if entry.GuardianPID > 0 {
		guardian := okStyle.Render(fmt.Sprintf("pid %d", entry.GuardianPID))
		if !pm.IsRunning(entry.GuardianPID) {
			guardian = errStyle.Render(fmt.Sprintf("pid %d (not running)", entry.GuardianPID))
		}
		fmt.Println(row("Guardian", guardian))
	} else if entry.BlockInput {
		fmt.Println(row("Guardian", warnStyle.Render("none")))
	}
	if !entry.BlockInput {
		fmt.Println(row("Input", mutedStyle.Render("never locked (safe mode)")))
	}
	return nil
}

func classLabel(class domain.DeviceClass) string {
	switch class {
	case domain.ClassKeyboard:
		return "Keyboard"
	case domain.ClassPointer:
		return "Pointer"
	}
	return string(class)
}
