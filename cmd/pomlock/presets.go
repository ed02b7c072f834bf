package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/config"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List timer presets",
	Long: `Lists built-in and user-defined presets as WORK SHORT LONG CYCLES in
minutes. Add your own under "presets:" in the config file.`,
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(zap.NewNop())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	active := strings.ToLower(strings.TrimSpace(cfg.Pomodoro.Timer))
	nameStyle := lipgloss.NewStyle().Width(14)
	cell := lipgloss.NewStyle().Width(8).Align(lipgloss.Right)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		nameStyle.Render("NAME"), cell.Render("WORK"), cell.Render("SHORT"), cell.Render("LONG"), cell.Render("CYCLES"))
	fmt.Println(titleStyle.Render(header))

	for _, name := range cfg.PresetNames() {
		t, err := config.ParseTuple(cfg.Presets[name])
		if err != nil {
			fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top, nameStyle.Render(name), errStyle.Render(err.Error())))
			continue
		}

		label := name
		if _, builtin := config.BuiltinPresets[name]; !builtin {
			label += "*"
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			nameStyle.Render(label),
			cell.Render(fmt.Sprint(t.Work)),
			cell.Render(fmt.Sprint(t.Short)),
			cell.Render(fmt.Sprint(t.Long)),
			cell.Render(fmt.Sprint(t.Cycles)))
		if name == active {
			line = activeStyle.Render(line)
		}
		fmt.Println(line)
	}

	fmt.Println(mutedStyle.Render("\n* user-defined"))
	return nil
}
