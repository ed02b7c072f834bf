package infra

import (
	"context"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// DesktopNotifier sends desktop notifications via notify-send.
type DesktopNotifier struct {
	appName string
	runner  CommandRunner
}

// NewDesktopNotifier creates a new desktop notifier.
func NewDesktopNotifier(runner CommandRunner) *DesktopNotifier {
	return &DesktopNotifier{
		appName: "pomlock",
		runner:  runner,
	}
}

// Available checks if notify-send is available.
func (n *DesktopNotifier) Available() bool {
	_, err := n.runner.LookPath("notify-send")
	return err == nil
}

// Notify sends a desktop notification. Silently skipped when notify-send is missing.
func (n *DesktopNotifier) Notify(ctx context.Context, title, body string) error {
	if !n.Available() {
		return nil
	}

	args := []string{
		"--app-name=" + n.appName,
		"--urgency=normal",
		"--icon=dialog-information",
		title,
	}
	if body != "" {
		args = append(args, body)
	}

	_, err := n.runner.Run(ctx, "notify-send", args...)
	return err
}

// Ensure DesktopNotifier implements domain.Notifier.
var _ domain.Notifier = (*DesktopNotifier)(nil)
