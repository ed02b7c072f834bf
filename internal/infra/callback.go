package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// DefaultCallbackTimeout bounds one callback invocation.
const DefaultCallbackTimeout = 10 * time.Second

// CallbackPayload is the single JSON argument passed to the user's script.
type CallbackPayload struct {
	Action      domain.SessionState `json:"action"`
	Minutes     int                 `json:"time"`
	StartTime   int64               `json:"start_time"`
	Cycle       int                 `json:"crr_cycle"`
	TotalCycles int                 `json:"total_cycles"`
}

// NewCallbackPayload converts a transition into the script payload.
func NewCallbackPayload(t domain.Transition) CallbackPayload {
	return CallbackPayload{
		Action:      t.State,
		Minutes:     int(t.Duration.Minutes()),
		StartTime:   t.StartedAt.Unix(),
		Cycle:       t.Cycle,
		TotalCycles: t.CyclesBeforeLong,
	}
}

// CallbackHook runs a user script on every scheduler transition.
type CallbackHook struct {
	script  string
	timeout time.Duration
	runner  CommandRunner
	logger  *zap.Logger
}

// NewCallbackHook creates a hook for script. A non-positive timeout uses the default.
func NewCallbackHook(script string, timeout time.Duration, runner CommandRunner, logger *zap.Logger) *CallbackHook {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	return &CallbackHook{
		script:  script,
		timeout: timeout,
		runner:  runner,
		logger:  logger,
	}
}

// OnTransition invokes the script with the JSON payload and waits for it.
func (h *CallbackHook) OnTransition(ctx context.Context, t domain.Transition) error {
	payload, err := json.Marshal(NewCallbackPayload(t))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	out, err := h.runner.Run(ctx, h.script, string(payload))
	if err != nil {
		return fmt.Errorf("callback %s: %w", h.script, err)
	}

	h.logger.Debug("callback finished",
		zap.String("script", h.script),
		zap.String("action", string(t.State)),
		zap.Int("output_bytes", len(out)))
	return nil
}

// Ensure CallbackHook implements domain.TransitionHook.
var _ domain.TransitionHook = (*CallbackHook)(nil)
