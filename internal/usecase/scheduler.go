package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Scheduler alternates work periods and breaks, locking input around the
// overlay for every break. Single-threaded: one period at a time.
type Scheduler struct {
	config   domain.SessionConfig
	lock     domain.LockController
	overlay  domain.OverlayRunner
	eventLog domain.EventLog
	logger   *zap.Logger

	notifier domain.Notifier
	hooks    []domain.TransitionHook
	sleep    SleepFunc
	now      func() time.Time

	mu    sync.Mutex
	state domain.SessionState
	cycle int
}

// SchedulerOption configures optional collaborators.
type SchedulerOption func(*Scheduler)

// WithNotifier sends a desktop notification at every transition when the
// config enables notifications.
func WithNotifier(n domain.Notifier) SchedulerOption {
	return func(s *Scheduler) { s.notifier = n }
}

// WithHooks registers transition hooks (session registry, callback script).
func WithHooks(hooks ...domain.TransitionHook) SchedulerOption {
	return func(s *Scheduler) { s.hooks = append(s.hooks, hooks...) }
}

// WithSleep replaces the work-period wait (for testing).
func WithSleep(fn SleepFunc) SchedulerOption {
	return func(s *Scheduler) { s.sleep = fn }
}

// WithClock replaces the timestamp source (for testing).
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a session scheduler. The config is validated by Run.
func NewScheduler(
	config domain.SessionConfig,
	lock domain.LockController,
	overlay domain.OverlayRunner,
	eventLog domain.EventLog,
	logger *zap.Logger,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config:   config,
		lock:     lock,
		overlay:  overlay,
		eventLog: eventLog,
		logger:   logger,
		sleep:    sleepContext,
		now:      time.Now,
		state:    domain.StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run logs SessionStarted and cycles until ctx is canceled. It returns
// ctx.Err() when stopped during work and an error wrapping
// domain.ErrInterruptedDuringBreak when stopped during a break; in both
// cases input has been restored before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}

	s.logger.Info("session started",
		zap.Int("work_minutes", s.config.WorkMinutes),
		zap.Int("short_break_minutes", s.config.ShortBreakMinutes),
		zap.Int("long_break_minutes", s.config.LongBreakMinutes),
		zap.Int("cycles_before_long", s.config.CyclesBeforeLong),
		zap.Bool("block_input", !s.config.EnableInputDuringBreak))
	s.record(domain.EventSessionStarted, 0)

	defer s.setState(domain.StateIdle)
	for {
		if _, err := s.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one work period followed by one break and returns the break kind.
func (s *Scheduler) Step(ctx context.Context) (domain.BreakKind, error) {
	work := s.config.WorkDuration()
	s.enter(ctx, domain.StateWorking, work)

	if err := s.sleep(ctx, work); err != nil {
		s.logger.Info("stopped during work period", zap.Error(err))
		return "", err
	}

	kind := s.completeWork(work)
	return kind, s.runBreak(ctx, kind)
}

// State returns the current scheduler state.
func (s *Scheduler) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cycle returns the current cycle counter.
func (s *Scheduler) Cycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

// completeWork logs WorkCompleted with the incremented counter and picks the
// next break. The counter resets when the long break is chosen.
func (s *Scheduler) completeWork(work time.Duration) domain.BreakKind {
	s.mu.Lock()
	s.cycle++
	cycle := s.cycle
	kind := domain.ShortBreak
	if s.cycle >= s.config.CyclesBeforeLong {
		kind = domain.LongBreak
		s.cycle = 0
	}
	s.mu.Unlock()

	s.recordCycle(domain.EventWorkCompleted, work, cycle)
	return kind
}

func (s *Scheduler) runBreak(ctx context.Context, kind domain.BreakKind) error {
	duration := s.config.BreakDuration(kind)

	event := domain.EventShortBreakStarted
	if kind == domain.LongBreak {
		event = domain.EventLongBreakStarted
	}
	s.record(event, duration)
	s.enter(ctx, kind.State(), duration)

	var guard *InputGuard
	if !s.config.EnableInputDuringBreak {
		guard = NewInputGuard(s.lock, s.logger)
		guard.Acquire(ctx)
		defer guard.Release(ctx)
	}

	err := s.overlay.RunOverlay(ctx, duration, s.config.OverlayOptions)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return s.interrupted(ctx, kind)

	case errors.Is(err, domain.ErrOverlayLaunchFailed):
		s.logger.Error("overlay failed to start, restoring input", zap.Error(err))
		if guard != nil {
			guard.Release(ctx)
		}
		if err := s.sleep(ctx, duration); err != nil {
			return s.interrupted(ctx, kind)
		}

	default:
		s.logger.Warn("overlay exited abnormally", zap.Error(err))
	}

	s.record(domain.EventBreakCompleted, duration)
	return nil
}

func (s *Scheduler) interrupted(ctx context.Context, kind domain.BreakKind) error {
	s.logger.Info("stopped during break, restoring input", zap.String("break", string(kind)))
	return fmt.Errorf("%w (%s): %w", domain.ErrInterruptedDuringBreak, kind, ctx.Err())
}

// enter switches state, then tells hooks and the notifier.
func (s *Scheduler) enter(ctx context.Context, state domain.SessionState, duration time.Duration) {
	s.mu.Lock()
	s.state = state
	t := domain.Transition{
		State:            state,
		StartedAt:        s.now(),
		Duration:         duration,
		Cycle:            s.cycle,
		CyclesBeforeLong: s.config.CyclesBeforeLong,
	}
	s.mu.Unlock()

	s.logger.Info("entering state",
		zap.String("state", string(state)),
		zap.Duration("duration", duration),
		zap.Int("cycle", t.Cycle))

	for _, hook := range s.hooks {
		if err := hook.OnTransition(ctx, t); err != nil {
			s.logger.Warn("transition hook failed", zap.String("state", string(state)), zap.Error(err))
		}
	}

	if s.notifier == nil || !s.config.Notify {
		return
	}
	if msg := s.notifyMessage(state); msg != "" {
		if err := s.notifier.Notify(ctx, "pomlock", msg); err != nil {
			s.logger.Debug("notification failed", zap.Error(err))
		}
	}
}

func (s *Scheduler) notifyMessage(state domain.SessionState) string {
	switch state {
	case domain.StateWorking:
		return s.config.PomodoroNotifyMsg
	case domain.StateShortBreak:
		return s.config.BreakNotifyMsg
	case domain.StateLongBreak:
		return s.config.LongBreakNotifyMsg
	}
	return ""
}

func (s *Scheduler) setState(state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Scheduler) record(kind domain.EventKind, duration time.Duration) {
	s.recordCycle(kind, duration, s.Cycle())
}

// recordCycle appends to the event log. Log failures are never fatal.
func (s *Scheduler) recordCycle(kind domain.EventKind, duration time.Duration, cycle int) {
	if s.eventLog == nil {
		return
	}
	entry := domain.LogEntry{
		Timestamp:       s.now().UTC(),
		Kind:            kind,
		DurationSeconds: int(duration.Seconds()),
		CycleCount:      cycle,
	}
	if err := s.eventLog.Append(entry); err != nil {
		s.logger.Warn("failed to append event log", zap.String("event", string(kind)), zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
