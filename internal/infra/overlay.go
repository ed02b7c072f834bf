package infra

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// OverlayConfig holds overlay process settings.
type OverlayConfig struct {
	Command   string        // Overlay executable
	Args      []string      // Leading arguments before the duration
	Grace     time.Duration // How long an overlay may outlive its break before it is killed
	TermGrace time.Duration // SIGTERM to SIGKILL escalation delay
}

// DefaultOverlayConfig returns default overlay configuration.
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		Command:   "pomlock-overlay",
		Grace:     10 * time.Second,
		TermGrace: 2 * time.Second,
	}
}

// overlayProc is one live overlay instance.
type overlayProc struct {
	cmd    *exec.Cmd
	exited chan struct{}
	err    error
}

// OverlayManager implements domain.OverlayRunner. At most one overlay is
// alive at a time; starting a new one terminates the previous instance.
type OverlayManager struct {
	config         OverlayConfig
	processManager domain.ProcessManager
	logger         *zap.Logger

	mu       sync.Mutex
	current  *overlayProc
	observer func(pid int)
}

// NewOverlayManager creates a new overlay process manager.
func NewOverlayManager(config OverlayConfig, pm domain.ProcessManager, logger *zap.Logger) *OverlayManager {
	if config.TermGrace <= 0 {
		config.TermGrace = DefaultOverlayConfig().TermGrace
	}
	return &OverlayManager{
		config:         config,
		processManager: pm,
		logger:         logger,
	}
}

// OnPIDChange registers a callback told about the live overlay PID (0 when none).
func (m *OverlayManager) OnPIDChange(fn func(pid int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

// BuildOverlayArgs renders the overlay command line:
// <prefix...> <seconds> --key=value ... with keys in stable order.
func BuildOverlayArgs(prefix []string, duration time.Duration, opts domain.OverlayOptions) []string {
	args := append([]string{}, prefix...)
	args = append(args, strconv.Itoa(int(duration.Seconds())))
	for _, k := range opts.Keys() {
		args = append(args, fmt.Sprintf("--%s=%s", k, opts[k]))
	}
	return args
}

// RunOverlay starts the overlay and blocks until it exits, outlives its
// break, or ctx is canceled. An overlay that exits on its own (including the
// user closing it) completes the break.
func (m *OverlayManager) RunOverlay(ctx context.Context, duration time.Duration, opts domain.OverlayOptions) error {
	if err := m.Terminate(); err != nil {
		m.logger.Warn("failed to terminate previous overlay", zap.Error(err))
	}

	args := BuildOverlayArgs(m.config.Args, duration, opts)
	cmd := exec.Command(m.config.Command, args...)
	// Own process group so helpers the overlay spawns die with it
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrOverlayLaunchFailed, m.config.Command, err)
	}

	proc := &overlayProc{cmd: cmd, exited: make(chan struct{})}
	go func() {
		proc.err = cmd.Wait()
		close(proc.exited)
	}()
	m.setCurrent(proc)
	defer m.clearCurrent(proc)

	m.logger.Info("overlay started",
		zap.Int("pid", cmd.Process.Pid),
		zap.Duration("duration", duration))

	watchdog := time.NewTimer(duration + m.config.Grace)
	defer watchdog.Stop()

	select {
	case <-proc.exited:
		if proc.err != nil {
			m.logger.Warn("overlay exited with error", zap.Error(proc.err))
		} else {
			m.logger.Debug("overlay exited")
		}
		return nil

	case <-ctx.Done():
		m.logger.Info("terminating overlay on shutdown", zap.Int("pid", cmd.Process.Pid))
		if err := m.stop(proc); err != nil {
			m.logger.Error("failed to terminate overlay", zap.Error(err))
		}
		return ctx.Err()

	case <-watchdog.C:
		m.logger.Warn("overlay outlived its break, terminating",
			zap.Int("pid", cmd.Process.Pid),
			zap.Duration("grace", m.config.Grace))
		return m.stop(proc)
	}
}

// Terminate kills the live overlay instance, if any.
func (m *OverlayManager) Terminate() error {
	m.mu.Lock()
	proc := m.current
	m.mu.Unlock()

	if proc == nil {
		return nil
	}
	return m.stop(proc)
}

// SweepStale terminates overlay processes not owned by this manager, e.g.
// left behind by a run that crashed. Returns the PIDs it terminated.
func (m *OverlayManager) SweepStale() []int {
	if m.processManager == nil {
		return nil
	}

	pids, err := m.processManager.FindByName(filepath.Base(m.config.Command))
	if err != nil {
		m.logger.Warn("failed to look for stale overlays", zap.Error(err))
		return nil
	}

	m.mu.Lock()
	ownPID := 0
	if m.current != nil {
		ownPID = m.current.cmd.Process.Pid
	}
	m.mu.Unlock()

	var swept []int
	for _, pid := range pids {
		if pid == ownPID {
			continue
		}
		if err := m.processManager.Terminate(pid, m.config.TermGrace); err != nil {
			m.logger.Warn("failed to terminate stale overlay", zap.Int("pid", pid), zap.Error(err))
			continue
		}
		m.logger.Info("terminated stale overlay", zap.Int("pid", pid))
		swept = append(swept, pid)
	}
	return swept
}

// stop sends SIGTERM to the overlay's process group, escalating to SIGKILL.
func (m *OverlayManager) stop(proc *overlayProc) error {
	select {
	case <-proc.exited:
		return nil
	default:
	}

	signalGroup(proc.cmd, unix.SIGTERM)
	select {
	case <-proc.exited:
		return nil
	case <-time.After(m.config.TermGrace):
	}

	signalGroup(proc.cmd, unix.SIGKILL)
	select {
	case <-proc.exited:
		return nil
	case <-time.After(m.config.TermGrace):
		return fmt.Errorf("overlay pid %d did not exit after SIGKILL", proc.cmd.Process.Pid)
	}
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) {
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, sig); err != nil {
		_ = cmd.Process.Signal(sig)
	}
}

func (m *OverlayManager) setCurrent(proc *overlayProc) {
	m.mu.Lock()
	m.current = proc
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(proc.cmd.Process.Pid)
	}
}

func (m *OverlayManager) clearCurrent(proc *overlayProc) {
	m.mu.Lock()
	if m.current != proc {
		m.mu.Unlock()
		return
	}
	m.current = nil
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(0)
	}
}

// TimerOverlay implements domain.OverlayRunner without a window: the break
// is timed in-process. Used when the overlay is switched off.
type TimerOverlay struct{}

// NewTimerOverlay creates a windowless break timer.
func NewTimerOverlay() *TimerOverlay {
	return &TimerOverlay{}
}

// RunOverlay waits for duration or ctx cancellation.
func (t *TimerOverlay) RunOverlay(ctx context.Context, duration time.Duration, _ domain.OverlayOptions) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminate is a no-op; there is no process.
func (t *TimerOverlay) Terminate() error {
	return nil
}

// Ensure both runners implement domain.OverlayRunner.
var (
	_ domain.OverlayRunner = (*OverlayManager)(nil)
	_ domain.OverlayRunner = (*TimerOverlay)(nil)
)
