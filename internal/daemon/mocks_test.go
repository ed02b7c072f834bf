package daemon

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// memoryRegistry implements domain.SessionRegistry in memory.
type memoryRegistry struct {
	mu       sync.Mutex
	entry    *domain.SessionEntry
	getErr   error
	clears   int
	conflict bool
}

func (r *memoryRegistry) Register(pid int, blockInput bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflict {
		return domain.ErrAlreadyRunning
	}
	r.entry = &domain.SessionEntry{Version: 1, SchedulerPID: pid, BlockInput: blockInput}
	return nil
}

func (r *memoryRegistry) SetGuardian(pid int) error {
	return r.update(func(e *domain.SessionEntry) { e.GuardianPID = pid })
}

func (r *memoryRegistry) SetOverlay(pid int) error {
	return r.update(func(e *domain.SessionEntry) { e.OverlayPID = pid })
}

func (r *memoryRegistry) Publish(t domain.Transition) error {
	return r.update(func(e *domain.SessionEntry) { e.Phase = t.State })
}

func (r *memoryRegistry) update(fn func(*domain.SessionEntry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil {
		return errors.New("no session")
	}
	fn(r.entry)
	return nil
}

func (r *memoryRegistry) Get() (*domain.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.entry == nil {
		return nil, nil
	}
	e := *r.entry
	return &e, nil
}

func (r *memoryRegistry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry = nil
	r.clears++
	return nil
}

func (r *memoryRegistry) Path() string {
	return "/run/user/1000/pomlock/session.json"
}

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	mu          sync.Mutex
	runningPIDs map[int]bool
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{runningPIDs: make(map[int]bool)}
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) { return nil, nil }
func (m *mockProcessManager) Kill(pid int) error                       { return nil }
func (m *mockProcessManager) Terminate(pid int, grace time.Duration) error {
	return nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runningPIDs[pid]
}

func (m *mockProcessManager) GetCurrentPID() int { return os.Getpid() }

func (m *mockProcessManager) SetRunning(pid int, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runningPIDs[pid] = running
}

// mockOverlay counts terminations.
type mockOverlay struct {
	terminated int
}

func (m *mockOverlay) RunOverlay(ctx context.Context, d time.Duration, opts domain.OverlayOptions) error {
	return nil
}

func (m *mockOverlay) Terminate() error {
	m.terminated++
	return nil
}

// funcScheduler runs fn as the scheduler loop.
type funcScheduler func(ctx context.Context) error

func (f funcScheduler) Run(ctx context.Context) error { return f(ctx) }

// mockSweeper records sweeps.
type mockSweeper struct {
	sweeps int
	pids   []int
}

func (s *mockSweeper) SweepStale() []int {
	s.sweeps++
	return s.pids
}

// mockSpawner records guardian starts.
type mockSpawner struct {
	pid     int
	err     error
	started []int
}

func (s *mockSpawner) StartGuardian(schedulerPID int) (int, error) {
	s.started = append(s.started, schedulerPID)
	return s.pid, s.err
}
