package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/test/fixtures"
)

// newTestController wires a real controller and matcher to a fake input stack.
func newTestController(x *fixtures.FakeXInput) *LockControllerImpl {
	return NewLockController(x, x, policy.NewMatcher(policy.NewRegistry()), zap.NewNop())
}

// mockOverlay records overlay runs.
type mockOverlay struct {
	mu         sync.Mutex
	runs       []time.Duration
	err        error
	onRun      func()
	blockUntil bool // block until ctx is canceled
	terminated int
}

func (m *mockOverlay) RunOverlay(ctx context.Context, d time.Duration, opts domain.OverlayOptions) error {
	m.mu.Lock()
	m.runs = append(m.runs, d)
	onRun, err, block := m.onRun, m.err, m.blockUntil
	m.mu.Unlock()

	if onRun != nil {
		onRun()
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (m *mockOverlay) Terminate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated++
	return nil
}

func (m *mockOverlay) Runs() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.runs...)
}

// memoryLog collects log entries.
type memoryLog struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	err     error
}

func (l *memoryLog) Append(e domain.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, e)
	return nil
}

func (l *memoryLog) Kinds() []domain.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]domain.EventKind, 0, len(l.entries))
	for _, e := range l.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (l *memoryLog) Entries() []domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.LogEntry(nil), l.entries...)
}

// countingLock wraps a LockController and counts calls per class.
type countingLock struct {
	inner    domain.LockController
	mu       sync.Mutex
	disables map[domain.DeviceClass]int
	mutated  map[domain.DeviceClass]int
	enables  map[domain.DeviceClass]int
}

func newCountingLock(inner domain.LockController) *countingLock {
	return &countingLock{
		inner:    inner,
		disables: make(map[domain.DeviceClass]int),
		mutated:  make(map[domain.DeviceClass]int),
		enables:  make(map[domain.DeviceClass]int),
	}
}

func (c *countingLock) Status(ctx context.Context, class domain.DeviceClass) (domain.AttachmentState, error) {
	return c.inner.Status(ctx, class)
}

func (c *countingLock) Disable(ctx context.Context, class domain.DeviceClass) (domain.LockResult, error) {
	r, err := c.inner.Disable(ctx, class)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disables[class]++
	if r.Changed() {
		c.mutated[class]++
	}
	return r, err
}

func (c *countingLock) Enable(ctx context.Context, class domain.DeviceClass) (domain.LockResult, error) {
	r, err := c.inner.Enable(ctx, class)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enables[class]++
	return r, err
}

func (c *countingLock) counts(class domain.DeviceClass) (disables, mutated, enables int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disables[class], c.mutated[class], c.enables[class]
}

// recordingHook records transitions.
type recordingHook struct {
	mu          sync.Mutex
	transitions []domain.Transition
	err         error
}

func (h *recordingHook) OnTransition(ctx context.Context, t domain.Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transitions = append(h.transitions, t)
	return h.err
}

func (h *recordingHook) States() []domain.SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	var states []domain.SessionState
	for _, t := range h.transitions {
		states = append(states, t.State)
	}
	return states
}

// recordingNotifier records notification bodies.
type recordingNotifier struct {
	mu     sync.Mutex
	bodies []string
}

func (n *recordingNotifier) Notify(ctx context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies = append(n.bodies, body)
	return nil
}

// fakeClock advances by one second on every read.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// instantSleep returns immediately unless ctx is done.
func instantSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
