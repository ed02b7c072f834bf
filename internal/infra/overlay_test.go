package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

func testOverlayConfig(command string, args ...string) OverlayConfig {
	return OverlayConfig{
		Command:   command,
		Args:      args,
		Grace:     5 * time.Second,
		TermGrace: 500 * time.Millisecond,
	}
}

func TestBuildOverlayArgs(t *testing.T) {
	opts := domain.OverlayOptions{
		"opacity":   "0.8",
		"font_size": "48",
		"color":     "white",
	}

	args := BuildOverlayArgs([]string{"--fullscreen"}, 5*time.Minute, opts)

	assert.Equal(t, []string{
		"--fullscreen",
		"300",
		"--color=white",
		"--font_size=48",
		"--opacity=0.8",
	}, args)
}

func TestOverlayManager_LaunchFailure(t *testing.T) {
	m := NewOverlayManager(testOverlayConfig("/nonexistent/pomlock-overlay"), newMockProcessManager(), zap.NewNop())

	err := m.RunOverlay(context.Background(), time.Second, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOverlayLaunchFailed)
}

func TestOverlayManager_CompletesWhenOverlayExits(t *testing.T) {
	m := NewOverlayManager(testOverlayConfig("true"), newMockProcessManager(), zap.NewNop())

	var mu sync.Mutex
	var pids []int
	m.OnPIDChange(func(pid int) {
		mu.Lock()
		defer mu.Unlock()
		pids = append(pids, pid)
	})

	err := m.RunOverlay(context.Background(), time.Second, domain.OverlayOptions{"color": "white"})

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, pids, 2)
	assert.NotZero(t, pids[0])
	assert.Zero(t, pids[1])
}

func TestOverlayManager_CancelTerminatesOverlay(t *testing.T) {
	m := NewOverlayManager(testOverlayConfig("sleep"), newMockProcessManager(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := m.RunOverlay(ctx, 30*time.Second, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.NoError(t, m.Terminate())
}

// pidRecorder collects the non-zero PIDs an OverlayManager reports.
type pidRecorder struct {
	mu      sync.Mutex
	pids    []int
	started chan int
	onStart func(pid int)
}

func newPIDRecorder() *pidRecorder {
	return &pidRecorder{started: make(chan int, 8)}
}

func (r *pidRecorder) observe(pid int) {
	if pid == 0 {
		return
	}
	r.mu.Lock()
	r.pids = append(r.pids, pid)
	onStart := r.onStart
	r.mu.Unlock()
	if onStart != nil {
		onStart(pid)
	}
	r.started <- pid
}

func waitForPID(t *testing.T, r *pidRecorder) int {
	t.Helper()
	select {
	case pid := <-r.started:
		return pid
	case <-time.After(5 * time.Second):
		t.Fatal("overlay did not start")
		return 0
	}
}

func processGone(pid int) bool {
	return unix.Kill(pid, 0) == unix.ESRCH
}

func TestOverlayManager_NewOverlayReplacesPrevious(t *testing.T) {
	m := NewOverlayManager(testOverlayConfig("sleep"), newMockProcessManager(), zap.NewNop())
	rec := newPIDRecorder()
	m.OnPIDChange(rec.observe)

	first := make(chan error, 1)
	go func() { first <- m.RunOverlay(context.Background(), 30*time.Second, nil) }()
	firstPID := waitForPID(t, rec)

	var firstGoneAtStart bool
	rec.mu.Lock()
	rec.onStart = func(pid int) {
		if pid != firstPID {
			firstGoneAtStart = processGone(firstPID)
		}
	}
	rec.mu.Unlock()

	second := make(chan error, 1)
	go func() { second <- m.RunOverlay(context.Background(), 30*time.Second, nil) }()

	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first overlay was not terminated")
	}

	secondPID := waitForPID(t, rec)
	assert.NotEqual(t, firstPID, secondPID)
	assert.True(t, firstGoneAtStart, "previous overlay still alive when the next one started")
	assert.True(t, processGone(firstPID))

	require.NoError(t, m.Terminate())
	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("second overlay was not terminated")
	}
}

func TestOverlayManager_TerminateLiveOverlay(t *testing.T) {
	m := NewOverlayManager(testOverlayConfig("sleep"), newMockProcessManager(), zap.NewNop())
	rec := newPIDRecorder()
	m.OnPIDChange(rec.observe)

	done := make(chan error, 1)
	go func() { done <- m.RunOverlay(context.Background(), 30*time.Second, nil) }()
	pid := waitForPID(t, rec)

	require.NoError(t, m.Terminate())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunOverlay did not return after Terminate")
	}
	assert.True(t, processGone(pid))
}

func TestOverlayManager_KillsStuckOverlay(t *testing.T) {
	cfg := testOverlayConfig("sleep", "30")
	cfg.Grace = 100 * time.Millisecond
	m := NewOverlayManager(cfg, newMockProcessManager(), zap.NewNop())

	start := time.Now()
	err := m.RunOverlay(context.Background(), 0, nil)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestOverlayManager_TerminateWithoutOverlay(t *testing.T) {
	m := NewOverlayManager(DefaultOverlayConfig(), newMockProcessManager(), zap.NewNop())

	assert.NoError(t, m.Terminate())
}

func TestOverlayManager_SweepStale(t *testing.T) {
	pm := newMockProcessManager()
	pm.byName["pomlock-overlay"] = []int{4242, 4343}
	pm.SetRunning(4242, true)
	pm.SetRunning(4343, true)
	m := NewOverlayManager(testOverlayConfig("/usr/local/bin/pomlock-overlay"), pm, zap.NewNop())

	swept := m.SweepStale()

	assert.Equal(t, []int{4242, 4343}, swept)
	assert.Equal(t, []int{4242, 4343}, pm.terminated)
}

func TestTimerOverlay(t *testing.T) {
	o := NewTimerOverlay()

	require.NoError(t, o.RunOverlay(context.Background(), 10*time.Millisecond, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, o.RunOverlay(ctx, time.Hour, nil), context.Canceled)
	assert.NoError(t, o.Terminate())
}
