package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// DefaultReleaseTimeout bounds the restoring Enable calls.
const DefaultReleaseTimeout = 10 * time.Second

// InputGuard is a scoped device lock. Acquire disables every class; Release
// re-enables exactly the classes Acquire mutated. Pair them with defer.
type InputGuard struct {
	lock    domain.LockController
	logger  *zap.Logger
	timeout time.Duration

	mu   sync.Mutex
	held []domain.DeviceClass
}

// NewInputGuard creates a guard over lock.
func NewInputGuard(lock domain.LockController, logger *zap.Logger) *InputGuard {
	return &InputGuard{
		lock:    lock,
		logger:  logger,
		timeout: DefaultReleaseTimeout,
	}
}

// Acquire disables both device classes. Failures are logged and never abort:
// a stuck device must not keep the break from starting.
func (g *InputGuard) Acquire(ctx context.Context) []domain.LockResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	var results []domain.LockResult
	for _, class := range domain.AllClasses() {
		result, err := g.lock.Disable(ctx, class)
		if err != nil {
			g.logFailure("failed to disable input", class, result, err)
		}
		if result.Changed() {
			g.held = append(g.held, class)
		}
		results = append(results, result)
	}
	return results
}

// Release re-enables every class Acquire mutated. It runs even when ctx is
// already canceled, and is a no-op on the second call.
func (g *InputGuard) Release(ctx context.Context) []domain.LockResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.held) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	var results []domain.LockResult
	for _, class := range g.held {
		result, err := g.lock.Enable(ctx, class)
		if err != nil {
			g.logFailure("failed to restore input", class, result, err)
		}
		results = append(results, result)
	}
	g.held = nil
	return results
}

// Held returns the classes currently locked by this guard.
func (g *InputGuard) Held() []domain.DeviceClass {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.DeviceClass(nil), g.held...)
}

func (g *InputGuard) logFailure(msg string, class domain.DeviceClass, result domain.LockResult, err error) {
	if domain.IsPartialLockFailure(err) {
		g.logger.Warn(msg,
			zap.String("class", string(class)),
			zap.Ints("succeeded", result.Succeeded),
			zap.Ints("failed", result.Failed),
			zap.Error(err))
		return
	}
	g.logger.Error(msg, zap.String("class", string(class)), zap.Error(err))
}
