package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

const registryVersion = 1

// FileRegistry implements domain.SessionRegistry using a JSON file in the
// runtime dir. Writers serialize on a sibling .lock file.
type FileRegistry struct {
	path           string
	processManager domain.ProcessManager
	now            func() time.Time
}

// NewFileRegistry creates a registry at path.
func NewFileRegistry(path string, pm domain.ProcessManager) *FileRegistry {
	return &FileRegistry{
		path:           path,
		processManager: pm,
		now:            time.Now,
	}
}

// Path returns the registry file path.
func (r *FileRegistry) Path() string {
	return r.path
}

// Register claims the registry for schedulerPID. An entry left by a dead
// scheduler is overwritten.
func (r *FileRegistry) Register(schedulerPID int, blockInput bool) error {
	return r.withLock(func() error {
		entry, _ := r.read()
		if entry != nil && entry.SchedulerPID != schedulerPID && r.processManager.IsRunning(entry.SchedulerPID) {
			return fmt.Errorf("%w (pid %d)", domain.ErrAlreadyRunning, entry.SchedulerPID)
		}

		return r.atomicWrite(&domain.SessionEntry{
			Version:      registryVersion,
			SchedulerPID: schedulerPID,
			BlockInput:   blockInput,
			Phase:        domain.StateIdle,
			LastUpdate:   r.now().Unix(),
		})
	})
}

// SetGuardian records the guardian watchdog PID.
func (r *FileRegistry) SetGuardian(pid int) error {
	return r.update(func(e *domain.SessionEntry) {
		e.GuardianPID = pid
	})
}

// SetOverlay records the live overlay PID (0 when none).
func (r *FileRegistry) SetOverlay(pid int) error {
	return r.update(func(e *domain.SessionEntry) {
		e.OverlayPID = pid
	})
}

// Publish records the current phase.
func (r *FileRegistry) Publish(t domain.Transition) error {
	return r.update(func(e *domain.SessionEntry) {
		e.Phase = t.State
		e.PhaseStartedAt = t.StartedAt.Unix()
		e.PhaseSeconds = int(t.Duration.Seconds())
		e.Cycle = t.Cycle
		e.CyclesBeforeLong = t.CyclesBeforeLong
	})
}

// OnTransition publishes every scheduler transition.
func (r *FileRegistry) OnTransition(_ context.Context, t domain.Transition) error {
	return r.Publish(t)
}

// Get returns the current entry, nil when no session is registered.
func (r *FileRegistry) Get() (*domain.SessionEntry, error) {
	return r.read()
}

// Clear removes the registry file. The lock file stays so every process
// keeps locking the same inode.
func (r *FileRegistry) Clear() error {
	return r.withLock(func() error {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

// update applies fn to the stored entry under the lock.
func (r *FileRegistry) update(fn func(*domain.SessionEntry)) error {
	return r.withLock(func() error {
		entry, err := r.read()
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("no session registered at %s", r.path)
		}
		fn(entry)
		entry.LastUpdate = r.now().Unix()
		return r.atomicWrite(entry)
	})
}

func (r *FileRegistry) lockPath() string {
	return r.path + ".lock"
}

// withLock runs fn while holding an exclusive flock on the lock file.
func (r *FileRegistry) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create runtime dir: %w", err)
	}

	lockFile, err := os.OpenFile(r.lockPath(), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = unix.Flock(int(lockFile.Fd()), unix.LOCK_UN) }()

	return fn()
}

func (r *FileRegistry) read() (*domain.SessionEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entry domain.SessionEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupt session registry %s: %w", r.path, err)
	}
	return &entry, nil
}

// atomicWrite writes the entry to a temp file and renames it into place.
func (r *FileRegistry) atomicWrite(entry *domain.SessionEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// Unique per process; the guardian writes too
	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Ensure FileRegistry implements the registry and hook interfaces.
var (
	_ domain.SessionRegistry = (*FileRegistry)(nil)
	_ domain.TransitionHook  = (*FileRegistry)(nil)
)
