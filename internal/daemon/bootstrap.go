package daemon

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// Spawner starts the guardian as a detached copy of the running binary.
type Spawner struct {
	executable string
	extraArgs  []string
}

// NewSpawner creates a spawner for the current executable. extraArgs are
// appended to the guardian command line (e.g. --config).
func NewSpawner(extraArgs ...string) (*Spawner, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return NewSpawnerWithExecutable(executable, extraArgs...), nil
}

// NewSpawnerWithExecutable creates a spawner for a specific binary (for testing).
func NewSpawnerWithExecutable(executable string, extraArgs ...string) *Spawner {
	return &Spawner{executable: executable, extraArgs: extraArgs}
}

// Command builds the guardian command for schedulerPID.
// Hidden "guardian" command: pomlock guardian --pid 1234 [extra args]
func (s *Spawner) Command(schedulerPID int) *exec.Cmd {
	args := append([]string{"guardian", "--pid", strconv.Itoa(schedulerPID)}, s.extraArgs...)
	cmd := exec.Command(s.executable, args...)

	// New session: survives the terminal and the scheduler's process group
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd
}

// StartGuardian spawns the guardian and returns its PID.
func (s *Spawner) StartGuardian(schedulerPID int) (int, error) {
	cmd := s.Command(schedulerPID)
	if err := cmd.Start(); err != nil {
		return 0, err
	}

	// Reap it if it exits before we do
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}

// Ensure Spawner implements GuardianSpawner.
var _ GuardianSpawner = (*Spawner)(nil)
