package infra

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
)

const appDirName = "pomlock"

// Paths holds the per-user directories pomlock reads and writes.
type Paths struct {
	ConfigDir  string // $XDG_CONFIG_HOME/pomlock
	DataDir    string // $XDG_DATA_HOME/pomlock
	RuntimeDir string // $XDG_RUNTIME_DIR/pomlock, or a per-uid temp dir
}

// ResolvePaths computes directories from the XDG environment.
func ResolvePaths() *Paths {
	return resolvePaths(os.Getenv, GetRealUserHome())
}

func resolvePaths(getenv func(string) string, home string) *Paths {
	configHome := getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	dataHome := getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	runtimeDir := getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join(os.TempDir(), fmt.Sprintf("pomlock-%d", os.Getuid()))
	} else {
		runtimeDir = filepath.Join(runtimeDir, appDirName)
	}

	return &Paths{
		ConfigDir:  filepath.Join(configHome, appDirName),
		DataDir:    filepath.Join(dataHome, appDirName),
		RuntimeDir: runtimeDir,
	}
}

// ConfigFile is the default YAML config location.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// EventLogFile is the default append-only session log.
func (p *Paths) EventLogFile() string {
	return filepath.Join(p.DataDir, "pomlock.log")
}

// GuardianLogFile is where the detached guardian writes its zap log.
func (p *Paths) GuardianLogFile() string {
	return filepath.Join(p.DataDir, "guardian.log")
}

// SessionFile is the runtime session registry.
func (p *Paths) SessionFile() string {
	return filepath.Join(p.RuntimeDir, "session.json")
}

// GetRealUserHome returns the invoking user's home directory, even under sudo.
// Under sudo, os.UserHomeDir() returns root's home, so SUDO_USER wins.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}
