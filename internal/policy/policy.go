// Package policy implements the Strategy pattern for device-class matching rules.
// Each class (keyboard, pointer) has its own policy defining which devices it owns.
package policy

import (
	"strings"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// DefaultExcludeTokens never match any class. The XTEST devices are the
// server's synthetic input path; floating them would lock out injected events.
var DefaultExcludeTokens = []string{"xtest"}

// DevicePolicy defines the strategy interface for recognising a device class.
type DevicePolicy interface {
	// Class returns the device class this policy owns.
	Class() domain.DeviceClass

	// Name returns human-readable name for display.
	Name() string

	// NameTokens returns device name substrings owned by this class.
	// Tokens are matched case-insensitively. Empty means every name.
	NameTokens() []string

	// RoleMarker returns the role word used in attached lines,
	// e.g. "keyboard" in "[slave  keyboard (3)]".
	RoleMarker() string
}

// matchesName reports whether name contains any of the tokens.
func matchesName(p DevicePolicy, name string) bool {
	tokens := p.NameTokens()
	if len(tokens) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, tok := range tokens {
		if tok != "" && strings.Contains(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}
