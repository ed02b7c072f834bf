package policy

import "github.com/eliteGoblin/focusd/pomlock/internal/domain"

// DefaultKeyboardTokens cover generic keyboard device names.
var DefaultKeyboardTokens = []string{"keyboard"}

// KeyboardPolicy implements DevicePolicy for keyboards.
type KeyboardPolicy struct {
	tokens []string
}

// NewKeyboardPolicy creates a keyboard policy. With no tokens the defaults apply.
func NewKeyboardPolicy(tokens ...string) *KeyboardPolicy {
	if len(tokens) == 0 {
		tokens = DefaultKeyboardTokens
	}
	return &KeyboardPolicy{tokens: normalizeTokens(tokens)}
}

func (p *KeyboardPolicy) Class() domain.DeviceClass {
	return domain.ClassKeyboard
}

func (p *KeyboardPolicy) Name() string {
	return "Keyboard"
}

func (p *KeyboardPolicy) NameTokens() []string {
	return p.tokens
}

func (p *KeyboardPolicy) RoleMarker() string {
	return "keyboard"
}

// Ensure KeyboardPolicy implements DevicePolicy.
var _ DevicePolicy = (*KeyboardPolicy)(nil)
