package policy

import "github.com/eliteGoblin/focusd/pomlock/internal/domain"

// DefaultPointerTokens cover mice and laptop pointing devices.
var DefaultPointerTokens = []string{"mouse", "trackpad", "touchpad"}

// PointerPolicy implements DevicePolicy for mice, trackpads and touchpads.
type PointerPolicy struct {
	tokens []string
}

// NewPointerPolicy creates a pointer policy. With no tokens the defaults apply.
func NewPointerPolicy(tokens ...string) *PointerPolicy {
	if len(tokens) == 0 {
		tokens = DefaultPointerTokens
	}
	return &PointerPolicy{tokens: normalizeTokens(tokens)}
}

func (p *PointerPolicy) Class() domain.DeviceClass {
	return domain.ClassPointer
}

func (p *PointerPolicy) Name() string {
	return "Pointer"
}

func (p *PointerPolicy) NameTokens() []string {
	return p.tokens
}

func (p *PointerPolicy) RoleMarker() string {
	return "pointer"
}

// Ensure PointerPolicy implements DevicePolicy.
var _ DevicePolicy = (*PointerPolicy)(nil)
