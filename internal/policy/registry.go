package policy

import (
	"fmt"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// Registry holds the matching policy of every device class plus the
// tokens that exclude a line from all classes.
type Registry struct {
	policies map[domain.DeviceClass]DevicePolicy
	exclude  []string
}

// NewRegistry creates a registry with the default keyboard and pointer policies.
func NewRegistry() *Registry {
	return NewRegistryWithPolicies(NewKeyboardPolicy(), NewPointerPolicy())
}

// NewRegistryWithPolicies creates a registry with custom policies.
func NewRegistryWithPolicies(policies ...DevicePolicy) *Registry {
	r := &Registry{
		policies: make(map[domain.DeviceClass]DevicePolicy),
		exclude:  normalizeTokens(DefaultExcludeTokens),
	}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the policy for its class.
func (r *Registry) Register(p DevicePolicy) {
	r.policies[p.Class()] = p
}

// SetExcludeTokens replaces the exclusion list. The defaults are always kept.
func (r *Registry) SetExcludeTokens(tokens ...string) {
	r.exclude = normalizeTokens(append(append([]string{}, DefaultExcludeTokens...), tokens...))
}

// ExcludeTokens returns the active exclusion list.
func (r *Registry) ExcludeTokens() []string {
	return r.exclude
}

// Get returns the policy for a class.
func (r *Registry) Get(class domain.DeviceClass) (DevicePolicy, bool) {
	p, ok := r.policies[class]
	return p, ok
}

// MustGet returns the policy for a class or an error naming the class.
func (r *Registry) MustGet(class domain.DeviceClass) (DevicePolicy, error) {
	p, ok := r.policies[class]
	if !ok {
		return nil, fmt.Errorf("no policy for device class: %s", class)
	}
	return p, nil
}

// GetAll returns all registered policies in lock order.
func (r *Registry) GetAll() []DevicePolicy {
	result := make([]DevicePolicy, 0, len(r.policies))
	for _, class := range domain.AllClasses() {
		if p, ok := r.policies[class]; ok {
			result = append(result, p)
		}
	}
	return result
}
