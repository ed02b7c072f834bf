package policy

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

var (
	idPattern       = regexp.MustCompile(`\bid=(\d+)`)
	slavePattern    = regexp.MustCompile(`(?i)\[\s*slave\s+(keyboard|pointer)\s*\(\s*\d+\s*\)\s*\]`)
	floatingPattern = regexp.MustCompile(`(?i)\[\s*floating\s+slave\s*\]`)
)

// treeGlyphs are the box-drawing characters xinput prefixes device names with.
const treeGlyphs = "⎡⎜⎣↳∼~"

// listingLine is one parsed line of the device listing.
type listingLine struct {
	id    int
	name  string
	role  string // "keyboard" or "pointer" for attached slaves
	state domain.AttachmentState
	raw   string
}

// parseLine extracts a slave device from a listing line.
// Master devices and unrelated lines are rejected.
func parseLine(raw string) (listingLine, bool) {
	idLoc := idPattern.FindStringSubmatchIndex(raw)
	if idLoc == nil {
		return listingLine{}, false
	}
	id, err := strconv.Atoi(raw[idLoc[2]:idLoc[3]])
	if err != nil {
		return listingLine{}, false
	}

	line := listingLine{
		id:   id,
		name: strings.TrimFunc(raw[:idLoc[0]], isNoise),
		raw:  raw,
	}

	if m := slavePattern.FindStringSubmatch(raw); m != nil {
		line.role = strings.ToLower(m[1])
		line.state = domain.Attached
		return line, true
	}
	if floatingPattern.MatchString(raw) {
		line.state = domain.Detached
		return line, true
	}
	return listingLine{}, false
}

func isNoise(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(treeGlyphs, r)
}

// Matcher implements domain.DeviceMatcher over xinput-style listings.
type Matcher struct {
	registry *Registry
}

// NewMatcher creates a matcher backed by the given policy registry.
func NewMatcher(registry *Registry) *Matcher {
	return &Matcher{registry: registry}
}

// Classify returns Detached when any device of class is floating.
// A partially locked class counts as locked so Enable always has work to do.
// In that mixed state Disable still floats the attached remainder.
func (m *Matcher) Classify(listing []string, class domain.DeviceClass) domain.AttachmentState {
	if len(m.Extract(listing, class, domain.Detached)) > 0 {
		return domain.Detached
	}
	return domain.Attached
}

// Extract returns every device of class currently in state, in listing order.
func (m *Matcher) Extract(listing []string, class domain.DeviceClass, state domain.AttachmentState) []domain.DeviceRecord {
	p, ok := m.registry.Get(class)
	if !ok {
		return nil
	}

	var records []domain.DeviceRecord
	seen := make(map[int]bool)
	for _, raw := range listing {
		line, ok := parseLine(raw)
		if !ok || line.state != state || seen[line.id] || m.excluded(line) {
			continue
		}
		if line.state == domain.Attached && line.role != p.RoleMarker() {
			continue
		}
		if !matchesName(p, line.name) {
			continue
		}
		seen[line.id] = true
		records = append(records, toRecord(class, line))
	}
	return records
}

// ExtractFloating returns every floating, non-excluded device regardless of name.
func (m *Matcher) ExtractFloating(listing []string) []domain.DeviceRecord {
	var records []domain.DeviceRecord
	for _, raw := range listing {
		line, ok := parseLine(raw)
		if !ok || line.state != domain.Detached || m.excluded(line) {
			continue
		}
		records = append(records, toRecord("", line))
	}
	return records
}

func (m *Matcher) excluded(line listingLine) bool {
	lower := strings.ToLower(line.raw)
	for _, tok := range m.registry.ExcludeTokens() {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func toRecord(class domain.DeviceClass, line listingLine) domain.DeviceRecord {
	return domain.DeviceRecord{
		Class:   class,
		ID:      line.id,
		Name:    line.name,
		State:   line.state,
		RawLine: line.raw,
	}
}

// Ensure Matcher implements domain.DeviceMatcher.
var _ domain.DeviceMatcher = (*Matcher)(nil)
