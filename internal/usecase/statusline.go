package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// Status-bar icons (Nerd Font glyphs) per phase.
var phaseIcons = map[domain.SessionState]string{
	domain.StateWorking:    "󰚜",
	domain.StateShortBreak: "󰽙",
	domain.StateLongBreak:  "󰽞",
}

// StatusLine is the JSON object a waybar custom module expects.
type StatusLine struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// RenderStatusLine renders the session registry entry for a status bar.
// A nil entry, or one whose scheduler is no longer alive, shows the idle text.
func RenderStatusLine(entry *domain.SessionEntry, alive bool, now time.Time) StatusLine {
	if entry == nil || !alive || entry.PhaseStartedAt == 0 || entry.Phase == domain.StateIdle {
		return StatusLine{Text: "Pomlock", Tooltip: "Click to start a session", Class: "idle"}
	}

	remaining := entry.Remaining(now)
	if remaining <= 0 {
		return StatusLine{Text: "Pomlock", Tooltip: "Session ended", Class: "idle"}
	}

	secs := int(remaining / time.Second)
	text := fmt.Sprintf("%s %02d:%02d", iconFor(entry.Phase), secs/60, secs%60)
	if entry.Cycle > 0 && entry.CyclesBeforeLong > 0 {
		text += fmt.Sprintf(" - %d/%d", entry.Cycle, entry.CyclesBeforeLong)
	}

	return StatusLine{
		Text:    text,
		Tooltip: "Current: " + PhaseTitle(entry.Phase),
		Class:   string(entry.Phase),
	}
}

// PhaseTitle turns "short_break" into "Short Break".
func PhaseTitle(state domain.SessionState) string {
	words := strings.Split(string(state), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func iconFor(state domain.SessionState) string {
	if icon, ok := phaseIcons[state]; ok {
		return icon
	}
	return phaseIcons[domain.StateWorking]
}
