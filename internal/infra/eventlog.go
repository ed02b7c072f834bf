package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// EventLog implements domain.EventLog as an append-only, tab-separated file:
//
//	timestamp(UTC ISO-8601) \t event_kind \t duration_seconds \t cycle_count
//
// The file is opened, written and synced per entry. This process is the sole writer.
type EventLog struct {
	path string
}

// NewEventLog creates an event log at path.
func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Path returns the log file path.
func (l *EventLog) Path() string {
	return l.path
}

// Append writes one entry.
func (l *EventLog) Append(entry domain.LogEntry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create log directory")
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open event log %s", l.path)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLogEntry(entry)); err != nil {
		return errors.Wrap(err, "failed to write event")
	}
	return errors.Wrap(f.Sync(), "failed to flush event log")
}

// FormatLogEntry renders one log line including the trailing newline.
func FormatLogEntry(entry domain.LogEntry) string {
	ts := entry.Timestamp.UTC().Truncate(time.Second).Format(time.RFC3339)
	return fmt.Sprintf("%s\t%s\t%d\t%d\n", ts, entry.Kind, entry.DurationSeconds, entry.CycleCount)
}

// Ensure EventLog implements domain.EventLog.
var _ domain.EventLog = (*EventLog)(nil)
