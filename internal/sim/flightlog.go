package sim

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"drone_lab/internal/models"
)

// Keep the session log bounded; old entries fall off the front.
const maxLogEntries = 1000

// FlightLog is the append-only, timestamped event stream consumed by the
// frontend log panel. Each entry is mirrored to the structured logger so the
// operator console sees the same stream.
type FlightLog struct {
	mu      sync.Mutex
	clock   Clock
	log     zerolog.Logger
	entries []models.LogEntry
	nextSeq int
}

func NewFlightLog(log zerolog.Logger, clock Clock) *FlightLog {
	return &FlightLog{clock: clock, log: log, nextSeq: 1}
}

func (l *FlightLog) append(level zerolog.Level, text string) {
	l.mu.Lock()
	l.entries = append(l.entries, models.LogEntry{Seq: l.nextSeq, At: l.clock.Now(), Text: text})
	l.nextSeq++
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[len(l.entries)-maxLogEntries:]
	}
	l.mu.Unlock()
	l.log.WithLevel(level).Msg(text)
}

// Append adds one event line.
func (l *FlightLog) Append(text string) {
	l.append(zerolog.InfoLevel, text)
}

// Appendf adds one formatted event line.
func (l *FlightLog) Appendf(format string, args ...any) {
	l.append(zerolog.InfoLevel, fmt.Sprintf(format, args...))
}

// AppendError adds a rejected-operation line, prefixed so the frontend can
// highlight it.
func (l *FlightLog) AppendError(err error) {
	l.append(zerolog.WarnLevel, "ERROR: "+err.Error())
}

// Entries returns a copy of the current log.
func (l *FlightLog) Entries() []models.LogEntry {
	return l.Since(0)
}

// Since returns entries with Seq greater than seq, for incremental polling.
func (l *FlightLog) Since(seq int) []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}
