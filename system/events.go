package system

import (
	"sync"
	"time"
)

// SystemEvent is one entry in the in-memory operational event feed shown on
// the system-status view.
type SystemEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
}

const maxEvents = 100

var (
	eventMu  sync.Mutex
	eventLog []SystemEvent
)

// AddEvent appends to the event feed, keeping only the newest entries.
func AddEvent(eventType, message string) {
	eventMu.Lock()
	defer eventMu.Unlock()

	eventLog = append(eventLog, SystemEvent{
		Timestamp: time.Now(),
		Type:      eventType,
		Message:   message,
	})

	if len(eventLog) > maxEvents {
		eventLog = eventLog[len(eventLog)-maxEvents:]
	}
}

// RecentEvents returns up to n events, newest first.
func RecentEvents(n int) []SystemEvent {
	eventMu.Lock()
	defer eventMu.Unlock()

	if n <= 0 || n > len(eventLog) {
		n = len(eventLog)
	}

	out := make([]SystemEvent, n)
	for i := 0; i < n; i++ {
		out[i] = eventLog[len(eventLog)-1-i]
	}

	return out
}
