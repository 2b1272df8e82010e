package agent

import "log"

// EventType labels a progress event emitted during an agent run.
type EventType string

const (
	EventToolStart    EventType = "tool_start"
	EventToolComplete EventType = "tool_complete"
	EventDocuments    EventType = "documents"
	EventToken        EventType = "token"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Event is a single progress notification. Data is event-specific and
// already JSON-safe.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Emitter receives progress events. Implementations must not assume
// they are called from a single goroutine.
type Emitter func(event Event)

// safeEmit delivers an event and swallows emitter panics. A broken
// consumer (closed stream, disconnected client) must never take the
// run down with it.
func safeEmit(emitter Emitter, logger *log.Logger, event Event) {
	if emitter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("[WARN] Event emitter panicked on %s event: %v", event.Type, r)
		}
	}()
	emitter(event)
}
