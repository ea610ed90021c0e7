package sinks

import (
	"context"
	"sync"

	"emberfall/server/logging"
)

// MemorySink retains recent events in a bounded ring for tests and the
// debug inspector. Once the capacity is reached the oldest events are
// discarded.
type MemorySink struct {
	mu       sync.RWMutex
	events   []logging.Event
	capacity int
	dropped  uint64
}

const defaultMemoryCapacity = 4096

func NewMemorySink() *MemorySink {
	return NewMemorySinkWithCapacity(defaultMemoryCapacity)
}

func NewMemorySinkWithCapacity(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemorySink{capacity: capacity}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.capacity {
		s.events = s.events[1:]
		s.dropped++
	}
	s.events = append(s.events, detachEvent(event))
	return nil
}

// Events returns every retained event in arrival order.
func (s *MemorySink) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]logging.Event(nil), s.events...)
}

// EventsOfType returns the retained events matching the given type.
func (s *MemorySink) EventsOfType(eventType logging.EventType) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []logging.Event
	for _, event := range s.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// Dropped reports how many events were evicted by the retention cap.
func (s *MemorySink) Dropped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.dropped = 0
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

// detachEvent deep-copies the shared slices so retained events never alias
// caller memory.
func detachEvent(event logging.Event) logging.Event {
	detached := event
	if len(event.Targets) > 0 {
		detached.Targets = append([]logging.EntityRef(nil), event.Targets...)
	}
	if len(event.Extra) > 0 {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		detached.Extra = copied
	}
	return detached
}
