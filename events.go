package server

import "sync"

// Topic names a domain notification stream on the event bus.
type Topic string

const (
	// TopicSound carries SoundEmission payloads into the perception queue.
	TopicSound Topic = "sound"
	// TopicAgentStruck carries AgentStruck payloads from combat resolution.
	TopicAgentStruck Topic = "agent_struck"
)

// SoundEmission is a world noise awaiting acoustic propagation.
type SoundEmission struct {
	X      float64
	Y      float64
	Volume float64
}

// AgentStruck reports a hit landing on an agent.
type AgentStruck struct {
	AgentID string
	Damage  float64
	SourceX float64
	SourceY float64
}

// EventBus is a small synchronous pub/sub registry. Handlers run on the
// publisher's goroutine in subscription order; it decouples combat and the
// director from perception without adding concurrency.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[Topic][]func(payload any)
}

// NewEventBus returns an empty registry.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[Topic][]func(any))}
}

// Subscribe registers a handler for a topic.
func (b *EventBus) Subscribe(topic Topic, handler func(payload any)) {
	if b == nil || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers the payload to every subscriber, in subscription order.
func (b *EventBus) Publish(topic Topic, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := b.handlers[topic]
	b.mu.RUnlock()
	for _, handler := range handlers {
		handler(payload)
	}
}
