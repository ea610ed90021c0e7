package perception

import (
	"context"

	"emberfall/server/logging"
)

const (
	// EventTargetSighted is emitted when an agent gains direct sight of a target.
	EventTargetSighted logging.EventType = "perception.target_sighted"
	// EventTargetLost is emitted when an agent's certainty decays to zero.
	EventTargetLost logging.EventType = "perception.target_lost"
	// EventSoundHeard is emitted when an acoustic result raises an agent's alert.
	EventSoundHeard logging.EventType = "perception.sound_heard"
)

// SightingPayload captures the belief values at the moment of the event.
type SightingPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Certainty float64 `json:"certainty"`
}

// TargetSighted publishes a direct-sight transition.
func TargetSighted(ctx context.Context, pub logging.Publisher, tick uint64, agent, target logging.EntityRef, payload SightingPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTargetSighted,
		Tick:     tick,
		Actor:    agent,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPerception,
		Payload:  payload,
	})
}

// TargetLost publishes a belief expiring to zero certainty.
func TargetLost(ctx context.Context, pub logging.Publisher, tick uint64, agent logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTargetLost,
		Tick:     tick,
		Actor:    agent,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPerception,
	})
}

// SoundPayload captures a delivered acoustic result.
type SoundPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Volume float64 `json:"volume"`
}

// SoundHeard publishes an acoustic alert.
func SoundHeard(ctx context.Context, pub logging.Publisher, tick uint64, agent logging.EntityRef, payload SoundPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSoundHeard,
		Tick:     tick,
		Actor:    agent,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPerception,
		Payload:  payload,
	})
}
