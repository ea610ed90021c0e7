package engagement

import (
	"context"

	"emberfall/server/logging"
)

const (
	// EventTokenGranted is emitted when the director assigns an engagement slot.
	EventTokenGranted logging.EventType = "engagement.token_granted"
	// EventTokenRevoked is emitted when the director reclaims a slot.
	EventTokenRevoked logging.EventType = "engagement.token_revoked"
	// EventTokenReleased is emitted when an agent returns its slot voluntarily.
	EventTokenReleased logging.EventType = "engagement.token_released"
)

// TokenPayload describes the slot that changed hands.
type TokenPayload struct {
	Kind   string  `json:"kind"`
	Score  float64 `json:"score,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, agent logging.EntityRef, payload TokenPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    agent,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEngagement,
		Payload:  payload,
	})
}

// TokenGranted publishes a slot grant.
func TokenGranted(ctx context.Context, pub logging.Publisher, tick uint64, agent logging.EntityRef, payload TokenPayload) {
	publish(ctx, pub, EventTokenGranted, tick, agent, payload)
}

// TokenRevoked publishes a forced reclaim.
func TokenRevoked(ctx context.Context, pub logging.Publisher, tick uint64, agent logging.EntityRef, payload TokenPayload) {
	publish(ctx, pub, EventTokenRevoked, tick, agent, payload)
}

// TokenReleased publishes a voluntary release.
func TokenReleased(ctx context.Context, pub logging.Publisher, tick uint64, agent logging.EntityRef, payload TokenPayload) {
	publish(ctx, pub, EventTokenReleased, tick, agent, payload)
}
