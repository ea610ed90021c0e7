package ai

import (
	"math"

	"emberfall/server/internal/tuning"
	"emberfall/server/internal/world"
)

// Perception maintains per-agent beliefs from vision and, asynchronously,
// from delivered sound.
type Perception struct {
	terrain Terrain
	cfg     tuning.Perception
}

// NewPerception wires the vision model against a terrain.
func NewPerception(terrain Terrain, cfg tuning.Perception) *Perception {
	return &Perception{terrain: terrain, cfg: cfg}
}

// Observe runs one vision pass for the agent and decays certainty when the
// target stays out of sight. dt is the tick duration in seconds.
func (p *Perception) Observe(agent *Agent, target *Target, dt float64) {
	if p == nil || agent == nil {
		return
	}
	if target != nil && p.canSee(agent, target) {
		agent.Belief.Visible = true
		agent.Belief.HasPerceived = true
		agent.Belief.Perceived = target.Position
		agent.Belief.HasLastKnown = true
		agent.Belief.LastKnown = target.Position
		agent.Belief.Certainty = 1
		agent.Belief.Alert = true
		return
	}

	agent.Belief.Visible = false
	if agent.Belief.Certainty <= 0 {
		return
	}
	agent.Belief.Certainty -= p.cfg.CertaintyDecayPerSecond * dt
	if agent.Belief.Certainty <= 0 {
		agent.Belief.Certainty = 0
		agent.Belief.HasPerceived = false
		agent.Belief.Alert = false
	}
}

// canSee combines the range gate, the vision cone and a three-ray occlusion
// test: center plus two points offset perpendicular to the sight line by the
// target's radius, so a grazing wall edge cannot blind the agent with a
// single unlucky ray.
func (p *Perception) canSee(agent *Agent, target *Target) bool {
	if agent.Dossier == nil {
		return false
	}
	offset := target.Position.Sub(agent.Position)
	distance := offset.Length()
	if distance > agent.Dossier.VisionRange {
		return false
	}
	if !agent.Mods.Omniscient {
		bearing := math.Abs(world.NormalizeAngle(agent.Position.AngleTo(target.Position) - agent.Rotation))
		halfFOV := agent.Dossier.VisionFOVDegrees * math.Pi / 360
		if bearing > halfFOV {
			return false
		}
	}

	if p.terrain == nil {
		return true
	}
	if p.terrain.LineOfSight(agent.Position, target.Position) {
		return true
	}
	perp := world.Vec2{X: -offset.Y, Y: offset.X}.Normalized().Scale(target.Radius)
	if p.terrain.LineOfSight(agent.Position, target.Position.Add(perp)) {
		return true
	}
	return p.terrain.LineOfSight(agent.Position, target.Position.Sub(perp))
}

// ApplyAcoustic folds one delivered sound into the belief. Weak sounds are
// ignored; strong ones overwrite the last-known position and raise certainty
// to at least the configured floor, capped so sound alone never rivals a
// sighting. Reports whether the delivery changed the belief.
func (p *Perception) ApplyAcoustic(agent *Agent, apparentSource world.Vec2, volume float64) bool {
	if p == nil || agent == nil {
		return false
	}
	if volume < p.cfg.AcousticVolumeThreshold {
		return false
	}
	boosted := world.Clamp(p.cfg.AcousticCertaintyFloor+volume*(p.cfg.AcousticCertaintyCap-p.cfg.AcousticCertaintyFloor), 0, p.cfg.AcousticCertaintyCap)
	if agent.Belief.Alert && boosted <= agent.Belief.Certainty {
		return false
	}
	agent.Belief.HasLastKnown = true
	agent.Belief.LastKnown = apparentSource
	agent.Belief.Certainty = boosted
	agent.Belief.Alert = true
	return true
}
