package ai

import (
	"emberfall/server/internal/tuning"
	"emberfall/server/internal/world"
)

// Steering blends boid crowd forces into a plan-driven desired velocity.
type Steering struct {
	cfg tuning.Steering
}

// NewSteering builds the blender from tuned radii and weights.
func NewSteering(cfg tuning.Steering) *Steering {
	return &Steering{cfg: cfg}
}

// Blend adds separation, alignment and cohesion to the desired velocity.
// Separation weighs every sensing neighbor; alignment and cohesion only
// consider neighbors of the same archetype group.
func (s *Steering) Blend(agent *Agent, neighbors []*Agent, desired world.Vec2) world.Vec2 {
	if s == nil || agent == nil {
		return desired
	}
	var separation world.Vec2
	var flockVelocity world.Vec2
	var flockCenter world.Vec2
	flockCount := 0

	for _, other := range neighbors {
		if other == nil || other.ID == agent.ID || !other.Alive() {
			continue
		}
		offset := agent.Position.Sub(other.Position)
		distance := offset.Length()
		if distance < s.cfg.SeparationRadius {
			overlap := s.cfg.SeparationRadius - distance
			if distance > 0 {
				separation = separation.Add(offset.Normalized().Scale(overlap))
			} else {
				// Perfectly stacked agents get an arbitrary but fixed push.
				separation = separation.Add(world.Vec2{X: overlap})
			}
		}
		if other.Group == agent.Group && distance < s.cfg.FlockRadius {
			flockVelocity = flockVelocity.Add(other.Velocity)
			flockCenter = flockCenter.Add(other.Position)
			flockCount++
		}
	}

	blended := desired.Add(separation.Scale(s.cfg.SeparationWeight))
	if flockCount > 0 {
		averageVelocity := flockVelocity.Scale(1 / float64(flockCount))
		alignment := averageVelocity.Sub(agent.Velocity)
		centroid := flockCenter.Scale(1 / float64(flockCount))
		cohesion := centroid.Sub(agent.Position)
		blended = blended.
			Add(alignment.Scale(s.cfg.AlignmentWeight)).
			Add(cohesion.Scale(s.cfg.CohesionWeight))
	}
	return blended
}
