// Package ai drives the hostile agents: perception, tactical point scoring,
// goal-directed planning, engagement-token arbitration, pathfinding glue and
// boid steering, composed once per simulation tick by the Executor.
package ai

import (
	"emberfall/server/internal/dossier"
	"emberfall/server/internal/world"
)

// TokenKind identifies a scarce engagement permission rationed by the
// Director.
type TokenKind uint8

const (
	TokenNone TokenKind = iota
	TokenAttack
	TokenFlank
)

func (k TokenKind) String() string {
	switch k {
	case TokenAttack:
		return "attack"
	case TokenFlank:
		return "flank"
	default:
		return "none"
	}
}

// Belief is an agent's perception state about the target.
type Belief struct {
	// Visible is true only on ticks with a confirmed direct sighting.
	Visible bool
	// HasPerceived/Perceived hold the live sighted position.
	HasPerceived bool
	Perceived    world.Vec2
	// HasLastKnown/LastKnown persist after sight is lost and can be
	// overwritten by acoustic evidence.
	HasLastKnown bool
	LastKnown    world.Vec2
	// Certainty is 1 on sight and decays toward 0 otherwise.
	Certainty float64
	// Alert stays true until certainty reaches exactly 0.
	Alert bool
}

// PathState caches a waypoint sequence between pathfinder refreshes.
type PathState struct {
	Waypoints []world.Vec2
	Cursor    int
	Goal      world.Vec2
	// NextRefreshTick is the earliest tick a recompute is allowed.
	NextRefreshTick uint64
}

// Clear drops the cached path, forcing a recompute on next use.
func (p *PathState) Clear() {
	p.Waypoints = nil
	p.Cursor = 0
	p.NextRefreshTick = 0
}

// Agent is the per-entity AI component. Position, velocity and health are
// written back by the movement and combat collaborators; everything else is
// owned by this package.
type Agent struct {
	ID       string
	Position world.Vec2
	Rotation float64
	Velocity world.Vec2
	Health   float64

	// Resolved once at spawn from the dossier and its traits.
	Dossier   *dossier.Dossier
	Mods      dossier.Modifiers
	Speed     float64
	MaxHealth float64
	Radius    float64
	// Group keys flocking neighborhoods; agents only flock with their own
	// archetype.
	Group string

	Belief Belief
	Token  TokenKind

	Plan      *Plan
	StepIndex int

	Path PathState

	HasTacticalPoint bool
	TacticalPoint    world.Vec2
	NextQueryTick    uint64

	// RecoverUntil suppresses planning after the agent is struck.
	RecoverUntil uint64

	// DesiredVelocity is the per-tick intent handed to the movement
	// integrator. The AI never writes Position directly.
	DesiredVelocity world.Vec2

	// Label is the debugging/animation state string refreshed every tick.
	Label string
}

// Alive reports whether the agent still participates in the simulation.
func (a *Agent) Alive() bool {
	return a != nil && a.Health > 0
}

// ActiveAction returns the plan step currently executing, if any.
func (a *Agent) ActiveAction() (Action, bool) {
	if a == nil || a.Plan == nil || a.StepIndex < 0 || a.StepIndex >= len(a.Plan.Actions) {
		return Action{}, false
	}
	return a.Plan.Actions[a.StepIndex], true
}

// ClearPlan discards the active plan so the next cycle replans.
func (a *Agent) ClearPlan() {
	if a == nil {
		return
	}
	a.Plan = nil
	a.StepIndex = 0
}

// Target is the entity the agents hunt. Lifecycle is owned by the
// simulation; the AI only reads it.
type Target struct {
	ID       string
	Position world.Vec2
	Velocity world.Vec2
	Radius   float64
	Health   float64
}

// Terrain is the subset of world queries the AI consumes.
type Terrain interface {
	IsWall(p world.Vec2) bool
	NearWall(p world.Vec2) bool
	LineOfSight(from, to world.Vec2) bool
	Raycast(origin world.Vec2, angle, maxDistance float64) (world.Vec2, bool)
}

// PathPlanner converts a start/goal pair into world-space waypoints.
// *world.Pathfinder satisfies it.
type PathPlanner interface {
	FindPath(start, goal world.Vec2, opts world.PathOptions) []world.Vec2
}
