package ai

import (
	"context"
	"fmt"
	"math"

	"emberfall/server/internal/acoustics"
	"emberfall/server/internal/telemetry"
	"emberfall/server/internal/tuning"
	"emberfall/server/internal/world"
	"emberfall/server/logging"
	perceptionlog "emberfall/server/logging/perception"
)

// Executor composes the AI subsystems into the fixed per-tick order:
// perception, director arbitration, per-agent planning and action execution,
// then the steering blend. Everything runs on the simulation goroutine.
type Executor struct {
	cfg       tuning.Tuning
	terrain   Terrain
	paths     PathPlanner
	percept   *Perception
	queries   *QueryEngine
	planner   *Planner
	director  *Director
	steering  *Steering
	catalogue []Action
	publish   logging.Publisher
	metrics   telemetry.Metrics
	dt        float64
}

// NewExecutor wires the subsystems against shared collaborators.
func NewExecutor(cfg tuning.Tuning, terrain Terrain, paths PathPlanner, publish logging.Publisher, metrics telemetry.Metrics) *Executor {
	cfg = cfg.Normalized()
	if publish == nil {
		publish = logging.NopPublisher()
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Executor{
		cfg:       cfg,
		terrain:   terrain,
		paths:     paths,
		percept:   NewPerception(terrain, cfg.Perception),
		queries:   NewQueryEngine(terrain),
		planner:   NewPlanner(cfg.Planner.MaxIterations),
		director:  NewDirector(cfg.Director, publish, metrics),
		steering:  NewSteering(cfg.Steering),
		catalogue: Catalogue(),
		publish:   publish,
		metrics:   metrics,
		dt:        1 / float64(cfg.TickRateHz),
	}
}

// Director exposes the token arbiter for release-on-death and inspection.
func (e *Executor) Director() *Director {
	return e.director
}

// ApplyAcoustics folds delivered sound batches into beliefs. Deliveries for
// dead or unknown listeners are discarded silently, checked here at the
// point of application rather than at dispatch.
func (e *Executor) ApplyAcoustics(tick uint64, agents []*Agent, deliveries []acoustics.Delivery) {
	if e == nil || len(deliveries) == 0 {
		return
	}
	byID := make(map[string]*Agent, len(agents))
	for _, agent := range agents {
		if agent != nil {
			byID[agent.ID] = agent
		}
	}
	for _, delivery := range deliveries {
		agent, ok := byID[delivery.ListenerID]
		if !ok || !agent.Alive() {
			e.metrics.Add(telemetry.MetricAcousticDiscarded, 1)
			continue
		}
		if !e.percept.ApplyAcoustic(agent, delivery.ApparentSource, delivery.Volume) {
			e.metrics.Add(telemetry.MetricAcousticDiscarded, 1)
			continue
		}
		e.metrics.Add(telemetry.MetricAcousticApplied, 1)
		perceptionlog.SoundHeard(context.Background(), e.publish, tick, agentRef(agent.ID), perceptionlog.SoundPayload{
			X:      delivery.ApparentSource.X,
			Y:      delivery.ApparentSource.Y,
			Volume: delivery.Volume,
		})
	}
}

// Advance runs one full AI tick for every agent.
func (e *Executor) Advance(tick uint64, agents []*Agent, target *Target) {
	if e == nil {
		return
	}

	for _, agent := range agents {
		if !agent.Alive() {
			continue
		}
		wasVisible := agent.Belief.Visible
		wasAlert := agent.Belief.Alert
		e.percept.Observe(agent, target, e.dt)
		if agent.Belief.Visible && !wasVisible && target != nil {
			perceptionlog.TargetSighted(context.Background(), e.publish, tick, agentRef(agent.ID),
				logging.EntityRef{ID: target.ID, Kind: logging.EntityKindTarget},
				perceptionlog.SightingPayload{X: target.Position.X, Y: target.Position.Y, Certainty: agent.Belief.Certainty})
		}
		if wasAlert && !agent.Belief.Alert {
			perceptionlog.TargetLost(context.Background(), e.publish, tick, agentRef(agent.ID))
		}
	}

	e.director.Update(tick, agents, target)

	for _, agent := range agents {
		if !agent.Alive() {
			continue
		}
		e.act(tick, agent, target)
	}

	for _, agent := range agents {
		if !agent.Alive() {
			continue
		}
		agent.DesiredVelocity = e.steering.Blend(agent, agents, agent.DesiredVelocity)
	}
}

func (e *Executor) act(tick uint64, agent *Agent, target *Target) {
	if agent.RecoverUntil > tick {
		agent.DesiredVelocity = agent.Velocity.Scale(e.cfg.Combat.VelocityDecay)
		agent.Label = "recovering"
		return
	}
	if !agent.Belief.Alert {
		agent.ClearPlan()
		agent.Path.Clear()
		agent.HasTacticalPoint = false
		agent.DesiredVelocity = agent.Velocity.Scale(e.cfg.Combat.VelocityDecay)
		agent.Label = "idle"
		return
	}

	if tick >= agent.NextQueryTick {
		e.refreshTacticalPoint(agent)
		agent.NextQueryTick = tick + e.cfg.EQS.RefreshIntervalTicks
	}

	if _, ok := agent.ActiveAction(); !ok {
		start := BuildState(agent, e.cfg.Path.WaypointEpsilon)
		plan := e.planner.Plan(agent, start, EngagementGoal(), e.catalogue)
		if plan == nil || len(plan.Actions) == 0 {
			e.metrics.Add(telemetry.MetricPlansFailed, 1)
			agent.DesiredVelocity = agent.Velocity.Scale(e.cfg.Combat.VelocityDecay)
			agent.Label = e.stateLabel(agent, "")
			return
		}
		e.metrics.Add(telemetry.MetricPlansBuilt, 1)
		agent.Plan = plan
		agent.StepIndex = 0
	}

	action, _ := agent.ActiveAction()
	velocity, label, done := e.executeAction(tick, agent, action, target)
	agent.DesiredVelocity = velocity
	agent.Label = e.stateLabel(agent, label)
	if velocity.Length() > 0 {
		agent.Rotation = math.Atan2(velocity.Y, velocity.X)
	}
	if done {
		agent.StepIndex++
		if _, ok := agent.ActiveAction(); !ok {
			agent.ClearPlan()
		}
	}
}

// refreshTacticalPoint reruns the tactical query on its cadence. The query
// centers on the believed target position so the candidate set stays stable
// between refreshes and an approaching agent can actually arrive. An empty
// result clears the point; movement falls back to the last-known position.
func (e *Executor) refreshTacticalPoint(agent *Agent) {
	reference := agent.Belief.LastKnown
	hasReference := agent.Belief.HasLastKnown
	if agent.Belief.HasPerceived {
		reference = agent.Belief.Perceived
		hasReference = true
	}
	if !hasReference {
		agent.HasTacticalPoint = false
		return
	}
	preferred := 0.0
	if agent.Dossier != nil {
		preferred = agent.Dossier.PreferredDistance
	}
	query := Query{
		Center:  reference,
		Radius:  e.cfg.EQS.DefaultRadius,
		Density: e.cfg.EQS.DefaultDensity,
		Tests: []Test{
			{Kind: TestDistance, Weight: 1, PreferredDistance: preferred},
			{Kind: TestLineOfSight, Weight: 0.8},
			{Kind: TestWallProximity, Weight: 0.4},
		},
	}
	points := e.queries.Run(query, reference, hasReference)
	if len(points) == 0 {
		agent.HasTacticalPoint = false
		return
	}
	agent.HasTacticalPoint = true
	agent.TacticalPoint = points[0].Position
}

func (e *Executor) executeAction(tick uint64, agent *Agent, action Action, target *Target) (world.Vec2, string, bool) {
	arrive := e.cfg.Path.WaypointEpsilon
	switch action.Name {
	case ActionInvestigateLastKnown:
		if !agent.Belief.HasLastKnown {
			agent.ClearPlan()
			return agent.Velocity.Scale(e.cfg.Combat.VelocityDecay), action.Name, false
		}
		if agent.Position.DistanceTo(agent.Belief.LastKnown) <= arrive || agent.Belief.Visible {
			return world.Vec2{}, action.Name, true
		}
		return e.moveToward(tick, agent, agent.Belief.LastKnown), action.Name, false

	case ActionMoveToTacticalPoint:
		goal := agent.Belief.LastKnown
		if agent.HasTacticalPoint {
			goal = agent.TacticalPoint
		}
		if agent.Position.DistanceTo(goal) <= arrive {
			return world.Vec2{}, action.Name, true
		}
		return e.moveToward(tick, agent, goal), action.Name, false

	case ActionRequestAttackToken:
		if agent.Token != TokenNone {
			return world.Vec2{}, action.Name, true
		}
		e.director.Submit(agent.ID, TokenAttack)
		// Hold position until a slot frees; the request stays queued.
		return agent.Velocity.Scale(e.cfg.Combat.VelocityDecay), ActionHoldPosition, false

	case ActionAttackTarget:
		if agent.Token == TokenNone {
			// Token revoked mid-plan; replan next cycle.
			agent.ClearPlan()
			return agent.Velocity.Scale(e.cfg.Combat.VelocityDecay), action.Name, false
		}
		if target == nil || target.Health <= 0 {
			e.director.Release(tick, agent)
			return world.Vec2{}, action.Name, true
		}
		goal := agent.Belief.LastKnown
		if agent.Belief.HasPerceived {
			goal = agent.Belief.Perceived
		}
		reach := arrive
		if agent.Dossier != nil && agent.Dossier.AttackRange > reach {
			reach = agent.Dossier.AttackRange
		}
		if agent.Position.DistanceTo(goal) <= reach {
			return world.Vec2{}, action.Name, false
		}
		return e.moveToward(tick, agent, goal), action.Name, false

	default:
		return agent.Velocity.Scale(e.cfg.Combat.VelocityDecay), action.Name, true
	}
}

// moveToward follows the cached path toward the goal, recomputing on the
// path cadence or when the goal drifts. An empty path degrades to
// direct-line movement.
func (e *Executor) moveToward(tick uint64, agent *Agent, goal world.Vec2) world.Vec2 {
	arrive := e.cfg.Path.WaypointEpsilon
	stale := len(agent.Path.Waypoints) == 0 ||
		tick >= agent.Path.NextRefreshTick ||
		agent.Path.Goal.DistanceTo(goal) > arrive
	if stale && e.paths != nil {
		agent.Path.Waypoints = e.paths.FindPath(agent.Position, goal, world.PathOptions{
			HeatImmune:  agent.Mods.FireImmune,
			AllowBreach: true,
		})
		agent.Path.Cursor = 0
		agent.Path.Goal = goal
		agent.Path.NextRefreshTick = tick + e.cfg.Path.RefreshIntervalTicks
		e.metrics.Add(telemetry.MetricPathsComputed, 1)
	}

	waypoint := goal
	for agent.Path.Cursor < len(agent.Path.Waypoints) {
		waypoint = agent.Path.Waypoints[agent.Path.Cursor]
		if agent.Position.DistanceTo(waypoint) > arrive {
			break
		}
		agent.Path.Cursor++
		waypoint = goal
	}

	direction := waypoint.Sub(agent.Position)
	if direction.Length() == 0 {
		return world.Vec2{}
	}
	return direction.Normalized().Scale(agent.Speed)
}

// stateLabel derives the debugging/animation label: the high-level belief
// state plus the active plan step.
func (e *Executor) stateLabel(agent *Agent, action string) string {
	state := "idle"
	if agent.Belief.Visible {
		state = "alert"
	} else if agent.Belief.Alert {
		state = "investigate"
	}
	if action == "" {
		return state
	}
	return fmt.Sprintf("%s:%s", state, action)
}
