package ai

// Action names double as the plan-state labels surfaced to debugging and
// animation hooks.
const (
	ActionInvestigateLastKnown = "InvestigateLKP"
	ActionMoveToTacticalPoint  = "MoveToTacticalPosition"
	ActionRequestAttackToken   = "RequestAttackToken"
	ActionAttackTarget         = "AttackTarget"
	ActionHoldPosition         = "HoldPosition"
)

// Catalogue returns the static engagement action set. The token request
// optimistically assumes a grant during search; at runtime the agent holds
// position until the Director actually grants one.
func Catalogue() []Action {
	return []Action{
		{
			Name: ActionInvestigateLastKnown,
			Cost: 1,
			Pre: Cond{}.
				With(FactHasBelief, true).
				With(FactAtLastKnown, false),
			Effects: Cond{}.With(FactAtLastKnown, true),
			Valid: func(agent *Agent) bool {
				return agent != nil && agent.Belief.HasLastKnown
			},
		},
		{
			Name: ActionMoveToTacticalPoint,
			Cost: 1,
			Pre: Cond{}.
				With(FactAtLastKnown, true).
				With(FactAtTacticalPoint, false),
			Effects: Cond{}.With(FactAtTacticalPoint, true),
		},
		{
			Name: ActionRequestAttackToken,
			Cost: 1,
			Pre: Cond{}.
				With(FactAtTacticalPoint, true).
				With(FactHoldingToken, false),
			Effects: Cond{}.With(FactHoldingToken, true),
		},
		{
			Name: ActionAttackTarget,
			Cost: 2,
			Pre:  Cond{}.With(FactHoldingToken, true),
			Effects: Cond{}.With(FactTargetEliminated, true),
			Valid: func(agent *Agent) bool {
				return agent != nil && agent.Belief.Alert
			},
		},
	}
}

// EngagementGoal is the standing goal for every alert agent.
func EngagementGoal() Cond {
	return Cond{}.With(FactTargetEliminated, true)
}

// BuildState snapshots the agent's live data into a symbolic start state.
// A direct sighting supersedes investigation, so FactAtLastKnown is granted
// when the target is visible or the agent already stands on the spot.
func BuildState(agent *Agent, arriveRadius float64) State {
	var state State
	if agent == nil {
		return state
	}
	state[FactTargetVisible] = agent.Belief.Visible
	state[FactHasBelief] = agent.Belief.HasLastKnown
	if agent.Belief.Visible {
		state[FactAtLastKnown] = true
	} else if agent.Belief.HasLastKnown && agent.Position.DistanceTo(agent.Belief.LastKnown) <= arriveRadius {
		state[FactAtLastKnown] = true
	}
	if agent.HasTacticalPoint && agent.Position.DistanceTo(agent.TacticalPoint) <= arriveRadius {
		state[FactAtTacticalPoint] = true
	}
	state[FactHoldingToken] = agent.Token != TokenNone
	return state
}
