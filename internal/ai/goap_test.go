package ai

import (
	"testing"

	"emberfall/server/internal/world"
)

func vec(x, y float64) world.Vec2 { return world.Vec2{X: x, Y: y} }

func worldOrigin() world.Vec2 { return world.Vec2{} }

func TestPlanSoundness(t *testing.T) {
	agent := testAgent("a1", worldOrigin())
	agent.Belief.Alert = true
	agent.Belief.HasLastKnown = true
	agent.Belief.LastKnown = vec(300, 0)

	planner := NewPlanner(256)
	start := BuildState(agent, 12)
	goal := EngagementGoal()
	plan := planner.Plan(agent, start, goal, Catalogue())
	if plan == nil || len(plan.Actions) == 0 {
		t.Fatalf("expected a plan for an alert agent with a belief")
	}

	state := start
	for i, action := range plan.Actions {
		if !action.Pre.Matches(state) {
			t.Fatalf("action %d (%s) precondition violated by state %v", i, action.Name, state)
		}
		state = action.Effects.Apply(state)
	}
	if !goal.Matches(state) {
		t.Fatalf("plan does not reach the goal: final state %v", state)
	}
}

func TestPlanOrdersEngagementChain(t *testing.T) {
	agent := testAgent("a1", worldOrigin())
	agent.Belief.Alert = true
	agent.Belief.HasLastKnown = true
	agent.Belief.LastKnown = vec(300, 0)

	plan := NewPlanner(256).Plan(agent, BuildState(agent, 12), EngagementGoal(), Catalogue())
	if plan == nil {
		t.Fatalf("expected a plan")
	}
	want := []string{
		ActionInvestigateLastKnown,
		ActionMoveToTacticalPoint,
		ActionRequestAttackToken,
		ActionAttackTarget,
	}
	if len(plan.Actions) != len(want) {
		t.Fatalf("plan length: got %d want %d", len(plan.Actions), len(want))
	}
	for i, name := range want {
		if plan.Actions[i].Name != name {
			t.Fatalf("step %d: got %s want %s", i, plan.Actions[i].Name, name)
		}
	}
}

func TestPlanPrefersCheaperCombo(t *testing.T) {
	// Two routes to the goal: one 5-cost action, or a 1-cost then a 2-cost
	// action. The planner must return the 1+2 combo.
	catalogue := []Action{
		{
			Name:    "expensive",
			Cost:    5,
			Effects: Cond{}.With(FactTargetEliminated, true),
		},
		{
			Name:    "setup",
			Cost:    1,
			Effects: Cond{}.With(FactAtTacticalPoint, true),
		},
		{
			Name:    "finish",
			Cost:    2,
			Pre:     Cond{}.With(FactAtTacticalPoint, true),
			Effects: Cond{}.With(FactTargetEliminated, true),
		},
	}

	plan := NewPlanner(256).Plan(nil, State{}, EngagementGoal(), catalogue)
	if plan == nil {
		t.Fatalf("expected a plan")
	}
	if plan.Cost != 3 {
		t.Fatalf("plan cost: got %.1f want 3", plan.Cost)
	}
	if len(plan.Actions) != 2 || plan.Actions[0].Name != "setup" || plan.Actions[1].Name != "finish" {
		t.Fatalf("expected setup+finish, got %+v", planNames(plan))
	}
}

func TestPlanUnreachableGoalReturnsNil(t *testing.T) {
	catalogue := []Action{
		{
			Name:    "locked",
			Cost:    1,
			Pre:     Cond{}.With(FactHoldingToken, true),
			Effects: Cond{}.With(FactTargetEliminated, true),
		},
	}
	if plan := NewPlanner(256).Plan(nil, State{}, EngagementGoal(), catalogue); plan != nil {
		t.Fatalf("expected no plan, got %+v", planNames(plan))
	}
}

func TestPlanSkipsInvalidActions(t *testing.T) {
	catalogue := []Action{
		{
			Name:    "direct",
			Cost:    1,
			Effects: Cond{}.With(FactTargetEliminated, true),
			Valid:   func(*Agent) bool { return false },
		},
		{
			Name:    "fallback",
			Cost:    4,
			Effects: Cond{}.With(FactTargetEliminated, true),
		},
	}
	plan := NewPlanner(256).Plan(nil, State{}, EngagementGoal(), catalogue)
	if plan == nil || len(plan.Actions) != 1 || plan.Actions[0].Name != "fallback" {
		t.Fatalf("expected the fallback action, got %+v", planNames(plan))
	}
}

func TestPlanGoalAlreadySatisfied(t *testing.T) {
	var start State
	start[FactTargetEliminated] = true
	plan := NewPlanner(256).Plan(nil, start, EngagementGoal(), Catalogue())
	if plan == nil || len(plan.Actions) != 0 {
		t.Fatalf("expected an empty plan, got %+v", planNames(plan))
	}
}

func TestStateKeyRoundTrip(t *testing.T) {
	var a, b State
	a[FactHasBelief] = true
	a[FactHoldingToken] = true
	b[FactHasBelief] = true
	if a.Key() == b.Key() {
		t.Fatalf("distinct states must not collide: %b vs %b", a.Key(), b.Key())
	}
	b[FactHoldingToken] = true
	if a.Key() != b.Key() {
		t.Fatalf("equal states must share a key: %b vs %b", a.Key(), b.Key())
	}
}

func planNames(plan *Plan) []string {
	if plan == nil {
		return nil
	}
	names := make([]string, 0, len(plan.Actions))
	for _, action := range plan.Actions {
		names = append(names, action.Name)
	}
	return names
}
