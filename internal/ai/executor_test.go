package ai

import (
	"math"
	"strings"
	"testing"

	"emberfall/server/internal/acoustics"
	"emberfall/server/internal/tuning"
	"emberfall/server/internal/world"
)

func newTestExecutor() *Executor {
	return NewExecutor(tuning.Default(), openTerrain{}, nil, nil, nil)
}

func TestExecutorAcousticOnlyContactScenario(t *testing.T) {
	executor := newTestExecutor()
	agent := testAgent("a1", world.Vec2{})
	target := &Target{ID: "t", Position: world.Vec2{X: 1000, Y: 0}, Radius: 14, Health: 100}
	agents := []*Agent{agent}

	// Vision range 500, target at 1000: vision alone must never alert.
	for tick := uint64(1); tick <= 100; tick++ {
		executor.Advance(tick, agents, target)
		if agent.Belief.Alert {
			t.Fatalf("tick %d: agent went alert without line of contact", tick)
		}
	}
	if agent.Label != "idle" {
		t.Fatalf("quiet agent label: got %q want idle", agent.Label)
	}

	// A single loud sound near the arena origin flips the agent to alert
	// with a last-known position at the apparent source.
	executor.ApplyAcoustics(101, agents, []acoustics.Delivery{
		{ListenerID: agent.ID, ApparentSource: world.Vec2{X: 50, Y: 0}, Volume: 0.9},
	})
	if !agent.Belief.Alert {
		t.Fatalf("strong acoustic delivery must alert the agent")
	}
	if agent.Belief.LastKnown.DistanceTo(world.Vec2{X: 50, Y: 0}) > 1 {
		t.Fatalf("last-known position: got %+v want near (50,0)", agent.Belief.LastKnown)
	}

	executor.Advance(101, agents, target)
	if !strings.HasPrefix(agent.Label, "investigate") {
		t.Fatalf("alerted-by-sound label: got %q want investigate prefix", agent.Label)
	}
	if agent.DesiredVelocity.X <= 0 {
		t.Fatalf("agent should move toward the sound, velocity %+v", agent.DesiredVelocity)
	}
}

func TestExecutorAcousticsDiscardDeadAndUnknownListeners(t *testing.T) {
	executor := newTestExecutor()
	corpse := testAgent("dead", world.Vec2{})
	corpse.Health = 0
	agents := []*Agent{corpse}

	executor.ApplyAcoustics(1, agents, []acoustics.Delivery{
		{ListenerID: "dead", ApparentSource: world.Vec2{X: 50, Y: 0}, Volume: 0.9},
		{ListenerID: "missing", ApparentSource: world.Vec2{X: 50, Y: 0}, Volume: 0.9},
	})
	if corpse.Belief.Alert {
		t.Fatalf("dead listener's belief was mutated")
	}
}

func TestExecutorRecoveryTimerSuppressesPlanning(t *testing.T) {
	executor := newTestExecutor()
	agent := testAgent("a1", world.Vec2{})
	agent.Belief.Alert = true
	agent.Belief.HasLastKnown = true
	agent.Belief.LastKnown = world.Vec2{X: 300, Y: 0}
	agent.Belief.Certainty = 1
	agent.Velocity = world.Vec2{X: 40, Y: 0}
	agent.RecoverUntil = 5

	executor.Advance(1, []*Agent{agent}, nil)
	if agent.Label != "recovering" {
		t.Fatalf("label during recovery: got %q", agent.Label)
	}
	if agent.Plan != nil {
		t.Fatalf("recovery must suppress planning")
	}
	decay := tuning.Default().Combat.VelocityDecay
	if agent.DesiredVelocity.X != 40*decay {
		t.Fatalf("recovery velocity: got %.2f want %.2f", agent.DesiredVelocity.X, 40*decay)
	}

	executor.Advance(5, []*Agent{agent}, nil)
	if agent.Plan == nil {
		t.Fatalf("planning should resume once the timer expires")
	}
}

func TestExecutorSightedTargetDrivesAlertLabel(t *testing.T) {
	executor := newTestExecutor()
	agent := testAgent("a1", world.Vec2{})
	target := &Target{ID: "t", Position: world.Vec2{X: 200, Y: 0}, Radius: 14, Health: 100}

	executor.Advance(1, []*Agent{agent}, target)
	if !agent.Belief.Visible {
		t.Fatalf("close target in the cone must be sighted")
	}
	if !strings.HasPrefix(agent.Label, "alert") {
		t.Fatalf("label: got %q want alert prefix", agent.Label)
	}
}

func TestExecutorHoldsPositionWhileTokenPends(t *testing.T) {
	cfg := tuning.Default()
	cfg.Director.AttackSlots = 1
	executor := NewExecutor(cfg, openTerrain{}, nil, nil, nil)

	holder := testAgent("holder", world.Vec2{X: 10, Y: 0})
	waiter := testAgent("waiter", world.Vec2{X: 400, Y: 0})
	waiter.Rotation = math.Pi // facing the target
	target := &Target{ID: "t", Position: world.Vec2{X: 30, Y: 0}, Radius: 14, Health: 100}
	agents := []*Agent{holder, waiter}

	// Integrate movement like the physics collaborator would and drive the
	// agents until one reaches the token-request step; a pending request
	// always surfaces as HoldPosition for at least one tick.
	const dt = 1.0 / 15
	sawHold := false
	for tick := uint64(1); tick <= 400 && !sawHold; tick++ {
		executor.Advance(tick, agents, target)
		for _, agent := range agents {
			agent.Velocity = agent.DesiredVelocity
			agent.Position = agent.Position.Add(agent.Velocity.Scale(dt))
			if strings.Contains(agent.Label, ActionHoldPosition) {
				sawHold = true
			}
		}
	}
	if !sawHold {
		t.Fatalf("token contention never produced a HoldPosition state")
	}
	if executor.Director().HeldCount(TokenAttack) > 1 {
		t.Fatalf("attack pool of one leaked %d tokens", executor.Director().HeldCount(TokenAttack))
	}
}

func TestExecutorPlanAdvancesThroughInvestigate(t *testing.T) {
	executor := newTestExecutor()
	agent := testAgent("a1", world.Vec2{})
	agent.Belief.Alert = true
	agent.Belief.HasLastKnown = true
	agent.Belief.LastKnown = world.Vec2{X: 300, Y: 0}
	agent.Belief.Certainty = 1

	executor.Advance(1, []*Agent{agent}, nil)
	if agent.Plan == nil {
		t.Fatalf("alert agent with a belief should plan")
	}
	action, ok := agent.ActiveAction()
	if !ok || action.Name != ActionInvestigateLastKnown {
		t.Fatalf("first step: got %v want %s", action.Name, ActionInvestigateLastKnown)
	}
	if agent.DesiredVelocity.X <= 0 {
		t.Fatalf("investigation should move toward the last-known position, velocity %+v", agent.DesiredVelocity)
	}

	// Teleport onto the spot: the step completes and the plan advances.
	agent.Position = agent.Belief.LastKnown
	executor.Advance(2, []*Agent{agent}, nil)
	if action, _ := agent.ActiveAction(); action.Name == ActionInvestigateLastKnown {
		t.Fatalf("investigation step should have completed")
	}
}

func TestExecutorDirectLineFallbackWithoutPaths(t *testing.T) {
	executor := newTestExecutor()
	agent := testAgent("a1", world.Vec2{X: 100, Y: 100})
	agent.Belief.Alert = true
	agent.Belief.HasLastKnown = true
	agent.Belief.LastKnown = world.Vec2{X: 100, Y: 400}
	agent.Belief.Certainty = 1

	executor.Advance(1, []*Agent{agent}, nil)
	velocity := agent.DesiredVelocity
	if velocity.Y <= 0 {
		t.Fatalf("fallback should head straight for the goal, velocity %+v", velocity)
	}
	speed := velocity.Length()
	if speed < agent.Speed-1e-6 || speed > agent.Speed+1e-6 {
		t.Fatalf("fallback speed: got %.2f want %.2f", speed, agent.Speed)
	}
}
