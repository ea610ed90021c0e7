package server

import (
	"math"
	"runtime"
	"strings"
	"testing"

	"emberfall/server/internal/ai"
	"emberfall/server/internal/world"
)

func newTestSimulation(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	sim, err := NewSimulation(cfg, Deps{})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func TestSimulationDeterministicLayout(t *testing.T) {
	cfg := Config{Seed: "replay-1", AgentCount: 5, ObstacleCount: 10, FirePatchCount: 2}
	simA := newTestSimulation(t, cfg)
	simB := newTestSimulation(t, cfg)

	snapA := simA.Snapshot()
	snapB := simB.Snapshot()
	if len(snapA.Agents) != len(snapB.Agents) {
		t.Fatalf("roster sizes diverged: %d vs %d", len(snapA.Agents), len(snapB.Agents))
	}
	for i := range snapA.Agents {
		a, b := snapA.Agents[i], snapB.Agents[i]
		if a.ID != b.ID || a.X != b.X || a.Y != b.Y {
			t.Fatalf("agent %d diverged: %+v vs %+v", i, a, b)
		}
	}
}

func TestSimulationStepAdvancesTick(t *testing.T) {
	sim := newTestSimulation(t, Config{Seed: "tick", AgentCount: 2})
	sim.Step()
	sim.Step()
	if snap := sim.Snapshot(); snap.Tick != 2 {
		t.Fatalf("tick: got %d want 2", snap.Tick)
	}
}

func TestSimulationSnapshotCarriesLabels(t *testing.T) {
	sim := newTestSimulation(t, Config{Seed: "labels", AgentCount: 3, ObstacleCount: 0, FirePatchCount: 0})
	// Park the target far outside every vision range so the roster idles.
	sim.SetTargetPosition(-5000, -5000)
	sim.Step()
	snap := sim.Snapshot()
	if len(snap.Agents) != 3 {
		t.Fatalf("agents in snapshot: got %d want 3", len(snap.Agents))
	}
	for _, agent := range snap.Agents {
		if agent.Label == "" {
			t.Fatalf("agent %s has no state label", agent.ID)
		}
	}
}

func TestSimulationApplyHitSetsRecoveryAndKills(t *testing.T) {
	sim := newTestSimulation(t, Config{Seed: "combat", AgentCount: 1, ObstacleCount: 0, FirePatchCount: 0})
	sim.Step()

	victim := sim.agents[0]
	sim.ApplyHit(victim.ID, 1, victim.Position.X, victim.Position.Y)
	if victim.RecoverUntil <= sim.tick {
		t.Fatalf("hit must start a recovery window: until=%d tick=%d", victim.RecoverUntil, sim.tick)
	}
	sim.Step()
	if !strings.HasPrefix(victim.Label, "recovering") {
		t.Fatalf("struck agent label: got %q want recovering", victim.Label)
	}

	sim.ApplyHit(victim.ID, victim.Health+1, victim.Position.X, victim.Position.Y)
	if victim.Alive() {
		t.Fatalf("overkill damage left the agent alive with health %.1f", victim.Health)
	}
	if ids := sim.store.Query(ComponentAI); len(ids) != 0 {
		t.Fatalf("dead agent still registered: %v", ids)
	}
}

func TestSimulationHitNoiseAlertsBystanders(t *testing.T) {
	sim := newTestSimulation(t, Config{Seed: "noise", AgentCount: 2, ObstacleCount: 0, FirePatchCount: 0})
	sim.SetTargetPosition(-5000, -5000)

	victim := sim.agents[0]
	bystander := sim.agents[1]
	// Keep the bystander in hearing range of the impact.
	bystander.Position = victim.Position.Add(world.Vec2{X: 40})
	impact := victim.Position

	sim.ApplyHit(victim.ID, 1, impact.X, impact.Y)
	// One tick dispatches the batch; the async result lands on a later one.
	// Yield between ticks so the propagation worker runs even on one CPU.
	for i := 0; i < 50 && !bystander.Belief.Alert; i++ {
		sim.Step()
		runtime.Gosched()
	}
	if !bystander.Belief.Alert {
		t.Fatalf("impact noise never reached the bystander")
	}
	if bystander.Belief.LastKnown.DistanceTo(impact) > 1 {
		t.Fatalf("last-known should sit at the impact: %+v vs %+v", bystander.Belief.LastKnown, impact)
	}
}

func TestSimulationTokensBoundedUnderPressure(t *testing.T) {
	cfg := Config{Seed: "pressure", AgentCount: 8, ObstacleCount: 0, FirePatchCount: 0}
	sim := newTestSimulation(t, cfg)
	attackSlots := sim.Tuning().Director.AttackSlots

	// Drop every agent next to the target so the whole roster escalates.
	for i, agent := range sim.agents {
		agent.Position = sim.target.Position.Add(world.Vec2{X: float64(40 + i*10)})
		agent.Rotation = math.Pi // facing back toward the target
	}
	for tick := 0; tick < 120; tick++ {
		sim.Step()
		held := sim.executor.Director().HeldCount(ai.TokenAttack)
		if held > attackSlots {
			t.Fatalf("tick %d: %d attack tokens out, pool %d", tick, held, attackSlots)
		}
	}
}
