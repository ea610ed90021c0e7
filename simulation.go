package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emberfall/server/internal/acoustics"
	"emberfall/server/internal/ai"
	"emberfall/server/internal/dossier"
	"emberfall/server/internal/journal"
	"emberfall/server/internal/telemetry"
	"emberfall/server/internal/tuning"
	"emberfall/server/internal/world"
	"emberfall/server/logging"
)

// Deps carries the injected collaborators. Every field is optional; nil
// values fall back to defaults or no-ops.
type Deps struct {
	Tuning    *tuning.Tuning
	Catalog   *dossier.Catalog
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
}

// Snapshot is the mutex-guarded view handed to observers. It never aliases
// live simulation state.
type Snapshot struct {
	Tick   uint64      `json:"tick"`
	Agents []AgentView `json:"agents"`
	Target TargetView  `json:"target"`
}

// AgentView is one agent's externally visible state.
type AgentView struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Rotation  float64 `json:"rotation"`
	Health    float64 `json:"health"`
	Label     string  `json:"label"`
	Certainty float64 `json:"certainty"`
	Alert     bool    `json:"alert"`
	Token     string  `json:"token,omitempty"`
	Sprite    string  `json:"sprite,omitempty"`
}

// TargetView mirrors the hunted entity.
type TargetView struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Health float64 `json:"health"`
}

// Simulation owns the authoritative arena state and drives the AI executor
// once per tick on a single goroutine. The mutex only exists so observers
// can snapshot between ticks.
type Simulation struct {
	mu  sync.Mutex
	cfg Config
	tun tuning.Tuning

	grid     *world.Grid
	paths    *world.Pathfinder
	store    *EntityStore
	bus      *EventBus
	executor *ai.Executor
	sound    *acoustics.Service

	journal *journal.Writer
	index   *journal.Index

	publish logging.Publisher
	metrics telemetry.Metrics
	logger  telemetry.Logger

	agents        []*ai.Agent
	target        *ai.Target
	tick          uint64
	pendingSounds []acoustics.SoundEvent
	dt            float64
}

// NewSimulation builds the arena, carves terrain, spawns the roster and
// wires the AI stack.
func NewSimulation(cfg Config, deps Deps) (*Simulation, error) {
	cfg = cfg.Normalized()

	tun := tuning.Default()
	if deps.Tuning != nil {
		tun = deps.Tuning.Normalized()
	} else if cfg.TuningPath != "" {
		loaded, err := tuning.Load(cfg.TuningPath)
		if err != nil {
			return nil, fmt.Errorf("load tuning: %w", err)
		}
		tun = loaded
	}

	catalog := deps.Catalog
	if catalog == nil && cfg.DossierPath != "" {
		loaded, err := dossier.LoadFile(cfg.DossierPath)
		if err != nil {
			return nil, fmt.Errorf("load dossiers: %w", err)
		}
		catalog = loaded
	}
	if catalog == nil {
		catalog = dossier.DefaultCatalog()
	}

	publish := deps.Publisher
	if publish == nil {
		publish = logging.NopPublisher()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}

	grid := world.NewGrid(cfg.Width, cfg.Height)
	generateTerrain(grid, cfg.Seed, cfg.ObstacleCount, cfg.FirePatchCount)
	paths := world.NewPathfinder(grid, world.PathCosts{
		BreachMultiplier: tun.Path.BreachMultiplier,
		HazardPenalty:    tun.Path.HazardPenalty,
		HeatThreshold:    tun.Path.HeatThreshold,
		MaxExpansions:    tun.Path.MaxExpansions,
	})

	sim := &Simulation{
		cfg:      cfg,
		tun:      tun,
		grid:     grid,
		paths:    paths,
		store:    NewEntityStore(),
		bus:      NewEventBus(),
		executor: ai.NewExecutor(tun, grid, paths, publish, metrics),
		sound:    acoustics.NewService(grid),
		publish:  publish,
		metrics:  metrics,
		logger:   deps.Logger,
		dt:       1 / float64(tun.TickRateHz),
	}

	factory := newSpawner(catalog, cfg.Seed)
	for _, doc := range factory.roster(cfg.AgentCount) {
		agent, err := factory.next(doc, factory.place(grid))
		if err != nil {
			sim.sound.Close()
			return nil, err
		}
		sim.agents = append(sim.agents, agent)
		sim.store.Set(agent.ID, ComponentAI, agent)
		sim.store.Set(agent.ID, ComponentTag, doc.Archetype)
	}

	sim.target = &ai.Target{
		ID:       "target-1",
		Position: world.Vec2{X: cfg.Width / 2, Y: cfg.Height / 2},
		Radius:   14,
		Health:   100,
	}
	sim.store.Set(sim.target.ID, ComponentTarget, sim.target)

	sim.bus.Subscribe(TopicSound, func(payload any) {
		emission, ok := payload.(SoundEmission)
		if !ok {
			return
		}
		sim.pendingSounds = append(sim.pendingSounds, acoustics.SoundEvent{
			Source: world.Vec2{X: emission.X, Y: emission.Y},
			Volume: emission.Volume,
		})
	})
	sim.bus.Subscribe(TopicAgentStruck, func(payload any) {
		strike, ok := payload.(AgentStruck)
		if !ok {
			return
		}
		sim.applyHitLocked(strike)
	})

	if cfg.JournalPath != "" {
		writer, err := journal.NewWriter(cfg.JournalPath)
		if err != nil {
			sim.sound.Close()
			return nil, err
		}
		sim.journal = writer
		if cfg.JournalIndexPath != "" {
			index, err := journal.OpenIndex(cfg.JournalIndexPath)
			if err != nil {
				_ = writer.Close()
				sim.sound.Close()
				return nil, err
			}
			sim.index = index
		}
	}
	return sim, nil
}

// Bus exposes the event registry for collaborators.
func (s *Simulation) Bus() *EventBus { return s.bus }

// Store exposes the entity component store.
func (s *Simulation) Store() *EntityStore { return s.store }

// Tuning returns the tuning document in effect.
func (s *Simulation) Tuning() tuning.Tuning { return s.tun }

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
}

// advance runs the fixed per-tick pipeline: drain acoustics, AI pass,
// dispatch this tick's sound batch, integrate movement, journal.
func (s *Simulation) advance() {
	s.tick++
	tick := s.tick

	for {
		select {
		case deliveries := <-s.sound.Results():
			s.executor.ApplyAcoustics(tick, s.agents, deliveries)
			continue
		default:
		}
		break
	}

	s.executor.Advance(tick, s.agents, s.target)

	if len(s.pendingSounds) > 0 {
		listeners := make([]acoustics.Listener, 0, len(s.agents))
		for _, agent := range s.agents {
			if !agent.Alive() || agent.Dossier == nil {
				continue
			}
			listeners = append(listeners, acoustics.Listener{
				ID:           agent.ID,
				Position:     agent.Position,
				HearingRange: agent.Dossier.HearingRange,
			})
		}
		if s.sound.Dispatch(s.pendingSounds, listeners) {
			s.metrics.Add(telemetry.MetricAcousticDispatched, 1)
		}
		s.pendingSounds = s.pendingSounds[:0]
	}

	s.integrate()
	s.metrics.Add(telemetry.MetricTicks, 1)
	s.record(tick)
}

// integrate plays the movement collaborator for the standalone binary:
// desired velocity becomes displacement, walls stop movement axis-by-axis,
// positions clamp to the arena.
func (s *Simulation) integrate() {
	for _, agent := range s.agents {
		if !agent.Alive() {
			continue
		}
		agent.Velocity = agent.DesiredVelocity
		next := agent.Position.Add(agent.Velocity.Scale(s.dt))
		next.X = world.Clamp(next.X, agent.Radius, s.cfg.Width-agent.Radius)
		next.Y = world.Clamp(next.Y, agent.Radius, s.cfg.Height-agent.Radius)
		if !s.grid.IsWall(next) {
			agent.Position = next
			continue
		}
		slideX := world.Vec2{X: next.X, Y: agent.Position.Y}
		if !s.grid.IsWall(slideX) {
			agent.Position = slideX
			continue
		}
		slideY := world.Vec2{X: agent.Position.X, Y: next.Y}
		if !s.grid.IsWall(slideY) {
			agent.Position = slideY
		}
	}
}

func (s *Simulation) record(tick uint64) {
	if s.journal == nil && s.index == nil {
		return
	}
	record := journal.TickRecord{Tick: tick}
	for _, agent := range s.agents {
		if !agent.Alive() {
			continue
		}
		if agent.Belief.Alert {
			record.Alerts++
		}
		if agent.Token != ai.TokenNone {
			record.TokensHeld++
		}
		step := ""
		if action, ok := agent.ActiveAction(); ok {
			record.Plans++
			step = action.Name
		}
		record.Agents = append(record.Agents, journal.AgentRecord{
			ID:        agent.ID,
			X:         agent.Position.X,
			Y:         agent.Position.Y,
			Label:     agent.Label,
			Certainty: agent.Belief.Certainty,
			Token:     tokenLabel(agent.Token),
			PlanStep:  step,
		})
	}
	if s.journal != nil {
		if err := s.journal.Write(record); err != nil && s.logger != nil {
			s.logger.Printf("journal write failed: %v", err)
		}
	}
	if s.index != nil {
		s.index.Record(record)
	}
}

func tokenLabel(kind ai.TokenKind) string {
	if kind == ai.TokenNone {
		return ""
	}
	return kind.String()
}

// EmitSound publishes a world noise for the next acoustic batch.
func (s *Simulation) EmitSound(x, y, volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Publish(TopicSound, SoundEmission{X: x, Y: y, Volume: volume})
}

// ApplyHit lands damage on an agent through the event bus.
func (s *Simulation) ApplyHit(agentID string, damage, sourceX, sourceY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Publish(TopicAgentStruck, AgentStruck{AgentID: agentID, Damage: damage, SourceX: sourceX, SourceY: sourceY})
}

func (s *Simulation) applyHitLocked(strike AgentStruck) {
	for _, agent := range s.agents {
		if agent.ID != strike.AgentID {
			continue
		}
		if !agent.Alive() {
			return
		}
		agent.Health -= strike.Damage
		agent.RecoverUntil = s.tick + s.tun.Combat.RecoveryTicks
		if agent.Health <= 0 {
			agent.Health = 0
			s.executor.Director().Release(s.tick, agent)
			s.store.Remove(agent.ID)
		}
		// The impact itself is loud; feed it back into perception.
		s.pendingSounds = append(s.pendingSounds, acoustics.SoundEvent{
			Source: world.Vec2{X: strike.SourceX, Y: strike.SourceY},
			Volume: 0.9,
		})
		return
	}
}

// SetTargetPosition moves the hunted entity, standing in for the external
// replication layer.
func (s *Simulation) SetTargetPosition(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target.Position = world.Vec2{X: x, Y: y}
}

// Snapshot copies the externally visible state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := Snapshot{
		Tick:   s.tick,
		Agents: make([]AgentView, 0, len(s.agents)),
		Target: TargetView{
			ID:     s.target.ID,
			X:      s.target.Position.X,
			Y:      s.target.Position.Y,
			Health: s.target.Health,
		},
	}
	for _, agent := range s.agents {
		view := AgentView{
			ID:        agent.ID,
			X:         agent.Position.X,
			Y:         agent.Position.Y,
			Rotation:  agent.Rotation,
			Health:    agent.Health,
			Label:     agent.Label,
			Certainty: agent.Belief.Certainty,
			Alert:     agent.Belief.Alert,
			Token:     tokenLabel(agent.Token),
		}
		if agent.Dossier != nil {
			view.Sprite = agent.Dossier.Sprite
		}
		snapshot.Agents = append(snapshot.Agents, view)
	}
	return snapshot
}

// Run drives the tick loop until the context ends, invoking observe (when
// non-nil) with a fresh snapshot after every tick.
func (s *Simulation) Run(ctx context.Context, observe func(Snapshot)) {
	interval := time.Second / time.Duration(s.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			s.Step()
			if observe != nil {
				observe(s.Snapshot())
			}
		}
	}
}

// Close releases the acoustic worker and journal resources.
func (s *Simulation) Close() {
	s.sound.Close()
	if s.journal != nil {
		_ = s.journal.Close()
	}
	if s.index != nil {
		_ = s.index.Close()
	}
}
