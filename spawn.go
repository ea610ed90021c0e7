package server

import (
	"fmt"
	"math/rand"

	"emberfall/server/internal/ai"
	"emberfall/server/internal/dossier"
	"emberfall/server/internal/world"
)

// spawner builds agents from dossiers with deterministic ids and positions.
// Identical seeds reproduce identical rosters and layouts.
type spawner struct {
	catalog *dossier.Catalog
	rng     *rand.Rand
	nextID  uint64
}

func newSpawner(catalog *dossier.Catalog, seed string) *spawner {
	return &spawner{
		catalog: catalog,
		rng:     world.NewDeterministicRNG(seed, "spawn"),
	}
}

// next instantiates one agent from the dossier, applying trait modifiers
// exactly once.
func (s *spawner) next(doc *dossier.Dossier, position world.Vec2) (*ai.Agent, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil dossier")
	}
	mods, err := dossier.ResolveTraits(doc.Traits)
	if err != nil {
		return nil, fmt.Errorf("dossier %q: %w", doc.ID, err)
	}
	s.nextID++
	health := doc.MaxHealth * mods.HealthMult
	agent := &ai.Agent{
		ID:        fmt.Sprintf("agent-%d", s.nextID),
		Position:  position,
		Rotation:  world.RandomAngle(s.rng),
		Health:    health,
		MaxHealth: health,
		Speed:     doc.Speed * mods.SpeedMult,
		Radius:    doc.Radius,
		Group:     doc.Archetype,
		Dossier:   doc,
		Mods:      mods,
	}
	return agent, nil
}

// roster picks count dossiers round-robin over the catalogue order.
func (s *spawner) roster(count int) []*dossier.Dossier {
	ids := s.catalog.IDs()
	if len(ids) == 0 {
		return nil
	}
	docs := make([]*dossier.Dossier, 0, count)
	for i := 0; i < count; i++ {
		doc, _ := s.catalog.Get(ids[i%len(ids)])
		docs = append(docs, doc)
	}
	return docs
}

// place finds an open spawn position, backing off toward the arena center
// when the random draws keep landing in walls.
func (s *spawner) place(grid *world.Grid) world.Vec2 {
	for attempt := 0; attempt < 32; attempt++ {
		candidate := world.Vec2{
			X: s.rng.Float64() * grid.Width(),
			Y: s.rng.Float64() * grid.Height(),
		}
		if !grid.IsWall(candidate) {
			return candidate
		}
	}
	return world.Vec2{X: grid.Width() / 2, Y: grid.Height() / 2}
}

// generateTerrain carves deterministic obstacles and fire patches into the
// grid. Every other obstacle is breachable so the pathfinder's breach costs
// have real terrain to price.
func generateTerrain(grid *world.Grid, seed string, obstacles, firePatches int) {
	rng := world.NewDeterministicRNG(seed, "terrain")
	cols, rows := grid.Cols(), grid.Rows()
	for i := 0; i < obstacles; i++ {
		col := 1 + rng.Intn(maxInt(cols-2, 1))
		row := 1 + rng.Intn(maxInt(rows-2, 1))
		spanW := 1 + rng.Intn(3)
		spanH := 1 + rng.Intn(3)
		breachable := i%2 == 1
		for dc := 0; dc < spanW; dc++ {
			for dr := 0; dr < spanH; dr++ {
				grid.SetTile(col+dc, row+dr, world.Tile{Blocking: true, Breachable: breachable})
			}
		}
	}
	for i := 0; i < firePatches; i++ {
		col := rng.Intn(maxInt(cols, 1))
		row := rng.Intn(maxInt(rows, 1))
		grid.SetIgnited(col, row, true)
		grid.SetHeat(col, row, 0.6+rng.Float64()*0.4)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
