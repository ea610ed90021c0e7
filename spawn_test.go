package server

import (
	"testing"

	"emberfall/server/internal/dossier"
	"emberfall/server/internal/world"
)

func TestSpawnerAppliesTraitModifiersOnce(t *testing.T) {
	catalog := dossier.DefaultCatalog()
	factory := newSpawner(catalog, "trait-test")

	doc := &dossier.Dossier{
		ID:               "lab-rat",
		Archetype:        "stalker",
		MaxHealth:        50,
		Speed:            100,
		Radius:           12,
		AttackRange:      20,
		VisionRange:      400,
		VisionFOVDegrees: 180,
		HearingRange:     500,
		Traits:           []dossier.TraitID{dossier.TraitSwift, dossier.TraitJuggernaut, dossier.TraitFireborn},
	}
	agent, err := factory.next(doc, world.Vec2{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if agent.Speed != 130 {
		t.Fatalf("swift speed: got %.1f want 130", agent.Speed)
	}
	if agent.MaxHealth != 90 {
		t.Fatalf("juggernaut health: got %.1f want 90", agent.MaxHealth)
	}
	if !agent.Mods.FireImmune {
		t.Fatalf("fireborn immunity lost in resolution")
	}
	if agent.Group != "stalker" {
		t.Fatalf("flocking group: got %q", agent.Group)
	}
}

func TestSpawnerRejectsUnknownTrait(t *testing.T) {
	factory := newSpawner(dossier.DefaultCatalog(), "trait-test")
	doc := &dossier.Dossier{
		ID:        "broken",
		Archetype: "stalker",
		MaxHealth: 10, Speed: 10, Radius: 10,
		Traits: []dossier.TraitID{"spectral"},
	}
	if _, err := factory.next(doc, world.Vec2{}); err == nil {
		t.Fatalf("unknown trait must fail the spawn")
	}
}

func TestSpawnerDeterministicForSeed(t *testing.T) {
	catalog := dossier.DefaultCatalog()
	gridA := world.NewGrid(800, 600)
	gridB := world.NewGrid(800, 600)
	generateTerrain(gridA, "seed-7", 10, 2)
	generateTerrain(gridB, "seed-7", 10, 2)

	factoryA := newSpawner(catalog, "seed-7")
	factoryB := newSpawner(catalog, "seed-7")
	for i := 0; i < 5; i++ {
		posA := factoryA.place(gridA)
		posB := factoryB.place(gridB)
		if posA != posB {
			t.Fatalf("spawn %d diverged: %+v vs %+v", i, posA, posB)
		}
		if gridA.IsWall(posA) {
			t.Fatalf("spawn %d landed in a wall: %+v", i, posA)
		}
	}
}

func TestGenerateTerrainDeterministic(t *testing.T) {
	gridA := world.NewGrid(800, 600)
	gridB := world.NewGrid(800, 600)
	generateTerrain(gridA, "seed-9", 12, 3)
	generateTerrain(gridB, "seed-9", 12, 3)

	for row := 0; row < gridA.Rows(); row++ {
		for col := 0; col < gridA.Cols(); col++ {
			if gridA.TileAt(col, row) != gridB.TileAt(col, row) {
				t.Fatalf("tile (%d,%d) diverged for identical seeds", col, row)
			}
		}
	}
}
