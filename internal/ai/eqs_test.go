package ai

import (
	"testing"

	"emberfall/server/internal/world"
)

func TestQueryNormalizationBounds(t *testing.T) {
	engine := NewQueryEngine(openTerrain{})
	points := engine.Run(Query{
		Center:  world.Vec2{X: 400, Y: 400},
		Radius:  192,
		Density: 24,
		Tests: []Test{
			{Kind: TestDistance, Weight: 1, PreferredDistance: 120},
		},
	}, world.Vec2{X: 600, Y: 400}, true)

	if len(points) == 0 {
		t.Fatalf("expected candidate points")
	}
	lo, hi := points[0].Normalized, points[0].Normalized
	for _, p := range points {
		if p.Normalized < lo {
			lo = p.Normalized
		}
		if p.Normalized > hi {
			hi = p.Normalized
		}
	}
	if hi != 1 {
		t.Fatalf("max normalized score: got %.4f want 1", hi)
	}
	if lo != 0 {
		t.Fatalf("min normalized score: got %.4f want 0", lo)
	}
}

func TestQueryConstantScoresNormalizeToOne(t *testing.T) {
	engine := NewQueryEngine(openTerrain{})
	// Sight lines are always clear in an open arena, so every point scores
	// identically.
	points := engine.Run(Query{
		Center:  world.Vec2{X: 400, Y: 400},
		Radius:  192,
		Density: 24,
		Tests:   []Test{{Kind: TestLineOfSight, Weight: 1}},
	}, world.Vec2{X: 600, Y: 400}, true)

	if len(points) == 0 {
		t.Fatalf("expected candidate points")
	}
	for i, p := range points {
		if p.Normalized != 1 {
			t.Fatalf("point %d: constant score set must normalize to 1, got %.4f", i, p.Normalized)
		}
	}
}

func TestQueryOrderingNonIncreasing(t *testing.T) {
	engine := NewQueryEngine(openTerrain{})
	points := engine.Run(Query{
		Center:  world.Vec2{X: 400, Y: 400},
		Radius:  192,
		Density: 24,
		Tests: []Test{
			{Kind: TestDistance, Weight: 1, PreferredDistance: 120},
			{Kind: TestLineOfSight, Weight: 0.8},
		},
	}, world.Vec2{X: 700, Y: 500}, true)

	for i := 1; i < len(points); i++ {
		if points[i].Score > points[i-1].Score {
			t.Fatalf("scores must be non-increasing: index %d has %.4f after %.4f", i, points[i].Score, points[i-1].Score)
		}
	}
}

func TestQueryDiscardsWalledPoints(t *testing.T) {
	// Everything left of the center is inside a wall.
	engine := NewQueryEngine(funcTerrain{wall: func(p world.Vec2) bool { return p.X < 400 }})
	points := engine.Run(Query{
		Center:  world.Vec2{X: 400, Y: 400},
		Radius:  192,
		Density: 24,
		Tests:   []Test{{Kind: TestDistance, Weight: 1, PreferredDistance: 100}},
	}, world.Vec2{X: 600, Y: 400}, true)

	if len(points) == 0 {
		t.Fatalf("expected surviving candidates on the open side")
	}
	for _, p := range points {
		if p.Position.X < 400 {
			t.Fatalf("walled point survived generation: %+v", p.Position)
		}
	}
}

func TestQueryAllPointsWalledReturnsNil(t *testing.T) {
	engine := NewQueryEngine(funcTerrain{wall: func(world.Vec2) bool { return true }})
	points := engine.Run(Query{
		Center:  world.Vec2{X: 400, Y: 400},
		Radius:  192,
		Density: 24,
		Tests:   []Test{{Kind: TestDistance, Weight: 1, PreferredDistance: 100}},
	}, world.Vec2{}, true)
	if points != nil {
		t.Fatalf("expected no tactical points, got %d", len(points))
	}
}

func TestQueryNegativeWeightRepels(t *testing.T) {
	// Wall proximity marks the outer ring only; a negative weight should
	// rank those points last.
	engine := NewQueryEngine(funcTerrain{near: func(p world.Vec2) bool {
		return p.DistanceTo(world.Vec2{X: 400, Y: 400}) > 150
	}})
	points := engine.Run(Query{
		Center:  world.Vec2{X: 400, Y: 400},
		Radius:  192,
		Density: 24,
		Tests:   []Test{{Kind: TestWallProximity, Weight: -1}},
	}, world.Vec2{}, false)

	if len(points) == 0 {
		t.Fatalf("expected candidate points")
	}
	if points[0].Score != 0 {
		t.Fatalf("best point should be away from walls, score %.4f", points[0].Score)
	}
	last := points[len(points)-1]
	if last.Score != -1 {
		t.Fatalf("worst point should hug the wall, score %.4f", last.Score)
	}
}
