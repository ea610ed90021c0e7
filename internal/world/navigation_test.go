package world

import (
	"math"
	"reflect"
	"testing"
)

func TestFindPathDeterministic(t *testing.T) {
	grid := NewGrid(640, 640)
	for row := 3; row < 12; row++ {
		grid.SetTile(7, row, Tile{Blocking: true})
	}
	grid.SetTile(10, 4, Tile{Blocking: true})
	pf := NewPathfinder(grid, PathCosts{})

	start := grid.CellCenter(2, 8)
	goal := grid.CellCenter(15, 8)

	first := pf.FindPath(start, goal, PathOptions{})
	second := pf.FindPath(start, goal, PathOptions{})
	if len(first) == 0 {
		t.Fatalf("expected a path around the wall")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different paths:\n%v\n%v", first, second)
	}
}

func TestFindPathShortcutsOpenGround(t *testing.T) {
	grid := NewGrid(640, 640)
	pf := NewPathfinder(grid, PathCosts{})

	start := grid.CellCenter(1, 1)
	goal := grid.CellCenter(8, 6)

	path := pf.FindPath(start, goal, PathOptions{})
	if len(path) == 0 {
		t.Fatalf("expected a path in an open arena")
	}
	// Line-of-sight relaxation should collapse the staircase into a direct
	// segment from the start.
	if len(path) > 2 {
		t.Fatalf("expected at most 2 waypoints in open ground, got %d: %v", len(path), path)
	}
	if path[len(path)-1] != goal {
		t.Fatalf("path must end on the requested goal, got %v", path[len(path)-1])
	}
}

func TestDiagonalGuardRejectsPinchedCorner(t *testing.T) {
	grid := NewGrid(320, 320)
	grid.SetTile(1, 0, Tile{Blocking: true})
	grid.SetTile(0, 1, Tile{Blocking: true})
	pf := NewPathfinder(grid, PathCosts{})

	if pf.canTraverseDiagonal(navPoint{col: 0, row: 0}, navNeighbor{col: 1, row: 1, diagonal: true}) {
		t.Fatalf("diagonal across two blocking tiles must be rejected")
	}

	// A single blocking side leaves the diagonal legal.
	grid.SetTile(0, 1, Tile{})
	if !pf.canTraverseDiagonal(navPoint{col: 0, row: 0}, navNeighbor{col: 1, row: 1, diagonal: true}) {
		t.Fatalf("diagonal past a single corner should be allowed")
	}
}

func TestFindPathRespectsDiagonalGuard(t *testing.T) {
	grid := NewGrid(320, 320)
	// Seal the start cell so the only exit would cut a pinched corner.
	grid.SetTile(1, 0, Tile{Blocking: true})
	grid.SetTile(0, 1, Tile{Blocking: true})
	pf := NewPathfinder(grid, PathCosts{})

	path := pf.FindPath(grid.CellCenter(0, 0), grid.CellCenter(3, 3), PathOptions{})
	if path != nil {
		t.Fatalf("expected no path out of a pinched corner, got %v", path)
	}
}

func TestFindPathBreachableWall(t *testing.T) {
	grid := NewGrid(320, 320)
	for row := 0; row < grid.Rows(); row++ {
		grid.SetTile(5, row, Tile{Blocking: true, Breachable: true})
	}
	pf := NewPathfinder(grid, PathCosts{})

	start := grid.CellCenter(2, 5)
	goal := grid.CellCenter(8, 5)

	if path := pf.FindPath(start, goal, PathOptions{}); path != nil {
		t.Fatalf("breachable wall must be impassable without AllowBreach, got %v", path)
	}
	path := pf.FindPath(start, goal, PathOptions{AllowBreach: true})
	if len(path) == 0 {
		t.Fatalf("expected a breaching path through the destructible wall")
	}
	if path[len(path)-1] != goal {
		t.Fatalf("breaching path must end on the goal")
	}
}

func TestFindPathExpansionCap(t *testing.T) {
	grid := NewGrid(1280, 1280)
	pf := NewPathfinder(grid, PathCosts{MaxExpansions: 4})

	path := pf.FindPath(grid.CellCenter(0, 0), grid.CellCenter(30, 30), PathOptions{})
	if path != nil {
		t.Fatalf("expected the expansion cap to abort the search, got %v", path)
	}
}

func TestFindPathBlockedGoal(t *testing.T) {
	grid := NewGrid(320, 320)
	grid.SetTile(8, 8, Tile{Blocking: true})
	pf := NewPathfinder(grid, PathCosts{})

	if path := pf.FindPath(grid.CellCenter(1, 1), grid.CellCenter(8, 8), PathOptions{}); path != nil {
		t.Fatalf("expected no path onto a solid tile, got %v", path)
	}
}

func TestStepCostPricing(t *testing.T) {
	grid := NewGrid(320, 320)
	costs := PathCosts{BreachMultiplier: 8, HazardPenalty: 4, HeatThreshold: 0.5, MaxExpansions: 100}
	pf := NewPathfinder(grid, costs)

	t.Run("open", func(t *testing.T) {
		if got := pf.stepCost(1, navPoint{col: 1, row: 1}, PathOptions{}); got != 1 {
			t.Fatalf("open tile cost = %v, want 1", got)
		}
	})

	t.Run("burning", func(t *testing.T) {
		grid.SetIgnited(2, 2, true)
		if got := pf.stepCost(1, navPoint{col: 2, row: 2}, PathOptions{}); got != 5 {
			t.Fatalf("burning tile cost = %v, want 5", got)
		}
		if got := pf.stepCost(1, navPoint{col: 2, row: 2}, PathOptions{HeatImmune: true}); got != 1 {
			t.Fatalf("heat-immune burning cost = %v, want 1", got)
		}
	})

	t.Run("hot-neighborhood", func(t *testing.T) {
		for _, cell := range [][2]int{{5, 5}, {5, 4}, {5, 6}, {4, 5}, {6, 5}} {
			grid.SetHeat(cell[0], cell[1], 0.9)
		}
		got := pf.stepCost(math.Sqrt2, navPoint{col: 5, row: 5}, PathOptions{})
		if math.Abs(got-(math.Sqrt2+4)) > 1e-9 {
			t.Fatalf("hot tile cost = %v, want sqrt2+4", got)
		}
	})

	t.Run("breachable", func(t *testing.T) {
		grid.SetTile(7, 7, Tile{Blocking: true, Breachable: true})
		if got := pf.stepCost(1, navPoint{col: 7, row: 7}, PathOptions{AllowBreach: true}); got != 8 {
			t.Fatalf("breach cost = %v, want 8", got)
		}
	})
}
