package ai

import (
	"math"
	"sort"

	"emberfall/server/internal/world"
)

// TestKind selects a tactical scoring test.
type TestKind uint8

const (
	// TestDistance scores 1 at a preferred distance from the reference
	// target and falls off linearly with deviation.
	TestDistance TestKind = iota
	// TestLineOfSight scores 1 when the point has a clear sight line to the
	// reference target.
	TestLineOfSight
	// TestWallProximity scores 1 when the point hugs a wall (cover seeking).
	TestWallProximity
)

// Test is one weighted scoring criterion. Negative weights repel.
type Test struct {
	Kind   TestKind
	Weight float64
	// PreferredDistance and Falloff parameterize TestDistance. A zero
	// Falloff reuses PreferredDistance as the falloff scale.
	PreferredDistance float64
	Falloff           float64
}

// Query describes one tactical point search.
type Query struct {
	Center  world.Vec2
	Radius  float64
	Density int
	Tests   []Test
}

// Point is a scored candidate. Score is the raw weighted sum; Normalized is
// min-max scaled into [0,1] across the candidate set.
type Point struct {
	Position   world.Vec2
	Score      float64
	Normalized float64
}

// QueryEngine generates and ranks tactical points against the terrain.
type QueryEngine struct {
	terrain Terrain
}

// NewQueryEngine wires the engine against a terrain.
func NewQueryEngine(terrain Terrain) *QueryEngine {
	return &QueryEngine{terrain: terrain}
}

const queryRings = 3

// Run generates candidates in concentric rings around the query center,
// scores them against every test, and returns them sorted best-first. The
// reference target feeds the distance and sight-line tests; hasTarget false
// zeroes those tests. Ties keep generation order.
func (e *QueryEngine) Run(query Query, target world.Vec2, hasTarget bool) []Point {
	if e == nil || query.Radius <= 0 || query.Density <= 0 {
		return nil
	}
	perRing := query.Density / queryRings
	if perRing <= 0 {
		perRing = 1
	}
	points := make([]Point, 0, perRing*queryRings)
	for ring := 1; ring <= queryRings; ring++ {
		radius := query.Radius * float64(ring) / queryRings
		for i := 0; i < perRing; i++ {
			angle := 2 * math.Pi * float64(i) / float64(perRing)
			candidate := world.Vec2{
				X: query.Center.X + math.Cos(angle)*radius,
				Y: query.Center.Y + math.Sin(angle)*radius,
			}
			if e.terrain != nil && e.terrain.IsWall(candidate) {
				continue
			}
			points = append(points, Point{Position: candidate})
		}
	}
	if len(points) == 0 {
		return nil
	}

	for i := range points {
		for _, test := range query.Tests {
			points[i].Score += test.Weight * e.rawScore(test, points[i].Position, target, hasTarget)
		}
	}

	normalize(points)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Score > points[j].Score })
	return points
}

func (e *QueryEngine) rawScore(test Test, point, target world.Vec2, hasTarget bool) float64 {
	switch test.Kind {
	case TestDistance:
		if !hasTarget {
			return 0
		}
		falloff := test.Falloff
		if falloff <= 0 {
			falloff = test.PreferredDistance
		}
		if falloff <= 0 {
			return 0
		}
		deviation := math.Abs(point.DistanceTo(target) - test.PreferredDistance)
		return world.Clamp(1-deviation/falloff, 0, 1)
	case TestLineOfSight:
		if !hasTarget || e.terrain == nil {
			return 0
		}
		if e.terrain.LineOfSight(point, target) {
			return 1
		}
		return 0
	case TestWallProximity:
		if e.terrain != nil && e.terrain.NearWall(point) {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// normalize min-max scales raw scores into Normalized. A constant score set
// maps every point to 1 so callers never divide by zero downstream.
func normalize(points []Point) {
	lo, hi := points[0].Score, points[0].Score
	for _, p := range points[1:] {
		if p.Score < lo {
			lo = p.Score
		}
		if p.Score > hi {
			hi = p.Score
		}
	}
	span := hi - lo
	for i := range points {
		if span == 0 {
			points[i].Normalized = 1
		} else {
			points[i].Normalized = (points[i].Score - lo) / span
		}
	}
}
