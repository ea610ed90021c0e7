package world

import (
	"container/heap"
	"math"
)

const (
	DefaultBreachMultiplier = 8.0
	DefaultHazardPenalty    = 4.0
	DefaultHeatThreshold    = 0.5
	DefaultMaxExpansions    = 4096
)

type navNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navNeighbor{
	{col: 0, row: -1, cost: 1, diagonal: false},
	{col: 1, row: 0, cost: 1, diagonal: false},
	{col: 0, row: 1, cost: 1, diagonal: false},
	{col: -1, row: 0, cost: 1, diagonal: false},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

// PathCosts tunes the pathfinder's cost model.
type PathCosts struct {
	// BreachMultiplier scales the step cost when entering a breachable
	// blocking tile.
	BreachMultiplier float64
	// HazardPenalty is added when entering a burning or hot tile.
	HazardPenalty float64
	// HeatThreshold is the average heat above which a tile counts as
	// hazardous even when not actively burning.
	HeatThreshold float64
	// MaxExpansions caps the number of nodes the search may pop before
	// giving up.
	MaxExpansions int
}

func (c PathCosts) normalized() PathCosts {
	if c.BreachMultiplier <= 1 {
		c.BreachMultiplier = DefaultBreachMultiplier
	}
	if c.HazardPenalty <= 0 {
		c.HazardPenalty = DefaultHazardPenalty
	}
	if c.HeatThreshold <= 0 {
		c.HeatThreshold = DefaultHeatThreshold
	}
	if c.MaxExpansions <= 0 {
		c.MaxExpansions = DefaultMaxExpansions
	}
	return c
}

// PathOptions carries per-request pathfinding switches.
type PathOptions struct {
	// HeatImmune skips hazard penalties for fire-immune agents.
	HeatImmune bool
	// AllowBreach permits planning through breachable tiles at the
	// configured multiplier. When false breachable tiles are impassable.
	AllowBreach bool
}

// Pathfinder runs grid A* with line-of-sight shortcutting over a Grid.
type Pathfinder struct {
	grid  *Grid
	costs PathCosts
}

// NewPathfinder constructs a pathfinder; zero cost fields fall back to the
// package defaults.
func NewPathfinder(grid *Grid, costs PathCosts) *Pathfinder {
	return &Pathfinder{grid: grid, costs: costs.normalized()}
}

type navPoint struct {
	col int
	row int
}

// octile distance, admissible for 8-directional movement.
func heuristic(a, b navPoint) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

func cellDistance(a, b navPoint) float64 {
	return math.Hypot(float64(a.col-b.col), float64(a.row-b.row))
}

type pathNode struct {
	point  navPoint
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func (p *Pathfinder) traversable(col, row int, opts PathOptions) bool {
	if !p.grid.inBounds(col, row) {
		return false
	}
	tile := p.grid.tiles[p.grid.index(col, row)]
	if !tile.Blocking {
		return true
	}
	return tile.Breachable && opts.AllowBreach
}

// canTraverseDiagonal rejects a diagonal move when both orthogonal tiles it
// would cut across are blocking.
func (p *Pathfinder) canTraverseDiagonal(current navPoint, delta navNeighbor) bool {
	if !delta.diagonal {
		return true
	}
	horiz := p.grid.TileAt(current.col+delta.col, current.row)
	vert := p.grid.TileAt(current.col, current.row+delta.row)
	return !(horiz.Blocking && vert.Blocking)
}

// stepCost prices entering the tile at point from a neighboring tile.
func (p *Pathfinder) stepCost(base float64, point navPoint, opts PathOptions) float64 {
	tile := p.grid.tiles[p.grid.index(point.col, point.row)]
	cost := base
	if tile.Blocking {
		cost *= p.costs.BreachMultiplier
	}
	if !opts.HeatImmune {
		if tile.Ignited || p.grid.AverageHeat(point.col, point.row) > p.costs.HeatThreshold {
			cost += p.costs.HazardPenalty
		}
	}
	return cost
}

// lineOfSightCells reports whether the straight segment between two cell
// centers stays on unblocked tiles.
func (p *Pathfinder) lineOfSightCells(a, b navPoint) bool {
	return p.grid.LineOfSight(p.grid.CellCenter(a.col, a.row), p.grid.CellCenter(b.col, b.row))
}

func (p *Pathfinder) closestTraversable(col, row int, opts PathOptions) (int, int, bool) {
	if !p.grid.inBounds(col, row) {
		return 0, 0, false
	}
	visited := map[int]struct{}{p.grid.index(col, row): {}}
	queue := []navPoint{{col: col, row: row}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if p.traversable(current.col, current.row, opts) {
			return current.col, current.row, true
		}
		for _, delta := range navNeighborOffsets {
			nc, nr := current.col+delta.col, current.row+delta.row
			if !p.grid.inBounds(nc, nr) {
				continue
			}
			idx := p.grid.index(nc, nr)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			queue = append(queue, navPoint{col: nc, row: nr})
		}
	}
	return 0, 0, false
}

// FindPath converts start and goal world positions into a waypoint sequence
// avoiding blocking tiles and preferring low-hazard ground. It returns nil
// when no path exists or the expansion cap is hit; callers fall back to
// direct movement.
func (p *Pathfinder) FindPath(start, goal Vec2, opts PathOptions) []Vec2 {
	if p == nil || p.grid == nil {
		return nil
	}
	startCol, startRow, ok := p.grid.Locate(start)
	if !ok {
		return nil
	}
	goalCol, goalRow, ok := p.grid.Locate(goal)
	if !ok {
		return nil
	}
	if !p.traversable(startCol, startRow, opts) {
		startCol, startRow, ok = p.closestTraversable(startCol, startRow, opts)
		if !ok {
			return nil
		}
	}
	if !p.traversable(goalCol, goalRow, opts) {
		return nil
	}

	startPoint := navPoint{col: startCol, row: startRow}
	goalPoint := navPoint{col: goalCol, row: goalRow}

	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: startPoint, g: 0, f: heuristic(startPoint, goalPoint)})
	gScore := map[int]float64{p.grid.index(startCol, startRow): 0}
	closed := make(map[int]struct{})
	expansions := 0

	var goalNode *pathNode
	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := p.grid.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goalPoint {
			goalNode = current
			break
		}
		expansions++
		if expansions > p.costs.MaxExpansions {
			return nil
		}

		for _, delta := range navNeighborOffsets {
			if !p.canTraverseDiagonal(current.point, delta) {
				continue
			}
			next := navPoint{col: current.point.col + delta.col, row: current.point.row + delta.row}
			if !p.traversable(next.col, next.row, opts) {
				continue
			}
			idx := p.grid.index(next.col, next.row)
			if _, seen := closed[idx]; seen {
				continue
			}

			tentativeG := current.g + p.stepCost(delta.cost, next, opts)
			parent := current
			// Line-of-sight relaxation: re-parent the neighbor onto its
			// grandparent when the straight segment is clear, trading the
			// staircase for a direct diagonal.
			if current.parent != nil && p.lineOfSightCells(current.parent.point, next) {
				shortcutG := current.parent.g + cellDistance(current.parent.point, next)
				if shortcutG < tentativeG {
					tentativeG = shortcutG
					parent = current.parent
				}
			}

			if prev, known := gScore[idx]; known && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentativeG,
				f:      tentativeG + heuristic(next, goalPoint),
				parent: parent,
			})
		}
	}
	if goalNode == nil {
		return nil
	}

	points := make([]navPoint, 0)
	for node := goalNode; node != nil; node = node.parent {
		points = append(points, node.point)
	}
	for i := 0; i < len(points)/2; i++ {
		j := len(points) - 1 - i
		points[i], points[j] = points[j], points[i]
	}
	if len(points) == 1 {
		return []Vec2{goal}
	}
	path := make([]Vec2, 0, len(points))
	for i := 1; i < len(points); i++ {
		path = append(path, p.grid.CellCenter(points[i].col, points[i].row))
	}
	// Land exactly on the requested goal position.
	last := path[len(path)-1]
	if last.DistanceTo(goal) > 1 {
		path = append(path, goal)
	} else {
		path[len(path)-1] = goal
	}
	return path
}
