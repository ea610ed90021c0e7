package world

import "math"

const (
	// DefaultCellSize is the tile edge length in world units.
	DefaultCellSize = 32.0

	// sightStepRatio controls the sampling resolution of raycasts as a
	// fraction of the cell size. Quarter-cell steps cannot skip a tile.
	sightStepRatio = 0.25
)

// Tile describes one grid cell of the arena.
type Tile struct {
	// Blocking tiles stop movement and sight.
	Blocking bool
	// Breachable marks a blocking tile as destructible: the pathfinder may
	// plan through it at a steep cost.
	Breachable bool
	// Ignited marks a tile that is actively burning.
	Ignited bool
	// Heat is the accumulated heat intensity in [0, 1], owned by the
	// external heat simulation and consulted here as a cost signal.
	Heat float64
}

// Grid is the tile map the AI consults for walls, sight and hazard costs.
type Grid struct {
	cols, rows int
	cellSize   float64
	width      float64
	height     float64
	tiles      []Tile
}

// NewGrid builds an empty grid covering width x height world units.
func NewGrid(width, height float64) *Grid {
	return NewGridWithCellSize(width, height, DefaultCellSize)
}

// NewGridWithCellSize builds an empty grid with an explicit tile size.
func NewGridWithCellSize(width, height, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	return &Grid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		width:    width,
		height:   height,
		tiles:    make([]Tile, cols*rows),
	}
}

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.rows }

// CellSize returns the tile edge length in world units.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Width returns the arena width in world units.
func (g *Grid) Width() float64 { return g.width }

// Height returns the arena height in world units.
func (g *Grid) Height() float64 { return g.height }

func (g *Grid) inBounds(col, row int) bool {
	return g != nil && col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *Grid) index(col, row int) int {
	return row*g.cols + col
}

// TileAt returns the tile at the given cell, or a blocking tile when the
// cell lies outside the arena.
func (g *Grid) TileAt(col, row int) Tile {
	if !g.inBounds(col, row) {
		return Tile{Blocking: true}
	}
	return g.tiles[g.index(col, row)]
}

// SetTile overwrites the tile at the given cell. Out-of-bounds writes are
// ignored.
func (g *Grid) SetTile(col, row int, tile Tile) {
	if !g.inBounds(col, row) {
		return
	}
	g.tiles[g.index(col, row)] = tile
}

// SetIgnited toggles the burning flag on a tile.
func (g *Grid) SetIgnited(col, row int, ignited bool) {
	if !g.inBounds(col, row) {
		return
	}
	g.tiles[g.index(col, row)].Ignited = ignited
}

// SetHeat records the heat intensity reported by the heat simulation.
func (g *Grid) SetHeat(col, row int, heat float64) {
	if !g.inBounds(col, row) {
		return
	}
	g.tiles[g.index(col, row)].Heat = Clamp(heat, 0, 1)
}

// IsTileIgnited reports whether the tile at the given cell is burning.
func (g *Grid) IsTileIgnited(col, row int) bool {
	return g.TileAt(col, row).Ignited
}

// AverageHeat returns the mean heat of a tile and its orthogonal neighbors.
func (g *Grid) AverageHeat(col, row int) float64 {
	total := g.TileAt(col, row).Heat
	count := 1.0
	for _, delta := range [...][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
		nc, nr := col+delta[0], row+delta[1]
		if !g.inBounds(nc, nr) {
			continue
		}
		total += g.tiles[g.index(nc, nr)].Heat
		count++
	}
	return total / count
}

// Locate converts a world position to its cell, clamping to the arena edge.
func (g *Grid) Locate(p Vec2) (int, int, bool) {
	if g == nil || g.cols == 0 || g.rows == 0 {
		return 0, 0, false
	}
	maxX := g.width - 1
	if maxX < 0 {
		maxX = 0
	}
	maxY := g.height - 1
	if maxY < 0 {
		maxY = 0
	}
	col := int(Clamp(p.X, 0, maxX) / g.cellSize)
	row := int(Clamp(p.Y, 0, maxY) / g.cellSize)
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	return col, row, true
}

// CellCenter returns the world position at the center of a cell.
func (g *Grid) CellCenter(col, row int) Vec2 {
	return Vec2{
		X: (float64(col) + 0.5) * g.cellSize,
		Y: (float64(row) + 0.5) * g.cellSize,
	}
}

// IsWall reports whether the tile under the given world position blocks
// movement. Positions outside the arena count as walls.
func (g *Grid) IsWall(p Vec2) bool {
	col, row, ok := g.Locate(p)
	if !ok {
		return true
	}
	if p.X < 0 || p.Y < 0 || p.X >= g.width || p.Y >= g.height {
		return true
	}
	return g.tiles[g.index(col, row)].Blocking
}

// NearWall reports whether any tile adjacent to the given position blocks
// movement. Used by the tactical query engine as a cover signal.
func (g *Grid) NearWall(p Vec2) bool {
	col, row, ok := g.Locate(p)
	if !ok {
		return false
	}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dc == 0 && dr == 0 {
				continue
			}
			if g.TileAt(col+dc, row+dr).Blocking {
				return true
			}
		}
	}
	return false
}

// LineOfSight reports whether the segment between two world positions is
// free of sight-blocking tiles.
func (g *Grid) LineOfSight(from, to Vec2) bool {
	if g == nil {
		return true
	}
	distance := from.DistanceTo(to)
	step := g.cellSize * sightStepRatio
	if distance <= step {
		return !g.IsWall(to)
	}
	direction := to.Sub(from).Normalized()
	for travelled := step; travelled < distance; travelled += step {
		sample := from.Add(direction.Scale(travelled))
		if g.IsWall(sample) {
			return false
		}
	}
	return !g.IsWall(to)
}

// Raycast walks from origin along the given bearing and returns the first
// point where sight is blocked. The second return is false when the ray
// reaches maxDistance unobstructed.
func (g *Grid) Raycast(origin Vec2, angle, maxDistance float64) (Vec2, bool) {
	if g == nil || maxDistance <= 0 {
		return Vec2{}, false
	}
	direction := Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
	step := g.cellSize * sightStepRatio
	for travelled := step; travelled <= maxDistance; travelled += step {
		sample := origin.Add(direction.Scale(travelled))
		if g.IsWall(sample) {
			return sample, true
		}
	}
	return Vec2{}, false
}
