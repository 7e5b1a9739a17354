package quadtree

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/shopspring/decimal"
)

// Half the width of the spherical mercator world, in meters
const OriginShift = 20037508.342789244

// Max level addressable by an Identifier
const MaxLevel = 30

// Identifies a node of the quadtree. Rows are counted from the south edge (TMS layout).
type Identifier struct {
	Level int
	Row   int
	Col   int
}

// Rectangle in spherical mercator meters
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func NewIdentifier(level, row, col int) Identifier {
	return Identifier{Level: level, Row: row, Col: col}
}

// Strict weak order: level first, then row, then column
func (id Identifier) Less(other Identifier) bool {
	if id.Level != other.Level {
		return id.Level < other.Level
	}
	if id.Row != other.Row {
		return id.Row < other.Row
	}
	return id.Col < other.Col
}

func (id Identifier) Valid() bool {
	if id.Level < 0 || id.Level > MaxLevel {
		return false
	}
	n := 1 << uint(id.Level)
	return id.Row >= 0 && id.Row < n && id.Col >= 0 && id.Col < n
}

func (id Identifier) IsRoot() bool {
	return id.Level == 0
}

// Returns the parent node identifier. The root is its own parent.
func (id Identifier) Parent() Identifier {
	if id.Level == 0 {
		return id
	}
	return Identifier{Level: id.Level - 1, Row: id.Row / 2, Col: id.Col / 2}
}

// Returns the child covering quadrant (ix, iy), with ix counted eastward and iy northward
func (id Identifier) Child(ix, iy int) Identifier {
	return Identifier{Level: id.Level + 1, Row: 2*id.Row + iy, Col: 2*id.Col + ix}
}

// Returns the child for the given quadrant index (iy*2 + ix)
func (id Identifier) ChildAt(quadrant int) Identifier {
	return id.Child(quadrant%2, quadrant/2)
}

func (id Identifier) Children() [4]Identifier {
	var children [4]Identifier
	for q := 0; q < 4; q++ {
		children[q] = id.ChildAt(q)
	}
	return children
}

// Quadrant index of this node inside its parent
func (id Identifier) Quadrant() int {
	return (id.Row%2)*2 + id.Col%2
}

// Converts to the XYZ (slippy map) tile addressing used by orb
func (id Identifier) MapTile() maptile.Tile {
	n := 1 << uint(id.Level)
	return maptile.New(uint32(id.Col), uint32(n-1-id.Row), maptile.Zoom(id.Level))
}

func FromMapTile(t maptile.Tile) Identifier {
	n := 1 << uint(t.Z)
	return Identifier{Level: int(t.Z), Row: n - 1 - int(t.Y), Col: int(t.X)}
}

// Geographic (lon/lat degrees) bound of the node
func (id Identifier) GeoBound() orb.Bound {
	return id.MapTile().Bound()
}

// Mercator extent of the node. Edges are computed with exact decimal arithmetic so that
// neighbouring nodes share bit-identical edge coordinates.
func (id Identifier) MercatorExtent() Extent {
	return Extent{
		MinX: mercatorEdge(id.Level, id.Col),
		MinY: mercatorEdge(id.Level, id.Row),
		MaxX: mercatorEdge(id.Level, id.Col+1),
		MaxY: mercatorEdge(id.Level, id.Row+1),
	}
}

func mercatorEdge(level int, index int) float64 {
	n := decimal.NewFromInt(int64(1) << uint(level))
	span := decimal.NewFromFloat(2 * OriginShift)
	v, _ := decimal.NewFromFloat(-OriginShift).
		Add(span.Mul(decimal.NewFromInt(int64(index))).Div(n)).
		Float64()
	return v
}

func (e Extent) Width() float64 {
	return e.MaxX - e.MinX
}

func (e Extent) Height() float64 {
	return e.MaxY - e.MinY
}

func (id Identifier) String() string {
	return fmt.Sprintf("(%d,%d,%d)", id.Level, id.Row, id.Col)
}
