package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Role of a drawable within a tile
type DrawableType int

const (
	DrawableTile DrawableType = iota
	DrawableSkirt
	DrawableChildPlaceholder
	DrawableChildSkirt
)

func (t DrawableType) String() string {
	switch t {
	case DrawableTile:
		return "tile"
	case DrawableSkirt:
		return "skirt"
	case DrawableChildPlaceholder:
		return "child"
	case DrawableChildSkirt:
		return "child-skirt"
	}
	return "unknown"
}

// Triangle mesh with its rendering state
type Drawable struct {
	ID        Identity
	Type      DrawableType
	Points    []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Elevation []float32 // per vertex, only when elevation is carried as an attribute
	Triangles [][3]uint32

	TexIDs      []Identity // one texture per image layer
	ActiveLayer int
	Color       color.RGBA
	HasAlpha    bool

	DrawOffset   int
	DrawPriority int
	MinVis       float64
	MaxVis       float64
	ProgramID    Identity
	On           bool
}

func NewDrawable(drawableType DrawableType) *Drawable {
	return &Drawable{
		ID:    NewIdentity(),
		Type:  drawableType,
		Color: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		On:    true,
	}
}

// Adds a vertex and returns its index
func (d *Drawable) AddPoint(p mgl32.Vec3, tc mgl32.Vec2) uint32 {
	d.Points = append(d.Points, p)
	d.TexCoords = append(d.TexCoords, tc)
	return uint32(len(d.Points) - 1)
}

func (d *Drawable) AddTriangle(a, b, c uint32) {
	d.Triangles = append(d.Triangles, [3]uint32{a, b, c})
}

func (d *Drawable) NumPoints() int {
	return len(d.Points)
}

// Texture bound for the active layer
func (d *Drawable) ActiveTexture() Identity {
	if d.ActiveLayer < 0 || d.ActiveLayer >= len(d.TexIDs) {
		return EmptyIdentity
	}
	return d.TexIDs[d.ActiveLayer]
}
