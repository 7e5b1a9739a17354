package tileloader

import (
	"math"

	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/go-gl/mathgl/mgl32"
)

// Maps texture coordinates of the owner tile (u eastward, v southward, both in [0,1])
// to the coordinates of the bound texture
type texMapper func(u, v float64) mgl32.Vec2

func identityTexMap(u, v float64) mgl32.Vec2 {
	return mgl32.Vec2{float32(u), float32(v)}
}

// Skips a border left in a texture
func borderTexMap(size, border int) texMapper {
	if border == 0 || size <= 2*border {
		return identityTexMap
	}
	inner := float64(size - 2*border)
	return func(u, v float64) mgl32.Vec2 {
		return mgl32.Vec2{
			float32((float64(border) + u*inner) / float64(size)),
			float32((float64(border) + v*inner) / float64(size)),
		}
	}
}

// Area of a tile to build a mesh for. org and span select the window of the owner tile
// (whose texture and elevation are used) the area corresponds to.
type meshArea struct {
	ident  quadtree.Identifier
	extent quadtree.Extent
	orgX   float64
	orgY   float64
	span   float64
	elev   *elevation.Chunk
	texMap texMapper
}

func fullTileArea(ident quadtree.Identifier, elev *elevation.Chunk, texMap texMapper) meshArea {
	return meshArea{ident: ident, extent: ident.MercatorExtent(), span: 1, elev: elev, texMap: texMap}
}

func quadrantArea(parent quadtree.Identifier, quadrant int, elev *elevation.Chunk, texMap texMapper) meshArea {
	child := parent.ChildAt(quadrant)
	return meshArea{
		ident:  child,
		extent: child.MercatorExtent(),
		orgX:   0.5 * float64(quadrant%2),
		orgY:   0.5 * float64(quadrant/2),
		span:   0.5,
		elev:   elev,
		texMap: texMap,
	}
}

type geometryBuilder struct {
	converter converters.CoordinateConverter
	corrector converters.ElevationCorrector
	opts      *tiler.LoaderOptions
}

type meshVertex struct {
	point mgl32.Vec3
	tc    mgl32.Vec2
	elev  float32
}

func (b *geometryBuilder) cells(area meshArea) (int, int) {
	nx, ny := b.opts.TessX, b.opts.TessY
	if area.elev != nil && (b.opts.UseElevAsZ || b.opts.IncludeElev) {
		nx, ny = area.elev.Width-1, area.elev.Height-1
	}
	return maxInt(1, int(math.Ceil(float64(nx)*area.span))), maxInt(1, int(math.Ceil(float64(ny)*area.span)))
}

// Computes the vertex at local fractions (fx eastward, fy northward) of the area, lowered by drop meters
func (b *geometryBuilder) vertex(area meshArea, fx, fy, drop float64) (meshVertex, error) {
	mx := lerp(area.extent.MinX, area.extent.MaxX, fx)
	my := lerp(area.extent.MinY, area.extent.MaxY, fy)

	geo, err := b.converter.ConvertCoordinateSrid(converters.SridMercator, converters.SridWGS84, converters.Coordinate{X: mx, Y: my})
	if err != nil {
		return meshVertex{}, err
	}

	tx := area.orgX + fx*area.span
	ty := area.orgY + fy*area.span

	height := 0.0
	if area.elev != nil {
		height = area.elev.Sample(tx, ty)
	}
	geo.Z = -drop
	if area.elev != nil && b.opts.UseElevAsZ {
		geo.Z = b.corrector.CorrectElevation(geo.X, geo.Y, height) - drop
	}

	return b.displayVertex(area, geo, tx, ty, height)
}

func (b *geometryBuilder) displayVertex(area meshArea, geo converters.Coordinate, tx, ty, height float64) (meshVertex, error) {
	display, err := b.converter.ToDisplay(geo)
	if err != nil {
		return meshVertex{}, err
	}
	return meshVertex{
		point: mgl32.Vec3{float32(display.X), float32(display.Y), float32(display.Z)},
		tc:    area.texMap(tx, 1-ty),
		elev:  float32(height),
	}, nil
}

func (b *geometryBuilder) addVertex(draw *scene.Drawable, v meshVertex) uint32 {
	idx := draw.AddPoint(v.point, v.tc)
	if b.opts.IncludeElev {
		draw.Elevation = append(draw.Elevation, v.elev)
	}
	return idx
}

// Builds the surface mesh of an area, including pole caps when required
func (b *geometryBuilder) buildSurface(area meshArea, drawType scene.DrawableType) (*scene.Drawable, error) {
	nx, ny := b.cells(area)
	draw := scene.NewDrawable(drawType)

	for iy := 0; iy <= ny; iy++ {
		for ix := 0; ix <= nx; ix++ {
			v, err := b.vertex(area, float64(ix)/float64(nx), float64(iy)/float64(ny), 0)
			if err != nil {
				return nil, err
			}
			b.addVertex(draw, v)
		}
	}

	stride := uint32(nx + 1)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			i := uint32(iy)*stride + uint32(ix)
			draw.AddTriangle(i, i+1, i+stride+1)
			draw.AddTriangle(i, i+stride+1, i+stride)
		}
	}

	if b.opts.CoverPoles && b.converter.Geocentric() {
		if err := b.addPoleCaps(area, draw, nx, ny); err != nil {
			return nil, err
		}
	}

	return draw, nil
}

func (b *geometryBuilder) addPoleCaps(area meshArea, draw *scene.Drawable, nx, ny int) error {
	last := (1 << uint(area.ident.Level)) - 1
	stride := uint32(nx + 1)

	addCap := func(lat float64, edgeRow int, ty float64) error {
		lon := (area.ident.GeoBound().Min.Lon() + area.ident.GeoBound().Max.Lon()) / 2
		pole, err := b.displayVertex(area, converters.Coordinate{X: lon, Y: lat}, area.orgX+0.5*area.span, ty, 0)
		if err != nil {
			return err
		}
		poleIdx := b.addVertex(draw, pole)
		base := uint32(edgeRow) * stride
		for ix := 0; ix < nx; ix++ {
			draw.AddTriangle(base+uint32(ix), base+uint32(ix)+1, poleIdx)
		}
		return nil
	}

	if area.ident.Row == last {
		if err := addCap(90, ny, area.orgY+area.span); err != nil {
			return err
		}
	}
	if area.ident.Row == 0 {
		if err := addCap(-90, 0, area.orgY); err != nil {
			return err
		}
	}
	return nil
}

// Builds the skirt hanging from the four edges of an area, hiding cracks between
// neighbours of different levels
func (b *geometryBuilder) buildSkirt(area meshArea, drawType scene.DrawableType) (*scene.Drawable, error) {
	nx, ny := b.cells(area)
	depth := b.opts.SkirtFactor * area.extent.Width()
	draw := scene.NewDrawable(drawType)

	type edge struct {
		steps  int
		sample func(f float64) (float64, float64)
	}
	edges := []edge{
		{nx, func(f float64) (float64, float64) { return f, 0 }},
		{ny, func(f float64) (float64, float64) { return 1, f }},
		{nx, func(f float64) (float64, float64) { return 1 - f, 1 }},
		{ny, func(f float64) (float64, float64) { return 0, 1 - f }},
	}

	for _, e := range edges {
		var prevTop, prevBottom uint32
		for k := 0; k <= e.steps; k++ {
			fx, fy := e.sample(float64(k) / float64(e.steps))
			top, err := b.vertex(area, fx, fy, 0)
			if err != nil {
				return nil, err
			}
			bottom, err := b.vertex(area, fx, fy, depth)
			if err != nil {
				return nil, err
			}
			topIdx := b.addVertex(draw, top)
			bottomIdx := b.addVertex(draw, bottom)
			if k > 0 {
				draw.AddTriangle(prevTop, prevBottom, topIdx)
				draw.AddTriangle(topIdx, prevBottom, bottomIdx)
			}
			prevTop, prevBottom = topIdx, bottomIdx
		}
	}

	return draw, nil
}

func lerp(a, b, f float64) float64 {
	switch f {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*f
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
