package flat_coordinate_converter

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const ErrTypeUnsupportedSrid = "unsupported_srid"

// Converter for a flat spherical mercator map display
type flatCoordinateConverter struct{}

func NewFlatCoordinateConverter() converters.CoordinateConverter {
	return &flatCoordinateConverter{}
}

func (cc *flatCoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord converters.Coordinate) (converters.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	var proj orb.Projection
	switch {
	case sourceSrid == converters.SridWGS84 && targetSrid == converters.SridMercator:
		proj = project.WGS84.ToMercator
	case sourceSrid == converters.SridMercator && targetSrid == converters.SridWGS84:
		proj = project.Mercator.ToWGS84
	default:
		return coord, errors.New("unsupported srid conversion").
			WithType(ErrTypeUnsupportedSrid).
			WithTag("source", sourceSrid).
			WithTag("target", targetSrid)
	}

	p := proj(orb.Point{coord.X, coord.Y})
	return converters.Coordinate{X: p.X(), Y: p.Y(), Z: coord.Z}, nil
}

func (cc *flatCoordinateConverter) ToDisplay(coord converters.Coordinate) (converters.Coordinate, error) {
	merc, err := cc.ConvertCoordinateSrid(converters.SridWGS84, converters.SridMercator, coord)
	if err != nil {
		return coord, err
	}
	return converters.Coordinate{
		X: merc.X / converters.EarthRadius,
		Y: merc.Y / converters.EarthRadius,
		Z: merc.Z / converters.EarthRadius,
	}, nil
}

func (cc *flatCoordinateConverter) Geocentric() bool {
	return false
}

func (cc *flatCoordinateConverter) Cleanup() {}
