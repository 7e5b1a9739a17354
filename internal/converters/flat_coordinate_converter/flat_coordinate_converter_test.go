package flat_coordinate_converter

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/stretchr/testify/require"
)

func TestConvertCoordinateSrid(t *testing.T) {
	cc := NewFlatCoordinateConverter()

	merc, err := cc.ConvertCoordinateSrid(converters.SridWGS84, converters.SridMercator, converters.Coordinate{X: 180, Y: 0, Z: 12})
	require.NoError(t, err)
	require.InDelta(t, math.Pi*converters.EarthRadius, merc.X, 1e-3)
	require.InDelta(t, 0, merc.Y, 1e-6)
	require.Equal(t, 12.0, merc.Z)

	back, err := cc.ConvertCoordinateSrid(converters.SridMercator, converters.SridWGS84, converters.Coordinate{X: 1113194.9079, Y: 1118889.9748})
	require.NoError(t, err)
	require.InDelta(t, 10, back.X, 1e-6)
	require.InDelta(t, 10, back.Y, 1e-6)

	_, err = cc.ConvertCoordinateSrid(converters.SridWGS84, converters.SridGeocentric, converters.Coordinate{})
	require.Equal(t, ErrTypeUnsupportedSrid, errors.Type(err))
}

func TestToDisplay(t *testing.T) {
	cc := NewFlatCoordinateConverter()
	require.False(t, cc.Geocentric())

	d, err := cc.ToDisplay(converters.Coordinate{X: -180, Y: 0, Z: converters.EarthRadius / 10})
	require.NoError(t, err)
	require.InDelta(t, -math.Pi, d.X, 1e-9)
	require.InDelta(t, 0.1, d.Z, 1e-12)
}
