package converters

const (
	SridWGS84      = 4326
	SridMercator   = 3857
	SridGeocentric = 4978
)

// Semi-major axis of the WGS84 ellipsoid, also the radius of the spherical mercator sphere
const EarthRadius = 6378137.0

// Geographic or projected coordinate. For EPSG:4326 X is the longitude and Y the latitude,
// in degrees, Z the height in meters.
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord Coordinate) (Coordinate, error)
	// Converts a WGS84 coordinate into display units, where one unit is one earth radius
	ToDisplay(coord Coordinate) (Coordinate, error)
	// True when the display is a globe, false for a flat map
	Geocentric() bool
	Cleanup()
}
