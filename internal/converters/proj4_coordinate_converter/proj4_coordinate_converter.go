package proj4_coordinate_converter

import (
	"math"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/golang/glog"
	proj "github.com/xeonx/proj4"
)

const ErrTypeProjection = "projection_failed"

var epsgDefinitions = map[int]string{
	converters.SridWGS84:      "+proj=longlat +datum=WGS84 +no_defs",
	converters.SridMercator:   "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
	converters.SridGeocentric: "+proj=geocent +datum=WGS84 +units=m +no_defs",
}

// Converter backed by proj.4, used for globe displays. Display coordinates are
// geocentric (EPSG:4978) scaled so that the equatorial radius is 1.
type proj4CoordinateConverter struct {
	projectionsCache map[int]*proj.Proj
	sync.Mutex
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		projectionsCache: map[int]*proj.Proj{},
	}
}

func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord converters.Coordinate) (converters.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.initProjection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := cc.initProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	return executeConversion(coord, src, dst)
}

func (cc *proj4CoordinateConverter) ToDisplay(coord converters.Coordinate) (converters.Coordinate, error) {
	geocentric, err := cc.ConvertCoordinateSrid(converters.SridWGS84, converters.SridGeocentric, coord)
	if err != nil {
		return coord, err
	}
	return converters.Coordinate{
		X: geocentric.X / converters.EarthRadius,
		Y: geocentric.Y / converters.EarthRadius,
		Z: geocentric.Z / converters.EarthRadius,
	}, nil
}

func (cc *proj4CoordinateConverter) Geocentric() bool {
	return true
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()
	for srid, val := range cc.projectionsCache {
		val.Close()
		delete(cc.projectionsCache, srid)
	}
}

// Returns the projection corresponding to the given EPSG code, storing it in the cache
func (cc *proj4CoordinateConverter) initProjection(srid int) (*proj.Proj, error) {
	if val, ok := cc.projectionsCache[srid]; ok {
		return val, nil
	}

	definition, ok := epsgDefinitions[srid]
	if !ok {
		return nil, errors.New("epsg code not found").
			WithType(ErrTypeProjection).
			WithTag("srid", srid)
	}

	projection, err := proj.InitPlus(definition)
	if err != nil {
		glog.Errorf("proj4 init failed for srid %d: %v", srid, err)
		return nil, errors.New("projection init failed").
			WithType(ErrTypeProjection).
			WithTag("srid", srid).
			Wrap(err)
	}

	cc.projectionsCache[srid] = projection
	return projection, nil
}

func executeConversion(coord converters.Coordinate, src *proj.Proj, dst *proj.Proj) (converters.Coordinate, error) {
	x, y, z := []float64{coord.X}, []float64{coord.Y}, []float64{coord.Z}
	if src.IsLatLong() {
		x[0], y[0] = toRadians(x[0]), toRadians(y[0])
	}

	if err := proj.TransformRaw(src, dst, x, y, z); err != nil {
		return coord, errors.New("coordinate transform failed").
			WithType(ErrTypeProjection).
			Wrap(err)
	}

	if dst.IsLatLong() {
		x[0], y[0] = toDegrees(x[0]), toDegrees(y[0])
	}
	return converters.Coordinate{X: x[0], Y: y[0], Z: z[0]}, nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
