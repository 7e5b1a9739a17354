package offset_elevation_corrector

import "github.com/ecopia-map/quadtile_loader/internal/converters"

// Scales then shifts heights: z * Exaggeration + Offset
type OffsetElevationCorrector struct {
	Offset       float64
	Exaggeration float64
}

func NewOffsetElevationCorrector(offset, exaggeration float64) converters.ElevationCorrector {
	if exaggeration == 0 {
		exaggeration = 1
	}
	return &OffsetElevationCorrector{
		Offset:       offset,
		Exaggeration: exaggeration,
	}
}

func (c *OffsetElevationCorrector) CorrectElevation(lon, lat, z float64) float64 {
	return z*c.Exaggeration + c.Offset
}
