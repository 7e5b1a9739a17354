package std_algorithm_manager

import (
	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/ecopia-map/quadtile_loader/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/quadtile_loader/internal/converters/flat_coordinate_converter"
	"github.com/ecopia-map/quadtile_loader/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree/view_tree"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/ecopia-map/quadtile_loader/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options             *tiler.ViewerOptions
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
}

func NewAlgorithmManager(opts *tiler.ViewerOptions) algorithm_manager.AlgorithmManager {
	var coordinateConverter converters.CoordinateConverter
	if opts.Globe {
		coordinateConverter = proj4_coordinate_converter.NewProj4CoordinateConverter()
	} else {
		coordinateConverter = flat_coordinate_converter.NewFlatCoordinateConverter()
	}

	return &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: coordinateConverter,
		elevationCorrector:  offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset, opts.Exaggeration),
	}
}

func (m *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return m.elevationCorrector
}

// Builds a fresh tree for a viewing session
func (m *StandardAlgorithmManager) GetTreeAlgorithm() *view_tree.ViewTree {
	return view_tree.NewViewTree(m.options.MinLevel, m.options.MaxLevel, m.options.MaxTiles, m.options.MinImportance)
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}
