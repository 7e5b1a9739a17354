package algorithm_manager

import (
	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree/view_tree"
)

type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetTreeAlgorithm() *view_tree.ViewTree
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
}
