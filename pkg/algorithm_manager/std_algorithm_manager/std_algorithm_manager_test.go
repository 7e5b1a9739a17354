package std_algorithm_manager

import (
	"testing"

	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/stretchr/testify/require"
)

func TestStandardAlgorithmManager(t *testing.T) {
	opts := &tiler.ViewerOptions{
		MaxLevel:     4,
		MaxTiles:     32,
		ZOffset:      10,
		Exaggeration: 2,
	}
	manager := NewAlgorithmManager(opts)

	require.False(t, manager.GetCoordinateConverterAlgorithm().Geocentric())
	require.Equal(t, 30.0, manager.GetElevationCorrectionAlgorithm().CorrectElevation(0, 0, 10))
	require.NotSame(t, manager.GetTreeAlgorithm(), manager.GetTreeAlgorithm())
}
