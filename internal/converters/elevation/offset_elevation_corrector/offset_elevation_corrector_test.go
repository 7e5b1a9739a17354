package offset_elevation_corrector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectElevation(t *testing.T) {
	require.Equal(t, 15.0, NewOffsetElevationCorrector(5, 0).CorrectElevation(10, 45, 10))
	require.Equal(t, 18.0, NewOffsetElevationCorrector(-2, 2).CorrectElevation(10, 45, 10))
}
