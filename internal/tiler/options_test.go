package tiler

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoaderOptions(t *testing.T) {
	opts := DefaultLoaderOptions()
	require.NoError(t, opts.Validate())
	require.True(t, opts.UseElevAsZ)
	require.Equal(t, 1, opts.NumImages)
	require.Equal(t, 256, opts.FixedTileSize)
}

func TestLoaderOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *LoaderOptions)
	}{
		{"no images", func(o *LoaderOptions) { o.NumImages = 0 }},
		{"atlas size", func(o *LoaderOptions) { o.UseDynamicAtlas = true; o.TextureAtlasSize = 1000 }},
		{"vis range", func(o *LoaderOptions) { o.MinVis = 2; o.MaxVis = 1 }},
		{"page vis range", func(o *LoaderOptions) { o.MinPageVis = 2; o.MaxPageVis = 1 }},
		{"fixed size", func(o *LoaderOptions) { o.FixedTileSize = 0 }},
		{"image type", func(o *LoaderOptions) { o.ImageType = "JPEG" }},
		{"tile scale", func(o *LoaderOptions) { o.TileScale = "SIDEWAYS" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := DefaultLoaderOptions()
			test.modify(&opts)
			err := opts.Validate()
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidOptions, errors.Type(err))
		})
	}
}

func TestParseEnums(t *testing.T) {
	require.Equal(t, Image565, ParseImageType(" rgb565 "))
	require.Equal(t, ImageType(""), ParseImageType("jpeg"))
	require.Equal(t, scene.FormatRGBA4444, ParseImageType("4444").PixelFormat())

	require.Equal(t, TileScaleFixed, ParseTileScale("fixed"))
	require.Equal(t, imagery.ScaleDown, TileScaleDown.ScaleMode())
	require.Equal(t, imagery.ScaleNone, TileScale("").ScaleMode())
}

func TestLoaderOptionsCopy(t *testing.T) {
	opts := DefaultLoaderOptions()
	copied := opts.Copy()
	copied.NumImages = 3
	require.Equal(t, 1, opts.NumImages)
}

func TestViewerOptionsRoots(t *testing.T) {
	opts := ViewerOptions{Input: "a, b,,c "}
	require.Equal(t, []string{"a", "b", "c"}, opts.Roots())
	require.Empty(t, (&ViewerOptions{}).Roots())
}
