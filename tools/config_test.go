package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
}

func TestLoadLoaderOptions(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "loader.toml")
		writeFile(t, path, `
name = "imagery"
num_images = 2
image_type = "rgb565"
use_dynamic_atlas = true
texture_atlas_size = 1024
draw_priority = 100
`)
		opts, err := LoadLoaderOptions(path, tiler.DefaultLoaderOptions())
		require.NoError(t, err)
		require.Equal(t, "imagery", opts.Name)
		require.Equal(t, 2, opts.NumImages)
		require.Equal(t, tiler.Image565, opts.ImageType)
		require.True(t, opts.UseDynamicAtlas)
		require.Equal(t, 1024, opts.TextureAtlasSize)
		require.Equal(t, 100, opts.DrawPriority)
		require.Equal(t, 256, opts.FixedTileSize)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		writeFile(t, path, "num_images = 0\n")
		_, err := LoadLoaderOptions(path, tiler.DefaultLoaderOptions())
		require.Error(t, err)
		require.Equal(t, tiler.ErrTypeInvalidOptions, errors.Type(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLoaderOptions(filepath.Join(dir, "none.toml"), tiler.DefaultLoaderOptions())
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidConfig, errors.Type(err))
	})
}
