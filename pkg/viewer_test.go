package pkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/ecopia-map/quadtile_loader/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/quadtile_loader/tools"
	"github.com/stretchr/testify/require"
)

type countingFinder struct {
	roots []string
}

func (f *countingFinder) FindTile(root string, ident quadtree.Identifier) (string, bool) {
	return "", false
}

func (f *countingFinder) CountTiles(root string) (map[int]int, error) {
	f.roots = append(f.roots, root)
	return map[int]int{0: 1, 1: 4}, nil
}

func writeTile(t *testing.T, root string, z, x, y int) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 4; i++ {
		img.Set(i, i, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	dir := filepath.Join(root, strconv.Itoa(z), strconv.Itoa(x))
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, strconv.Itoa(y)+".png"), buf.Bytes(), 0666))
}

func viewerOptions(input string) *tiler.ViewerOptions {
	loader := tiler.DefaultLoaderOptions()
	loader.TessX = 2
	loader.TessY = 2
	loader.DiagnosticsSeconds = 0

	return &tiler.ViewerOptions{
		Input:         input,
		Lon:           10,
		Lat:           10,
		Height:        0.02,
		Steps:         2,
		ZoomFactor:    2,
		MaxLevel:      1,
		MaxTiles:      64,
		MinImportance: 1.0,
		Exaggeration:  1,
		FetchWorkers:  2,
		Loader:        loader,
	}
}

func TestRunViewer(t *testing.T) {
	tools.DisableLogger()
	defer tools.EnableLogger()

	root := t.TempDir()
	writeTile(t, root, 0, 0, 0)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			writeTile(t, root, 1, x, y)
		}
	}

	t.Run("zoom steps", func(t *testing.T) {
		opts := viewerOptions(root)
		viewer := NewViewer(tools.NewStandardFileFinder("", false), std_algorithm_manager.NewAlgorithmManager(opts))
		require.NoError(t, viewer.RunViewer(opts))
	})

	t.Run("no input", func(t *testing.T) {
		opts := viewerOptions("")
		viewer := NewViewer(tools.NewStandardFileFinder("", false), std_algorithm_manager.NewAlgorithmManager(opts))
		err := viewer.RunViewer(opts)
		require.Error(t, err)
		require.Equal(t, ErrTypeNoInput, errors.Type(err))
	})

	t.Run("invalid loader options", func(t *testing.T) {
		opts := viewerOptions(root)
		opts.Loader.TessX = 0
		viewer := NewViewer(tools.NewStandardFileFinder("", false), std_algorithm_manager.NewAlgorithmManager(opts))
		err := viewer.RunViewer(opts)
		require.Error(t, err)
		require.Equal(t, tiler.ErrTypeInvalidOptions, errors.Type(err))
	})
}

func TestRunInspect(t *testing.T) {
	tools.DisableLogger()
	defer tools.EnableLogger()

	finder := &countingFinder{}
	opts := &tiler.ViewerOptions{Input: "a, b", ElevationInput: "dem"}
	viewer := NewViewer(finder, std_algorithm_manager.NewAlgorithmManager(opts))

	require.NoError(t, viewer.RunInspect(opts))
	require.Equal(t, []string{"a", "b", "dem"}, finder.roots)

	err := viewer.RunInspect(&tiler.ViewerOptions{})
	require.Equal(t, ErrTypeNoInput, errors.Type(err))
}
