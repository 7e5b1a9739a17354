package displaylayer

import (
	"context"
	"testing"
	"time"

	"github.com/ecopia-map/quadtile_loader/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/quadtile_loader/internal/converters/flat_coordinate_converter"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree/view_tree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/ecopia-map/quadtile_loader/pkg/tileloader"
	"github.com/stretchr/testify/require"
)

// Answers every fetch right away with a blank image
type instantSource struct {
	fetches int
}

func (s *instantSource) MaxSimultaneousFetches() int {
	return 8
}

func (s *instantSource) StartFetch(receiver tileloader.TileReceiver, ident quadtree.Identifier, attrs map[string]any) {
	s.fetches++
	receiver.DataSourceLoadedImage(ident, imagery.NewRawRGBAImage(make([]byte, 4*4*4), 4, 4))
}

func newTestLayer(t *testing.T, opts tiler.LoaderOptions) (*QuadDisplayLayer, *scene.MemScene, *instantSource) {
	source := &instantSource{}
	loader, err := tileloader.NewQuadTileLoader(
		"test",
		source,
		opts,
		flat_coordinate_converter.NewFlatCoordinateConverter(),
		offset_elevation_corrector.NewOffsetElevationCorrector(0, 1),
	)
	require.NoError(t, err)

	sc := scene.NewMemScene()
	tree := view_tree.NewViewTree(0, 1, 64, 1.0)
	return NewQuadDisplayLayer("test", tree, sc, loader, 0), sc, source
}

func testOptions() tiler.LoaderOptions {
	opts := tiler.DefaultLoaderOptions()
	opts.TessX = 2
	opts.TessY = 2
	opts.DiagnosticsSeconds = 0
	return opts
}

var (
	nearView = view_tree.View{Lon: 10, Lat: 10, Height: 0.01}
	farView  = view_tree.View{Lon: 10, Lat: 10, Height: 100}
)

func TestQuadDisplayLayerPaging(t *testing.T) {
	layer, sc, source := newTestLayer(t, testOptions())
	loader := layer.Loader()
	root := quadtree.NewIdentifier(0, 0, 0)

	// children wait for the root to be loaded
	layer.SetView(nearView)
	layer.Thread().Drain()
	require.Len(t, loader.LoadedTiles(), 1)
	require.Equal(t, tileloader.StateLoaded, loader.TileState(root))
	require.True(t, layer.incomplete)

	layer.Refresh()
	layer.Thread().Drain()
	require.Len(t, loader.LoadedTiles(), 5)
	require.Equal(t, 5, source.fetches)
	for _, child := range root.Children() {
		require.Equal(t, tileloader.StateLoaded, loader.TileState(child))
	}

	rootTile, _ := loader.Tile(root)
	require.Equal(t, [4]scene.Identity{}, rootTile.ChildDrawIDs())
	require.Equal(t, 10, sc.NumDrawables())
	require.Len(t, sc.VisibleDrawables(), 8)

	layer.SetView(farView)
	layer.Thread().Drain()
	require.Len(t, loader.LoadedTiles(), 1)
	require.Equal(t, 2, sc.NumDrawables())
	require.Len(t, sc.VisibleDrawables(), 2)
	require.Equal(t, 1, sc.NumTextures())
	require.Empty(t, sc.Errors())
}

func TestQuadDisplayLayerPageRange(t *testing.T) {
	opts := testOptions()
	opts.MaxPageVis = 10
	layer, sc, source := newTestLayer(t, opts)

	layer.SetView(farView)
	layer.Thread().Drain()
	require.Zero(t, source.fetches)
	require.Zero(t, sc.NumRequests())

	layer.SetView(nearView)
	layer.Thread().Drain()
	require.Equal(t, 1, source.fetches)
}

func TestQuadDisplayLayerShutdown(t *testing.T) {
	layer, sc, _ := newTestLayer(t, testOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		layer.Start(ctx)
		close(done)
	}()

	layer.SetView(nearView)
	require.NoError(t, layer.Thread().Sync(ctx))
	layer.Refresh()
	require.NoError(t, layer.Thread().Sync(ctx))
	require.NotZero(t, sc.NumDrawables())

	layer.Shutdown()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("layer thread did not stop")
	}
	require.Zero(t, sc.NumDrawables())
	require.Zero(t, sc.NumTextures())
}
