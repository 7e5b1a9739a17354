package tileloader

import (
	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
)

// Receives fetched tile content. Every method may be called from any goroutine and never blocks.
type TileReceiver interface {
	DataSourceLoadedTile(ident quadtree.Identifier, tile *imagery.LoadedTile)
	DataSourceLoadedImage(ident quadtree.Identifier, img imagery.LoadedImage)
	DataSourceLoadedElevation(ident quadtree.Identifier, chunk *elevation.Chunk)
	DataSourceFailed(ident quadtree.Identifier, err error)
}

// Produces tile content asynchronously. StartFetch must return quickly and report back
// exactly once through the receiver.
type DataSource interface {
	MaxSimultaneousFetches() int
	StartFetch(receiver TileReceiver, ident quadtree.Identifier, attrs map[string]any)
}

// The display layer driving a loader: it owns the mutation thread, the quadtree and the scene.
type Layer interface {
	// Enqueues work on the mutation thread, without blocking
	Post(task func()) bool
	Tree() quadtree.Tree
	Scene() scene.Scene
}
