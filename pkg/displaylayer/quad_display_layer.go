package displaylayer

import (
	"context"
	"time"

	"github.com/ecopia-map/quadtile_loader/internal/layerthread"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree/view_tree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/ecopia-map/quadtile_loader/pkg/tileloader"
	"github.com/golang/glog"
)

// QuadDisplayLayer drives a QuadTileLoader from a ViewTree. It owns the mutation thread:
// every evaluation and every loader call runs there.
type QuadDisplayLayer struct {
	thread *layerthread.Thread
	tree   *view_tree.ViewTree
	scene  scene.Scene
	loader *tileloader.QuadTileLoader
	period time.Duration

	// set when the last evaluation left wanted nodes unloaded
	incomplete bool
}

func NewQuadDisplayLayer(
	name string,
	tree *view_tree.ViewTree,
	sc scene.Scene,
	loader *tileloader.QuadTileLoader,
	period time.Duration,
) *QuadDisplayLayer {
	return &QuadDisplayLayer{
		thread: layerthread.NewThread(name),
		tree:   tree,
		scene:  sc,
		loader: loader,
		period: period,
	}
}

func (d *QuadDisplayLayer) Post(task func()) bool {
	return d.thread.Post(task)
}

func (d *QuadDisplayLayer) Tree() quadtree.Tree {
	return d.tree
}

func (d *QuadDisplayLayer) Scene() scene.Scene {
	return d.scene
}

func (d *QuadDisplayLayer) Loader() *tileloader.QuadTileLoader {
	return d.loader
}

func (d *QuadDisplayLayer) Thread() *layerthread.Thread {
	return d.thread
}

// Moves the viewer and schedules an evaluation
func (d *QuadDisplayLayer) SetView(view view_tree.View) {
	d.tree.SetView(view)
	d.Refresh()
}

// Schedules an evaluation of the tree against the current view
func (d *QuadDisplayLayer) Refresh() {
	if !d.thread.Post(d.evaluate) {
		glog.V(2).Infof("%s: refresh after shutdown ignored", d.thread.Name())
	}
}

// Runs the mutation thread until the context is done or the layer is shut down. When a
// period is set, evaluations that could not load every wanted node are retried at that pace.
func (d *QuadDisplayLayer) Start(ctx context.Context) {
	if d.period > 0 {
		go func() {
			ticker := time.NewTicker(d.period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if !d.thread.Post(d.retry) {
						return
					}
				}
			}
		}()
	}
	d.thread.Run(ctx)
}

// Removes the loader content from the scene and stops the thread once queued work is done
func (d *QuadDisplayLayer) Shutdown() {
	d.thread.Post(func() {
		d.loader.Shutdown(d)
	})
	d.thread.Close()
}

func (d *QuadDisplayLayer) retry() {
	if d.incomplete {
		d.evaluate()
	}
}

func (d *QuadDisplayLayer) evaluate() {
	view := d.tree.View()
	if !d.loader.InPageRange(view.Height) {
		glog.V(3).Infof("%s: height %v outside paging range", d.thread.Name(), view.Height)
		d.incomplete = false
		return
	}

	nodes := d.tree.Evaluate(d.loader.CanLoadChildren)
	wanted := make(map[quadtree.Identifier]bool, len(nodes))
	for _, node := range nodes {
		wanted[node.Ident] = true
	}

	d.loader.StartUpdates(d)

	unloaded := 0
	for _, tile := range d.loader.LoadedTiles() {
		if !wanted[tile.Ident()] {
			d.loader.UnloadTile(d, tile.NodeInfo())
			unloaded++
		}
	}

	loaded := 0
	d.incomplete = false
	for _, node := range nodes {
		if d.loader.TileState(node.Ident) != tileloader.StateUnloaded {
			if d.loader.TileState(node.Ident) == tileloader.StateLoading {
				d.incomplete = true
			}
			continue
		}
		if !d.loader.IsReady() {
			d.incomplete = true
			break
		}
		d.loader.LoadTile(d, node)
		d.incomplete = true
		loaded++
	}

	d.loader.EndUpdates(d)

	glog.V(2).Infof("%s: %d nodes wanted, %d loads started, %d unloaded",
		d.thread.Name(),
		len(nodes),
		loaded,
		unloaded,
	)
}
