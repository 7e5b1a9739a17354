package pkg

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/io"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree/view_tree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/ecopia-map/quadtile_loader/pkg/algorithm_manager"
	"github.com/ecopia-map/quadtile_loader/pkg/displaylayer"
	"github.com/ecopia-map/quadtile_loader/pkg/tileloader"
	"github.com/ecopia-map/quadtile_loader/tools"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ErrTypeNoInput       = "no_input"
	ErrTypeLayerStopped  = "layer_stopped"
	ErrTypeSettleTimeout = "settle_timeout"
)

const (
	refreshPeriod = 50 * time.Millisecond
	settlePoll    = 20 * time.Millisecond
	settleTimeout = time.Minute
)

type IViewer interface {
	RunViewer(opts *tiler.ViewerOptions) error
	RunInspect(opts *tiler.ViewerOptions) error
}

// Statistics of the scene and loader after a camera step
type StepStats struct {
	Step       int     `json:"step"`
	Height     float64 `json:"height"`
	Tiles      int     `json:"tiles"`
	States     string  `json:"states"`
	Drawables  int     `json:"drawables"`
	Visible    int     `json:"visible"`
	Textures   int     `json:"textures"`
	Requests   int     `json:"requests"`
	SceneFault int     `json:"scene_faults"`
}

type Viewer struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewViewer(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) IViewer {
	return &Viewer{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

// Runs a viewing session: the camera starts above the given point and zooms in step by step,
// each step waiting for the tiles it needs before printing scene statistics
func (v *Viewer) RunViewer(opts *tiler.ViewerOptions) error {
	roots := opts.Roots()
	if len(roots) == 0 && opts.ElevationInput == "" {
		return errors.New("no imagery nor elevation input").WithType(ErrTypeNoInput)
	}

	loaderOpts := opts.Loader
	if len(roots) > 0 {
		loaderOpts.NumImages = len(roots)
	}

	source := io.NewFileDataSource(io.FileSourceConfig{
		Roots:         roots,
		ElevationRoot: opts.ElevationInput,
		Extension:     opts.Extension,
		TMS:           opts.TMS,
		RawTileSize:   loaderOpts.FixedTileSize,
		Workers:       opts.FetchWorkers,
	})
	defer source.Close()

	converter := v.algorithmManager.GetCoordinateConverterAlgorithm()
	defer converter.Cleanup()

	loader, err := tileloader.NewQuadTileLoader(
		loaderOpts.Name,
		source,
		loaderOpts,
		converter,
		v.algorithmManager.GetElevationCorrectionAlgorithm(),
	)
	if err != nil {
		return err
	}
	tools.LogOutput("> loader", loader.Name(), tools.FmtJSONString(loader.Options()))

	sc := scene.NewMemScene()
	layer := displaylayer.NewQuadDisplayLayer(loader.Name(), v.algorithmManager.GetTreeAlgorithm(), sc, loader, refreshPeriod)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		layer.Start(ctx)
		close(stopped)
	}()

	if opts.MetricsAddr != "" {
		server := serveMetrics(opts.MetricsAddr)
		defer server.Close()
	}

	height := opts.Height
	for step := 0; step < opts.Steps; step++ {
		layer.SetView(view_tree.View{Lon: opts.Lon, Lat: opts.Lat, Height: height})

		if err := settle(ctx, layer); err != nil {
			if errors.Type(err) != ErrTypeSettleTimeout {
				return err
			}
			glog.Warningf("step %d: %v", step, err)
		}

		stats, err := collectStats(ctx, layer, sc)
		if err != nil {
			return err
		}
		stats.Step = step
		stats.Height = height
		tools.LogOutput(fmt.Sprintf("> step %d/%d", step+1, opts.Steps), tools.FmtJSONString(stats))

		if opts.ZoomFactor > 1 {
			height /= opts.ZoomFactor
		}
	}

	layer.Shutdown()
	<-stopped

	tools.LogOutput("> scene after shutdown:", strconv.Itoa(sc.NumDrawables()), "drawables,", strconv.Itoa(sc.NumTextures()), "textures")
	return nil
}

// Lists the tiles found under every input folder, per level
func (v *Viewer) RunInspect(opts *tiler.ViewerOptions) error {
	roots := opts.Roots()
	if opts.ElevationInput != "" {
		roots = append(roots, opts.ElevationInput)
	}
	if len(roots) == 0 {
		return errors.New("no input folder").WithType(ErrTypeNoInput)
	}

	for _, root := range roots {
		counts, err := v.fileFinder.CountTiles(root)
		if err != nil {
			return err
		}
		tools.LogOutput("> " + root)
		for _, level := range tools.SortedLevels(counts) {
			tools.LogOutput(fmt.Sprintf("  level %2d: %d tiles (%d possible)", level, counts[level], 1<<(2*uint(level))))
		}
	}
	return nil
}

// Runs f on the layer thread and waits for it
func runOnLayer(ctx context.Context, layer *displaylayer.QuadDisplayLayer, f func()) error {
	done := make(chan struct{})
	if !layer.Post(func() {
		f()
		close(done)
	}) {
		return errors.New("layer thread stopped").WithType(ErrTypeLayerStopped)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waits until an evaluation of the current view starts no fetch and leaves no tile loading.
// Tasks run in order on the layer thread, so the check always sees the state after the refresh.
func settle(ctx context.Context, layer *displaylayer.QuadDisplayLayer) error {
	deadline := time.Now().Add(settleTimeout)
	for {
		layer.Refresh()

		busy := false
		err := runOnLayer(ctx, layer, func() {
			loader := layer.Loader()
			busy = loader.NumOutstandingFetches() > 0 || loader.StateCounts()[tileloader.StateLoading] > 0
		})
		if err != nil || !busy {
			return err
		}

		if time.Now().After(deadline) {
			return errors.New("tiles still loading").
				WithType(ErrTypeSettleTimeout).
				WithTag("timeout", settleTimeout.String())
		}
		time.Sleep(settlePoll)
	}
}

func collectStats(ctx context.Context, layer *displaylayer.QuadDisplayLayer, sc *scene.MemScene) (StepStats, error) {
	var stats StepStats
	err := runOnLayer(ctx, layer, func() {
		loader := layer.Loader()
		stats.Tiles = len(loader.LoadedTiles())
		stats.States = loader.StateCounts().String()
	})
	stats.Drawables = sc.NumDrawables()
	stats.Visible = len(sc.VisibleDrawables())
	stats.Textures = sc.NumTextures()
	stats.Requests = sc.NumRequests()
	stats.SceneFault = len(sc.Errors())
	return stats, err
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("metrics server stopped: %v", err)
		}
	}()
	tools.LogOutput("> metrics served on", addr)
	return server
}
