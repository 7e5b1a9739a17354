package tileloader

import (
	"image/color"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/atlas"
	"github.com/ecopia-map/quadtile_loader/internal/converters"
	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	ErrTypeMalformedContent = "malformed_content"
	ErrTypeFetchFailed      = "fetch_failed"
	ErrTypeInvalidOptions   = tiler.ErrTypeInvalidOptions
)

// QuadTileLoader turns quadtree nodes into scene content. The display layer tells it which
// nodes to load and unload, a DataSource fetches their content asynchronously and the loader
// builds textures and geometry for it, handing every mutation to the scene as a ChangeSet.
//
// All methods except the DataSource callbacks, IsReady and Name must be called on the
// layer's mutation thread.
type QuadTileLoader struct {
	name       string
	dataSource DataSource
	options    tiler.LoaderOptions
	converter  converters.CoordinateConverter
	geometry   *geometryBuilder

	tiles        map[quadtree.Identifier]*LoadedTile
	inflight     map[quadtree.Identifier]int
	atlas        *atlas.DynamicAtlas
	currentImage int
	changes      scene.ChangeSet
	inUpdate     bool
	frozen       bool
	numFetches   int64

	layerMutex sync.RWMutex
	layer      Layer

	diagnostics *rate.Limiter
}

// Builds a loader. An empty name is replaced by a generated one.
func NewQuadTileLoader(
	name string,
	dataSource DataSource,
	options tiler.LoaderOptions,
	converter converters.CoordinateConverter,
	corrector converters.ElevationCorrector,
) (*QuadTileLoader, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		name = options.Name
	}
	if name == "" {
		name = "quadloader-" + uuid.New().String()[:8]
	}
	options.Name = name

	interval := time.Duration(options.DiagnosticsSeconds * float64(time.Second))
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	l := &QuadTileLoader{
		name:        name,
		dataSource:  dataSource,
		options:     options,
		converter:   converter,
		tiles:       map[quadtree.Identifier]*LoadedTile{},
		inflight:    map[quadtree.Identifier]int{},
		diagnostics: rate.NewLimiter(limit, 1),
	}
	l.geometry = &geometryBuilder{converter: converter, corrector: corrector, opts: &l.options}
	return l, nil
}

func (l *QuadTileLoader) Name() string {
	return l.name
}

func (l *QuadTileLoader) Options() tiler.LoaderOptions {
	return l.options
}

// True while fewer fetches than the data source allows are in progress
func (l *QuadTileLoader) IsReady() bool {
	limit := l.dataSource.MaxSimultaneousFetches()
	if limit < 1 {
		limit = 1
	}
	return atomic.LoadInt64(&l.numFetches) < int64(limit)
}

func (l *QuadTileLoader) NumOutstandingFetches() int {
	return int(atomic.LoadInt64(&l.numFetches))
}

// Opens an update window. Requests produced until EndUpdates are flushed together.
func (l *QuadTileLoader) StartUpdates(layer Layer) {
	l.setLayer(layer)
	l.inUpdate = true
}

// Closes the update window: refreshes split state and child placeholders of every tile and
// hands the accumulated changes to the scene as one batch.
func (l *QuadTileLoader) EndUpdates(layer Layer) {
	l.setLayer(layer)
	for _, tile := range l.sortedTiles() {
		tile.updateContents(l, layer, &l.changes)
	}
	l.inUpdate = false
	l.flush(layer)
	l.logState(false)
}

// Starts loading a node. Loading a node the loader already tracks does nothing.
func (l *QuadTileLoader) LoadTile(layer Layer, nodeInfo quadtree.NodeInfo) {
	l.setLayer(layer)

	ident := nodeInfo.Ident
	if tile, ok := l.tiles[ident]; ok {
		glog.V(3).Infof("%s: duplicate load of %v ignored (%v)", l.name, ident, tile.State())
		return
	}

	tile := newLoadedTile(nodeInfo)
	l.tiles[ident] = tile
	l.frozen = true
	l.startFetch(tile)
	l.refreshParent(layer, ident)
	l.updateGauges()
	if !l.inUpdate {
		l.flush(layer)
	}
}

// Forgets a node and removes everything it put in the scene. A fetch still in progress
// for it is abandoned and its result dropped when it arrives. That fetch keeps counting
// against MaxSimultaneousFetches until the data source answers it, so a source must
// answer every fetch, if only with a failure.
func (l *QuadTileLoader) UnloadTile(layer Layer, nodeInfo quadtree.NodeInfo) {
	l.setLayer(layer)

	ident := nodeInfo.Ident
	tile, ok := l.tiles[ident]
	if !ok {
		return
	}

	tile.clearContents(l, &l.changes)
	tile.isLoading = false
	delete(l.tiles, ident)

	l.refreshParent(layer, ident)
	l.updateGauges()
	if !l.inUpdate {
		l.flush(layer)
	}
}

// Puts a failed node back into loading
func (l *QuadTileLoader) RetryTile(layer Layer, ident quadtree.Identifier) bool {
	l.setLayer(layer)

	tile, ok := l.tiles[ident]
	if !ok || !tile.failed {
		return false
	}
	tile.failed = false
	l.startFetch(tile)
	l.updateGauges()
	return true
}

// The quadtree may descend below a node only once the node has been loaded
func (l *QuadTileLoader) CanLoadChildren(ident quadtree.Identifier) bool {
	tile, ok := l.tiles[ident]
	return ok && !tile.isLoading && !tile.failed
}

// True when paging should happen for a viewer at the given height
func (l *QuadTileLoader) InPageRange(height float64) bool {
	if l.options.MinPageVis > 0 && height < l.options.MinPageVis {
		return false
	}
	if l.options.MaxPageVis > 0 && height > l.options.MaxPageVis {
		return false
	}
	return true
}

// Switches every tile, present and future, to the given image layer
func (l *QuadTileLoader) SetCurrentImage(layer Layer, image int) {
	if image < 0 || image >= l.options.NumImages {
		glog.Warningf("%s: image %d out of range [0,%d)", l.name, image, l.options.NumImages)
		return
	}
	l.setLayer(layer)
	l.currentImage = image
	for _, tile := range l.sortedTiles() {
		tile.setCurrentImage(l, image, &l.changes)
	}
	if !l.inUpdate {
		l.flush(layer)
	}
}

func (l *QuadTileLoader) CurrentImage() int {
	return l.currentImage
}

func (l *QuadTileLoader) SetVisibility(layer Layer, minVis, maxVis float64) {
	l.setLayer(layer)
	l.options.MinVis, l.options.MaxVis = minVis, maxVis
	for _, tile := range l.sortedTiles() {
		for _, id := range tile.drawables() {
			l.changes.Append(&scene.VisibilityReq{DrawID: id, MinVis: minVis, MaxVis: maxVis})
		}
	}
	if !l.inUpdate {
		l.flush(layer)
	}
}

func (l *QuadTileLoader) SetColor(layer Layer, c color.RGBA) {
	l.setLayer(layer)
	l.options.Color = c
	for _, tile := range l.sortedTiles() {
		for _, id := range tile.drawables() {
			l.changes.Append(&scene.ColorReq{DrawID: id, Color: c})
		}
	}
	if !l.inUpdate {
		l.flush(layer)
	}
}

// Changes the number of image layers. Only allowed while no tile is tracked.
func (l *QuadTileLoader) SetNumImages(numImages int) error {
	if err := l.checkNotFrozen("num_images"); err != nil {
		return err
	}
	opts := l.options
	opts.NumImages = numImages
	if err := opts.Validate(); err != nil {
		return err
	}
	l.options = opts
	l.atlas = nil
	if l.currentImage >= numImages {
		l.currentImage = 0
	}
	return nil
}

// Enables or disables the texture atlas. Only allowed while no tile is tracked.
func (l *QuadTileLoader) SetUseDynamicAtlas(use bool) error {
	if err := l.checkNotFrozen("use_dynamic_atlas"); err != nil {
		return err
	}
	opts := l.options
	opts.UseDynamicAtlas = use
	if err := opts.Validate(); err != nil {
		return err
	}
	l.options = opts
	l.atlas = nil
	return nil
}

// Drops every tile and atlas page, after which frozen options may change again
func (l *QuadTileLoader) Reset(layer Layer) {
	l.setLayer(layer)
	for _, tile := range l.sortedTiles() {
		tile.clearContents(l, &l.changes)
	}
	l.tiles = map[quadtree.Identifier]*LoadedTile{}
	if l.atlas != nil {
		l.atlas.Shutdown(&l.changes)
		l.atlas = nil
	}
	l.frozen = false
	l.updateGauges()
	l.flush(layer)
}

// Removes everything the loader put in the scene. Late fetch results are dropped.
func (l *QuadTileLoader) Shutdown(layer Layer) {
	l.Reset(layer)
	l.inUpdate = false
	l.logState(true)
}

func (l *QuadTileLoader) Tile(ident quadtree.Identifier) (*LoadedTile, bool) {
	tile, ok := l.tiles[ident]
	return tile, ok
}

func (l *QuadTileLoader) TileState(ident quadtree.Identifier) TileState {
	if tile, ok := l.tiles[ident]; ok {
		return tile.State()
	}
	return StateUnloaded
}

// Tracked tiles ordered by identifier
func (l *QuadTileLoader) LoadedTiles() []*LoadedTile {
	return l.sortedTiles()
}

func (l *QuadTileLoader) DataSourceLoadedTile(ident quadtree.Identifier, tile *imagery.LoadedTile) {
	l.post(ident, func() { l.tileLoaded(ident, tile, nil) })
}

func (l *QuadTileLoader) DataSourceLoadedImage(ident quadtree.Identifier, img imagery.LoadedImage) {
	l.DataSourceLoadedTile(ident, imagery.TileFromImage(img))
}

func (l *QuadTileLoader) DataSourceLoadedElevation(ident quadtree.Identifier, chunk *elevation.Chunk) {
	l.DataSourceLoadedTile(ident, imagery.TileFromElevation(chunk))
}

func (l *QuadTileLoader) DataSourceFailed(ident quadtree.Identifier, err error) {
	if err == nil {
		err = errors.New("fetch failed")
	}
	l.post(ident, func() { l.tileLoaded(ident, nil, err) })
}

// Redirects a callback to the mutation thread
func (l *QuadTileLoader) post(ident quadtree.Identifier, task func()) {
	l.layerMutex.RLock()
	layer := l.layer
	l.layerMutex.RUnlock()

	if layer == nil || !layer.Post(task) {
		glog.Warningf("%s: result for %v dropped, no layer thread", l.name, ident)
	}
}

func (l *QuadTileLoader) tileLoaded(ident quadtree.Identifier, content *imagery.LoadedTile, fetchErr error) {
	l.finishFetch(ident)

	layer := l.currentLayer()
	tile, ok := l.tiles[ident]
	if !ok || !tile.isLoading || layer == nil {
		staleCallbacksTotal.WithLabelValues(l.name).Inc()
		glog.V(2).Infof("%s: stale result for %v dropped", l.name, ident)
		return
	}

	if fetchErr != nil {
		l.markFailed(tile, errors.New("data source reported a failure").
			WithType(ErrTypeFetchFailed).
			WithTag("tile", ident.String()).
			Wrap(fetchErr))
		return
	}
	if err := l.checkContent(ident, content); err != nil {
		l.markFailed(tile, err)
		return
	}

	var changes scene.ChangeSet
	if err := tile.addToScene(l, layer, content, &changes); err != nil {
		l.markFailed(tile, err)
		return
	}
	l.changes.Append(changes...)
	loadedTilesTotal.WithLabelValues(l.name).Inc()

	l.refreshParent(layer, ident)
	l.updateGauges()
	if !l.inUpdate {
		l.flush(layer)
	}
}

func (l *QuadTileLoader) checkContent(ident quadtree.Identifier, content *imagery.LoadedTile) error {
	if content == nil {
		return errors.New("empty tile content").
			WithType(ErrTypeMalformedContent).
			WithTag("tile", ident.String())
	}
	if content.Elevation != nil {
		if err := content.Elevation.Validate(); err != nil {
			return errors.New("unusable elevation").
				WithType(ErrTypeMalformedContent).
				WithTag("tile", ident.String()).
				Wrap(err)
		}
		if len(content.Images) == 0 {
			return nil
		}
	}
	if len(content.Images) != l.options.NumImages {
		return errors.New("wrong number of image layers").
			WithType(ErrTypeMalformedContent).
			WithTag("tile", ident.String()).
			WithTag("expected", l.options.NumImages).
			WithTag("got", len(content.Images))
	}
	return nil
}

func (l *QuadTileLoader) markFailed(tile *LoadedTile, err error) {
	tile.isLoading = false
	tile.failed = true
	failedTilesTotal.WithLabelValues(l.name, errors.Type(err)).Inc()
	glog.Errorf("%s: tile %v failed: %v", l.name, tile.Ident(), err)
	l.updateGauges()
	l.logState(false)
}

func (l *QuadTileLoader) startFetch(tile *LoadedTile) {
	tile.isLoading = true
	l.inflight[tile.Ident()]++
	atomic.AddInt64(&l.numFetches, 1)
	outstandingFetches.WithLabelValues(l.name).Set(float64(atomic.LoadInt64(&l.numFetches)))

	attrs := tile.nodeInfo.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	l.dataSource.StartFetch(l, tile.Ident(), attrs)
}

func (l *QuadTileLoader) finishFetch(ident quadtree.Identifier) {
	if l.inflight[ident] == 0 {
		return
	}
	l.inflight[ident]--
	if l.inflight[ident] == 0 {
		delete(l.inflight, ident)
	}
	atomic.AddInt64(&l.numFetches, -1)
	outstandingFetches.WithLabelValues(l.name).Set(float64(atomic.LoadInt64(&l.numFetches)))
}

// Lets the parent of a node re-evaluate its child placeholders
func (l *QuadTileLoader) refreshParent(layer Layer, ident quadtree.Identifier) {
	if ident.IsRoot() {
		return
	}
	if parent, ok := l.tiles[ident.Parent()]; ok {
		parent.updateContents(l, layer, &l.changes)
	}
}

func (l *QuadTileLoader) childHasGeometry(ident quadtree.Identifier) bool {
	tile, ok := l.tiles[ident]
	return ok && tile.hasGeometry()
}

func (l *QuadTileLoader) textureAtlas() *atlas.DynamicAtlas {
	if !l.options.UseDynamicAtlas {
		return nil
	}
	if l.atlas == nil {
		l.atlas = atlas.NewDynamicAtlas(atlas.Config{
			PageSize: l.options.TextureAtlasSize,
			CellSize: l.atlasCellSize(),
			Layers:   l.options.NumImages,
			Format:   l.options.ImageType.PixelFormat(),
			MaxPages: l.options.MaxAtlasPages,
		})
	}
	return l.atlas
}

// Textures of any other size are kept outside the atlas
func (l *QuadTileLoader) atlasCellSize() int {
	return l.options.FixedTileSize
}

func (l *QuadTileLoader) atlasFallback(ident quadtree.Identifier, err error) {
	atlasFallbacksTotal.WithLabelValues(l.name, errors.Type(err)).Inc()
	glog.V(2).Infof("%s: tile %v textured outside the atlas: %v", l.name, ident, err)
}

// Applies the loader options shared by every drawable of a tile
func (l *QuadTileLoader) decorate(draw *scene.Drawable, tile *LoadedTile) {
	draw.TexIDs = append([]scene.Identity(nil), tile.drawTexIds...)
	draw.ActiveLayer = tile.currentImage
	draw.Color = l.options.Color
	draw.HasAlpha = l.options.HasAlpha
	draw.DrawOffset = l.options.DrawOffset
	draw.DrawPriority = l.options.DrawPriority
	draw.MinVis = l.options.MinVis
	draw.MaxVis = l.options.MaxVis
	draw.ProgramID = scene.Identity(l.options.ProgramID)
}

func (l *QuadTileLoader) flush(layer Layer) {
	if len(l.changes) == 0 {
		return
	}
	changes := l.changes
	l.changes = nil
	changeRequestsTotal.WithLabelValues(l.name).Add(float64(len(changes)))
	if l.atlas != nil {
		atlasPages.WithLabelValues(l.name).Set(float64(l.atlas.NumPages()))
	}
	layer.Scene().AddChangeRequests(changes)
}

func (l *QuadTileLoader) checkNotFrozen(option string) error {
	if l.frozen {
		return errors.New("option cannot change while tiles are loaded").
			WithType(ErrTypeInvalidOptions).
			WithTag("option", option)
	}
	return nil
}

func (l *QuadTileLoader) setLayer(layer Layer) {
	if layer == nil {
		return
	}
	l.layerMutex.Lock()
	l.layer = layer
	l.layerMutex.Unlock()
}

func (l *QuadTileLoader) currentLayer() Layer {
	l.layerMutex.RLock()
	defer l.layerMutex.RUnlock()
	return l.layer
}

func (l *QuadTileLoader) sortedTiles() []*LoadedTile {
	tiles := make([]*LoadedTile, 0, len(l.tiles))
	for _, tile := range l.tiles {
		tiles = append(tiles, tile)
	}
	sort.Slice(tiles, func(i, j int) bool {
		return tiles[i].Ident().Less(tiles[j].Ident())
	})
	return tiles
}
