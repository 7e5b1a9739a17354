package tileloader

import (
	"fmt"
	"strings"

	"github.com/ecopia-map/quadtile_loader/internal/atlas"
	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

// Lifecycle state of a LoadedTile
type TileState int

const (
	StateUnloaded TileState = iota
	StateLoading
	StateLoaded
	StatePlaceholder
	StateFailed
)

func (s TileState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StatePlaceholder:
		return "placeholder"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// LoadedTile is the loader's record of one quadtree node: its load state and every scene
// resource created for it. It is only touched on the mutation thread.
type LoadedTile struct {
	nodeInfo          quadtree.NodeInfo
	placeholder       bool
	isLoading         bool
	failed            bool
	drawId            scene.Identity
	skirtDrawId       scene.Identity
	texIds            []scene.Identity   // textures owned by the tile, one per layer
	subTexs           []atlas.SubTexture // atlas cells held by the tile, each covering every layer
	elevData          *elevation.Chunk
	childDrawIds      [4]scene.Identity
	childSkirtDrawIds [4]scene.Identity

	// textures bound by the drawables, owned or atlas pages
	drawTexIds   []scene.Identity
	texMap       texMapper
	currentImage int
	split        bool
}

func newLoadedTile(nodeInfo quadtree.NodeInfo) *LoadedTile {
	return &LoadedTile{
		nodeInfo: nodeInfo,
		texMap:   identityTexMap,
	}
}

func (tile *LoadedTile) Ident() quadtree.Identifier {
	return tile.nodeInfo.Ident
}

func (tile *LoadedTile) NodeInfo() quadtree.NodeInfo {
	return tile.nodeInfo
}

func (tile *LoadedTile) State() TileState {
	switch {
	case tile.isLoading:
		return StateLoading
	case tile.failed:
		return StateFailed
	case tile.placeholder:
		return StatePlaceholder
	case tile.drawId != scene.EmptyIdentity:
		return StateLoaded
	}
	return StateUnloaded
}

func (tile *LoadedTile) IsLoading() bool {
	return tile.isLoading
}

func (tile *LoadedTile) IsPlaceholder() bool {
	return tile.placeholder
}

func (tile *LoadedTile) DrawID() scene.Identity {
	return tile.drawId
}

func (tile *LoadedTile) SkirtDrawID() scene.Identity {
	return tile.skirtDrawId
}

func (tile *LoadedTile) ChildDrawIDs() [4]scene.Identity {
	return tile.childDrawIds
}

func (tile *LoadedTile) ChildSkirtDrawIDs() [4]scene.Identity {
	return tile.childSkirtDrawIds
}

func (tile *LoadedTile) TextureIDs() []scene.Identity {
	return append([]scene.Identity(nil), tile.drawTexIds...)
}

func (tile *LoadedTile) SubTextures() []atlas.SubTexture {
	return append([]atlas.SubTexture(nil), tile.subTexs...)
}

func (tile *LoadedTile) Elevation() *elevation.Chunk {
	return tile.elevData
}

// True when the tile has its own geometry in the scene
func (tile *LoadedTile) hasGeometry() bool {
	return !tile.isLoading && tile.drawId != scene.EmptyIdentity
}

// Builds textures and geometry for freshly fetched content and appends the matching requests
// to changes. On error, nothing is appended and atlas cells taken in the process are released.
func (tile *LoadedTile) addToScene(loader *QuadTileLoader, layer Layer, content *imagery.LoadedTile, changes *scene.ChangeSet) error {
	tile.isLoading = false
	tile.failed = false

	if content.IsPlaceholder() {
		tile.placeholder = true
		return nil
	}

	textures := make([]*scene.Texture, 0, len(content.Images))
	settings := loader.options.TextureSettings()
	for _, img := range content.Images {
		tex, err := imagery.BuildTexture(img, settings)
		if err != nil {
			return err
		}
		textures = append(textures, tex)
	}

	var local scene.ChangeSet
	tile.placeTextures(loader, textures, &local)
	tile.elevData = content.Elevation
	tile.currentImage = loader.currentImage

	if err := tile.buildGeometry(loader, &local); err != nil {
		// the atlas is the only state shared with other tiles, rewind it
		tile.clearContents(loader, &local)
		return err
	}

	tile.updateContents(loader, layer, &local)
	changes.Append(local...)
	return nil
}

func (tile *LoadedTile) placeTextures(loader *QuadTileLoader, textures []*scene.Texture, changes *scene.ChangeSet) {
	if len(textures) == 0 {
		tile.drawTexIds = nil
		tile.texMap = identityTexMap
		return
	}

	if tileAtlas := loader.textureAtlas(); tileAtlas != nil {
		sub, err := tileAtlas.Allocate(textures, changes)
		if err == nil {
			tile.subTexs = append(tile.subTexs, sub)
			tile.drawTexIds = append([]scene.Identity(nil), sub.TexIDs...)
			tile.texMap = func(u, v float64) mgl32.Vec2 {
				return sub.TexCoord(identityTexMap(u, v))
			}
			return
		}
		loader.atlasFallback(tile.Ident(), err)
	}

	tile.drawTexIds = nil
	for _, tex := range textures {
		changes.Append(&scene.AddTextureReq{Texture: tex})
		tile.texIds = append(tile.texIds, tex.ID)
		tile.drawTexIds = append(tile.drawTexIds, tex.ID)
	}
	tile.texMap = borderTexMap(textures[0].Width, textures[0].Border)
}

func (tile *LoadedTile) buildGeometry(loader *QuadTileLoader, changes *scene.ChangeSet) error {
	area := fullTileArea(tile.Ident(), tile.elevData, tile.texMap)

	draw, err := loader.geometry.buildSurface(area, scene.DrawableTile)
	if err != nil {
		return err
	}
	loader.decorate(draw, tile)

	var skirt *scene.Drawable
	if !loader.options.IgnoreEdgeMatching {
		if skirt, err = loader.geometry.buildSkirt(area, scene.DrawableSkirt); err != nil {
			return err
		}
		loader.decorate(skirt, tile)
	}

	changes.Append(&scene.AddDrawableReq{Drawable: draw})
	tile.drawId = draw.ID
	if skirt != nil {
		changes.Append(&scene.AddDrawableReq{Drawable: skirt})
		tile.skirtDrawId = skirt.ID
	}
	return nil
}

// Appends removal requests for every scene resource of the tile and resets it. Calling it
// on a tile without resources appends nothing.
func (tile *LoadedTile) clearContents(loader *QuadTileLoader, changes *scene.ChangeSet) {
	remove := func(id *scene.Identity) {
		if *id != scene.EmptyIdentity {
			changes.Append(&scene.RemDrawableReq{DrawID: *id})
			*id = scene.EmptyIdentity
		}
	}

	remove(&tile.drawId)
	remove(&tile.skirtDrawId)
	for q := 0; q < 4; q++ {
		remove(&tile.childDrawIds[q])
		remove(&tile.childSkirtDrawIds[q])
	}

	for _, id := range tile.texIds {
		changes.Append(&scene.RemTextureReq{TexID: id})
	}
	tile.texIds = nil

	if tileAtlas := loader.textureAtlas(); tileAtlas != nil {
		for _, sub := range tile.subTexs {
			tileAtlas.Release(sub, changes)
		}
	}
	tile.subTexs = nil

	tile.drawTexIds = nil
	tile.texMap = identityTexMap
	tile.elevData = nil
	tile.placeholder = false
	tile.split = false
}

// Reconciles the tile with the quadtree: while any child is present the tile is split, its
// own geometry is hidden and each quadrant without a child showing real geometry is covered
// by a placeholder cut from this tile.
func (tile *LoadedTile) updateContents(loader *QuadTileLoader, layer Layer, changes *scene.ChangeSet) {
	if !tile.hasGeometry() {
		return
	}

	present := layer.Tree().ChildrenPresent(tile.Ident())
	split := present[0] || present[1] || present[2] || present[3]

	for q := 0; q < 4; q++ {
		need := split && !loader.childHasGeometry(tile.Ident().ChildAt(q))
		switch {
		case need && tile.childDrawIds[q] == scene.EmptyIdentity:
			if err := tile.addChildPlaceholder(loader, q, changes); err != nil {
				glog.Warningf("tile %v: child placeholder %d not built: %v", tile.Ident(), q, err)
			}
		case !need && tile.childDrawIds[q] != scene.EmptyIdentity:
			changes.Append(&scene.RemDrawableReq{DrawID: tile.childDrawIds[q]})
			tile.childDrawIds[q] = scene.EmptyIdentity
			if tile.childSkirtDrawIds[q] != scene.EmptyIdentity {
				changes.Append(&scene.RemDrawableReq{DrawID: tile.childSkirtDrawIds[q]})
				tile.childSkirtDrawIds[q] = scene.EmptyIdentity
			}
		}
	}

	if split != tile.split {
		tile.split = split
		changes.Append(&scene.OnOffReq{DrawID: tile.drawId, On: !split})
		if tile.skirtDrawId != scene.EmptyIdentity {
			changes.Append(&scene.OnOffReq{DrawID: tile.skirtDrawId, On: !split})
		}
	}
}

func (tile *LoadedTile) addChildPlaceholder(loader *QuadTileLoader, quadrant int, changes *scene.ChangeSet) error {
	area := quadrantArea(tile.Ident(), quadrant, tile.elevData, tile.texMap)

	draw, err := loader.geometry.buildSurface(area, scene.DrawableChildPlaceholder)
	if err != nil {
		return err
	}
	loader.decorate(draw, tile)

	var skirt *scene.Drawable
	if !loader.options.IgnoreEdgeMatching {
		if skirt, err = loader.geometry.buildSkirt(area, scene.DrawableChildSkirt); err != nil {
			return err
		}
		loader.decorate(skirt, tile)
	}

	changes.Append(&scene.AddDrawableReq{Drawable: draw})
	tile.childDrawIds[quadrant] = draw.ID
	if skirt != nil {
		changes.Append(&scene.AddDrawableReq{Drawable: skirt})
		tile.childSkirtDrawIds[quadrant] = skirt.ID
	}
	return nil
}

// Switches every drawable of the tile to the given image layer
func (tile *LoadedTile) setCurrentImage(loader *QuadTileLoader, image int, changes *scene.ChangeSet) {
	tile.currentImage = image
	for _, id := range tile.drawables() {
		changes.Append(&scene.TexLayerReq{DrawID: id, Layer: image})
	}
}

func (tile *LoadedTile) drawables() []scene.Identity {
	var ids []scene.Identity
	all := []scene.Identity{tile.drawId, tile.skirtDrawId}
	all = append(all, tile.childDrawIds[:]...)
	all = append(all, tile.childSkirtDrawIds[:]...)
	for _, id := range all {
		if id != scene.EmptyIdentity {
			ids = append(ids, id)
		}
	}
	return ids
}

func (tile *LoadedTile) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tile %v: %v", tile.Ident(), tile.State())
	if tile.drawId != scene.EmptyIdentity {
		fmt.Fprintf(&sb, " draw=%v skirt=%v", tile.drawId, tile.skirtDrawId)
	}
	if len(tile.drawTexIds) > 0 {
		fmt.Fprintf(&sb, " tex=%v atlas=%t", tile.drawTexIds, len(tile.subTexs) > 0)
	}
	if tile.split {
		fmt.Fprintf(&sb, " split children=%v", tile.childDrawIds)
	}
	if tile.elevData != nil {
		fmt.Fprintf(&sb, " elev=%dx%d", tile.elevData.Width, tile.elevData.Height)
	}
	return sb.String()
}
