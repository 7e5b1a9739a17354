package atlas

import (
	"image"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

const (
	ErrTypeAtlasFull        = "atlas_full"
	ErrTypeAtlasUnsupported = "atlas_unsupported"
)

type Config struct {
	PageSize int // width and height of a page, in pixels
	CellSize int // width and height of the single texture size a page accepts
	Layers   int // image layers per tile, one page texture per layer
	Format   scene.PixelFormat
	MaxPages int
}

// Region of the atlas holding the textures of one tile, one page texture per layer
type SubTexture struct {
	TexIDs []scene.Identity
	Rect   image.Rectangle
	Org    mgl32.Vec2
	Span   mgl32.Vec2
	page   int
	cell   int
}

// Maps tile local texture coordinates into the page
func (s SubTexture) TexCoord(tc mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{s.Org.X() + tc.X()*s.Span.X(), s.Org.Y() + tc.Y()*s.Span.Y()}
}

func (s SubTexture) Valid() bool {
	return len(s.TexIDs) > 0
}

type page struct {
	texIDs []scene.Identity
	used   []bool
	inUse  int
}

// DynamicAtlas packs same-sized tile textures into large page textures, so tiles share
// a handful of textures. Pages are created on demand and removed once empty.
// Not safe for concurrent use.
type DynamicAtlas struct {
	config       Config
	cellsPerSide int
	pages        []*page
}

func NewDynamicAtlas(config Config) *DynamicAtlas {
	cellsPerSide := 0
	if config.CellSize > 0 {
		cellsPerSide = config.PageSize / config.CellSize
	}
	if config.Layers < 1 {
		config.Layers = 1
	}
	return &DynamicAtlas{
		config:       config,
		cellsPerSide: cellsPerSide,
	}
}

func (a *DynamicAtlas) Config() Config {
	return a.config
}

// Checks whether the given textures could be stored, regardless of free space
func (a *DynamicAtlas) Accepts(texs []*scene.Texture) bool {
	if a.cellsPerSide < 1 || len(texs) != a.config.Layers {
		return false
	}
	for _, tex := range texs {
		if tex == nil || tex.Format.Compressed() || tex.Format != a.config.Format ||
			tex.Width != a.config.CellSize || tex.Height != a.config.CellSize {
			return false
		}
	}
	return true
}

// Stores one texture per layer in a single cell. Page creation and uploads are appended to changes.
func (a *DynamicAtlas) Allocate(texs []*scene.Texture, changes *scene.ChangeSet) (SubTexture, error) {
	if !a.Accepts(texs) {
		return SubTexture{}, errors.New("textures cannot be stored in atlas").
			WithType(ErrTypeAtlasUnsupported).
			WithTag("layers", len(texs)).
			WithTag("cell_size", a.config.CellSize)
	}

	pageIdx, cell := a.findFreeCell()
	if pageIdx < 0 {
		if a.NumPages() >= a.config.MaxPages {
			return SubTexture{}, errors.New("no free atlas cell").
				WithType(ErrTypeAtlasFull).
				WithTag("pages", a.NumPages())
		}
		pageIdx = a.addPage(changes)
		cell = 0
	}

	p := a.pages[pageIdx]
	p.used[cell] = true
	p.inUse++

	size := a.config.CellSize
	x, y := (cell%a.cellsPerSide)*size, (cell/a.cellsPerSide)*size
	for layer, tex := range texs {
		changes.Append(&scene.UpdateTextureRegionReq{
			TexID:  p.texIDs[layer],
			X:      x,
			Y:      y,
			Width:  size,
			Height: size,
			Pix:    tex.Pix,
		})
	}

	span := float32(size) / float32(a.config.PageSize)
	return SubTexture{
		TexIDs: append([]scene.Identity(nil), p.texIDs...),
		Rect:   image.Rect(x, y, x+size, y+size),
		Org:    mgl32.Vec2{float32(x) / float32(a.config.PageSize), float32(y) / float32(a.config.PageSize)},
		Span:   mgl32.Vec2{span, span},
		page:   pageIdx,
		cell:   cell,
	}, nil
}

// Frees the cell held by sub. Pages left empty are removed from the scene.
func (a *DynamicAtlas) Release(sub SubTexture, changes *scene.ChangeSet) {
	if !sub.Valid() || sub.page >= len(a.pages) || a.pages[sub.page] == nil {
		glog.Warningf("atlas: release of unknown sub texture %v", sub.Rect)
		return
	}
	p := a.pages[sub.page]
	if !p.used[sub.cell] {
		return
	}
	p.used[sub.cell] = false
	p.inUse--

	if p.inUse == 0 {
		a.removePage(sub.page, changes)
	}
}

// Removes every page
func (a *DynamicAtlas) Shutdown(changes *scene.ChangeSet) {
	for i := range a.pages {
		if a.pages[i] != nil {
			a.removePage(i, changes)
		}
	}
	a.pages = nil
}

func (a *DynamicAtlas) NumPages() int {
	n := 0
	for _, p := range a.pages {
		if p != nil {
			n++
		}
	}
	return n
}

func (a *DynamicAtlas) findFreeCell() (int, int) {
	for i, p := range a.pages {
		if p == nil || p.inUse == len(p.used) {
			continue
		}
		for cell, used := range p.used {
			if !used {
				return i, cell
			}
		}
	}
	return -1, -1
}

func (a *DynamicAtlas) addPage(changes *scene.ChangeSet) int {
	p := &page{used: make([]bool, a.cellsPerSide*a.cellsPerSide)}
	for layer := 0; layer < a.config.Layers; layer++ {
		tex := scene.NewTexture(a.config.PageSize, a.config.PageSize, a.config.Format, nil)
		p.texIDs = append(p.texIDs, tex.ID)
		changes.Append(&scene.AddTextureReq{Texture: tex})
	}

	for i := range a.pages {
		if a.pages[i] == nil {
			a.pages[i] = p
			return i
		}
	}
	a.pages = append(a.pages, p)
	glog.V(2).Infof("atlas: page %d created (%d layers)", len(a.pages)-1, a.config.Layers)
	return len(a.pages) - 1
}

func (a *DynamicAtlas) removePage(idx int, changes *scene.ChangeSet) {
	for _, id := range a.pages[idx].texIDs {
		changes.Append(&scene.RemTextureReq{TexID: id})
	}
	a.pages[idx] = nil
	glog.V(2).Infof("atlas: page %d removed", idx)
}
