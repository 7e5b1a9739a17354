package scene

import (
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/glog"
)

const (
	ErrTypeDuplicateIdentity = "scene_duplicate_identity"
	ErrTypeUnknownIdentity   = "scene_unknown_identity"
	ErrTypeBadTextureRegion  = "scene_bad_texture_region"
)

// MemScene is an in-memory Scene. It applies every batch atomically and in order: a batch
// with a request that references identities in an inconsistent way is rejected as a whole
// and its errors are kept.
type MemScene struct {
	drawables map[Identity]*Drawable
	textures  map[Identity]*Texture
	batches   []ChangeSet
	rejected  int
	errs      []error
	sync.RWMutex
}

func NewMemScene() *MemScene {
	return &MemScene{
		drawables: map[Identity]*Drawable{},
		textures:  map[Identity]*Texture{},
	}
}

func (s *MemScene) AddChangeRequests(changes ChangeSet) {
	if len(changes) == 0 {
		return
	}

	s.Lock()
	defer s.Unlock()

	batch := make(ChangeSet, len(changes))
	copy(batch, changes)

	if errs := s.check(batch); len(errs) > 0 {
		for _, err := range errs {
			glog.Errorf("scene: %v", err)
		}
		glog.Errorf("scene: batch of %d requests rejected", len(batch))
		s.errs = append(s.errs, errs...)
		s.rejected++
		return
	}

	s.batches = append(s.batches, batch)
	for _, req := range batch {
		s.apply(req)
	}
}

// Replays the batch against the identities it would see, without touching the scene
func (s *MemScene) check(batch ChangeSet) []error {
	drawables := map[Identity]bool{}
	textures := map[Identity]*Texture{}

	hasDrawable := func(id Identity) bool {
		if present, ok := drawables[id]; ok {
			return present
		}
		_, ok := s.drawables[id]
		return ok
	}
	texture := func(id Identity) *Texture {
		if tex, ok := textures[id]; ok {
			return tex
		}
		return s.textures[id]
	}

	var errs []error
	for _, req := range batch {
		switch r := req.(type) {
		case *AddDrawableReq:
			if hasDrawable(r.Drawable.ID) {
				errs = append(errs, s.newError(ErrTypeDuplicateIdentity, req))
				continue
			}
			drawables[r.Drawable.ID] = true

		case *RemDrawableReq:
			if !hasDrawable(r.DrawID) {
				errs = append(errs, s.newError(ErrTypeUnknownIdentity, req))
				continue
			}
			drawables[r.DrawID] = false

		case *AddTextureReq:
			if texture(r.Texture.ID) != nil {
				errs = append(errs, s.newError(ErrTypeDuplicateIdentity, req))
				continue
			}
			textures[r.Texture.ID] = r.Texture

		case *RemTextureReq:
			if texture(r.TexID) == nil {
				errs = append(errs, s.newError(ErrTypeUnknownIdentity, req))
				continue
			}
			textures[r.TexID] = nil

		case *UpdateTextureRegionReq:
			tex := texture(r.TexID)
			if tex == nil {
				errs = append(errs, s.newError(ErrTypeUnknownIdentity, req))
				continue
			}
			if !regionFits(tex, r) {
				errs = append(errs, s.newError(ErrTypeBadTextureRegion, req))
			}

		default:
			if !hasDrawable(req.Target()) {
				errs = append(errs, s.newError(ErrTypeUnknownIdentity, req))
			}
		}
	}
	return errs
}

// Applies a request of a checked batch
func (s *MemScene) apply(req ChangeRequest) {
	switch r := req.(type) {
	case *AddDrawableReq:
		draw := *r.Drawable
		s.drawables[draw.ID] = &draw

	case *RemDrawableReq:
		delete(s.drawables, r.DrawID)

	case *AddTextureReq:
		tex := *r.Texture
		tex.Pix = append([]byte(nil), r.Texture.Pix...)
		s.textures[tex.ID] = &tex

	case *RemTextureReq:
		delete(s.textures, r.TexID)

	case *UpdateTextureRegionReq:
		s.updateRegion(s.textures[r.TexID], r)

	default:
		draw := s.drawables[req.Target()]
		switch r := req.(type) {
		case *OnOffReq:
			draw.On = r.On
		case *VisibilityReq:
			draw.MinVis, draw.MaxVis = r.MinVis, r.MaxVis
		case *TexLayerReq:
			draw.ActiveLayer = r.Layer
		case *ColorReq:
			draw.Color = r.Color
		}
	}
}

func regionFits(tex *Texture, r *UpdateTextureRegionReq) bool {
	bpp := tex.Format.BytesPerPixel()
	return bpp > 0 && r.X >= 0 && r.Y >= 0 && r.X+r.Width <= tex.Width && r.Y+r.Height <= tex.Height &&
		len(r.Pix) >= r.Width*r.Height*bpp
}

func (s *MemScene) updateRegion(tex *Texture, r *UpdateTextureRegionReq) {
	bpp := tex.Format.BytesPerPixel()
	if len(tex.Pix) < tex.Width*tex.Height*bpp {
		tex.Pix = make([]byte, tex.Width*tex.Height*bpp)
	}
	rowLen := r.Width * bpp
	for row := 0; row < r.Height; row++ {
		dst := ((r.Y+row)*tex.Width + r.X) * bpp
		copy(tex.Pix[dst:dst+rowLen], r.Pix[row*rowLen:(row+1)*rowLen])
	}
}

func (s *MemScene) newError(errType string, req ChangeRequest) error {
	return errors.New("inconsistent change request").
		WithType(errType).
		WithTag("kind", req.Kind().String()).
		WithTag("target", req.Target().String())
}

func (s *MemScene) Drawable(id Identity) (*Drawable, bool) {
	s.RLock()
	defer s.RUnlock()
	draw, ok := s.drawables[id]
	return draw, ok
}

func (s *MemScene) Texture(id Identity) (*Texture, bool) {
	s.RLock()
	defer s.RUnlock()
	tex, ok := s.textures[id]
	return tex, ok
}

func (s *MemScene) NumDrawables() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.drawables)
}

func (s *MemScene) NumTextures() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.textures)
}

// Drawables switched on, sorted by identity
func (s *MemScene) VisibleDrawables() []*Drawable {
	s.RLock()
	defer s.RUnlock()
	var out []*Drawable
	for _, draw := range s.drawables {
		if draw.On {
			out = append(out, draw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Batches applied so far, in order
func (s *MemScene) Batches() []ChangeSet {
	s.RLock()
	defer s.RUnlock()
	out := make([]ChangeSet, len(s.batches))
	copy(out, s.batches)
	return out
}

// Total number of requests applied so far
func (s *MemScene) NumRequests() int {
	s.RLock()
	defer s.RUnlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

// Number of batches rejected as a whole
func (s *MemScene) Rejected() int {
	s.RLock()
	defer s.RUnlock()
	return s.rejected
}

func (s *MemScene) Errors() []error {
	s.RLock()
	defer s.RUnlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}
