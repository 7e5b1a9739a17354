package scene

import (
	"image/color"
)

type RequestKind int

const (
	KindAddDrawable RequestKind = iota
	KindRemDrawable
	KindAddTexture
	KindRemTexture
	KindUpdateTextureRegion
	KindOnOff
	KindVisibility
	KindTexLayer
	KindColor
)

var requestKindNames = [...]string{
	KindAddDrawable:         "add_drawable",
	KindRemDrawable:         "rem_drawable",
	KindAddTexture:          "add_texture",
	KindRemTexture:          "rem_texture",
	KindUpdateTextureRegion: "update_texture_region",
	KindOnOff:               "on_off",
	KindVisibility:          "visibility",
	KindTexLayer:            "tex_layer",
	KindColor:               "color",
}

func (k RequestKind) String() string {
	if int(k) >= 0 && int(k) < len(requestKindNames) {
		return requestKindNames[k]
	}
	return "unknown"
}

// A single mutation of the scene. Requests are only ever applied by the scene itself, in order.
type ChangeRequest interface {
	Kind() RequestKind
	// Drawable or texture the request applies to
	Target() Identity
}

type AddDrawableReq struct {
	Drawable *Drawable
}

type RemDrawableReq struct {
	DrawID Identity
}

type AddTextureReq struct {
	Texture *Texture
}

type RemTextureReq struct {
	TexID Identity
}

// Uploads pixels into a region of an existing texture
type UpdateTextureRegionReq struct {
	TexID  Identity
	X, Y   int
	Width  int
	Height int
	Pix    []byte
}

type OnOffReq struct {
	DrawID Identity
	On     bool
}

type VisibilityReq struct {
	DrawID Identity
	MinVis float64
	MaxVis float64
}

// Switches the texture layer a drawable samples from
type TexLayerReq struct {
	DrawID Identity
	Layer  int
}

type ColorReq struct {
	DrawID Identity
	Color  color.RGBA
}

func (r *AddDrawableReq) Kind() RequestKind         { return KindAddDrawable }
func (r *AddDrawableReq) Target() Identity          { return r.Drawable.ID }
func (r *RemDrawableReq) Kind() RequestKind         { return KindRemDrawable }
func (r *RemDrawableReq) Target() Identity          { return r.DrawID }
func (r *AddTextureReq) Kind() RequestKind          { return KindAddTexture }
func (r *AddTextureReq) Target() Identity           { return r.Texture.ID }
func (r *RemTextureReq) Kind() RequestKind          { return KindRemTexture }
func (r *RemTextureReq) Target() Identity           { return r.TexID }
func (r *UpdateTextureRegionReq) Kind() RequestKind { return KindUpdateTextureRegion }
func (r *UpdateTextureRegionReq) Target() Identity  { return r.TexID }
func (r *OnOffReq) Kind() RequestKind               { return KindOnOff }
func (r *OnOffReq) Target() Identity                { return r.DrawID }
func (r *VisibilityReq) Kind() RequestKind          { return KindVisibility }
func (r *VisibilityReq) Target() Identity           { return r.DrawID }
func (r *TexLayerReq) Kind() RequestKind            { return KindTexLayer }
func (r *TexLayerReq) Target() Identity             { return r.DrawID }
func (r *ColorReq) Kind() RequestKind               { return KindColor }
func (r *ColorReq) Target() Identity                { return r.DrawID }

// Ordered batch of change requests, applied atomically by the scene
type ChangeSet []ChangeRequest

func (cs *ChangeSet) Append(reqs ...ChangeRequest) {
	*cs = append(*cs, reqs...)
}

func (cs ChangeSet) Len() int {
	return len(cs)
}

// Number of requests per kind
func (cs ChangeSet) Counts() map[RequestKind]int {
	counts := map[RequestKind]int{}
	for _, req := range cs {
		counts[req.Kind()]++
	}
	return counts
}

// Scene is whatever owns drawables and textures. It is the only writer of its own state and
// receives every mutation as a ChangeSet.
type Scene interface {
	AddChangeRequests(changes ChangeSet)
}
