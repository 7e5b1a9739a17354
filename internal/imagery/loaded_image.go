package imagery

import (
	"image"

	"github.com/ecopia-map/quadtile_loader/internal/elevation"
)

// Payload carried by a LoadedImage
type ImageKind int

const (
	KindNative      ImageKind = iota // decoded image.Image
	KindEncoded                      // PNG, JPEG, WebP, BMP or TIFF bytes
	KindRawRGBA                      // 8 bit RGBA pixels, dimensions given explicitly
	KindCompressed                   // PVRTC4 payload, square, dimensions given explicitly
	KindPlaceholder                  // no content, keeps the tile pageable
)

func (k ImageKind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindEncoded:
		return "encoded"
	case KindRawRGBA:
		return "raw_rgba"
	case KindCompressed:
		return "pvrtc4"
	case KindPlaceholder:
		return "placeholder"
	}
	return "unknown"
}

// One image layer of a tile as delivered by a data source
type LoadedImage struct {
	Kind       ImageKind
	Image      image.Image
	Data       []byte
	Width      int
	Height     int
	BorderSize int // pixels to strip on every side before display
}

func NewNativeImage(img image.Image) LoadedImage {
	b := img.Bounds()
	return LoadedImage{Kind: KindNative, Image: img, Width: b.Dx(), Height: b.Dy()}
}

func NewEncodedImage(data []byte) LoadedImage {
	return LoadedImage{Kind: KindEncoded, Data: data}
}

func NewRawRGBAImage(data []byte, width, height int) LoadedImage {
	return LoadedImage{Kind: KindRawRGBA, Data: data, Width: width, Height: height}
}

func NewPVRTCImage(data []byte, size int) LoadedImage {
	return LoadedImage{Kind: KindCompressed, Data: data, Width: size, Height: size}
}

func PlaceholderImage() LoadedImage {
	return LoadedImage{Kind: KindPlaceholder}
}

func (img LoadedImage) WithBorder(border int) LoadedImage {
	img.BorderSize = border
	return img
}

func (img LoadedImage) IsPlaceholder() bool {
	return img.Kind == KindPlaceholder
}

// Content delivered for one tile: one image per layer plus optional elevation
type LoadedTile struct {
	Images    []LoadedImage
	Elevation *elevation.Chunk
}

func TileFromImage(img LoadedImage) *LoadedTile {
	return &LoadedTile{Images: []LoadedImage{img}}
}

func TileFromImages(imgs ...LoadedImage) *LoadedTile {
	return &LoadedTile{Images: imgs}
}

func TileFromElevation(chunk *elevation.Chunk) *LoadedTile {
	return &LoadedTile{Elevation: chunk}
}

// True when there is nothing to display: every image is a placeholder and there is no elevation
func (t *LoadedTile) IsPlaceholder() bool {
	if t.Elevation != nil {
		return false
	}
	for _, img := range t.Images {
		if !img.IsPlaceholder() {
			return false
		}
	}
	return true
}
