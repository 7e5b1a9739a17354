package scene

import "fmt"

// Pixel layout of a texture
type PixelFormat int

const (
	FormatRGBA8888 PixelFormat = iota
	FormatRGB565
	FormatRGBA4444
	FormatRGBA5551
	FormatUByte
	FormatPVRTC4
)

var pixelFormatNames = map[PixelFormat]string{
	FormatRGBA8888: "RGBA8888",
	FormatRGB565:   "RGB565",
	FormatRGBA4444: "RGBA4444",
	FormatRGBA5551: "RGBA5551",
	FormatUByte:    "UByte",
	FormatPVRTC4:   "PVRTC4",
}

func (f PixelFormat) String() string {
	if name, ok := pixelFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// Bytes per pixel for uncompressed formats, 0 for compressed ones
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888:
		return 4
	case FormatRGB565, FormatRGBA4444, FormatRGBA5551:
		return 2
	case FormatUByte:
		return 1
	}
	return 0
}

func (f PixelFormat) Compressed() bool {
	return f == FormatPVRTC4
}

// Texture ready to be handed to the renderer
type Texture struct {
	ID     Identity
	Width  int
	Height int
	Format PixelFormat
	Border int    // pixels of border still present in Pix, to be skipped by texture coordinates
	Pix    []byte // pixel data laid out row by row from the top, or compressed payload
}

func NewTexture(width, height int, format PixelFormat, pix []byte) *Texture {
	return &Texture{
		ID:     NewIdentity(),
		Width:  width,
		Height: height,
		Format: format,
		Pix:    pix,
	}
}
