package imagery

import (
	"encoding/binary"
	"image"

	"github.com/ecopia-map/quadtile_loader/internal/scene"
)

// Packs RGBA pixels into the given uncompressed format. 16 bit formats are little endian.
func ConvertPixels(rgba *image.RGBA, format scene.PixelFormat) []byte {
	if format.Compressed() {
		format = scene.FormatRGBA8888
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	bpp := format.BytesPerPixel()
	out := make([]byte, w*h*bpp)

	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b, a := src[x*4], src[x*4+1], src[x*4+2], src[x*4+3]
			i := (y*w + x) * bpp
			switch format {
			case scene.FormatRGB565:
				binary.LittleEndian.PutUint16(out[i:], uint16(r>>3)<<11|uint16(g>>2)<<5|uint16(b>>3))
			case scene.FormatRGBA4444:
				binary.LittleEndian.PutUint16(out[i:], uint16(r>>4)<<12|uint16(g>>4)<<8|uint16(b>>4)<<4|uint16(a>>4))
			case scene.FormatRGBA5551:
				binary.LittleEndian.PutUint16(out[i:], uint16(r>>3)<<11|uint16(g>>3)<<6|uint16(b>>3)<<1|uint16(a>>7))
			case scene.FormatUByte:
				out[i] = uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
			default:
				copy(out[i:i+4], src[x*4:x*4+4])
			}
		}
	}
	return out
}
