package elevation

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/png"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Decodes a Terrarium encoded image: height = R*256 + G + B/256 - 32768
func DecodeTerrarium(encoded []byte) (*Chunk, error) {
	img, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.New("terrarium decode failed").
			WithType(ErrTypeMalformedElevation).
			Wrap(err)
	}
	return TerrariumFromImage(img)
}

func TerrariumFromImage(img image.Image) (*Chunk, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		// images are stored north up, chunks south up
		row := h - 1 - y
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			height := float64(r>>8)*256 + float64(g>>8) + float64(bl>>8)/256 - 32768
			data[row*w+x] = float32(height)
		}
	}
	return NewChunk(w, h, data)
}

// Decodes little endian float32 samples, rows from the south
func DecodeRawFloat32(data []byte, width, height int) (*Chunk, error) {
	if len(data) != width*height*4 {
		return nil, errors.New("raw elevation size mismatch").
			WithType(ErrTypeMalformedElevation).
			WithTag("bytes", len(data))
	}
	samples := make([]float32, width*height)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return NewChunk(width, height, samples)
}

// Decodes little endian int16 samples, rows from the south
func DecodeRawInt16(data []byte, width, height int) (*Chunk, error) {
	if len(data) != width*height*2 {
		return nil, errors.New("raw elevation size mismatch").
			WithType(ErrTypeMalformedElevation).
			WithTag("bytes", len(data))
	}
	samples := make([]float32, width*height)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return NewChunk(width, height, samples)
}
