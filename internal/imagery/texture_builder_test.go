package imagery

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBuildTexture(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	none := TextureSettings{Format: scene.FormatRGBA8888, Scale: ScaleNone}

	t.Run("native image", func(t *testing.T) {
		tex, err := BuildTexture(NewNativeImage(solidImage(4, 4, red)), none)
		require.NoError(t, err)
		require.Equal(t, 4, tex.Width)
		require.Equal(t, 4, tex.Height)
		require.Len(t, tex.Pix, 64)
		require.Equal(t, []byte{255, 0, 0, 255}, tex.Pix[:4])
		require.NotEqual(t, scene.EmptyIdentity, tex.ID)
	})

	t.Run("encoded png with border", func(t *testing.T) {
		img := solidImage(6, 6, color.RGBA{B: 255, A: 255})
		for i := 0; i < 6; i++ {
			img.SetRGBA(i, 0, red)
			img.SetRGBA(0, i, red)
		}
		tex, err := BuildTexture(NewEncodedImage(encodePNG(t, img)).WithBorder(1), none)
		require.NoError(t, err)
		require.Equal(t, 4, tex.Width)
		require.Equal(t, []byte{0, 0, 255, 255}, tex.Pix[:4])
		require.Zero(t, tex.Border)
	})

	t.Run("raw rgba", func(t *testing.T) {
		tex, err := BuildTexture(NewRawRGBAImage(make([]byte, 2*2*4), 2, 2), none)
		require.NoError(t, err)
		require.Equal(t, 2, tex.Width)

		_, err = BuildTexture(NewRawRGBAImage(make([]byte, 7), 2, 2), none)
		require.Equal(t, ErrTypeMalformedContent, errors.Type(err))
	})

	t.Run("undecodable payload", func(t *testing.T) {
		_, err := BuildTexture(NewEncodedImage([]byte("definitely not an image")), none)
		require.Error(t, err)
		require.Equal(t, ErrTypeMalformedContent, errors.Type(err))
	})

	t.Run("compressed passthrough", func(t *testing.T) {
		tex, err := BuildTexture(NewPVRTCImage(make([]byte, 8*8/2), 8).WithBorder(1), none)
		require.NoError(t, err)
		require.Equal(t, scene.FormatPVRTC4, tex.Format)
		require.Equal(t, 1, tex.Border)

		_, err = BuildTexture(NewPVRTCImage(make([]byte, 10), 8), none)
		require.Error(t, err)
	})

	t.Run("compressed with negative border", func(t *testing.T) {
		_, err := BuildTexture(NewPVRTCImage(make([]byte, 8*8/2), 8).WithBorder(-1), none)
		require.Error(t, err)
		require.Equal(t, ErrTypeMalformedContent, errors.Type(err))
	})

	t.Run("placeholder has no texture", func(t *testing.T) {
		_, err := BuildTexture(PlaceholderImage(), none)
		require.Error(t, err)
	})

	t.Run("scaling policies", func(t *testing.T) {
		img := NewNativeImage(solidImage(100, 60, red))

		tex, err := BuildTexture(img, TextureSettings{Format: scene.FormatRGBA8888, Scale: ScaleUp})
		require.NoError(t, err)
		require.Equal(t, []int{128, 64}, []int{tex.Width, tex.Height})

		tex, err = BuildTexture(img, TextureSettings{Format: scene.FormatRGBA8888, Scale: ScaleDown})
		require.NoError(t, err)
		require.Equal(t, []int{64, 32}, []int{tex.Width, tex.Height})

		tex, err = BuildTexture(img, TextureSettings{Format: scene.FormatRGBA8888, Scale: ScaleFixed, FixedSize: 256})
		require.NoError(t, err)
		require.Equal(t, []int{256, 256}, []int{tex.Width, tex.Height})
		require.Len(t, tex.Pix, 256*256*4)
	})

	t.Run("pixel formats", func(t *testing.T) {
		img := NewNativeImage(solidImage(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
		for format, expected := range map[scene.PixelFormat]uint16{
			scene.FormatRGB565:   0xffff,
			scene.FormatRGBA4444: 0xffff,
			scene.FormatRGBA5551: 0xffff,
		} {
			tex, err := BuildTexture(img, TextureSettings{Format: format, Scale: ScaleNone})
			require.NoError(t, err)
			require.Equal(t, expected, binary.LittleEndian.Uint16(tex.Pix), format.String())
		}

		tex, err := BuildTexture(img, TextureSettings{Format: scene.FormatUByte, Scale: ScaleNone})
		require.NoError(t, err)
		require.Equal(t, []byte{255}, tex.Pix)

		tex, err = BuildTexture(img, TextureSettings{Format: scene.FormatPVRTC4, Scale: ScaleNone})
		require.NoError(t, err)
		require.Equal(t, scene.FormatRGBA8888, tex.Format)
	})
}

func TestRGB565Packing(t *testing.T) {
	img := solidImage(1, 1, color.RGBA{R: 255, A: 255})
	out := ConvertPixels(img, scene.FormatRGB565)
	require.Equal(t, uint16(0xf800), binary.LittleEndian.Uint16(out))
}

func TestLoadedTilePlaceholder(t *testing.T) {
	require.True(t, TileFromImage(PlaceholderImage()).IsPlaceholder())
	require.True(t, TileFromImages(PlaceholderImage(), PlaceholderImage()).IsPlaceholder())
	require.False(t, TileFromImages(PlaceholderImage(), NewEncodedImage(nil)).IsPlaceholder())

	chunk, err := elevation.NewChunk(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.False(t, TileFromElevation(chunk).IsPlaceholder())
}

func TestPowerOfTwo(t *testing.T) {
	require.True(t, IsPowerOfTwo(256))
	require.False(t, IsPowerOfTwo(255))
	require.Equal(t, 256, NextPowerOfTwo(255))
	require.Equal(t, 256, NextPowerOfTwo(256))
	require.Equal(t, 128, PrevPowerOfTwo(255))
	require.Equal(t, 1, PrevPowerOfTwo(0))
}
