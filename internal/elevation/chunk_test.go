package elevation

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestChunkSample(t *testing.T) {
	chunk, err := NewChunk(2, 2, []float32{0, 10, 20, 30})
	require.NoError(t, err)

	require.InDelta(t, 0, chunk.Sample(0, 0), 1e-9)
	require.InDelta(t, 10, chunk.Sample(1, 0), 1e-9)
	require.InDelta(t, 20, chunk.Sample(0, 1), 1e-9)
	require.InDelta(t, 15, chunk.Sample(0.5, 0.5), 1e-9)
	require.InDelta(t, 30, chunk.Sample(2, 2), 1e-9)

	lo, hi := chunk.MinMax()
	require.Equal(t, 0.0, lo)
	require.Equal(t, 30.0, hi)
}

func TestChunkNoData(t *testing.T) {
	chunk, err := NewChunk(2, 2, []float32{float32(math.NaN()), 4, 4, 4})
	require.NoError(t, err)
	require.InDelta(t, 0, chunk.Sample(0, 0), 1e-9)

	lo, _ := chunk.MinMax()
	require.Equal(t, 4.0, lo)
}

func TestNewChunkRejectsBadGrid(t *testing.T) {
	_, err := NewChunk(3, 3, []float32{1, 2})
	require.Error(t, err)
	require.Equal(t, ErrTypeMalformedElevation, errors.Type(err))
}

func TestDecodeTerrarium(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	// 100 m = 32868 = 128*256 + 100
	img.Set(0, 1, color.NRGBA{R: 128, G: 100, B: 0, A: 255})
	img.Set(1, 1, color.NRGBA{R: 128, G: 100, B: 0, A: 255})
	// -10.5 m = 32757.5 = 127*256 + 245 + 128/256
	img.Set(0, 0, color.NRGBA{R: 127, G: 245, B: 128, A: 255})
	img.Set(1, 0, color.NRGBA{R: 127, G: 245, B: 128, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	chunk, err := DecodeTerrarium(buf.Bytes())
	require.NoError(t, err)
	require.InDelta(t, 100, chunk.Sample(0, 0), 1e-6)
	require.InDelta(t, -10.5, chunk.Sample(1, 1), 1e-6)

	_, err = DecodeTerrarium([]byte("nope"))
	require.Equal(t, ErrTypeMalformedElevation, errors.Type(err))
}

func TestDecodeRaw(t *testing.T) {
	t.Run("float32", func(t *testing.T) {
		data := make([]byte, 16)
		for i, v := range []float32{1, 2, 3, 4.5} {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
		}
		chunk, err := DecodeRawFloat32(data, 2, 2)
		require.NoError(t, err)
		require.Equal(t, float32(4.5), chunk.At(1, 1))

		_, err = DecodeRawFloat32(data[:12], 2, 2)
		require.Error(t, err)
	})

	t.Run("int16", func(t *testing.T) {
		data := make([]byte, 8)
		for i, v := range []int16{-5, 0, 7, 1200} {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
		}
		chunk, err := DecodeRawInt16(data, 2, 2)
		require.NoError(t, err)
		require.Equal(t, float32(-5), chunk.At(0, 0))
		require.Equal(t, float32(1200), chunk.At(1, 1))
	})
}
