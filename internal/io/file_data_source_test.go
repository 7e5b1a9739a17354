package io

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/stretchr/testify/require"
)

type result struct {
	ident quadtree.Identifier
	tile  *imagery.LoadedTile
	err   error
}

type recordingReceiver struct {
	results chan result
}

func newRecordingReceiver() *recordingReceiver {
	return &recordingReceiver{results: make(chan result, 16)}
}

func (r *recordingReceiver) DataSourceLoadedTile(ident quadtree.Identifier, tile *imagery.LoadedTile) {
	r.results <- result{ident: ident, tile: tile}
}

func (r *recordingReceiver) DataSourceLoadedImage(ident quadtree.Identifier, img imagery.LoadedImage) {
	r.DataSourceLoadedTile(ident, imagery.TileFromImage(img))
}

func (r *recordingReceiver) DataSourceLoadedElevation(ident quadtree.Identifier, chunk *elevation.Chunk) {
	r.DataSourceLoadedTile(ident, imagery.TileFromElevation(chunk))
}

func (r *recordingReceiver) DataSourceFailed(ident quadtree.Identifier, err error) {
	r.results <- result{ident: ident, err: err}
}

func (r *recordingReceiver) next(t *testing.T) result {
	select {
	case res := <-r.results:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no fetch result")
		return result{}
	}
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0666))
}

func TestFileDataSource(t *testing.T) {
	imageRoot := t.TempDir()
	elevationRoot := t.TempDir()

	// xyz addressing: level 1, row 1 (north), col 0 is 1/0/0
	writePNG(t, filepath.Join(imageRoot, "0", "0", "0.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(imageRoot, "1", "0", "0.png"), color.RGBA{G: 255, A: 255})
	// terrarium 0 m is R=128 G=0 B=0
	writePNG(t, filepath.Join(elevationRoot, "1", "1", "0.png"), color.RGBA{R: 128, A: 255})

	source := NewFileDataSource(FileSourceConfig{
		Roots:         []string{imageRoot},
		ElevationRoot: elevationRoot,
		Workers:       2,
	})
	defer source.Close()
	require.Equal(t, 2, source.MaxSimultaneousFetches())

	receiver := newRecordingReceiver()

	t.Run("image tile", func(t *testing.T) {
		ident := quadtree.NewIdentifier(1, 1, 0)
		source.StartFetch(receiver, ident, nil)

		res := receiver.next(t)
		require.NoError(t, res.err)
		require.Equal(t, ident, res.ident)
		require.Len(t, res.tile.Images, 1)
		require.Equal(t, imagery.KindEncoded, res.tile.Images[0].Kind)
		require.Nil(t, res.tile.Elevation)
		require.False(t, res.tile.IsPlaceholder())
	})

	t.Run("missing tile", func(t *testing.T) {
		ident := quadtree.NewIdentifier(1, 1, 1)
		source.StartFetch(receiver, quadtree.NewIdentifier(1, 0, 1), nil)

		res := receiver.next(t)
		require.NoError(t, res.err)
		require.True(t, res.tile.IsPlaceholder())

		// elevation alone still makes a tile
		source.StartFetch(receiver, ident, nil)
		res = receiver.next(t)
		require.NoError(t, res.err)
		require.Empty(t, res.tile.Images)
		require.NotNil(t, res.tile.Elevation)
		require.Equal(t, 4, res.tile.Elevation.Width)
		require.InDelta(t, 0, res.tile.Elevation.At(0, 0), 1e-3)
	})
}

func TestFileDataSourceClose(t *testing.T) {
	source := NewFileDataSource(FileSourceConfig{Roots: []string{t.TempDir()}, Workers: 1})
	source.Close()

	receiver := newRecordingReceiver()
	source.StartFetch(receiver, quadtree.NewIdentifier(0, 0, 0), nil)

	select {
	case <-receiver.results:
		t.Fatal("fetch answered after close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClassify(t *testing.T) {
	consumer := NewStandardConsumer(FileSourceConfig{RawTileSize: 2})

	img, err := consumer.classify("a/b/c.pvr", make([]byte, 32*32/2))
	require.NoError(t, err)
	require.Equal(t, imagery.KindCompressed, img.Kind)
	require.Equal(t, 32, img.Width)

	img, err = consumer.classify("a/b/c.RGBA", make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, imagery.KindRawRGBA, img.Kind)
	require.Equal(t, 2, img.Height)

	_, err = NewStandardConsumer(FileSourceConfig{}).classify("c.rgba", nil)
	require.Error(t, err)
}
