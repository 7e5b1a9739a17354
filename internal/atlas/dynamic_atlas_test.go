package atlas

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func cellTextures(n, size int) []*scene.Texture {
	var out []*scene.Texture
	for i := 0; i < n; i++ {
		out = append(out, scene.NewTexture(size, size, scene.FormatRGBA8888, make([]byte, size*size*4)))
	}
	return out
}

func TestDynamicAtlasAllocate(t *testing.T) {
	config := Config{PageSize: 8, CellSize: 4, Layers: 2, Format: scene.FormatRGBA8888, MaxPages: 1}

	t.Run("fills a page then reports exhaustion", func(t *testing.T) {
		a := NewDynamicAtlas(config)
		s := scene.NewMemScene()

		var subs []SubTexture
		for i := 0; i < 4; i++ {
			var changes scene.ChangeSet
			sub, err := a.Allocate(cellTextures(2, 4), &changes)
			require.NoError(t, err)
			s.AddChangeRequests(changes)
			subs = append(subs, sub)
		}
		require.Equal(t, 1, a.NumPages())
		require.Equal(t, 2, s.NumTextures())
		require.Empty(t, s.Errors())

		var changes scene.ChangeSet
		_, err := a.Allocate(cellTextures(2, 4), &changes)
		require.Equal(t, ErrTypeAtlasFull, errors.Type(err))
		require.Zero(t, changes.Len())

		// last cell sits in the bottom right quarter of the page
		require.Equal(t, mgl32.Vec2{0.5, 0.5}, subs[3].Org)
		require.Equal(t, mgl32.Vec2{0.75, 1}, subs[3].TexCoord(mgl32.Vec2{0.5, 1}))

		for _, sub := range subs {
			var changes scene.ChangeSet
			a.Release(sub, &changes)
			s.AddChangeRequests(changes)
		}
		require.Zero(t, a.NumPages())
		require.Zero(t, s.NumTextures())
		require.Empty(t, s.Errors())
	})

	t.Run("released cells are reused", func(t *testing.T) {
		a := NewDynamicAtlas(config)
		var changes scene.ChangeSet
		first, err := a.Allocate(cellTextures(2, 4), &changes)
		require.NoError(t, err)
		_, err = a.Allocate(cellTextures(2, 4), &changes)
		require.NoError(t, err)

		a.Release(first, &changes)
		again, err := a.Allocate(cellTextures(2, 4), &changes)
		require.NoError(t, err)
		require.Equal(t, first.Rect, again.Rect)
		require.Equal(t, first.TexIDs, again.TexIDs)
	})

	t.Run("unsupported textures", func(t *testing.T) {
		a := NewDynamicAtlas(config)
		var changes scene.ChangeSet

		_, err := a.Allocate(cellTextures(1, 4), &changes)
		require.Equal(t, ErrTypeAtlasUnsupported, errors.Type(err))

		_, err = a.Allocate(cellTextures(2, 8), &changes)
		require.Equal(t, ErrTypeAtlasUnsupported, errors.Type(err))

		compressed := []*scene.Texture{
			scene.NewTexture(4, 4, scene.FormatPVRTC4, make([]byte, 32)),
			scene.NewTexture(4, 4, scene.FormatPVRTC4, make([]byte, 32)),
		}
		require.False(t, a.Accepts(compressed))
		require.Zero(t, changes.Len())
	})

	t.Run("shutdown removes pages", func(t *testing.T) {
		a := NewDynamicAtlas(Config{PageSize: 8, CellSize: 8, Layers: 1, Format: scene.FormatRGBA8888, MaxPages: 4})
		s := scene.NewMemScene()
		var changes scene.ChangeSet
		for i := 0; i < 3; i++ {
			_, err := a.Allocate(cellTextures(1, 8), &changes)
			require.NoError(t, err)
		}
		require.Equal(t, 3, a.NumPages())
		a.Shutdown(&changes)
		s.AddChangeRequests(changes)
		require.Zero(t, s.NumTextures())
		require.Empty(t, s.Errors())
	})
}
