package tools

import (
	"path/filepath"
	"testing"

	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/stretchr/testify/require"
)

func TestStandardFileFinder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "0", "0", "0.png"), "x")
	writeFile(t, filepath.Join(root, "1", "0", "0.png"), "x")
	writeFile(t, filepath.Join(root, "1", "1", "0.jpg"), "x")
	writeFile(t, filepath.Join(root, "1", "1", "notes.txt"), "x")

	t.Run("xyz rows", func(t *testing.T) {
		finder := NewStandardFileFinder("", false)

		// row 1 is the northern half, y 0 in xyz addressing
		path, ok := finder.FindTile(root, quadtree.NewIdentifier(1, 1, 0))
		require.True(t, ok)
		require.Equal(t, filepath.Join(root, "1", "0", "0.png"), path)

		path, ok = finder.FindTile(root, quadtree.NewIdentifier(1, 1, 1))
		require.True(t, ok)
		require.Equal(t, filepath.Join(root, "1", "1", "0.jpg"), path)

		_, ok = finder.FindTile(root, quadtree.NewIdentifier(1, 0, 0))
		require.False(t, ok)
	})

	t.Run("tms rows", func(t *testing.T) {
		finder := NewStandardFileFinder("png", true)

		_, ok := finder.FindTile(root, quadtree.NewIdentifier(1, 0, 0))
		require.True(t, ok)
		_, ok = finder.FindTile(root, quadtree.NewIdentifier(1, 0, 1))
		require.False(t, ok)
	})

	t.Run("count tiles", func(t *testing.T) {
		counts, err := NewStandardFileFinder("", false).CountTiles(root)
		require.NoError(t, err)
		require.Equal(t, map[int]int{0: 1, 1: 2}, counts)
		require.Equal(t, []int{0, 1}, SortedLevels(counts))
	})
}
