package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/golang/glog"
)

// Extensions probed, in order, when a tile extension is not configured
var DefaultTileExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff", ".pvr", ".rgba"}

// Locates tiles stored as <root>/<z>/<x>/<y>.<ext>
type FileFinder interface {
	// Returns the path of the tile and true when a file exists for it
	FindTile(root string, ident quadtree.Identifier) (string, bool)
	// Counts the tiles present under root, per level
	CountTiles(root string) (map[int]int, error)
}

type StandardFileFinder struct {
	extensions []string
	tms        bool
}

// Builds a finder. An empty extension probes DefaultTileExtensions. With tms the y folder
// component counts rows from the south, otherwise from the north.
func NewStandardFileFinder(extension string, tms bool) FileFinder {
	extensions := DefaultTileExtensions
	if extension != "" {
		if !strings.HasPrefix(extension, ".") {
			extension = "." + extension
		}
		extensions = []string{strings.ToLower(extension)}
	}
	return &StandardFileFinder{
		extensions: extensions,
		tms:        tms,
	}
}

func (f *StandardFileFinder) TilePath(root string, ident quadtree.Identifier, extension string) string {
	y := ident.Row
	if !f.tms {
		y = int(ident.MapTile().Y)
	}
	return filepath.Join(root, strconv.Itoa(ident.Level), strconv.Itoa(ident.Col), strconv.Itoa(y)+extension)
}

func (f *StandardFileFinder) FindTile(root string, ident quadtree.Identifier) (string, bool) {
	for _, ext := range f.extensions {
		path := f.TilePath(root, ident, ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (f *StandardFileFinder) CountTiles(root string) (map[int]int, error) {
	counts := map[int]int{}
	rootDir := strings.TrimSuffix(filepath.Clean(root), string(filepath.Separator)) + string(filepath.Separator)
	tileDepth := 2

	err := filepath.Walk(
		rootDir,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel := strings.TrimPrefix(path, rootDir)
			pathDepth := strings.Count(rel, string(filepath.Separator))

			if info.IsDir() {
				if pathDepth > tileDepth-1 && rel != "" {
					return filepath.SkipDir
				}
				return nil
			}
			if pathDepth != tileDepth || !f.hasTileExtension(info.Name()) {
				return nil
			}
			level, err := strconv.Atoi(strings.Split(rel, string(filepath.Separator))[0])
			if err != nil {
				glog.V(2).Infof("skipping %s: not under a level folder", path)
				return nil
			}
			counts[level]++
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (f *StandardFileFinder) hasTileExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range f.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Levels of a count map in increasing order
func SortedLevels(counts map[int]int) []int {
	levels := make([]int, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}
