package io

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/elevation"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/tools"
	"github.com/golang/glog"
)

const (
	ErrTypeReadFailed    = "read_failed"
	ErrTypeUnknownFormat = "unknown_format"
)

type StandardConsumer struct {
	imageFinder     tools.FileFinder
	elevationFinder tools.FileFinder
	roots           []string
	elevationRoot   string
	rawTileSize     int
}

func NewStandardConsumer(config FileSourceConfig) *StandardConsumer {
	return &StandardConsumer{
		imageFinder:     tools.NewStandardFileFinder(config.Extension, config.TMS),
		elevationFinder: tools.NewStandardFileFinder(".png", config.TMS),
		roots:           config.Roots,
		elevationRoot:   config.ElevationRoot,
		rawTileSize:     config.RawTileSize,
	}
}

// Continually consumes WorkUnits submitted to the work channel and reports the content of each
// tile to its receiver. Stops when the context is done.
func (c *StandardConsumer) Consume(ctx context.Context, workchan chan *WorkUnit, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case work := <-workchan:
			c.doWork(work)
		}
	}
}

func (c *StandardConsumer) doWork(work *WorkUnit) {
	content, err := c.readTile(work)
	result := resultLoaded

	switch {
	case err != nil:
		result = resultFailed
		glog.Warningf("fetch of %v failed: %v", work.Ident, err)
		work.Receiver.DataSourceFailed(work.Ident, err)
	case content.IsPlaceholder():
		result = resultPlaceholder
		work.Receiver.DataSourceLoadedTile(work.Ident, content)
	default:
		work.Receiver.DataSourceLoadedTile(work.Ident, content)
	}

	if !work.Queued.IsZero() {
		fetchDuration.WithLabelValues(result).Observe(time.Since(work.Queued).Seconds())
	}
}

// Reads every image layer and the elevation of a tile. A layer without a file turns the tile
// into a placeholder, or into an elevation only tile when elevation was found.
func (c *StandardConsumer) readTile(work *WorkUnit) (*imagery.LoadedTile, error) {
	chunk, err := c.readElevation(work)
	if err != nil {
		return nil, err
	}

	images := make([]imagery.LoadedImage, 0, len(c.roots))
	missing := false
	for _, root := range c.roots {
		path, ok := c.imageFinder.FindTile(root, work.Ident)
		if !ok {
			missing = true
			break
		}
		data, ok, err := tools.ReadFileIfExists(path)
		if err != nil {
			return nil, readFailed(path, err)
		}
		if !ok {
			missing = true
			break
		}
		img, err := c.classify(path, data)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	if missing {
		glog.V(3).Infof("tile %v: image missing", work.Ident)
		if chunk != nil {
			return imagery.TileFromElevation(chunk), nil
		}
		placeholders := make([]imagery.LoadedImage, len(c.roots))
		for i := range placeholders {
			placeholders[i] = imagery.PlaceholderImage()
		}
		return imagery.TileFromImages(placeholders...), nil
	}

	return &imagery.LoadedTile{Images: images, Elevation: chunk}, nil
}

func (c *StandardConsumer) readElevation(work *WorkUnit) (*elevation.Chunk, error) {
	if c.elevationRoot == "" {
		return nil, nil
	}
	path, ok := c.elevationFinder.FindTile(c.elevationRoot, work.Ident)
	if !ok {
		return nil, nil
	}
	data, ok, err := tools.ReadFileIfExists(path)
	if err != nil {
		return nil, readFailed(path, err)
	}
	if !ok {
		return nil, nil
	}
	return elevation.DecodeTerrarium(data)
}

func (c *StandardConsumer) classify(path string, data []byte) (imagery.LoadedImage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pvr":
		// 4 bits per pixel, square
		size := int(math.Sqrt(float64(len(data) * 2)))
		return imagery.NewPVRTCImage(data, size), nil
	case ".rgba":
		if c.rawTileSize <= 0 {
			return imagery.LoadedImage{}, errors.New("raw tile size not configured").
				WithType(ErrTypeUnknownFormat).
				WithTag("path", path)
		}
		return imagery.NewRawRGBAImage(data, c.rawTileSize, c.rawTileSize), nil
	}
	return imagery.NewEncodedImage(data), nil
}

func readFailed(path string, err error) error {
	return errors.New("tile read failed").
		WithType(ErrTypeReadFailed).
		WithTag("path", path).
		Wrap(err)
}
