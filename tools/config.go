package tools

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/pelletier/go-toml/v2"
)

const ErrTypeInvalidConfig = "invalid_config"

// Decodes loader options from a TOML file on top of the given defaults. Keys absent from the
// file keep their default value.
func LoadLoaderOptions(filePath string, defaults tiler.LoaderOptions) (tiler.LoaderOptions, error) {
	opts := defaults

	data, err := os.ReadFile(filePath)
	if err != nil {
		return opts, errors.New("cannot read config file").
			WithType(ErrTypeInvalidConfig).
			WithTag("path", filePath).
			Wrap(err)
	}

	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, errors.New("cannot decode config file").
			WithType(ErrTypeInvalidConfig).
			WithTag("path", filePath).
			Wrap(err)
	}

	opts.ImageType = tiler.ParseImageType(string(opts.ImageType))
	opts.TileScale = tiler.ParseTileScale(string(opts.TileScale))
	return opts, opts.Validate()
}
