package tiler

import (
	"image/color"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/imagery"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
)

const ErrTypeInvalidOptions = "invalid_options"

type ImageType string
type TileScale string

const (
	ImageRGBA   ImageType = "RGBA"
	Image565    ImageType = "565"
	Image4444   ImageType = "4444"
	Image5551   ImageType = "5551"
	ImageUByte  ImageType = "UBYTE"
	ImagePVRTC4 ImageType = "PVRTC4"
)

const (
	// Scale up to the next power of two
	TileScaleUp TileScale = "UP"
	// Scale down to the previous power of two
	TileScaleDown TileScale = "DOWN"
	// Scale to FixedTileSize x FixedTileSize
	TileScaleFixed TileScale = "FIXED"
	TileScaleNone  TileScale = "NONE"
)

func ParseImageType(value string) ImageType {
	switch normalizedValue := strings.Trim(strings.ToUpper(value), " "); normalizedValue {
	case "RGBA", "RGBA8888":
		return ImageRGBA
	case "565", "RGB565":
		return Image565
	case "4444", "RGBA4444":
		return Image4444
	case "5551", "RGBA5551":
		return Image5551
	case "UBYTE":
		return ImageUByte
	case "PVRTC4":
		return ImagePVRTC4
	}
	return ""
}

func (t ImageType) PixelFormat() scene.PixelFormat {
	switch t {
	case Image565:
		return scene.FormatRGB565
	case Image4444:
		return scene.FormatRGBA4444
	case Image5551:
		return scene.FormatRGBA5551
	case ImageUByte:
		return scene.FormatUByte
	case ImagePVRTC4:
		return scene.FormatPVRTC4
	}
	return scene.FormatRGBA8888
}

func ParseTileScale(value string) TileScale {
	switch normalizedValue := strings.Trim(strings.ToUpper(value), " "); normalizedValue {
	case "UP":
		return TileScaleUp
	case "DOWN":
		return TileScaleDown
	case "FIXED":
		return TileScaleFixed
	case "NONE":
		return TileScaleNone
	}
	return ""
}

func (s TileScale) ScaleMode() imagery.ScaleMode {
	switch s {
	case TileScaleUp:
		return imagery.ScaleUp
	case TileScaleDown:
		return imagery.ScaleDown
	case TileScaleFixed:
		return imagery.ScaleFixed
	}
	return imagery.ScaleNone
}

// Contains the options of a quad tile loader
type LoaderOptions struct {
	Name               string     `toml:"name"`                 // Loader name, for debugging
	DrawOffset         int        `toml:"draw_offset"`          // Z offset applied to tile drawables
	DrawPriority       int        `toml:"draw_priority"`        // Sort order of tile drawables
	MinVis             float64    `toml:"min_vis"`              // Min viewer height for drawables, 0 for unbound
	MaxVis             float64    `toml:"max_vis"`              // Max viewer height for drawables, 0 for unbound
	MinPageVis         float64    `toml:"min_page_vis"`         // Min viewer height at which paging happens, 0 for unbound
	MaxPageVis         float64    `toml:"max_page_vis"`         // Max viewer height at which paging happens, 0 for unbound
	ProgramID          uint64     `toml:"program_id"`           // Shader program override, 0 for default
	IncludeElev        bool       `toml:"include_elev"`         // Carry elevation as a per vertex attribute
	UseElevAsZ         bool       `toml:"use_elev_as_z"`        // Displace vertices by elevation
	NumImages          int        `toml:"num_images"`           // Image layers per tile
	Color              color.RGBA `toml:"color"`                // Tint of tile drawables
	HasAlpha           bool       `toml:"has_alpha"`            // Tile images carry transparency
	IgnoreEdgeMatching bool       `toml:"ignore_edge_matching"` // Skip skirts
	CoverPoles         bool       `toml:"cover_poles"`          // Cap the poles on globe displays
	ImageType          ImageType  `toml:"image_type"`           // Texture pixel format
	UseDynamicAtlas    bool       `toml:"use_dynamic_atlas"`    // Pack tile textures into shared pages
	TileScale          TileScale  `toml:"tile_scale"`           // Resizing policy of tile images
	FixedTileSize      int        `toml:"fixed_tile_size"`      // Target size for the FIXED policy
	TextureAtlasSize   int        `toml:"texture_atlas_size"`   // Atlas page size
	MaxAtlasPages      int        `toml:"max_atlas_pages"`      // Atlas pages before allocations fail
	TessX              int        `toml:"tess_x"`               // Grid cells per tile, east-west, without elevation
	TessY              int        `toml:"tess_y"`               // Grid cells per tile, north-south, without elevation
	SkirtFactor        float64    `toml:"skirt_factor"`         // Skirt depth as a fraction of the tile width
	DiagnosticsSeconds float64    `toml:"diagnostics_seconds"`  // Min interval between state dumps in the log
}

func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		UseElevAsZ:         true,
		NumImages:          1,
		Color:              color.RGBA{R: 255, G: 255, B: 255, A: 255},
		ImageType:          ImageRGBA,
		TileScale:          TileScaleNone,
		FixedTileSize:      256,
		TextureAtlasSize:   2048,
		MaxAtlasPages:      16,
		TessX:              10,
		TessY:              10,
		SkirtFactor:        0.05,
		DiagnosticsSeconds: 10,
	}
}

func (opt *LoaderOptions) Validate() error {
	invalid := func(msg string) error {
		return errors.New(msg).WithType(ErrTypeInvalidOptions)
	}

	switch {
	case opt.NumImages < 1:
		return invalid("num_images must be at least 1")
	case opt.FixedTileSize <= 0:
		return invalid("fixed_tile_size must be positive")
	case opt.UseDynamicAtlas && !imagery.IsPowerOfTwo(opt.TextureAtlasSize):
		return invalid("texture_atlas_size must be a power of two")
	case opt.UseDynamicAtlas && opt.MaxAtlasPages < 1:
		return invalid("max_atlas_pages must be at least 1")
	case opt.MinVis > 0 && opt.MaxVis > 0 && opt.MinVis > opt.MaxVis:
		return invalid("min_vis above max_vis")
	case opt.MinPageVis > 0 && opt.MaxPageVis > 0 && opt.MinPageVis > opt.MaxPageVis:
		return invalid("min_page_vis above max_page_vis")
	case opt.TessX < 1 || opt.TessY < 1:
		return invalid("tessellation must be at least 1")
	case ParseImageType(string(opt.ImageType)) == "":
		return invalid("unknown image_type")
	case ParseTileScale(string(opt.TileScale)) == "":
		return invalid("unknown tile_scale")
	}
	return nil
}

func (opt *LoaderOptions) TextureSettings() imagery.TextureSettings {
	return imagery.TextureSettings{
		Format:    opt.ImageType.PixelFormat(),
		Scale:     opt.TileScale.ScaleMode(),
		FixedSize: opt.FixedTileSize,
	}
}

func (opt *LoaderOptions) Copy() *LoaderOptions {
	newOpt := *opt
	return &newOpt
}

// Contains the options of a viewing session run from the command line
type ViewerOptions struct {
	Input          string  // Root folders of the imagery tiles, one per image layer, comma separated
	ElevationInput string  // Root folder of Terrarium elevation tiles, optional
	Extension      string  // Imagery tile file extension, empty to probe common ones
	TMS            bool    // Tile rows counted from the south in folder names
	Globe          bool    // Globe display instead of a flat map
	Lon            float64 // Longitude under the viewer, degrees
	Lat            float64 // Latitude under the viewer, degrees
	Height         float64 // Starting viewer height, earth radii
	Steps          int     // Number of zoom steps
	ZoomFactor     float64 // Height divisor applied at each step
	MinLevel       int
	MaxLevel       int
	MaxTiles       int
	MinImportance  float64
	ZOffset        float64 // Vertical offset in meters
	Exaggeration   float64 // Vertical exaggeration
	FetchWorkers   int     // Simultaneous tile reads
	MetricsAddr    string  // Serve prometheus metrics there when set
	Loader         LoaderOptions
}

// Imagery folders, one per image layer
func (opt *ViewerOptions) Roots() []string {
	var roots []string
	for _, root := range strings.Split(opt.Input, ",") {
		if root = strings.TrimSpace(root); root != "" {
			roots = append(roots, root)
		}
	}
	return roots
}

func (opt *ViewerOptions) Copy() *ViewerOptions {
	newOpt := *opt
	return &newOpt
}
