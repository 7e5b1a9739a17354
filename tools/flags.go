package tools

import (
	"flag"

	"github.com/golang/glog"
)

const (
	CommandView    = "view"
	CommandInspect = "inspect"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type InputFlags struct {
	Input          *string `json:"input"`
	ElevationInput *string `json:"elevation"`
	Extension      *string `json:"extension"`
	TMS            *bool   `json:"tms"`
}

type FlagsForCommandView struct {
	InputFlags
	Config        *string  `json:"config"`
	Lon           *float64 `json:"lon"`
	Lat           *float64 `json:"lat"`
	Height        *float64 `json:"height"`
	Steps         *int     `json:"steps"`
	ZoomFactor    *float64 `json:"zoom_factor"`
	MinLevel      *int     `json:"min_level"`
	MaxLevel      *int     `json:"max_level"`
	MaxTiles      *int     `json:"max_tiles"`
	MinImportance *float64 `json:"min_importance"`
	Globe         *bool    `json:"globe"`
	Atlas         *bool    `json:"atlas"`
	ZOffset       *float64 `json:"zoffset"`
	Exaggeration  *float64 `json:"exaggeration"`
	Workers       *int     `json:"workers"`
	MetricsAddr   *string  `json:"metrics_addr"`
	Silent        *bool
	LogTimestamp  *bool
	Help          *bool
	Version       *bool
}

type FlagsForCommandInspect struct {
	InputFlags
	Help *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	// -v belongs to glog on the global flag set
	version := defineBoolFlag("version", "", false, "Displays the version of quadtile_loader.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func defineInputFlags(flagCommand *flag.FlagSet) InputFlags {
	return InputFlags{
		Input:          defineStringFlagCommand(flagCommand, "input", "i", "", "Imagery tile folders, one per image layer, comma separated. Tiles are stored as <folder>/<z>/<x>/<y>.<ext>."),
		ElevationInput: defineStringFlagCommand(flagCommand, "elevation", "e", "", "Folder of Terrarium encoded PNG elevation tiles."),
		Extension:      defineStringFlagCommand(flagCommand, "extension", "x", "", "Imagery tile extension. When empty the common image extensions are probed."),
		TMS:            defineBoolFlagCommand(flagCommand, "tms", "", false, "Tile rows are counted from the south in folder names."),
	}
}

func ParseFlagsForCommandView(args []string) FlagsForCommandView {
	glog.V(1).Infof("view arguments: %s", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-view", flag.ExitOnError)

	inputFlags := defineInputFlags(flagCommand)
	config := defineStringFlagCommand(flagCommand, "config", "c", "", "TOML file with the loader options.")
	lon := defineFloat64FlagCommand(flagCommand, "lon", "", 0, "Longitude under the viewer, in degrees.")
	lat := defineFloat64FlagCommand(flagCommand, "lat", "", 0, "Latitude under the viewer, in degrees.")
	height := defineFloat64FlagCommand(flagCommand, "height", "", 2.0, "Starting viewer height, in earth radii.")
	steps := defineIntFlagCommand(flagCommand, "steps", "", 8, "Number of zoom steps.")
	zoomFactor := defineFloat64FlagCommand(flagCommand, "zoom-factor", "", 2.0, "The viewer height is divided by this factor at every step.")
	minLevel := defineIntFlagCommand(flagCommand, "min-level", "", 0, "Shallowest level loaded.")
	maxLevel := defineIntFlagCommand(flagCommand, "max-level", "", 18, "Deepest level loaded.")
	maxTiles := defineIntFlagCommand(flagCommand, "max-tiles", "m", 128, "Maximum number of tiles kept for a view.")
	minImportance := defineFloat64FlagCommand(flagCommand, "min-importance", "", 1.0, "A tile is split into its children above this importance.")
	globe := defineBoolFlagCommand(flagCommand, "globe", "g", false, "Builds tiles for a globe display instead of a flat map.")
	atlas := defineBoolFlagCommand(flagCommand, "atlas", "a", false, "Packs tile textures into shared atlas pages.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to elevations, in meters.")
	exaggeration := defineFloat64FlagCommand(flagCommand, "exaggeration", "", 1.0, "Vertical exaggeration of elevations.")
	workers := defineIntFlagCommand(flagCommand, "workers", "w", 0, "Simultaneous tile reads. Defaults to the number of CPUs.")
	metricsAddr := defineStringFlagCommand(flagCommand, "metrics-addr", "", "", "Serves prometheus metrics on this address, e.g. :9090.")

	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of quadtile_loader.")

	flagCommand.Parse(args)

	return FlagsForCommandView{
		InputFlags:    inputFlags,
		Config:        config,
		Lon:           lon,
		Lat:           lat,
		Height:        height,
		Steps:         steps,
		ZoomFactor:    zoomFactor,
		MinLevel:      minLevel,
		MaxLevel:      maxLevel,
		MaxTiles:      maxTiles,
		MinImportance: minImportance,
		Globe:         globe,
		Atlas:         atlas,
		ZOffset:       zOffset,
		Exaggeration:  exaggeration,
		Workers:       workers,
		MetricsAddr:   metricsAddr,
		Silent:        silent,
		LogTimestamp:  logTimestamp,
		Help:          help,
		Version:       version,
	}
}

func ParseFlagsForCommandInspect(args []string) FlagsForCommandInspect {
	flagCommand := flag.NewFlagSet("command-inspect", flag.ExitOnError)

	inputFlags := defineInputFlags(flagCommand)
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandInspect{
		InputFlags: inputFlags,
		Help:       help,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
