/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecopia-map/quadtile_loader/internal/tiler"
	"github.com/ecopia-map/quadtile_loader/pkg"
	"github.com/ecopia-map/quadtile_loader/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/quadtile_loader/tools"
	"github.com/golang/glog"
)

const VERSION = "0.4.0"

const logo = `
                   _ _   _ _       _                 _
  __ _ _   _  __ _| | |_(_) | ___ | | ___   __ _  __| | ___ _ __
 / _  | | | |/ _  | | __| | |/ _ \| |/ _ \ / _  |/ _  |/ _ \ '__|
| (_| | |_| | (_| | | |_| | |  __/| | (_) | (_| | (_| |  __/ |
 \__, |\__,_|\__,_|_|\__|_|_|\___||_|\___/ \__,_|\__,_|\___|_|
    |_| A quad tree tile paging loader written in golang
        Copyright YYYY
`

func main() {
	log.SetPrefix("[quadtile] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	glog.V(1).Infof("global flags: %s", tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("Please specify a subcommand [view|inspect].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandView:
		mainCommandView(args)
	case tools.CommandInspect:
		mainCommandInspect(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [view|inspect]", cmd)
	}
}

func mainCommandView(args []string) {
	flags := tools.ParseFlagsForCommandView(args)

	if *flags.Help {
		showHelp()
		return
	}
	if *flags.Version {
		printVersion()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if *flags.LogTimestamp {
		tools.EnableLoggerTimestamp()
	}

	loaderOpts := tiler.DefaultLoaderOptions()
	if *flags.Config != "" {
		var err error
		if loaderOpts, err = tools.LoadLoaderOptions(*flags.Config, loaderOpts); err != nil {
			log.Fatal("Error reading the loader options: ", err)
		}
	}
	if *flags.Atlas {
		loaderOpts.UseDynamicAtlas = true
	}

	opts := tiler.ViewerOptions{
		Input:          *flags.Input,
		ElevationInput: *flags.ElevationInput,
		Extension:      *flags.Extension,
		TMS:            *flags.TMS,
		Globe:          *flags.Globe,
		Lon:            *flags.Lon,
		Lat:            *flags.Lat,
		Height:         *flags.Height,
		Steps:          *flags.Steps,
		ZoomFactor:     *flags.ZoomFactor,
		MinLevel:       *flags.MinLevel,
		MaxLevel:       *flags.MaxLevel,
		MaxTiles:       *flags.MaxTiles,
		MinImportance:  *flags.MinImportance,
		ZOffset:        *flags.ZOffset,
		Exaggeration:   *flags.Exaggeration,
		FetchWorkers:   *flags.Workers,
		MetricsAddr:    *flags.MetricsAddr,
		Loader:         loaderOpts,
	}

	if msg, res := validateOptionsForCommandView(&opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "viewing session")
	err := pkg.NewViewer(tools.NewStandardFileFinder(opts.Extension, opts.TMS), std_algorithm_manager.NewAlgorithmManager(&opts)).RunViewer(&opts)

	if err != nil {
		log.Fatal("Error while viewing: ", err)
	} else {
		tools.LogOutput("Viewing Completed")
	}
}

// Validates the input options provided to the command line tool checking
// that the input folders exist
func validateOptionsForCommandView(opts *tiler.ViewerOptions) (string, bool) {
	if msg, res := validateInputFolders(opts); !res {
		return msg, false
	}
	if opts.Steps < 1 {
		return "steps must be at least 1", false
	}
	if opts.Height <= 0 {
		return "height must be positive", false
	}
	if opts.MinLevel > opts.MaxLevel {
		return "max-level parameter cannot be lower than min-level parameter", false
	}
	if err := opts.Loader.Validate(); err != nil {
		return err.Error(), false
	}
	return "", true
}

func mainCommandInspect(args []string) {
	flags := tools.ParseFlagsForCommandInspect(args)
	if *flags.Help {
		showHelp()
		return
	}

	opts := tiler.ViewerOptions{
		Input:          *flags.Input,
		ElevationInput: *flags.ElevationInput,
		Extension:      *flags.Extension,
		TMS:            *flags.TMS,
	}
	if msg, res := validateInputFolders(&opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	err := pkg.NewViewer(tools.NewStandardFileFinder(opts.Extension, opts.TMS), std_algorithm_manager.NewAlgorithmManager(&opts)).RunInspect(&opts)
	if err != nil {
		log.Fatal("Error while inspecting: ", err)
	}
}

func validateInputFolders(opts *tiler.ViewerOptions) (string, bool) {
	roots := opts.Roots()
	if len(roots) == 0 && opts.ElevationInput == "" {
		return "at least one of input or elevation must be given", false
	}
	for _, root := range roots {
		if !tools.DirectoryExists(root) {
			return "Input folder not found: " + root, false
		}
	}
	if opts.ElevationInput != "" && !tools.DirectoryExists(opts.ElevationInput) {
		return "Elevation folder not found: " + opts.ElevationInput, false
	}
	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("quadtile_loader pages quad tree tiles of imagery and elevation stored on disk into a scene, the way a map display would while the camera zooms in")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Subcommands: view, inspect. Use <subcommand> -help for their flags.")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
