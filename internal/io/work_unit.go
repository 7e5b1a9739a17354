package io

import (
	"time"

	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/ecopia-map/quadtile_loader/pkg/tileloader"
)

// Contains what a consumer needs to fetch the content of a single tile and report it back
type WorkUnit struct {
	Ident    quadtree.Identifier
	Attrs    map[string]any
	Receiver tileloader.TileReceiver
	Queued   time.Time
}
