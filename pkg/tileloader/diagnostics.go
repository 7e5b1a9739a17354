package tileloader

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// Number of tiles per state
type StateCounts map[TileState]int

func (c StateCounts) String() string {
	var sb strings.Builder
	for i, state := range []TileState{StateLoading, StateLoaded, StatePlaceholder, StateFailed} {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%v=%d", state, c[state])
	}
	return sb.String()
}

func (l *QuadTileLoader) StateCounts() StateCounts {
	counts := StateCounts{}
	for _, tile := range l.tiles {
		counts[tile.State()]++
	}
	return counts
}

func (l *QuadTileLoader) updateGauges() {
	counts := l.StateCounts()
	for _, state := range []TileState{StateLoading, StateLoaded, StatePlaceholder, StateFailed} {
		residentTiles.WithLabelValues(l.name, state.String()).Set(float64(counts[state]))
	}
}

// Writes the loader state to the log, at most once per diagnostics interval unless forced
func (l *QuadTileLoader) logState(force bool) {
	if !force && !l.diagnostics.Allow() {
		return
	}
	glog.Infof("%s: %d tiles (%v), %d fetches outstanding", l.name, len(l.tiles), l.StateCounts(), l.NumOutstandingFetches())
	if l.atlas != nil {
		glog.Infof("%s: %d atlas pages", l.name, l.atlas.NumPages())
	}
	for _, tile := range l.sortedTiles() {
		if tile.failed {
			glog.Infof("%s: %v", l.name, tile)
		} else {
			glog.V(2).Infof("%s: %v", l.name, tile)
		}
	}
}
