package quadtree

import (
	"github.com/paulmach/orb"
)

// Describes a quadtree node as handed to the loader by the display layer
type NodeInfo struct {
	Ident      Identifier
	MBR        orb.Bound      // geographic bound, lon/lat degrees
	Extent     Extent         // spherical mercator bound
	Importance float64        // computed by the quadtree, higher loads first
	Attrs      map[string]any // free-form attributes forwarded to the data source
}

func NewNodeInfo(ident Identifier) NodeInfo {
	return NodeInfo{
		Ident:  ident,
		MBR:    ident.GeoBound(),
		Extent: ident.MercatorExtent(),
		Attrs:  map[string]any{},
	}
}
