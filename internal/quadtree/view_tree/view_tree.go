package view_tree

import (
	"container/heap"
	"math"
	"sort"
	"sync"

	"github.com/ecopia-map/quadtile_loader/internal/quadtree"
	"github.com/go-gl/mathgl/mgl64"
)

const earthRadius = 6378137.0

// Point the viewer looks down on, with the eye height expressed in earth radii
type View struct {
	Lon    float64
	Lat    float64
	Height float64
}

// Represents a quadtree evaluated against a View. A node is split into its four children
// when its importance exceeds the threshold and the caller allows the descent.
type ViewTree struct {
	view          View
	minLevel      int
	maxLevel      int
	maxTiles      int
	minImportance float64
	nodes         map[quadtree.Identifier]quadtree.NodeInfo
	ordered       []quadtree.NodeInfo
	sync.RWMutex
}

// Builds an empty ViewTree. minLevel levels are always split, regardless of importance.
func NewViewTree(minLevel, maxLevel, maxTiles int, minImportance float64) *ViewTree {
	if maxTiles < 1 {
		maxTiles = 1
	}
	return &ViewTree{
		minLevel:      minLevel,
		maxLevel:      maxLevel,
		maxTiles:      maxTiles,
		minImportance: minImportance,
		nodes:         map[quadtree.Identifier]quadtree.NodeInfo{},
	}
}

func (tree *ViewTree) SetView(view View) {
	tree.Lock()
	defer tree.Unlock()
	tree.view = view
}

func (tree *ViewTree) View() View {
	tree.RLock()
	defer tree.RUnlock()
	return tree.view
}

func (tree *ViewTree) Evaluate(canLoadChildren func(ident quadtree.Identifier) bool) []quadtree.NodeInfo {
	tree.Lock()
	defer tree.Unlock()

	eye := tree.eyePosition()
	wanted := map[quadtree.Identifier]quadtree.NodeInfo{}

	root := tree.newNode(quadtree.NewIdentifier(0, 0, 0), eye)
	wanted[root.Ident] = root
	queue := &nodeQueue{root}

	for queue.Len() > 0 {
		node := heap.Pop(queue).(quadtree.NodeInfo)
		if !tree.shouldSplit(node) {
			continue
		}
		if len(wanted)+4 > tree.maxTiles {
			continue
		}
		if canLoadChildren != nil && !canLoadChildren(node.Ident) {
			continue
		}
		for _, childIdent := range node.Ident.Children() {
			child := tree.newNode(childIdent, eye)
			wanted[childIdent] = child
			heap.Push(queue, child)
		}
	}

	tree.nodes = wanted
	tree.ordered = sortByImportance(wanted)

	out := make([]quadtree.NodeInfo, len(tree.ordered))
	copy(out, tree.ordered)
	return out
}

func (tree *ViewTree) Nodes() []quadtree.NodeInfo {
	tree.RLock()
	defer tree.RUnlock()
	out := make([]quadtree.NodeInfo, len(tree.ordered))
	copy(out, tree.ordered)
	return out
}

func (tree *ViewTree) NodeInfo(ident quadtree.Identifier) (quadtree.NodeInfo, bool) {
	tree.RLock()
	defer tree.RUnlock()
	node, ok := tree.nodes[ident]
	return node, ok
}

func (tree *ViewTree) ChildrenPresent(ident quadtree.Identifier) [4]bool {
	tree.RLock()
	defer tree.RUnlock()
	var present [4]bool
	for q, child := range ident.Children() {
		_, present[q] = tree.nodes[child]
	}
	return present
}

func (tree *ViewTree) shouldSplit(node quadtree.NodeInfo) bool {
	if node.Ident.Level >= tree.maxLevel {
		return false
	}
	if node.Ident.Level < tree.minLevel {
		return true
	}
	return node.Importance >= tree.minImportance
}

func (tree *ViewTree) newNode(ident quadtree.Identifier, eye mgl64.Vec3) quadtree.NodeInfo {
	node := quadtree.NewNodeInfo(ident)
	node.Importance = importance(node.Extent, eye)
	return node
}

// Eye position in mercator space scaled to earth radii
func (tree *ViewTree) eyePosition() mgl64.Vec3 {
	lat := math.Max(-85.05112878, math.Min(85.05112878, tree.view.Lat))
	x := tree.view.Lon * math.Pi / 180
	y := math.Log(math.Tan(math.Pi/4 + lat*math.Pi/360))
	return mgl64.Vec3{x, y, math.Max(tree.view.Height, 1e-9)}
}

// Size of the node divided by the distance between the eye and the closest point of the node
func importance(extent quadtree.Extent, eye mgl64.Vec3) float64 {
	minX, maxX := extent.MinX/earthRadius, extent.MaxX/earthRadius
	minY, maxY := extent.MinY/earthRadius, extent.MaxY/earthRadius

	closest := mgl64.Vec3{
		math.Max(minX, math.Min(eye.X(), maxX)),
		math.Max(minY, math.Min(eye.Y(), maxY)),
		0,
	}
	dist := eye.Sub(closest).Len()
	return (maxX - minX) / dist
}

func sortByImportance(nodes map[quadtree.Identifier]quadtree.NodeInfo) []quadtree.NodeInfo {
	ordered := make([]quadtree.NodeInfo, 0, len(nodes))
	for _, node := range nodes {
		ordered = append(ordered, node)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return higherPriority(ordered[i], ordered[j])
	})
	return ordered
}

func higherPriority(a, b quadtree.NodeInfo) bool {
	if a.Importance != b.Importance {
		return a.Importance > b.Importance
	}
	return a.Ident.Less(b.Ident)
}

type nodeQueue []quadtree.NodeInfo

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return higherPriority(q[i], q[j]) }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(quadtree.NodeInfo)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
