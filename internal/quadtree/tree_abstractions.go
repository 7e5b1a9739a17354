package quadtree

// Tree is the quadtree as seen by the tile loader. A node is present when the display
// layer currently wants it, i.e. the quadtree has descended to it.
type Tree interface {
	// Returns the node info for a present node
	NodeInfo(ident Identifier) (NodeInfo, bool)
	// Reports, per quadrant index, whether the child node is present
	ChildrenPresent(ident Identifier) [4]bool
}

// Tree that can be re-evaluated against a view
type EvaluatingTree interface {
	Tree
	// Recomputes the wanted node set. canLoadChildren gates the descent below a node.
	Evaluate(canLoadChildren func(ident Identifier) bool) []NodeInfo
	// Wanted nodes from the last evaluation, sorted by decreasing importance
	Nodes() []NodeInfo
}
