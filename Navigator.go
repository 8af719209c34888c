package stree


//============================================= Stree Navigator


// navigator is the capability set the shared algorithms walk a tree through.
//	Both the in-memory and the persistent tree implement it; the algorithms are
//	written once and specialized per implementation by the type parameter.
//	Implementations report read failures through err after the walk; the
//	navigation methods themselves return zero values once a failure is latched,
//	except suffixLink, which returns the root.
type navigator[N comparable] interface {
	// root: the root node handle
	root() N
	// null: the absent node handle
	null() N
	// isRoot: true when the handle is the root
	isRoot(node N) bool
	// edgeSymbol: the symbol at the given offset into the node's edge label
	edgeSymbol(node N, offset int) int32
	// edgeLength: the node's edge label length
	edgeLength(node N) int
	// totalDepth: path label length from the root through the node's edge
	totalDepth(node N) int
	// startDepth: path label length from the root to the start of the node's edge
	startDepth(node N) int
	// suffixLink: the node's suffix link target, the root when null
	suffixLink(node N) N
	// child: the child under the first edge symbol, the null handle when absent
	child(node N, sym int32) N
	// leafPositions: the suffix positions of every leaf in the subtree
	leafPositions(node N) []int
	// anyLeafPosition: the suffix position of one leaf in the subtree
	anyLeafPosition(node N) int
	// textLength: N, the indexed text length without the sentinel
	textLength() int
	// err: the first read failure observed during navigation, nil for the in-memory tree
	err() error
}

// memNavigator adapts the in-memory tree to the navigator capability set.
type memNavigator struct {
	tree *memTree
}

func (nav *memNavigator) root() *streeNode { return nav.tree.root }

func (nav *memNavigator) null() *streeNode { return nil }

func (nav *memNavigator) isRoot(node *streeNode) bool { return node == nav.tree.root }

func (nav *memNavigator) edgeSymbol(node *streeNode, offset int) int32 {
	return nav.tree.text.symbolAt(node.start + offset)
}

func (nav *memNavigator) edgeLength(node *streeNode) int { return node.edgeLength() }

func (nav *memNavigator) totalDepth(node *streeNode) int { return node.totalDepth() }

func (nav *memNavigator) startDepth(node *streeNode) int { return node.depthFromRoot }

func (nav *memNavigator) suffixLink(node *streeNode) *streeNode {
	if node.suffixLink == nil { return nav.tree.root }
	return node.suffixLink
}

func (nav *memNavigator) child(node *streeNode, sym int32) *streeNode { return node.childFor(sym) }

func (nav *memNavigator) leafPositions(node *streeNode) []int {
	positions := []int{}
	nav.tree.collectLeafPositions(node, nav.tree.text.Length() + 1, &positions)

	return positions
}

func (nav *memNavigator) anyLeafPosition(node *streeNode) int {
	return nav.tree.anyLeafPosition(node, nav.tree.text.Length() + 1)
}

func (nav *memNavigator) textLength() int { return nav.tree.text.Length() }

func (nav *memNavigator) err() error { return nil }

// persistNavigator adapts the persistent tree to the navigator capability set.
//	The first storage read failure is latched and every later navigation call
//	short circuits, so algorithms check err once after the walk.
type persistNavigator struct {
	pst *persistentTree
	readErr error
}

func (nav *persistNavigator) latch(readErr error) {
	if nav.readErr == nil && readErr != nil { nav.readErr = readErr }
}

func (nav *persistNavigator) root() uint64 { return nav.pst.rootOffset }

func (nav *persistNavigator) null() uint64 { return NullRef }

func (nav *persistNavigator) isRoot(node uint64) bool { return node == nav.pst.rootOffset }

func (nav *persistNavigator) edgeSymbol(node uint64, offset int) int32 {
	if nav.readErr != nil { return 0 }

	start, startErr := nav.pst.io.nodeStart(node)
	if startErr != nil {
		nav.latch(startErr)
		return 0
	}

	return nav.pst.text.symbolAt(int(start) + offset)
}

func (nav *persistNavigator) edgeLength(node uint64) int {
	if nav.readErr != nil { return 0 }

	start, startErr := nav.pst.io.nodeStart(node)
	if startErr != nil {
		nav.latch(startErr)
		return 0
	}

	end, endErr := nav.pst.io.nodeEnd(node)
	if endErr != nil {
		nav.latch(endErr)
		return 0
	}

	return int(end - start)
}

func (nav *persistNavigator) totalDepth(node uint64) int {
	if nav.readErr != nil { return 0 }

	depth, depthErr := nav.pst.totalDepth(node)
	if depthErr != nil {
		nav.latch(depthErr)
		return 0
	}

	return depth
}

func (nav *persistNavigator) startDepth(node uint64) int {
	if nav.readErr != nil { return 0 }

	depth, depthErr := nav.pst.io.nodeDepth(node)
	if depthErr != nil {
		nav.latch(depthErr)
		return 0
	}

	return int(depth)
}

func (nav *persistNavigator) suffixLink(node uint64) uint64 {
	if nav.readErr != nil { return nav.pst.rootOffset }

	link, linkErr := nav.pst.io.nodeSuffixLink(node)
	if linkErr != nil {
		nav.latch(linkErr)
		return nav.pst.rootOffset
	}

	if link == NullRef { return nav.pst.rootOffset }
	return link
}

func (nav *persistNavigator) child(node uint64, sym int32) uint64 {
	if nav.readErr != nil { return NullRef }

	child, lookupErr := nav.pst.io.childLookup(node, symKey(sym))
	if lookupErr != nil {
		nav.latch(lookupErr)
		return NullRef
	}

	return child
}

func (nav *persistNavigator) leafPositions(node uint64) []int {
	if nav.readErr != nil { return nil }

	positions, collectErr := nav.pst.collectLeafPositions(node)
	if collectErr != nil {
		nav.latch(collectErr)
		return nil
	}

	return positions
}

func (nav *persistNavigator) anyLeafPosition(node uint64) int {
	if nav.readErr != nil { return 0 }

	position, posErr := nav.pst.anyLeafPosition(node)
	if posErr != nil {
		nav.latch(posErr)
		return 0
	}

	return position
}

func (nav *persistNavigator) textLength() int { return nav.pst.text.Length() }

func (nav *persistNavigator) err() error { return nav.readErr }
