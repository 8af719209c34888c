package stree

import "sort"


//============================================= Stree In-Memory Node Operations


// childFor
//	Binary search the ordered child entries for the child under the given first edge symbol.
func (node *streeNode) childFor(key int32) *streeNode {
	idx := sort.Search(len(node.children), func(i int) bool { return node.children[i].key >= key })
	if idx < len(node.children) && node.children[idx].key == key { return node.children[idx].node }

	return nil
}

// setChild
//	Insert or replace the child under the given first edge symbol, keeping entries ordered.
func (node *streeNode) setChild(key int32, child *streeNode) {
	idx := sort.Search(len(node.children), func(i int) bool { return node.children[i].key >= key })

	if idx < len(node.children) && node.children[idx].key == key {
		node.children[idx].node = child
		return
	}

	node.children = append(node.children, childEntry{})
	copy(node.children[idx + 1:], node.children[idx:])
	node.children[idx] = childEntry{ key: key, node: child }
}

// isLeaf
//	A node with no children is a leaf.
func (node *streeNode) isLeaf() bool {
	return len(node.children) == 0
}

// edgeLengthAt
//	The edge label length given the exclusive construction frontier.
//	A boundless edge extends to the frontier.
func (node *streeNode) edgeLengthAt(frontier int) int {
	if node.end == boundlessEnd { return frontier - node.start }
	return node.end - node.start
}

// edgeLength
//	The edge label length of a finalized node.
func (node *streeNode) edgeLength() int {
	return node.end - node.start
}

// totalDepth
//	Cumulative path label length from the root to this node, edge included.
func (node *streeNode) totalDepth() int {
	return node.depthFromRoot + node.edgeLength()
}

// suffixPosition
//	The suffix start position a finalized leaf represents.
//	With effective text length N + 1, the leaf for suffix i has total depth N + 1 - i.
func (node *streeNode) suffixPosition(effectiveLen int) int {
	return effectiveLen - node.totalDepth()
}
