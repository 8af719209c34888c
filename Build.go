package stree


//============================================= Stree In-Memory Builder


// memBuilder carries the online construction state for the in-memory tree.
//	The active point (activeNode, activeEdgeIndex, activeLength) tracks the locus of the next extension.
type memBuilder struct {
	text *Text
	root *streeNode
	activeNode *streeNode
	activeEdgeIndex int
	activeLength int
	remainder int
	position int
	lastCreatedInternalNode *streeNode
	deepest *streeNode
	nodeCount int
	leafCount int
}

// newMemBuilder
//	Initialize the builder with a lone root and the active point on it.
func newMemBuilder(text *Text) *memBuilder {
	root := &streeNode{ start: 0, end: 0 }

	return &memBuilder{
		text: text,
		root: root,
		activeNode: root,
		position: -1,
		deepest: root,
		nodeCount: 1,
	}
}

// build
//	Run the online construction over every text symbol and the closing sentinel,
//	then finalize boundless edges and subtree statistics.
func (bld *memBuilder) build() *memTree {
	for idx := 0; idx <= bld.text.Length(); idx++ { bld.extend(bld.text.symbolAt(idx)) }

	effectiveLen := bld.text.Length() + 1
	bld.finalize(bld.root, effectiveLen)

	return &memTree{ root: bld.root, deepest: bld.deepest, text: bld.text }
}

// extend
//	One Ukkonen extension step for the symbol at the next position.
func (bld *memBuilder) extend(c int32) {
	bld.position++
	bld.remainder++
	bld.lastCreatedInternalNode = nil

	for bld.remainder > 0 {
		if bld.activeLength == 0 { bld.activeEdgeIndex = bld.position }

		k := bld.text.symbolAt(bld.activeEdgeIndex)
		child := bld.activeNode.childFor(k)

		if child == nil {
			leaf := &streeNode{
				start: bld.position,
				end: boundlessEnd,
				depthFromRoot: bld.activeNode.totalDepthAt(bld.position + 1),
			}

			bld.activeNode.setChild(k, leaf)
			bld.recordSuffixLink(bld.activeNode)
		} else {
			edgeLen := child.edgeLengthAt(bld.position + 1)

			if bld.activeLength >= edgeLen {
				bld.activeEdgeIndex += edgeLen
				bld.activeLength -= edgeLen
				bld.activeNode = child
				continue
			}

			if bld.text.symbolAt(child.start + bld.activeLength) == c {
				bld.activeLength++
				bld.recordSuffixLink(bld.activeNode)
				break
			}

			bld.splitEdge(child, k, c)
		}

		bld.remainder--

		if bld.activeNode == bld.root && bld.activeLength > 0 {
			bld.activeLength--
			bld.activeEdgeIndex = bld.position - bld.remainder + 1
		} else if bld.activeNode != bld.root {
			if bld.activeNode.suffixLink != nil {
				bld.activeNode = bld.activeNode.suffixLink
			} else { bld.activeNode = bld.root }
		}
	}
}

// splitEdge
//	Split the active edge at the active length, attaching the continuation and a fresh leaf.
//	The split node takes over the former child's slot under the parent.
func (bld *memBuilder) splitEdge(child *streeNode, k, c int32) {
	split := &streeNode{
		start: child.start,
		end: child.start + bld.activeLength,
		depthFromRoot: child.depthFromRoot,
	}

	bld.activeNode.setChild(k, split)

	child.start += bld.activeLength
	child.depthFromRoot = split.depthFromRoot + bld.activeLength
	split.setChild(bld.text.symbolAt(child.start), child)

	leaf := &streeNode{
		start: bld.position,
		end: boundlessEnd,
		depthFromRoot: split.depthFromRoot + bld.activeLength,
	}

	split.setChild(c, leaf)

	bld.recordSuffixLink(split)
	bld.lastCreatedInternalNode = split

	if split.totalDepth() > bld.deepest.totalDepth() { bld.deepest = split }
}

// recordSuffixLink
//	Resolve the pending suffix link from the last created internal node to the
//	given target. A pending link resolves exactly once; a self target keeps the
//	link pending for the next extension.
func (bld *memBuilder) recordSuffixLink(target *streeNode) {
	if bld.lastCreatedInternalNode == nil || bld.lastCreatedInternalNode == target { return }

	bld.lastCreatedInternalNode.suffixLink = target
	bld.lastCreatedInternalNode = nil
}

// finalize
//	Resolve boundless leaf edges to N + 1 and compute subtree leaf counts and totals bottom up.
func (bld *memBuilder) finalize(node *streeNode, effectiveLen int) int {
	if node != bld.root { bld.nodeCount++ }

	if node.isLeaf() {
		if node.end == boundlessEnd { node.end = effectiveLen }

		node.leafCount = 1
		bld.leafCount++

		return 1
	}

	leaves := 0
	for idx := range node.children { leaves += bld.finalize(node.children[idx].node, effectiveLen) }

	node.leafCount = leaves
	return leaves
}

// totalDepthAt
//	Cumulative path label length from the root through this node's edge given the construction frontier.
func (node *streeNode) totalDepthAt(frontier int) int {
	return node.depthFromRoot + node.edgeLengthAt(frontier)
}
