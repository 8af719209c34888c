package stree

import "sort"
import "unicode/utf16"


//============================================= Stree In-Memory Queries


// patternSymbols
//	Widen a Go string pattern to the symbol domain used across the tree.
func patternSymbols(pattern string) []int32 {
	units := utf16.Encode([]rune(pattern))
	symbols := make([]int32, len(units))

	for idx, unit := range units { symbols[idx] = int32(unit) }
	return symbols
}

// locate
//	Descend from the root matching edge labels against the pattern.
//	Returns the node whose subtree holds every occurrence, or nil when the pattern is absent.
//	The locus may sit mid edge; the subtree is the same either way.
func (tree *memTree) locate(pattern []int32) *streeNode {
	node := tree.root
	idx := 0

	for idx < len(pattern) {
		child := node.childFor(pattern[idx])
		if child == nil { return nil }

		edgeLen := child.edgeLength()
		for off := 0; off < edgeLen && idx < len(pattern); off++ {
			if tree.text.symbolAt(child.start + off) != pattern[idx] { return nil }
			idx++
		}

		node = child
	}

	return node
}

// contains
//	True iff the entire pattern is consumed along a root path. The empty pattern is always present.
func (tree *memTree) contains(pattern []int32) bool {
	return tree.locate(pattern) != nil
}

// countOccurrences
//	Number of occurrences of the pattern, using the leaf counts precomputed at finalization.
//	The empty pattern occurs once at every text position, so its count is N.
func (tree *memTree) countOccurrences(pattern []int32) int {
	if len(pattern) == 0 { return tree.text.Length() }

	locus := tree.locate(pattern)
	if locus == nil { return 0 }

	return locus.leafCount
}

// findAllOccurrences
//	Start positions of every occurrence of the pattern, ascending.
func (tree *memTree) findAllOccurrences(pattern []int32) []int {
	if len(pattern) == 0 {
		positions := make([]int, tree.text.Length())
		for idx := range positions { positions[idx] = idx }

		return positions
	}

	locus := tree.locate(pattern)
	if locus == nil { return []int{} }

	effectiveLen := tree.text.Length() + 1
	positions := []int{}
	tree.collectLeafPositions(locus, effectiveLen, &positions)

	sort.Ints(positions)
	return positions
}

// collectLeafPositions
//	Gather the suffix positions of every leaf in the subtree.
func (tree *memTree) collectLeafPositions(node *streeNode, effectiveLen int, out *[]int) {
	if node.isLeaf() {
		*out = append(*out, node.suffixPosition(effectiveLen))
		return
	}

	for idx := range node.children { tree.collectLeafPositions(node.children[idx].node, effectiveLen, out) }
}

// anyLeafPosition
//	The suffix position of one leaf in the subtree, following first children down.
func (tree *memTree) anyLeafPosition(node *streeNode, effectiveLen int) int {
	for ! node.isLeaf() { node = node.children[0].node }
	return node.suffixPosition(effectiveLen)
}

// longestRepeatedSubstring
//	The path label of the deepest internal node tracked during construction.
func (tree *memTree) longestRepeatedSubstring() string {
	depth := tree.deepest.totalDepth()
	if depth == 0 { return "" }

	return tree.text.substringClamped(tree.deepest.end - depth, tree.deepest.end)
}

// enumerateSuffixes
//	Visit every suffix string in child key order, sentinel first, so the sequence is
//	sorted by the tree's canonical symbol order. Yield false stops the walk.
func (tree *memTree) enumerateSuffixes(yield func(suffix string) bool) {
	effectiveLen := tree.text.Length() + 1
	tree.enumerateSuffixesRecursive(tree.root, effectiveLen, yield)
}

func (tree *memTree) enumerateSuffixesRecursive(node *streeNode, effectiveLen int, yield func(suffix string) bool) bool {
	if node.isLeaf() {
		position := node.suffixPosition(effectiveLen)
		return yield(tree.text.substringClamped(position, tree.text.Length()))
	}

	for idx := range node.children {
		if ! tree.enumerateSuffixesRecursive(node.children[idx].node, effectiveLen, yield) { return false }
	}

	return true
}

// traverse
//	Pre-order walk, siblings ascending by first edge symbol.
func (tree *memTree) traverse(visitor TreeVisitor) error {
	return tree.traverseRecursive(tree.root, visitor)
}

func (tree *memTree) traverseRecursive(node *streeNode, visitor TreeVisitor) error {
	keys := make([]int32, len(node.children))
	for idx := range node.children { keys[idx] = node.children[idx].key }

	info := &TreeNodeInfo{
		EdgeStart: node.start,
		EdgeEnd: node.end,
		DepthFromRoot: node.depthFromRoot,
		LeafCount: node.leafCount,
		ChildKeys: keys,
		IsLeaf: node.isLeaf(),
	}

	if visitErr := visitor(info); visitErr != nil { return visitErr }

	for idx := range node.children {
		if visitErr := tree.traverseRecursive(node.children[idx].node, visitor); visitErr != nil { return visitErr }
	}

	return nil
}
