package stree

import "sort"


//============================================= Stree Persistent Queries


// locate
//	Descend from the root matching edge labels against the pattern, reading nodes
//	straight from storage. Returns 0 when the pattern is absent.
func (pst *persistentTree) locate(pattern []int32) (uint64, error) {
	node := pst.rootOffset
	idx := 0

	for idx < len(pattern) {
		child, lookupErr := pst.io.childLookup(node, symKey(pattern[idx]))
		if lookupErr != nil { return 0, lookupErr }
		if child == NullRef { return 0, nil }

		start, startErr := pst.io.nodeStart(child)
		if startErr != nil { return 0, startErr }

		end, endErr := pst.io.nodeEnd(child)
		if endErr != nil { return 0, endErr }

		for off := uint64(0); off < end - start && idx < len(pattern); off++ {
			if pst.text.symbolAt(int(start + off)) != pattern[idx] { return 0, nil }
			idx++
		}

		node = child
	}

	return node, nil
}

// contains
//	True iff the entire pattern is consumed along a root path.
func (pst *persistentTree) contains(pattern []int32) (bool, error) {
	if len(pattern) == 0 { return true, nil }

	locus, locateErr := pst.locate(pattern)
	if locateErr != nil { return false, locateErr }

	return locus != NullRef, nil
}

// countOccurrences
//	Number of occurrences of the pattern using the materialized leaf counts.
func (pst *persistentTree) countOccurrences(pattern []int32) (int, error) {
	if len(pattern) == 0 { return pst.text.Length(), nil }

	locus, locateErr := pst.locate(pattern)
	if locateErr != nil { return 0, locateErr }
	if locus == NullRef { return 0, nil }

	count, countErr := pst.io.nodeLeafCount(locus)
	return int(count), countErr
}

// findAllOccurrences
//	Start positions of every occurrence of the pattern, ascending.
func (pst *persistentTree) findAllOccurrences(pattern []int32) ([]int, error) {
	if len(pattern) == 0 {
		positions := make([]int, pst.text.Length())
		for idx := range positions { positions[idx] = idx }

		return positions, nil
	}

	locus, locateErr := pst.locate(pattern)
	if locateErr != nil { return nil, locateErr }
	if locus == NullRef { return []int{}, nil }

	positions, collectErr := pst.collectLeafPositions(locus)
	if collectErr != nil { return nil, collectErr }

	sort.Ints(positions)
	return positions, nil
}

// totalDepth
//	Cumulative path label length from the root through the node's edge.
func (pst *persistentTree) totalDepth(offset uint64) (int, error) {
	depth, depthErr := pst.io.nodeDepth(offset)
	if depthErr != nil { return 0, depthErr }

	start, startErr := pst.io.nodeStart(offset)
	if startErr != nil { return 0, startErr }

	end, endErr := pst.io.nodeEnd(offset)
	if endErr != nil { return 0, endErr }

	return int(depth) + int(end - start), nil
}

// suffixPosition
//	The suffix start position a leaf represents.
func (pst *persistentTree) suffixPosition(leaf uint64) (int, error) {
	depth, depthErr := pst.totalDepth(leaf)
	if depthErr != nil { return 0, depthErr }

	return pst.text.Length() + 1 - depth, nil
}

// collectLeafPositions
//	Gather the suffix positions of every leaf in the subtree.
func (pst *persistentTree) collectLeafPositions(offset uint64) ([]int, error) {
	positions := []int{}
	stack := []uint64{ offset }

	for len(stack) > 0 {
		node := stack[len(stack) - 1]
		stack = stack[:len(stack) - 1]

		entries, entriesErr := pst.io.childEntries(node)
		if entriesErr != nil { return nil, entriesErr }

		if len(entries) == 0 {
			position, posErr := pst.suffixPosition(node)
			if posErr != nil { return nil, posErr }

			positions = append(positions, position)
			continue
		}

		for _, entry := range entries { stack = append(stack, entry.ref) }
	}

	return positions, nil
}

// anyLeafPosition
//	The suffix position of one leaf in the subtree, following first children down.
func (pst *persistentTree) anyLeafPosition(offset uint64) (int, error) {
	for {
		entries, entriesErr := pst.io.childEntries(offset)
		if entriesErr != nil { return 0, entriesErr }

		if len(entries) == 0 { return pst.suffixPosition(offset) }
		offset = entries[0].ref
	}
}

// longestRepeatedSubstring
//	The path label of the deepest internal node recorded in the header.
func (pst *persistentTree) longestRepeatedSubstring() (string, error) {
	depth, depthErr := pst.totalDepth(pst.deepestOffset)
	if depthErr != nil { return "", depthErr }
	if depth == 0 { return "", nil }

	end, endErr := pst.io.nodeEnd(pst.deepestOffset)
	if endErr != nil { return "", endErr }

	return pst.text.substringClamped(int(end) - depth, int(end)), nil
}

// enumerateSuffixes
//	Visit every suffix string in child key order, sentinel first. Yield false stops the walk.
func (pst *persistentTree) enumerateSuffixes(yield func(suffix string) bool) error {
	_, walkErr := pst.enumerateSuffixesRecursive(pst.rootOffset, yield)
	return walkErr
}

func (pst *persistentTree) enumerateSuffixesRecursive(offset uint64, yield func(suffix string) bool) (bool, error) {
	entries, entriesErr := pst.io.childEntries(offset)
	if entriesErr != nil { return false, entriesErr }

	if len(entries) == 0 {
		position, posErr := pst.suffixPosition(offset)
		if posErr != nil { return false, posErr }

		return yield(pst.text.substringClamped(position, pst.text.Length())), nil
	}

	for _, entry := range entries {
		proceed, walkErr := pst.enumerateSuffixesRecursive(entry.ref, yield)
		if walkErr != nil { return false, walkErr }
		if ! proceed { return false, nil }
	}

	return true, nil
}

// traverse
//	Pre-order walk, siblings ascending by first edge symbol.
func (pst *persistentTree) traverse(visitor TreeVisitor) error {
	return pst.traverseRecursive(pst.rootOffset, visitor)
}

func (pst *persistentTree) traverseRecursive(offset uint64, visitor TreeVisitor) error {
	start, startErr := pst.io.nodeStart(offset)
	if startErr != nil { return startErr }

	end, endErr := pst.io.nodeEnd(offset)
	if endErr != nil { return endErr }

	depth, depthErr := pst.io.nodeDepth(offset)
	if depthErr != nil { return depthErr }

	count, countErr := pst.io.nodeLeafCount(offset)
	if countErr != nil { return countErr }

	entries, entriesErr := pst.io.childEntries(offset)
	if entriesErr != nil { return entriesErr }

	keys := make([]int32, len(entries))
	for idx := range entries { keys[idx] = keySym(entries[idx].key) }

	info := &TreeNodeInfo{
		EdgeStart: int(start),
		EdgeEnd: int(end),
		DepthFromRoot: int(depth),
		LeafCount: int(count),
		ChildKeys: keys,
		IsLeaf: len(entries) == 0,
	}

	if visitErr := visitor(info); visitErr != nil { return visitErr }

	for _, entry := range entries {
		if visitErr := pst.traverseRecursive(entry.ref, visitor); visitErr != nil { return visitErr }
	}

	return nil
}
