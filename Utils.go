package stree

import "encoding/binary"
import "sort"
import "unicode/utf16"


//============================================= Stree Utilities


// putUint32
//	Little endian u32 encode into a prepared buffer.
func putUint32(buf []byte, val uint32) {
	binary.LittleEndian.PutUint32(buf, val)
}

// putUint64
//	Little endian u64 encode into a prepared buffer.
func putUint64(buf []byte, val uint64) {
	binary.LittleEndian.PutUint64(buf, val)
}

// symbolsToString
//	Decode widened symbols back to a Go string. The sentinel never appears in results.
func symbolsToString(symbols []int32) string {
	units := make([]uint16, len(symbols))
	for idx, sym := range symbols { units[idx] = uint16(sym) }

	return string(utf16.Decode(units))
}

// PrintTree
//	Debugging function for logging every node of the tree in pre-order.
func (streeInst *Stree) PrintTree() error {
	total := 0

	traverseErr := streeInst.Traverse(func(info *TreeNodeInfo) error {
		total++
		streeInst.logger.Debugw("node",
			"edgeStart", info.EdgeStart,
			"edgeEnd", info.EdgeEnd,
			"depth", info.DepthFromRoot,
			"leafCount", info.LeafCount,
			"children", len(info.ChildKeys),
			"isLeaf", info.IsLeaf)

		return nil
	})

	if traverseErr != nil { return traverseErr }

	streeInst.logger.Debugw("total count of nodes", "total", total)
	return nil
}

// uniqueSortedInts
//	Deduplicate and sort a small position list in place.
func uniqueSortedInts(values []int) []int {
	if len(values) < 2 {
		return values
	}

	seen := make(map[int]struct{}, len(values))
	out := values[:0]

	for _, val := range values {
		if _, dup := seen[val]; dup { continue }

		seen[val] = struct{}{}
		out = append(out, val)
	}

	sort.Ints(out)
	return out
}
