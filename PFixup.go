package stree

import "encoding/binary"


//============================================= Stree Persistent Fix-Up


// finalize
//	Close out construction: resolve boundless edges and pending suffix links,
//	fill in subtree leaf counts, append the text region and the jump table, and
//	write the versioned header. After promotion the suffix link resolution is the
//	cross-zone fix-up pass: every compact node whose target now lives in the large
//	zone receives a tagged jump table index instead of a direct offset.
func (bld *persistentBuilder) finalize() (*persistentTree, error) {
	effectiveLen := uint64(bld.text.Length() + 1)

	for _, offset := range bld.nodeOffsets {
		end, endErr := bld.io.nodeEnd(offset)
		if endErr != nil { return nil, endErr }

		if end == Boundless64 {
			if setErr := bld.io.setNodeEnd(offset, effectiveLen); setErr != nil { return nil, setErr }
		}
	}

	for _, link := range bld.pendingLinks {
		if linkErr := bld.io.setNodeSuffixLink(link.source, link.target); linkErr != nil { return nil, linkErr }
	}

	if countErr := bld.computeLeafCounts(); countErr != nil { return nil, countErr }

	textOffset, textErr := bld.appendTextRegion()
	if textErr != nil { return nil, textErr }

	jumpStart, jumpEnd, jumpErr := bld.appendJumpTable()
	if jumpErr != nil { return nil, jumpErr }

	bld.io.jumpStart = jumpStart

	version := Version4
	if bld.promoted { version = Version5 }

	header := persistentHeader{
		version: version,
		storageSize: bld.io.storage.Size(),
		rootOffset: bld.rootOffset,
		textOffset: textOffset,
		textLength: uint64(bld.text.Length()),
		deepestOffset: bld.deepestOffset,
		transitionOffset: bld.io.transition,
		jumpTableStart: jumpStart,
		jumpTableEnd: jumpEnd,
	}

	if headerErr := writeHeader(bld.io.storage, &header); headerErr != nil { return nil, headerErr }

	if fStorage, isFile := bld.io.storage.(*FileStorage); isFile {
		if flushErr := fStorage.flushRegionToDisk(0, HeaderSize); flushErr != nil { return nil, flushErr }
	}

	if flushErr := bld.io.storage.Flush(); flushErr != nil { return nil, flushErr }

	bld.logger.Infow("finalized persistent tree",
		"version", version,
		"nodes", len(bld.nodeOffsets),
		"leaves", bld.leafCount,
		"storageSize", header.storageSize,
		"jumpEntries", len(bld.jumpTargets()))

	return &persistentTree{
		storage: bld.io.storage,
		io: bld.io,
		text: bld.text,
		version: version,
		rootOffset: bld.rootOffset,
		textOffset: textOffset,
		deepestOffset: bld.deepestOffset,
		transitionOffset: bld.io.transition,
		jumpTableStart: jumpStart,
		jumpTableEnd: jumpEnd,
	}, nil
}

// computeLeafCounts
//	Fill the leaf count field of every node bottom up.
//	Allocation order does not order parents against inherited children, so the
//	pass walks a pre-order of the finished tree and folds it in reverse, which
//	sees every child before its parent.
func (bld *persistentBuilder) computeLeafCounts() error {
	preOrder := make([]uint64, 0, len(bld.nodeOffsets))
	stack := []uint64{ bld.rootOffset }

	for len(stack) > 0 {
		offset := stack[len(stack) - 1]
		stack = stack[:len(stack) - 1]
		preOrder = append(preOrder, offset)

		entries, entriesErr := bld.io.childEntries(offset)
		if entriesErr != nil { return entriesErr }

		for _, entry := range entries { stack = append(stack, entry.ref) }
	}

	for idx := len(preOrder) - 1; idx >= 0; idx-- {
		offset := preOrder[idx]

		entries, entriesErr := bld.io.childEntries(offset)
		if entriesErr != nil { return entriesErr }

		if len(entries) == 0 {
			if setErr := bld.io.setNodeLeafCount(offset, 1); setErr != nil { return setErr }

			bld.leafCount++
			continue
		}

		total := uint32(0)
		for _, entry := range entries {
			childCount, countErr := bld.io.nodeLeafCount(entry.ref)
			if countErr != nil { return countErr }

			total += childCount
		}

		if setErr := bld.io.setNodeLeafCount(offset, total); setErr != nil { return setErr }
	}

	bld.nodeCount = len(bld.nodeOffsets)
	return nil
}

// appendTextRegion
//	Append the raw code units after the node records, returning the region offset.
func (bld *persistentBuilder) appendTextRegion() (uint64, error) {
	units := bld.text.Units()
	encoded := make([]byte, len(units) * 2)

	for idx, unit := range units { binary.LittleEndian.PutUint16(encoded[idx * 2:], unit) }
	return bld.io.storage.AppendBytes(encoded)
}

// appendJumpTable
//	Materialize the jump target list as a contiguous table of 8 byte entries.
//	Both bounds are 0 for a pure compact tree with no cross-zone references.
func (bld *persistentBuilder) appendJumpTable() (uint64, uint64, error) {
	if len(bld.io.jumpTargets) == 0 { return 0, 0, nil }

	start := bld.io.storage.Size()

	for _, target := range bld.io.jumpTargets {
		if _, appendErr := bld.io.storage.AppendUint64(target); appendErr != nil { return 0, 0, appendErr }
	}

	return start, bld.io.storage.Size(), nil
}

// jumpTargets
//	The build time jump entries, exposed for logging.
func (bld *persistentBuilder) jumpTargets() []uint64 {
	return bld.io.jumpTargets
}
