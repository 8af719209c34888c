package stree

import "go.uber.org/zap"


//============================================= Stree Persistent Builder


// pendingLink is a suffix link recorded by node offset during construction.
//	Links resolve lazily at build end, since at creation time the target may not
//	yet have a stable layout for the narrowing decision.
type pendingLink struct {
	source uint64
	target uint64
}

// persistentBuilder materializes Ukkonen's evolving tree directly into storage.
//	It carries the same active point state as the in-memory builder but every node
//	and child array edit lands in the store. While size + needed stays within the
//	compact offset limit allocations use the compact layout; the first allocation
//	past the limit promotes all subsequent writes to the large layout.
type persistentBuilder struct {
	io *nodeIO
	text *Text
	limit uint64
	promoted bool
	rootOffset uint64
	activeNode uint64
	activeEdgeIndex int
	activeLength int
	remainder int
	position int
	lastCreatedInternalNode uint64
	pendingLinks []pendingLink
	deepestOffset uint64
	deepestDepth int
	nodeOffsets []uint64
	nodeCount int
	leafCount int
	logger *zap.SugaredLogger
}

// newPersistentBuilder
//	Zero the header region and allocate the root record.
func newPersistentBuilder(text *Text, storage Storage, limit uint64, logger *zap.SugaredLogger) (*persistentBuilder, error) {
	if limit == 0 || limit > MaxCompactOffsetLimit { limit = MaxCompactOffsetLimit }

	if sizeErr := storage.SetSize(HeaderSize); sizeErr != nil { return nil, sizeErr }

	bld := &persistentBuilder{
		io: &nodeIO{ storage: storage },
		text: text,
		limit: limit,
		position: -1,
		logger: logger,
	}

	rootOffset, rootErr := bld.allocNode(0, 0, 0, 0)
	if rootErr != nil { return nil, rootErr }

	bld.rootOffset = rootOffset
	bld.activeNode = rootOffset
	bld.deepestOffset = rootOffset

	return bld, nil
}

// allocNode
//	Append a node record in the layout the current frontier dictates.
//	The first allocation that would cross the compact offset limit records the
//	transition offset and promotes every later allocation to the large layout.
func (bld *persistentBuilder) allocNode(start, end uint64, depth uint32, flags uint32) (uint64, error) {
	if ! bld.promoted && bld.io.storage.Size() + CompactNodeSize > bld.limit {
		bld.promoted = true
		bld.io.transition = bld.io.storage.Size()
		bld.logger.Infow("promoted storage to large layout", "transitionOffset", bld.io.transition)
	}

	offset, allocErr := bld.io.appendNode(bld.promoted, start, end, depth, flags)
	if allocErr != nil { return 0, allocErr }

	bld.nodeOffsets = append(bld.nodeOffsets, offset)
	return offset, nil
}

// build
//	Run the online construction over every text symbol and the closing sentinel.
func (bld *persistentBuilder) build() error {
	for idx := 0; idx <= bld.text.Length(); idx++ {
		if extendErr := bld.extend(bld.text.symbolAt(idx)); extendErr != nil { return extendErr }
	}

	return nil
}

// extend
//	One Ukkonen extension step for the symbol at the next position.
func (bld *persistentBuilder) extend(c int32) error {
	bld.position++
	bld.remainder++
	bld.lastCreatedInternalNode = 0

	for bld.remainder > 0 {
		if bld.activeLength == 0 { bld.activeEdgeIndex = bld.position }

		k := bld.text.symbolAt(bld.activeEdgeIndex)
		child, lookupErr := bld.io.childLookup(bld.activeNode, symKey(k))
		if lookupErr != nil { return lookupErr }

		if child == NullRef {
			depth, depthErr := bld.totalNodeDepth(bld.activeNode)
			if depthErr != nil { return depthErr }

			leaf, allocErr := bld.allocNode(uint64(bld.position), Boundless64, uint32(depth), FlagLeaf)
			if allocErr != nil { return allocErr }

			if putErr := bld.io.putChild(bld.activeNode, symKey(k), leaf); putErr != nil { return putErr }
			bld.recordSuffixLink(bld.activeNode)
		} else {
			edgeLen, lenErr := bld.edgeLength(child)
			if lenErr != nil { return lenErr }

			if bld.activeLength >= edgeLen {
				bld.activeEdgeIndex += edgeLen
				bld.activeLength -= edgeLen
				bld.activeNode = child
				continue
			}

			childStart, startErr := bld.io.nodeStart(child)
			if startErr != nil { return startErr }

			if bld.text.symbolAt(int(childStart) + bld.activeLength) == c {
				bld.activeLength++
				bld.recordSuffixLink(bld.activeNode)
				break
			}

			if splitErr := bld.splitEdge(child, c); splitErr != nil { return splitErr }
		}

		bld.remainder--

		if bld.activeNode == bld.rootOffset && bld.activeLength > 0 {
			bld.activeLength--
			bld.activeEdgeIndex = bld.position - bld.remainder + 1
		} else if bld.activeNode != bld.rootOffset {
			link, linkErr := bld.pendingLinkFor(bld.activeNode)
			if linkErr != nil { return linkErr }

			bld.activeNode = link
		}
	}

	return nil
}

// splitEdge
//	Split the edge into the node at childOffset at the active length.
//	The existing slot is re-used for the parent side of the split; the continuation
//	is allocated afresh and inherits the slot's edge tail, children and flags.
//	Recorded state naming the old slot identity is remapped to the continuation.
func (bld *persistentBuilder) splitEdge(childOffset uint64, c int32) error {
	childStart, startErr := bld.io.nodeStart(childOffset)
	if startErr != nil { return startErr }

	childEnd, endErr := bld.io.nodeEnd(childOffset)
	if endErr != nil { return endErr }

	childDepth, depthErr := bld.io.nodeDepth(childOffset)
	if depthErr != nil { return depthErr }

	childArray, arrayErr := bld.io.nodeChildArray(childOffset)
	if arrayErr != nil { return arrayErr }

	childFlags, flagsErr := bld.io.nodeFlags(childOffset)
	if flagsErr != nil { return flagsErr }

	childWasLarge := bld.io.isLarge(childOffset)

	childEntriesCopy, entriesErr := bld.io.childEntries(childOffset)
	if entriesErr != nil { return entriesErr }

	splitLen := uint64(bld.activeLength)

	// continuation: the former child, edge advanced past the split point
	continuation, allocErr := bld.allocNode(childStart + splitLen, childEnd, childDepth + uint32(splitLen), childFlags)
	if allocErr != nil { return allocErr }

	if childArray != NullRef {
		// a child array is formatted per its owner's layout; re-encode when the
		// continuation landed in a different zone than the slot it came from
		if bld.io.isLarge(continuation) != childWasLarge {
			reencoded, reErr := bld.io.appendChildArray(bld.io.isLarge(continuation), childEntriesCopy)
			if reErr != nil { return reErr }

			childArray = reencoded
		}

		if setErr := bld.io.setNodeChildArray(continuation, childArray); setErr != nil { return setErr }
	}

	bld.remapSlot(childOffset, continuation)

	// the old slot becomes the split node, parent side of the cut
	if setErr := bld.io.setNodeEnd(childOffset, childStart + splitLen); setErr != nil { return setErr }
	if setErr := bld.io.setNodeChildArray(childOffset, NullRef); setErr != nil { return setErr }
	if setErr := bld.io.setNodeSuffixLink(childOffset, NullRef); setErr != nil { return setErr }
	if setErr := bld.io.setNodeFlags(childOffset, 0); setErr != nil { return setErr }

	contSym := bld.text.symbolAt(int(childStart + splitLen))
	if putErr := bld.io.putChild(childOffset, symKey(contSym), continuation); putErr != nil { return putErr }

	leaf, leafErr := bld.allocNode(uint64(bld.position), Boundless64, childDepth + uint32(splitLen), FlagLeaf)
	if leafErr != nil { return leafErr }

	if putErr := bld.io.putChild(childOffset, symKey(c), leaf); putErr != nil { return putErr }

	bld.recordSuffixLink(childOffset)
	bld.lastCreatedInternalNode = childOffset

	splitTotal := int(childDepth) + bld.activeLength
	if splitTotal > bld.deepestDepth {
		bld.deepestDepth = splitTotal
		bld.deepestOffset = childOffset
	}

	return nil
}

// remapSlot
//	A split re-uses a slot for a new, shorter node; every piece of recorded state
//	that named the slot's old identity must follow the continuation.
func (bld *persistentBuilder) remapSlot(oldOffset, newOffset uint64) {
	for idx := range bld.pendingLinks {
		if bld.pendingLinks[idx].source == oldOffset { bld.pendingLinks[idx].source = newOffset }
		if bld.pendingLinks[idx].target == oldOffset { bld.pendingLinks[idx].target = newOffset }
	}

	if bld.lastCreatedInternalNode == oldOffset { bld.lastCreatedInternalNode = newOffset }
	if bld.deepestOffset == oldOffset { bld.deepestOffset = newOffset }
	if bld.activeNode == oldOffset { bld.activeNode = newOffset }
}

// recordSuffixLink
//	Record the pending suffix link from the last created internal node to the
//	target. A pending link records exactly once; a self target stays pending for
//	the next extension.
func (bld *persistentBuilder) recordSuffixLink(target uint64) {
	if bld.lastCreatedInternalNode == 0 || bld.lastCreatedInternalNode == target { return }

	bld.pendingLinks = append(bld.pendingLinks, pendingLink{ source: bld.lastCreatedInternalNode, target: target })
	bld.lastCreatedInternalNode = 0
}

// pendingLinkFor
//	The suffix link to follow from a node mid construction, falling back to the root.
//	Resolved links are not yet written to storage, so the walk consults the pending list.
func (bld *persistentBuilder) pendingLinkFor(node uint64) (uint64, error) {
	for idx := len(bld.pendingLinks) - 1; idx >= 0; idx-- {
		if bld.pendingLinks[idx].source == node { return bld.pendingLinks[idx].target, nil }
	}

	return bld.rootOffset, nil
}

// edgeLength
//	The edge label length of the node at offset given the construction frontier.
func (bld *persistentBuilder) edgeLength(offset uint64) (int, error) {
	start, startErr := bld.io.nodeStart(offset)
	if startErr != nil { return 0, startErr }

	end, endErr := bld.io.nodeEnd(offset)
	if endErr != nil { return 0, endErr }

	if end == Boundless64 { return bld.position + 1 - int(start), nil }
	return int(end - start), nil
}

// totalNodeDepth
//	Cumulative path label length from the root through the node's edge.
func (bld *persistentBuilder) totalNodeDepth(offset uint64) (int, error) {
	depth, depthErr := bld.io.nodeDepth(offset)
	if depthErr != nil { return 0, depthErr }

	edgeLen, lenErr := bld.edgeLength(offset)
	if lenErr != nil { return 0, lenErr }

	return int(depth) + edgeLen, nil
}
