package stree

import "sort"

import "github.com/pkg/errors"


//============================================= Stree Persistent Node Codec


// pchildEntry is one decoded child array entry.
type pchildEntry struct {
	// key: first edge symbol + 1, so the sentinel sorts first at 0
	key uint32
	// ref: resolved byte offset of the child node
	ref uint64
}

// nodeIO reads and writes node records in either layout against a Storage.
//	The layout of a record is decided by its offset against the transition offset;
//	child arrays are formatted per their owning node's layout. Compact references
//	with the high bit set are jump table indexes, resolved from the in-RAM target
//	list while building and from the materialized table afterwards.
type nodeIO struct {
	storage Storage
	// transition: first byte belonging to the large zone, 0 while pure compact
	transition uint64
	// jumpStart: offset of the materialized jump table, 0 while building
	jumpStart uint64
	// jumpTargets: build time jump entries, written out by the fix-up pass
	jumpTargets []uint64
	// jumpIndex: build time target to index map so rewrites of a field reuse its entry
	jumpIndex map[uint64]uint32
}

// isLarge
//	True when the record at offset uses the large layout.
func (io *nodeIO) isLarge(offset uint64) bool {
	return io.transition != 0 && offset >= io.transition
}

// symKey
//	Encode a symbol as a child array key. The sentinel maps to 0 so unsigned
//	key order equals the canonical symbol order.
func symKey(sym int32) uint32 {
	return uint32(sym + 1)
}

// keySym
//	Decode a child array key back to a symbol.
func keySym(key uint32) int32 {
	return int32(key) - 1
}

// encodeCompactRef
//	Narrow a target offset into a compact reference slot.
//	A target in the large zone cannot be expressed directly; it is appended to the
//	jump target list and the slot receives a tagged index.
func (io *nodeIO) encodeCompactRef(target uint64) uint32 {
	if target == NullRef { return 0 }

	if io.transition != 0 && target >= io.transition {
		if idx, seen := io.jumpIndex[target]; seen { return JumpRefTag | idx }

		idx := uint32(len(io.jumpTargets))
		io.jumpTargets = append(io.jumpTargets, target)

		if io.jumpIndex == nil { io.jumpIndex = make(map[uint64]uint32) }
		io.jumpIndex[target] = idx

		return JumpRefTag | idx
	}

	return uint32(target)
}

// resolveCompactRef
//	Widen a compact reference slot back to a target offset, dereferencing the
//	jump table transparently.
func (io *nodeIO) resolveCompactRef(ref uint32) (uint64, error) {
	if ref & JumpRefTag == 0 { return uint64(ref), nil }

	idx := uint64(ref &^ JumpRefTag)

	if io.jumpStart == 0 {
		if idx >= uint64(len(io.jumpTargets)) { return 0, wrapOffsetErr(ErrCorrupt, "jump index out of table", idx) }
		return io.jumpTargets[idx], nil
	}

	return io.storage.ReadUint64(io.jumpStart + idx * JumpEntrySize)
}

// appendNode
//	Append a node record in the given layout, returning its offset.
func (io *nodeIO) appendNode(large bool, start, end uint64, depth uint32, flags uint32) (uint64, error) {
	if large {
		record := make([]byte, LargeNodeSize)
		putUint64(record[LNodeStartIdx:], start)
		putUint64(record[LNodeEndIdx:], end)
		putUint32(record[LNodeDepthIdx:], depth)
		putUint32(record[LNodeFlagsIdx:], flags)

		return io.storage.AppendBytes(record)
	}

	record := make([]byte, CompactNodeSize)
	putUint32(record[CNodeStartIdx:], uint32(start))

	if end == Boundless64 {
		putUint32(record[CNodeEndIdx:], Boundless32)
	} else { putUint32(record[CNodeEndIdx:], uint32(end)) }

	putUint32(record[CNodeDepthIdx:], depth)
	putUint32(record[CNodeFlagsIdx:], flags)

	return io.storage.AppendBytes(record)
}

// nodeStart
//	The edge label start of the node at offset.
func (io *nodeIO) nodeStart(offset uint64) (uint64, error) {
	if io.isLarge(offset) { return io.storage.ReadUint64(offset + LNodeStartIdx) }

	val, readErr := io.storage.ReadUint32(offset + CNodeStartIdx)
	return uint64(val), readErr
}

// nodeEnd
//	The edge label end of the node at offset. A boundless end reads back as Boundless64 in either layout.
func (io *nodeIO) nodeEnd(offset uint64) (uint64, error) {
	if io.isLarge(offset) { return io.storage.ReadUint64(offset + LNodeEndIdx) }

	val, readErr := io.storage.ReadUint32(offset + CNodeEndIdx)
	if readErr != nil { return 0, readErr }

	if val == Boundless32 { return Boundless64, nil }
	return uint64(val), nil
}

// setNodeEnd
//	Rewrite the edge label end of the node at offset.
func (io *nodeIO) setNodeEnd(offset, end uint64) error {
	if io.isLarge(offset) { return io.storage.WriteUint64(offset + LNodeEndIdx, end) }

	if end == Boundless64 { return io.storage.WriteUint32(offset + CNodeEndIdx, Boundless32) }
	return io.storage.WriteUint32(offset + CNodeEndIdx, uint32(end))
}

// nodeDepth
//	The depth from root to the start of the node's edge.
func (io *nodeIO) nodeDepth(offset uint64) (uint32, error) {
	if io.isLarge(offset) { return io.storage.ReadUint32(offset + LNodeDepthIdx) }
	return io.storage.ReadUint32(offset + CNodeDepthIdx)
}

// nodeLeafCount
//	The subtree leaf count of the node at offset.
func (io *nodeIO) nodeLeafCount(offset uint64) (uint32, error) {
	if io.isLarge(offset) { return io.storage.ReadUint32(offset + LNodeLeafCountIdx) }
	return io.storage.ReadUint32(offset + CNodeLeafCountIdx)
}

// setNodeLeafCount
//	Rewrite the subtree leaf count of the node at offset.
func (io *nodeIO) setNodeLeafCount(offset uint64, count uint32) error {
	if io.isLarge(offset) { return io.storage.WriteUint32(offset + LNodeLeafCountIdx, count) }
	return io.storage.WriteUint32(offset + CNodeLeafCountIdx, count)
}

// nodeFlags
//	The flags word of the node at offset.
func (io *nodeIO) nodeFlags(offset uint64) (uint32, error) {
	if io.isLarge(offset) { return io.storage.ReadUint32(offset + LNodeFlagsIdx) }
	return io.storage.ReadUint32(offset + CNodeFlagsIdx)
}

// setNodeFlags
//	Rewrite the flags word of the node at offset.
func (io *nodeIO) setNodeFlags(offset uint64, flags uint32) error {
	if io.isLarge(offset) { return io.storage.WriteUint32(offset + LNodeFlagsIdx, flags) }
	return io.storage.WriteUint32(offset + CNodeFlagsIdx, flags)
}

// nodeSuffixLink
//	The resolved suffix link target of the node at offset, 0 when null.
func (io *nodeIO) nodeSuffixLink(offset uint64) (uint64, error) {
	if io.isLarge(offset) { return io.storage.ReadUint64(offset + LNodeSuffixLinkIdx) }

	ref, readErr := io.storage.ReadUint32(offset + CNodeSuffixLinkIdx)
	if readErr != nil { return 0, readErr }

	return io.resolveCompactRef(ref)
}

// setNodeSuffixLink
//	Write the suffix link of the node at offset, narrowing through the jump table when needed.
func (io *nodeIO) setNodeSuffixLink(offset, target uint64) error {
	if io.isLarge(offset) { return io.storage.WriteUint64(offset + LNodeSuffixLinkIdx, target) }
	return io.storage.WriteUint32(offset + CNodeSuffixLinkIdx, io.encodeCompactRef(target))
}

// nodeChildArray
//	The resolved child array offset of the node at offset, 0 for leaves.
func (io *nodeIO) nodeChildArray(offset uint64) (uint64, error) {
	if io.isLarge(offset) { return io.storage.ReadUint64(offset + LNodeChildArrayIdx) }

	ref, readErr := io.storage.ReadUint32(offset + CNodeChildArrayIdx)
	if readErr != nil { return 0, readErr }

	return io.resolveCompactRef(ref)
}

// setNodeChildArray
//	Write the child array reference of the node at offset.
func (io *nodeIO) setNodeChildArray(offset, arrayOffset uint64) error {
	if io.isLarge(offset) { return io.storage.WriteUint64(offset + LNodeChildArrayIdx, arrayOffset) }
	return io.storage.WriteUint32(offset + CNodeChildArrayIdx, io.encodeCompactRef(arrayOffset))
}

// childEntries
//	Decode the full child array of the node at offset, entries ascending by key.
func (io *nodeIO) childEntries(offset uint64) ([]pchildEntry, error) {
	arrayOffset, readErr := io.nodeChildArray(offset)
	if readErr != nil { return nil, readErr }
	if arrayOffset == NullRef { return nil, nil }

	count, countErr := io.storage.ReadUint32(arrayOffset)
	if countErr != nil { return nil, countErr }

	large := io.isLarge(offset)
	entries := make([]pchildEntry, count)
	cursor := arrayOffset + ChildArrayCountSize

	for idx := uint32(0); idx < count; idx++ {
		key, keyErr := io.storage.ReadUint32(cursor)
		if keyErr != nil { return nil, keyErr }

		var ref uint64
		if large {
			wide, refErr := io.storage.ReadUint64(cursor + 4)
			if refErr != nil { return nil, refErr }

			ref = wide
			cursor += LargeChildEntrySize
		} else {
			narrow, refErr := io.storage.ReadUint32(cursor + 4)
			if refErr != nil { return nil, refErr }

			resolved, resolveErr := io.resolveCompactRef(narrow)
			if resolveErr != nil { return nil, resolveErr }

			ref = resolved
			cursor += CompactChildEntrySize
		}

		entries[idx] = pchildEntry{ key: key, ref: ref }
	}

	return entries, nil
}

// childLookup
//	Binary search the child array of the node at offset for the child under key.
//	Returns 0 when no such child exists.
func (io *nodeIO) childLookup(offset uint64, key uint32) (uint64, error) {
	entries, readErr := io.childEntries(offset)
	if readErr != nil { return 0, readErr }

	idx := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	if idx < len(entries) && entries[idx].key == key { return entries[idx].ref, nil }

	return NullRef, nil
}

// putChild
//	Insert or replace the child under key for the node at offset.
//	Replacement rewrites the entry in place; insertion reallocates the array at the
//	current frontier and abandons the old one, which append-only storage accepts.
func (io *nodeIO) putChild(offset uint64, key uint32, child uint64) error {
	entries, readErr := io.childEntries(offset)
	if readErr != nil { return readErr }

	idx := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })

	if idx < len(entries) && entries[idx].key == key {
		return io.rewriteChildEntry(offset, idx, child)
	}

	updated := make([]pchildEntry, len(entries) + 1)
	copy(updated[:idx], entries[:idx])
	updated[idx] = pchildEntry{ key: key, ref: child }
	copy(updated[idx + 1:], entries[idx:])

	arrayOffset, writeErr := io.appendChildArray(io.isLarge(offset), updated)
	if writeErr != nil { return writeErr }

	return io.setNodeChildArray(offset, arrayOffset)
}

// rewriteChildEntry
//	Overwrite the reference of the child entry at position idx in place.
func (io *nodeIO) rewriteChildEntry(offset uint64, idx int, child uint64) error {
	arrayOffset, readErr := io.nodeChildArray(offset)
	if readErr != nil { return readErr }

	if io.isLarge(offset) {
		entryOffset := arrayOffset + ChildArrayCountSize + uint64(idx) * LargeChildEntrySize
		return io.storage.WriteUint64(entryOffset + 4, child)
	}

	entryOffset := arrayOffset + ChildArrayCountSize + uint64(idx) * CompactChildEntrySize
	return io.storage.WriteUint32(entryOffset + 4, io.encodeCompactRef(child))
}

// appendChildArray
//	Append a freshly encoded child array in the given layout, returning its offset.
func (io *nodeIO) appendChildArray(large bool, entries []pchildEntry) (uint64, error) {
	entrySize := CompactChildEntrySize
	if large { entrySize = LargeChildEntrySize }

	encoded := make([]byte, ChildArrayCountSize + len(entries) * entrySize)
	putUint32(encoded, uint32(len(entries)))

	cursor := ChildArrayCountSize
	for _, entry := range entries {
		putUint32(encoded[cursor:], entry.key)

		if large {
			putUint64(encoded[cursor + 4:], entry.ref)
		} else { putUint32(encoded[cursor + 4:], io.encodeCompactRef(entry.ref)) }

		cursor += entrySize
	}

	return io.storage.AppendBytes(encoded)
}

// nodeRecordSize
//	The record size of the node at offset, used by linear zone scans.
func (io *nodeIO) nodeRecordSize(offset uint64) uint64 {
	if io.isLarge(offset) { return LargeNodeSize }
	return CompactNodeSize
}

// errNodeBounds
//	Guard a node offset against the storage extent.
func (io *nodeIO) errNodeBounds(offset uint64) error {
	if offset + io.nodeRecordSize(offset) > io.storage.Size() {
		return errors.Wrapf(ErrCorrupt, "node record at %d exceeds storage size %d", offset, io.storage.Size())
	}

	return nil
}
