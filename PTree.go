package stree

import "encoding/binary"

import "github.com/pkg/errors"


//============================================= Stree Persistent Header and Loader


// persistentHeader is the fixed preamble at offset 0 of a persistent store.
type persistentHeader struct {
	version uint32
	storageSize uint64
	rootOffset uint64
	textOffset uint64
	textLength uint64
	deepestOffset uint64
	transitionOffset uint64
	jumpTableStart uint64
	jumpTableEnd uint64
}

// writeHeader
//	Serialize the header into the first 72 bytes of storage.
//	The hybrid fields stay zero in a Version4 header.
func writeHeader(storage Storage, header *persistentHeader) error {
	encoded := make([]byte, HeaderSize)

	copy(encoded[HeaderMagicIdx:], []byte(Magic))
	binary.LittleEndian.PutUint32(encoded[HeaderVersionIdx:], header.version)
	binary.LittleEndian.PutUint64(encoded[HeaderStorageSizeIdx:], header.storageSize)
	binary.LittleEndian.PutUint64(encoded[HeaderRootOffsetIdx:], header.rootOffset)
	binary.LittleEndian.PutUint64(encoded[HeaderTextOffsetIdx:], header.textOffset)
	binary.LittleEndian.PutUint64(encoded[HeaderTextLengthIdx:], header.textLength)
	binary.LittleEndian.PutUint64(encoded[HeaderDeepestIdx:], header.deepestOffset)

	if header.version == Version5 {
		binary.LittleEndian.PutUint64(encoded[HeaderTransitionIdx:], header.transitionOffset)
		binary.LittleEndian.PutUint64(encoded[HeaderJumpStartIdx:], header.jumpTableStart)
		binary.LittleEndian.PutUint64(encoded[HeaderJumpEndIdx:], header.jumpTableEnd)
	}

	return storage.WriteBytes(0, encoded)
}

// readHeader
//	Deserialize and validate the header. The version field auto-detects the layout:
//	Version4 is pure compact, Version5 populates the hybrid bookkeeping.
func readHeader(storage Storage) (*persistentHeader, error) {
	if storage.Size() < HeaderSize { return nil, errors.Wrapf(ErrInvalidInput, "storage size %d below header size", storage.Size()) }

	encoded, readErr := storage.ReadBytes(0, HeaderSize)
	if readErr != nil { return nil, readErr }

	if string(encoded[HeaderMagicIdx:HeaderMagicIdx + 4]) != Magic {
		return nil, errors.Wrapf(ErrCorrupt, "magic mismatch %q", encoded[HeaderMagicIdx:HeaderMagicIdx + 4])
	}

	header := &persistentHeader{
		version: binary.LittleEndian.Uint32(encoded[HeaderVersionIdx:]),
		storageSize: binary.LittleEndian.Uint64(encoded[HeaderStorageSizeIdx:]),
		rootOffset: binary.LittleEndian.Uint64(encoded[HeaderRootOffsetIdx:]),
		textOffset: binary.LittleEndian.Uint64(encoded[HeaderTextOffsetIdx:]),
		textLength: binary.LittleEndian.Uint64(encoded[HeaderTextLengthIdx:]),
		deepestOffset: binary.LittleEndian.Uint64(encoded[HeaderDeepestIdx:]),
	}

	switch header.version {
		case Version4:
		case Version5:
			header.transitionOffset = binary.LittleEndian.Uint64(encoded[HeaderTransitionIdx:])
			header.jumpTableStart = binary.LittleEndian.Uint64(encoded[HeaderJumpStartIdx:])
			header.jumpTableEnd = binary.LittleEndian.Uint64(encoded[HeaderJumpEndIdx:])
		default:
			return nil, errors.Wrapf(ErrCorrupt, "unknown format version %d", header.version)
	}

	if header.rootOffset != InitRootOffset { return nil, errors.Wrapf(ErrCorrupt, "root offset %d", header.rootOffset) }
	if header.textOffset + header.textLength * 2 > storage.Size() {
		return nil, wrapOffsetErr(ErrCorrupt, "text region exceeds storage", header.textOffset)
	}
	if header.jumpTableEnd < header.jumpTableStart || (header.jumpTableEnd - header.jumpTableStart) % JumpEntrySize != 0 {
		return nil, errors.Wrapf(ErrCorrupt, "jump table bounds [%d, %d)", header.jumpTableStart, header.jumpTableEnd)
	}

	return header, nil
}

// loadPersistentTree
//	Expose an already materialized tree from storage with no rebuild.
//	The text region is decoded once so queries read symbols from RAM.
func loadPersistentTree(storage Storage) (*persistentTree, error) {
	header, headerErr := readHeader(storage)
	if headerErr != nil { return nil, headerErr }

	codec := &nodeIO{ storage: storage, transition: header.transitionOffset, jumpStart: header.jumpTableStart }
	if boundsErr := codec.errNodeBounds(header.rootOffset); boundsErr != nil { return nil, boundsErr }
	if boundsErr := codec.errNodeBounds(header.deepestOffset); boundsErr != nil { return nil, boundsErr }

	units := make([]uint16, header.textLength)
	for idx := range units {
		unit, readErr := storage.ReadUint16(header.textOffset + uint64(idx) * 2)
		if readErr != nil { return nil, readErr }

		units[idx] = unit
	}

	return &persistentTree{
		storage: storage,
		io: codec,
		text: NewTextFromUnits(units),
		version: header.version,
		rootOffset: header.rootOffset,
		textOffset: header.textOffset,
		deepestOffset: header.deepestOffset,
		transitionOffset: header.transitionOffset,
		jumpTableStart: header.jumpTableStart,
		jumpTableEnd: header.jumpTableEnd,
	}, nil
}

// countNodes
//	Walk the tree once to recover node and leaf totals for a loaded tree.
func (pst *persistentTree) countNodes() (nodes int, leaves int, err error) {
	stack := []uint64{ pst.rootOffset }

	for len(stack) > 0 {
		offset := stack[len(stack) - 1]
		stack = stack[:len(stack) - 1]
		nodes++

		entries, entriesErr := pst.io.childEntries(offset)
		if entriesErr != nil { return 0, 0, entriesErr }

		if len(entries) == 0 {
			leaves++
			continue
		}

		for _, entry := range entries { stack = append(stack, entry.ref) }
	}

	return nodes, leaves, nil
}
