package stree

import "bufio"
import "encoding/binary"
import "encoding/hex"
import "io"

import "github.com/cespare/xxhash/v2"
import "github.com/pkg/errors"


//============================================= Stree Serialization


// ExportMagic tags the canonical export stream, last byte is the stream format version.
var ExportMagic = []byte{ 'S', 'X', '1', 0x01 }

// LogicalHash is the 128 bit layout independent digest of a tree.
type LogicalHash [16]byte

// String
//	Hex rendering of the hash.
func (hash LogicalHash) String() string {
	return hex.EncodeToString(hash[:])
}

// Export
//	Emit the canonical serialization of the tree: magic and version, N, the raw
//	text code units, the node count, then a depth first pre-order listing where
//	each record is edge start, edge end, leaf count and child count followed by
//	the child edge keys ascending. The output is byte identical for the same
//	logical tree regardless of the storage layout underneath.
func (streeInst *Stree) Export(writer io.Writer) error {
	if ! streeInst.opened { return errors.Wrap(ErrDisposed, "export") }

	buffered := bufio.NewWriter(writer)

	if _, writeErr := buffered.Write(ExportMagic); writeErr != nil { return errors.Wrapf(ErrIo, "export magic: %v", writeErr) }

	scratch := make([]byte, 8)

	writeU64 := func(val uint64) error {
		binary.LittleEndian.PutUint64(scratch, val)

		_, writeErr := buffered.Write(scratch[:8])
		if writeErr != nil { return errors.Wrapf(ErrIo, "export u64: %v", writeErr) }

		return nil
	}

	writeU32 := func(val uint32) error {
		binary.LittleEndian.PutUint32(scratch, val)

		_, writeErr := buffered.Write(scratch[:4])
		if writeErr != nil { return errors.Wrapf(ErrIo, "export u32: %v", writeErr) }

		return nil
	}

	if writeErr := writeU64(uint64(streeInst.text.Length())); writeErr != nil { return writeErr }

	for _, unit := range streeInst.text.Units() {
		binary.LittleEndian.PutUint16(scratch, unit)
		if _, writeErr := buffered.Write(scratch[:2]); writeErr != nil { return errors.Wrapf(ErrIo, "export unit: %v", writeErr) }
	}

	if writeErr := writeU64(uint64(streeInst.nodeCount)); writeErr != nil { return writeErr }

	traverseErr := streeInst.Traverse(func(info *TreeNodeInfo) error {
		if writeErr := writeU64(uint64(info.EdgeStart)); writeErr != nil { return writeErr }
		if writeErr := writeU64(uint64(info.EdgeEnd)); writeErr != nil { return writeErr }
		if writeErr := writeU64(uint64(info.LeafCount)); writeErr != nil { return writeErr }
		if writeErr := writeU32(uint32(len(info.ChildKeys))); writeErr != nil { return writeErr }

		for _, key := range info.ChildKeys {
			if writeErr := writeU32(symKey(key)); writeErr != nil { return writeErr }
		}

		return nil
	})

	if traverseErr != nil { return traverseErr }

	if flushErr := buffered.Flush(); flushErr != nil { return errors.Wrapf(ErrIo, "export flush: %v", flushErr) }
	return nil
}

// CalculateLogicalHash
//	A domain separated 128 bit digest over the same canonical pre-order stream the
//	exporter emits. The hash agrees between the in-memory tree, the pure compact
//	persistent tree and the hybrid persistent tree for the same text.
func (streeInst *Stree) CalculateLogicalHash() (LogicalHash, error) {
	var hash LogicalHash
	if ! streeInst.opened { return hash, errors.Wrap(ErrDisposed, "logical hash") }

	lo := xxhash.New()
	hi := xxhash.New()

	lo.WriteString("stree:logical:lo")
	hi.WriteString("stree:logical:hi")

	if exportErr := streeInst.Export(io.MultiWriter(lo, hi)); exportErr != nil { return hash, exportErr }

	binary.LittleEndian.PutUint64(hash[0:], lo.Sum64())
	binary.LittleEndian.PutUint64(hash[8:], hi.Sum64())

	return hash, nil
}

// Import
//	Rebuild a tree from a canonical export stream into the target storage.
//	The stream's embedded text drives a fresh persistent construction, which by
//	determinism reproduces the exported tree exactly; the stream's structural
//	records are then verified against the rebuilt tree.
func Import(reader io.Reader, storage Storage) (*Stree, error) {
	buffered := bufio.NewReader(reader)

	magic := make([]byte, len(ExportMagic))
	if _, readErr := io.ReadFull(buffered, magic); readErr != nil { return nil, errors.Wrapf(ErrInvalidInput, "import magic: %v", readErr) }

	for idx := range magic {
		if magic[idx] != ExportMagic[idx] { return nil, errors.Wrapf(ErrCorrupt, "import magic mismatch %q", magic) }
	}

	scratch := make([]byte, 8)

	readU64 := func() (uint64, error) {
		if _, readErr := io.ReadFull(buffered, scratch[:8]); readErr != nil { return 0, errors.Wrapf(ErrCorrupt, "import u64: %v", readErr) }
		return binary.LittleEndian.Uint64(scratch), nil
	}

	readU32 := func() (uint32, error) {
		if _, readErr := io.ReadFull(buffered, scratch[:4]); readErr != nil { return 0, errors.Wrapf(ErrCorrupt, "import u32: %v", readErr) }
		return binary.LittleEndian.Uint32(scratch), nil
	}

	textLen, lenErr := readU64()
	if lenErr != nil { return nil, lenErr }

	units := make([]uint16, textLen)
	for idx := range units {
		if _, readErr := io.ReadFull(buffered, scratch[:2]); readErr != nil { return nil, errors.Wrapf(ErrCorrupt, "import unit: %v", readErr) }
		units[idx] = binary.LittleEndian.Uint16(scratch)
	}

	nodeCount, countErr := readU64()
	if countErr != nil { return nil, countErr }

	streeInst, buildErr := buildPersistentFromText(NewTextFromUnits(units), storage, nil, nil)
	if buildErr != nil { return nil, buildErr }

	if uint64(streeInst.nodeCount) != nodeCount {
		return nil, errors.Wrapf(ErrCorrupt, "import node count %d, rebuilt %d", nodeCount, streeInst.nodeCount)
	}

	verifyErr := streeInst.Traverse(func(info *TreeNodeInfo) error {
		start, readErr := readU64()
		if readErr != nil { return readErr }

		end, readErr := readU64()
		if readErr != nil { return readErr }

		leaves, readErr := readU64()
		if readErr != nil { return readErr }

		children, readErr := readU32()
		if readErr != nil { return readErr }

		if start != uint64(info.EdgeStart) || end != uint64(info.EdgeEnd) || leaves != uint64(info.LeafCount) || children != uint32(len(info.ChildKeys)) {
			return errors.Wrapf(ErrCorrupt, "import record mismatch at edge [%d, %d)", info.EdgeStart, info.EdgeEnd)
		}

		for _, key := range info.ChildKeys {
			streamKey, readErr := readU32()
			if readErr != nil { return readErr }

			if streamKey != symKey(key) { return errors.Wrapf(ErrCorrupt, "import child key mismatch %d", streamKey) }
		}

		return nil
	})

	if verifyErr != nil { return nil, verifyErr }
	return streeInst, nil
}
