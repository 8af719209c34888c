package stree

import "encoding/binary"

import "github.com/pkg/errors"


//============================================= Stree Storage


// Storage is an append friendly, random access byte store.
//	All multi byte values are little endian. Typed writes require offset + width <= Size;
//	the append family writes at the current size and advances it.
type Storage interface {
	// Size: current size of the store in bytes
	Size() uint64
	// SetSize: grow or truncate the store. Growth preserves existing bytes.
	SetSize(n uint64) error
	// ReadUint16: read a little endian u16 at offset
	ReadUint16(offset uint64) (uint16, error)
	// ReadUint32: read a little endian u32 at offset
	ReadUint32(offset uint64) (uint32, error)
	// ReadUint64: read a little endian u64 at offset
	ReadUint64(offset uint64) (uint64, error)
	// ReadInt32: read a little endian i32 at offset
	ReadInt32(offset uint64) (int32, error)
	// ReadBytes: read length bytes at offset into an owned slice
	ReadBytes(offset, length uint64) ([]byte, error)
	// WriteUint16: write a little endian u16 at offset
	WriteUint16(offset uint64, val uint16) error
	// WriteUint32: write a little endian u32 at offset
	WriteUint32(offset uint64, val uint32) error
	// WriteUint64: write a little endian u64 at offset
	WriteUint64(offset uint64, val uint64) error
	// WriteBytes: write data at offset
	WriteBytes(offset uint64, data []byte) error
	// AppendUint32: write a little endian u32 at the current size, returning the offset it landed at
	AppendUint32(val uint32) (uint64, error)
	// AppendUint64: write a little endian u64 at the current size, returning the offset it landed at
	AppendUint64(val uint64) (uint64, error)
	// AppendBytes: write data at the current size, returning the offset it landed at
	AppendBytes(data []byte) (uint64, error)
	// Flush: persist to the backing store. A no-op for heap storage.
	Flush() error
	// Dispose: release the store. Every operation afterwards fails with ErrDisposed.
	Dispose() error
}

// HeapStorage is the in-RAM Storage implementation backed by a byte slice.
type HeapStorage struct {
	buf []byte
	disposed bool
}

// NewHeapStorage
//	Create an empty heap backed store.
func NewHeapStorage() *HeapStorage {
	return &HeapStorage{ buf: make([]byte, 0, DefaultPageSize) }
}

// Size
//	Current size of the store in bytes.
func (heap *HeapStorage) Size() uint64 {
	return uint64(len(heap.buf))
}

// SetSize
//	Grow or truncate the store. Growth zero fills and may reallocate, preserving existing bytes.
func (heap *HeapStorage) SetSize(n uint64) error {
	if heap.disposed { return errors.Wrap(ErrDisposed, "heap setSize") }

	switch {
		case n <= uint64(len(heap.buf)):
			heap.buf = heap.buf[:n]
		case n <= uint64(cap(heap.buf)):
			oldLen := len(heap.buf)
			heap.buf = heap.buf[:n]
			for idx := oldLen; idx < int(n); idx++ { heap.buf[idx] = 0 }
		default:
			grown := make([]byte, n, nextCapacity(uint64(cap(heap.buf)), n))
			copy(grown, heap.buf)
			heap.buf = grown
	}

	return nil
}

func (heap *HeapStorage) checkRange(op string, offset, width uint64) error {
	if heap.disposed { return errors.Wrap(ErrDisposed, op) }
	if offset + width > uint64(len(heap.buf)) { return wrapOffsetErr(ErrOutOfRange, op, offset) }

	return nil
}

func (heap *HeapStorage) ReadUint16(offset uint64) (uint16, error) {
	if checkErr := heap.checkRange("heap readUint16", offset, 2); checkErr != nil { return 0, checkErr }
	return binary.LittleEndian.Uint16(heap.buf[offset:]), nil
}

func (heap *HeapStorage) ReadUint32(offset uint64) (uint32, error) {
	if checkErr := heap.checkRange("heap readUint32", offset, 4); checkErr != nil { return 0, checkErr }
	return binary.LittleEndian.Uint32(heap.buf[offset:]), nil
}

func (heap *HeapStorage) ReadUint64(offset uint64) (uint64, error) {
	if checkErr := heap.checkRange("heap readUint64", offset, 8); checkErr != nil { return 0, checkErr }
	return binary.LittleEndian.Uint64(heap.buf[offset:]), nil
}

func (heap *HeapStorage) ReadInt32(offset uint64) (int32, error) {
	val, readErr := heap.ReadUint32(offset)
	return int32(val), readErr
}

func (heap *HeapStorage) ReadBytes(offset, length uint64) ([]byte, error) {
	if checkErr := heap.checkRange("heap readBytes", offset, length); checkErr != nil { return nil, checkErr }

	out := make([]byte, length)
	copy(out, heap.buf[offset:offset + length])

	return out, nil
}

func (heap *HeapStorage) WriteUint16(offset uint64, val uint16) error {
	if checkErr := heap.checkRange("heap writeUint16", offset, 2); checkErr != nil { return checkErr }

	binary.LittleEndian.PutUint16(heap.buf[offset:], val)
	return nil
}

func (heap *HeapStorage) WriteUint32(offset uint64, val uint32) error {
	if checkErr := heap.checkRange("heap writeUint32", offset, 4); checkErr != nil { return checkErr }

	binary.LittleEndian.PutUint32(heap.buf[offset:], val)
	return nil
}

func (heap *HeapStorage) WriteUint64(offset uint64, val uint64) error {
	if checkErr := heap.checkRange("heap writeUint64", offset, 8); checkErr != nil { return checkErr }

	binary.LittleEndian.PutUint64(heap.buf[offset:], val)
	return nil
}

func (heap *HeapStorage) WriteBytes(offset uint64, data []byte) error {
	if checkErr := heap.checkRange("heap writeBytes", offset, uint64(len(data))); checkErr != nil { return checkErr }

	copy(heap.buf[offset:], data)
	return nil
}

func (heap *HeapStorage) AppendUint32(val uint32) (uint64, error) {
	offset := heap.Size()
	if growErr := heap.SetSize(offset + 4); growErr != nil { return 0, growErr }

	return offset, heap.WriteUint32(offset, val)
}

func (heap *HeapStorage) AppendUint64(val uint64) (uint64, error) {
	offset := heap.Size()
	if growErr := heap.SetSize(offset + 8); growErr != nil { return 0, growErr }

	return offset, heap.WriteUint64(offset, val)
}

func (heap *HeapStorage) AppendBytes(data []byte) (uint64, error) {
	offset := heap.Size()
	if growErr := heap.SetSize(offset + uint64(len(data))); growErr != nil { return 0, growErr }

	return offset, heap.WriteBytes(offset, data)
}

// Flush
//	A no-op for heap storage.
func (heap *HeapStorage) Flush() error {
	if heap.disposed { return errors.Wrap(ErrDisposed, "heap flush") }
	return nil
}

// Dispose
//	Drop the buffer. Every operation afterwards fails with ErrDisposed.
func (heap *HeapStorage) Dispose() error {
	heap.disposed = true
	heap.buf = nil

	return nil
}

// nextCapacity
//	Geometric growth for the heap buffer, at least doubling to amortize reallocation.
func nextCapacity(current, needed uint64) uint64 {
	if current == 0 { current = uint64(DefaultPageSize) }
	for current < needed { current *= 2 }

	return current
}
