package stree

import "encoding/binary"
import "os"

import "github.com/pkg/errors"
import "go.uber.org/zap"


//============================================= Stree File Storage


// FileStorage is the memory mapped Storage implementation.
//	The backing file grows in geometric steps, at least doubling, to amortize remap cost.
//	Growth follows an unmap, truncate, remap cycle so the published mapping is always whole;
//	with the single writer discipline readers observe either the old or the new mapping.
type FileStorage struct {
	file *os.File
	mMap MMap
	// used: the logical store size. The mapped file is usually larger.
	used uint64
	disposed bool
	logger *zap.SugaredLogger
}

// OpenFileStorage
//	Open or create the backing file at path and map it.
//	An existing file's logical size is its current file length; a fresh file starts empty.
func OpenFileStorage(path string, logger *zap.SugaredLogger) (*FileStorage, error) {
	if logger == nil { logger = zap.NewNop().Sugar() }

	file, openErr := os.OpenFile(path, os.O_RDWR | os.O_CREATE, 0600)
	if openErr != nil { return nil, errors.Wrapf(ErrIo, "open %s: %v", path, openErr) }

	fStorage := &FileStorage{ file: file, logger: logger }

	stat, statErr := file.Stat()
	if statErr != nil { return nil, errors.Wrapf(ErrIo, "stat %s: %v", path, statErr) }

	fStorage.used = uint64(stat.Size())

	if stat.Size() > 0 {
		if mmapErr := fStorage.remap(); mmapErr != nil { return nil, mmapErr }
	}

	return fStorage, nil
}

// Size
//	The logical store size in bytes.
func (fStorage *FileStorage) Size() uint64 {
	return fStorage.used
}

// SetSize
//	Grow or truncate the logical store.
//	Growth past the mapped region resizes the backing file geometrically and remaps.
func (fStorage *FileStorage) SetSize(n uint64) error {
	if fStorage.disposed { return errors.Wrap(ErrDisposed, "file setSize") }

	if n > uint64(len(fStorage.mMap)) {
		if resizeErr := fStorage.resizeMmap(n); resizeErr != nil { return resizeErr }
	}

	fStorage.used = n
	return nil
}

func (fStorage *FileStorage) checkRange(op string, offset, width uint64) error {
	if fStorage.disposed { return errors.Wrap(ErrDisposed, op) }
	if offset + width > fStorage.used { return wrapOffsetErr(ErrOutOfRange, op, offset) }

	return nil
}

func (fStorage *FileStorage) ReadUint16(offset uint64) (uint16, error) {
	if checkErr := fStorage.checkRange("file readUint16", offset, 2); checkErr != nil { return 0, checkErr }
	return binary.LittleEndian.Uint16(fStorage.mMap[offset:]), nil
}

func (fStorage *FileStorage) ReadUint32(offset uint64) (uint32, error) {
	if checkErr := fStorage.checkRange("file readUint32", offset, 4); checkErr != nil { return 0, checkErr }
	return binary.LittleEndian.Uint32(fStorage.mMap[offset:]), nil
}

func (fStorage *FileStorage) ReadUint64(offset uint64) (uint64, error) {
	if checkErr := fStorage.checkRange("file readUint64", offset, 8); checkErr != nil { return 0, checkErr }
	return binary.LittleEndian.Uint64(fStorage.mMap[offset:]), nil
}

func (fStorage *FileStorage) ReadInt32(offset uint64) (int32, error) {
	val, readErr := fStorage.ReadUint32(offset)
	return int32(val), readErr
}

func (fStorage *FileStorage) ReadBytes(offset, length uint64) ([]byte, error) {
	if checkErr := fStorage.checkRange("file readBytes", offset, length); checkErr != nil { return nil, checkErr }

	out := make([]byte, length)
	copy(out, fStorage.mMap[offset:offset + length])

	return out, nil
}

func (fStorage *FileStorage) WriteUint16(offset uint64, val uint16) error {
	if checkErr := fStorage.checkRange("file writeUint16", offset, 2); checkErr != nil { return checkErr }

	binary.LittleEndian.PutUint16(fStorage.mMap[offset:], val)
	return nil
}

func (fStorage *FileStorage) WriteUint32(offset uint64, val uint32) error {
	if checkErr := fStorage.checkRange("file writeUint32", offset, 4); checkErr != nil { return checkErr }

	binary.LittleEndian.PutUint32(fStorage.mMap[offset:], val)
	return nil
}

func (fStorage *FileStorage) WriteUint64(offset uint64, val uint64) error {
	if checkErr := fStorage.checkRange("file writeUint64", offset, 8); checkErr != nil { return checkErr }

	binary.LittleEndian.PutUint64(fStorage.mMap[offset:], val)
	return nil
}

func (fStorage *FileStorage) WriteBytes(offset uint64, data []byte) error {
	if checkErr := fStorage.checkRange("file writeBytes", offset, uint64(len(data))); checkErr != nil { return checkErr }

	copy(fStorage.mMap[offset:], data)
	return nil
}

func (fStorage *FileStorage) AppendUint32(val uint32) (uint64, error) {
	offset := fStorage.used
	if growErr := fStorage.SetSize(offset + 4); growErr != nil { return 0, growErr }

	return offset, fStorage.WriteUint32(offset, val)
}

func (fStorage *FileStorage) AppendUint64(val uint64) (uint64, error) {
	offset := fStorage.used
	if growErr := fStorage.SetSize(offset + 8); growErr != nil { return 0, growErr }

	return offset, fStorage.WriteUint64(offset, val)
}

func (fStorage *FileStorage) AppendBytes(data []byte) (uint64, error) {
	offset := fStorage.used
	if growErr := fStorage.SetSize(offset + uint64(len(data))); growErr != nil { return 0, growErr }

	return offset, fStorage.WriteBytes(offset, data)
}

// Flush
//	Synchronously persist the mapped region and file metadata to disk.
func (fStorage *FileStorage) Flush() error {
	if fStorage.disposed { return errors.Wrap(ErrDisposed, "file flush") }

	if flushErr := fStorage.mMap.Flush(); flushErr != nil { return errors.Wrapf(ErrIo, "msync: %v", flushErr) }
	if syncErr := fStorage.file.Sync(); syncErr != nil { return errors.Wrapf(ErrIo, "fsync: %v", syncErr) }

	return nil
}

// flushRegionToDisk
//	Flushes a region of the memory map to disk instead of flushing the entire map.
//	When a start offset is provided, if it is not aligned with the start of a page, the offset needs to be normalized.
func (fStorage *FileStorage) flushRegionToDisk(startOffset, endOffset uint64) error {
	if fStorage.disposed { return errors.Wrap(ErrDisposed, "file flushRegion") }
	if len(fStorage.mMap) == 0 { return nil }

	startOffsetOfPage := startOffset & ^(uint64(DefaultPageSize) - 1)
	if endOffset > uint64(len(fStorage.mMap)) { endOffset = uint64(len(fStorage.mMap)) }

	if flushErr := fStorage.mMap[startOffsetOfPage:endOffset].Flush(); flushErr != nil {
		return errors.Wrapf(ErrIo, "msync region [%d, %d): %v", startOffsetOfPage, endOffset, flushErr)
	}

	return nil
}

// Truncate
//	Shrink the backing file to the logical size. Called once after finalization so the
//	geometric growth slack does not persist on disk.
func (fStorage *FileStorage) Truncate() error {
	if fStorage.disposed { return errors.Wrap(ErrDisposed, "file truncate") }

	if unmapErr := fStorage.mMap.Unmap(); unmapErr != nil { return errors.Wrapf(ErrIo, "munmap: %v", unmapErr) }

	if truncErr := fStorage.file.Truncate(int64(fStorage.used)); truncErr != nil {
		return errors.Wrapf(ErrIo, "truncate to %d: %v", fStorage.used, truncErr)
	}

	return fStorage.remap()
}

// Dispose
//	Flush, unmap and close the backing file. Every operation afterwards fails with ErrDisposed.
func (fStorage *FileStorage) Dispose() error {
	if fStorage.disposed { return nil }
	fStorage.disposed = true

	if len(fStorage.mMap) > 0 {
		if flushErr := fStorage.mMap.Flush(); flushErr != nil { return errors.Wrapf(ErrIo, "msync on dispose: %v", flushErr) }
		if unmapErr := fStorage.mMap.Unmap(); unmapErr != nil { return errors.Wrapf(ErrIo, "munmap on dispose: %v", unmapErr) }
	}

	fStorage.mMap = MMap{}
	if closeErr := fStorage.file.Close(); closeErr != nil { return errors.Wrapf(ErrIo, "close on dispose: %v", closeErr) }

	return nil
}

// Name
//	The path of the backing file.
func (fStorage *FileStorage) Name() string {
	return fStorage.file.Name()
}

// resizeMmap
//	Dynamically resizes the underlying memory mapped file.
//	The file at least doubles each cycle, and the old mapping is
//	released before the file is truncated so the new mapping is published whole.
func (fStorage *FileStorage) resizeMmap(needed uint64) error {
	allocateSize := func() uint64 {
		current := uint64(len(fStorage.mMap))

		switch {
			case current == 0:
				current = uint64(DefaultPageSize) * 16
			default:
				current = current * 2
		}

		for current < needed { current *= 2 }
		return current
	}()

	if len(fStorage.mMap) > 0 {
		if syncErr := fStorage.file.Sync(); syncErr != nil { return errors.Wrapf(ErrIo, "fsync before resize: %v", syncErr) }
		if unmapErr := fStorage.mMap.Unmap(); unmapErr != nil { return errors.Wrapf(ErrIo, "munmap before resize: %v", unmapErr) }

		fStorage.mMap = MMap{}
	}

	if truncErr := fStorage.file.Truncate(int64(allocateSize)); truncErr != nil {
		return errors.Wrapf(ErrStorageFull, "truncate to %d: %v", allocateSize, truncErr)
	}

	fStorage.logger.Debugw("resized memory mapped file", "path", fStorage.file.Name(), "size", allocateSize)
	return fStorage.remap()
}

// remap
//	Map the current extent of the backing file.
func (fStorage *FileStorage) remap() error {
	mMap, mmapErr := Map(fStorage.file, RDWR)
	if mmapErr != nil { return errors.Wrapf(ErrIo, "mmap %s: %v", fStorage.file.Name(), mmapErr) }

	fStorage.mMap = mMap
	return nil
}
