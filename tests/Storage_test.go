package streetests

import "os"
import "path/filepath"
import "testing"

import "github.com/pkg/errors"
import "github.com/stretchr/testify/require"

import "github.com/sirgallo/stree"


func storageImplementations(t *testing.T) map[string]stree.Storage {
	t.Helper()

	fStorage, openErr := stree.OpenFileStorage(filepath.Join(t.TempDir(), "storage.idx"), nil)
	require.NoError(t, openErr)

	return map[string]stree.Storage{
		"heap": stree.NewHeapStorage(),
		"mmap": fStorage,
	}
}

func TestStorageTypedReadWrite(t *testing.T) {
	for name, storage := range storageImplementations(t) {
		storage := storage

		t.Run(name, func(t *testing.T) {
			defer storage.Dispose()

			require.Equal(t, uint64(0), storage.Size())

			offset, appendErr := storage.AppendUint64(0xDEADBEEFCAFEBABE)
			require.NoError(t, appendErr)
			require.Equal(t, uint64(0), offset)
			require.Equal(t, uint64(8), storage.Size())

			val64, readErr := storage.ReadUint64(0)
			require.NoError(t, readErr)
			require.Equal(t, uint64(0xDEADBEEFCAFEBABE), val64)

			offset, appendErr = storage.AppendUint32(0x12345678)
			require.NoError(t, appendErr)
			require.Equal(t, uint64(8), offset)

			val32, read32Err := storage.ReadUint32(8)
			require.NoError(t, read32Err)
			require.Equal(t, uint32(0x12345678), val32)

			require.NoError(t, storage.WriteUint16(8, 0xBEEF))

			val16, read16Err := storage.ReadUint16(8)
			require.NoError(t, read16Err)
			require.Equal(t, uint16(0xBEEF), val16)

			_, appendErr = storage.AppendBytes([]byte{ 1, 2, 3, 4 })
			require.NoError(t, appendErr)

			raw, rawErr := storage.ReadBytes(12, 4)
			require.NoError(t, rawErr)
			require.Equal(t, []byte{ 1, 2, 3, 4 }, raw)

			require.NoError(t, storage.Flush())
		})
	}
}

func TestStorageBounds(t *testing.T) {
	for name, storage := range storageImplementations(t) {
		storage := storage

		t.Run(name, func(t *testing.T) {
			defer storage.Dispose()

			require.NoError(t, storage.SetSize(16))

			_, readErr := storage.ReadUint64(9)
			require.True(t, errors.Is(readErr, stree.ErrOutOfRange))

			_, readErr = storage.ReadBytes(0, 17)
			require.True(t, errors.Is(readErr, stree.ErrOutOfRange))

			writeErr := storage.WriteUint32(13, 1)
			require.True(t, errors.Is(writeErr, stree.ErrOutOfRange))

			require.NoError(t, storage.WriteUint32(12, 1))
		})
	}
}

func TestStorageGrowthPreservesBytes(t *testing.T) {
	for name, storage := range storageImplementations(t) {
		storage := storage

		t.Run(name, func(t *testing.T) {
			defer storage.Dispose()

			payload := make([]byte, 512)
			for idx := range payload { payload[idx] = byte(idx) }

			_, appendErr := storage.AppendBytes(payload)
			require.NoError(t, appendErr)

			// force growth well past the initial mapping
			require.NoError(t, storage.SetSize(uint64(os.Getpagesize()) * 64))

			survived, readErr := storage.ReadBytes(0, 512)
			require.NoError(t, readErr)
			require.Equal(t, payload, survived)
		})
	}
}

func TestStorageDisposed(t *testing.T) {
	for name, storage := range storageImplementations(t) {
		storage := storage

		t.Run(name, func(t *testing.T) {
			require.NoError(t, storage.SetSize(8))
			require.NoError(t, storage.Dispose())

			_, readErr := storage.ReadUint64(0)
			require.True(t, errors.Is(readErr, stree.ErrDisposed))

			writeErr := storage.WriteUint64(0, 1)
			require.True(t, errors.Is(writeErr, stree.ErrDisposed))

			setErr := storage.SetSize(16)
			require.True(t, errors.Is(setErr, stree.ErrDisposed))
		})
	}
}

func TestFileStoragePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storage.idx")

	fStorage, openErr := stree.OpenFileStorage(path, nil)
	require.NoError(t, openErr)

	_, appendErr := fStorage.AppendBytes([]byte("persisted"))
	require.NoError(t, appendErr)

	require.NoError(t, fStorage.Truncate())
	require.NoError(t, fStorage.Dispose())

	reopened, reopenErr := stree.OpenFileStorage(path, nil)
	require.NoError(t, reopenErr)
	defer reopened.Dispose()

	require.Equal(t, uint64(len("persisted")), reopened.Size())

	raw, readErr := reopened.ReadBytes(0, uint64(len("persisted")))
	require.NoError(t, readErr)
	require.Equal(t, []byte("persisted"), raw)
}
