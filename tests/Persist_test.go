package streetests

import "bytes"
import "os"
import "path/filepath"
import "testing"

import "github.com/pkg/errors"
import "github.com/stretchr/testify/require"

import "github.com/sirgallo/stree"


func TestPersistentMatchesInMemory(t *testing.T) {
	texts := []string{ "banana", "mississippi", "abracadabra", "aaaa", "abcabxabcd" }

	for _, text := range texts {
		text := text

		t.Run(text, func(t *testing.T) {
			memTree, memErr := stree.BuildInMemory(text)
			require.NoError(t, memErr)
			defer memTree.Close()

			pstTree, pstErr := stree.BuildPersistent(text, stree.StreeOpts{})
			require.NoError(t, pstErr)
			defer pstTree.Close()

			require.Equal(t, memTree.NodeCount(), pstTree.NodeCount())
			require.Equal(t, memTree.LeafCount(), pstTree.LeafCount())
			require.Equal(t, memTree.MaxDepth(), pstTree.MaxDepth())

			for _, sub := range substringsOf(text, 4) {
				memPositions, memFindErr := memTree.FindAllOccurrences(sub)
				require.NoError(t, memFindErr)

				pstPositions, pstFindErr := pstTree.FindAllOccurrences(sub)
				require.NoError(t, pstFindErr)

				require.Equal(t, memPositions, pstPositions, "findAll %q", sub)
			}

			memLrs, memLrsErr := memTree.LongestRepeatedSubstring()
			require.NoError(t, memLrsErr)

			pstLrs, pstLrsErr := pstTree.LongestRepeatedSubstring()
			require.NoError(t, pstLrsErr)
			require.Equal(t, memLrs, pstLrs)

			memSuffixes, memSufErr := memTree.GetAllSuffixes()
			require.NoError(t, memSufErr)

			pstSuffixes, pstSufErr := pstTree.GetAllSuffixes()
			require.NoError(t, pstSufErr)
			require.Equal(t, memSuffixes, pstSuffixes)
		})
	}
}

func TestPersistentFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := stree.StreeOpts{ Filepath: dir, FileName: "mississippi.idx" }

	built, buildErr := stree.BuildPersistent("mississippi", opts)
	require.NoError(t, buildErr)
	require.Equal(t, stree.Version4, built.Version())

	var builtExport bytes.Buffer
	require.NoError(t, built.Export(&builtExport))

	builtHash, builtHashErr := built.CalculateLogicalHash()
	require.NoError(t, builtHashErr)

	require.NoError(t, built.Close())

	// reopen from disk with no rebuild
	loaded, loadErr := stree.Load(opts)
	require.NoError(t, loadErr)
	defer loaded.Remove()

	require.Equal(t, "mississippi", loaded.Text())
	require.Equal(t, 12, loaded.LeafCount())

	found, containsErr := loaded.Contains("ssi")
	require.NoError(t, containsErr)
	require.True(t, found)

	lrs, lrsErr := loaded.LongestRepeatedSubstring()
	require.NoError(t, lrsErr)
	require.Equal(t, "issi", lrs)

	positions, findErr := loaded.FindAllOccurrences("ssi")
	require.NoError(t, findErr)
	require.Equal(t, []int{ 2, 5 }, positions)

	var loadedExport bytes.Buffer
	require.NoError(t, loaded.Export(&loadedExport))
	require.True(t, bytes.Equal(builtExport.Bytes(), loadedExport.Bytes()), "exports of built and reopened trees differ")

	loadedHash, loadedHashErr := loaded.CalculateLogicalHash()
	require.NoError(t, loadedHashErr)
	require.Equal(t, builtHash, loadedHash)
}

func TestLoadRejectsGarbage(t *testing.T) {
	storage := stree.NewHeapStorage()
	defer storage.Dispose()

	_, appendErr := storage.AppendBytes(bytes.Repeat([]byte{ 0xAB }, 256))
	require.NoError(t, appendErr)

	_, loadErr := stree.LoadFromStorage(storage, nil)
	require.True(t, errors.Is(loadErr, stree.ErrCorrupt))
}

func TestLoadRejectsShortStorage(t *testing.T) {
	storage := stree.NewHeapStorage()
	defer storage.Dispose()

	_, appendErr := storage.AppendBytes([]byte("tiny"))
	require.NoError(t, appendErr)

	_, loadErr := stree.LoadFromStorage(storage, nil)
	require.True(t, errors.Is(loadErr, stree.ErrInvalidInput))
}

func TestDisposedTreeQueriesFail(t *testing.T) {
	tree, buildErr := stree.BuildPersistent("banana", stree.StreeOpts{})
	require.NoError(t, buildErr)
	require.NoError(t, tree.Close())

	_, containsErr := tree.Contains("ana")
	require.True(t, errors.Is(containsErr, stree.ErrDisposed))

	_, countErr := tree.CountOccurrences("ana")
	require.True(t, errors.Is(countErr, stree.ErrDisposed))

	_, lrsErr := tree.LongestRepeatedSubstring()
	require.True(t, errors.Is(lrsErr, stree.ErrDisposed))
}

func TestRemoveDeletesBackingFile(t *testing.T) {
	dir := t.TempDir()
	opts := stree.StreeOpts{ Filepath: dir, FileName: "removed.idx" }

	tree, buildErr := stree.BuildPersistent("banana", opts)
	require.NoError(t, buildErr)
	require.NoError(t, tree.Remove())

	_, statErr := os.Stat(filepath.Join(dir, "removed.idx"))
	require.True(t, os.IsNotExist(statErr))
}
