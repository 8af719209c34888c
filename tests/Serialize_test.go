package streetests

import "bytes"
import "testing"

import "github.com/pkg/errors"
import "github.com/stretchr/testify/require"

import "github.com/sirgallo/stree"


func TestExportDeterminism(t *testing.T) {
	variants := buildVariants(t, "abracadabra")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		var first, second bytes.Buffer

		require.NoError(t, tree.Export(&first), name)
		require.NoError(t, tree.Export(&second), name)
		require.True(t, bytes.Equal(first.Bytes(), second.Bytes()), "%s: repeated exports differ", name)
	}
}

func TestExportLayoutIndependence(t *testing.T) {
	texts := []string{ "banana", "mississippi", "aaaa", "abcabxabcd" }

	for _, text := range texts {
		text := text

		t.Run(text, func(t *testing.T) {
			variants := buildVariants(t, text)
			defer closeVariants(t, variants)

			var reference []byte
			var referenceHash stree.LogicalHash

			for name, tree := range variants {
				var export bytes.Buffer
				require.NoError(t, tree.Export(&export), name)

				hash, hashErr := tree.CalculateLogicalHash()
				require.NoError(t, hashErr, name)

				if reference == nil {
					reference = export.Bytes()
					referenceHash = hash
					continue
				}

				require.True(t, bytes.Equal(reference, export.Bytes()), "%s: export differs across layouts", name)
				require.Equal(t, referenceHash, hash, "%s: logical hash differs across layouts", name)
			}
		})
	}
}

func TestImportRoundTrip(t *testing.T) {
	original, buildErr := stree.BuildPersistent("mississippi", stree.StreeOpts{})
	require.NoError(t, buildErr)
	defer original.Close()

	var export bytes.Buffer
	require.NoError(t, original.Export(&export))

	originalHash, originalHashErr := original.CalculateLogicalHash()
	require.NoError(t, originalHashErr)

	imported, importErr := stree.Import(bytes.NewReader(export.Bytes()), stree.NewHeapStorage())
	require.NoError(t, importErr)
	defer imported.Close()

	importedHash, importedHashErr := imported.CalculateLogicalHash()
	require.NoError(t, importedHashErr)
	require.Equal(t, originalHash, importedHash)

	require.Equal(t, original.NodeCount(), imported.NodeCount())

	found, containsErr := imported.Contains("issi")
	require.NoError(t, containsErr)
	require.True(t, found)

	positions, findErr := imported.FindAllOccurrences("ssi")
	require.NoError(t, findErr)
	require.Equal(t, []int{ 2, 5 }, positions)
}

func TestImportFromInMemoryExport(t *testing.T) {
	memTree, memErr := stree.BuildInMemory("banana")
	require.NoError(t, memErr)
	defer memTree.Close()

	var export bytes.Buffer
	require.NoError(t, memTree.Export(&export))

	imported, importErr := stree.Import(bytes.NewReader(export.Bytes()), stree.NewHeapStorage())
	require.NoError(t, importErr)
	defer imported.Close()

	memHash, memHashErr := memTree.CalculateLogicalHash()
	require.NoError(t, memHashErr)

	importedHash, importedHashErr := imported.CalculateLogicalHash()
	require.NoError(t, importedHashErr)
	require.Equal(t, memHash, importedHash)

	lrs, lrsErr := imported.LongestRepeatedSubstring()
	require.NoError(t, lrsErr)
	require.Equal(t, "ana", lrs)
}

func TestImportRejectsGarbage(t *testing.T) {
	_, importErr := stree.Import(bytes.NewReader([]byte("not an export stream")), stree.NewHeapStorage())
	require.True(t, errors.Is(importErr, stree.ErrCorrupt))

	_, importErr = stree.Import(bytes.NewReader(nil), stree.NewHeapStorage())
	require.True(t, errors.Is(importErr, stree.ErrInvalidInput))
}

func TestLogicalHashDistinguishesTexts(t *testing.T) {
	first, firstErr := stree.BuildInMemory("banana")
	require.NoError(t, firstErr)
	defer first.Close()

	second, secondErr := stree.BuildInMemory("bananas")
	require.NoError(t, secondErr)
	defer second.Close()

	firstHash, firstHashErr := first.CalculateLogicalHash()
	require.NoError(t, firstHashErr)

	secondHash, secondHashErr := second.CalculateLogicalHash()
	require.NoError(t, secondHashErr)

	require.NotEqual(t, firstHash, secondHash)
	require.NotEmpty(t, firstHash.String())
}
