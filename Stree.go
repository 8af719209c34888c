package stree

import "os"
import "path/filepath"

import "github.com/pkg/errors"
import "go.uber.org/zap"


//============================================= Stree


// BuildInMemory
//	Construct the suffix tree for the input online with Ukkonen's algorithm,
//	entirely in RAM. Queries serve directly from the node objects.
func BuildInMemory(input string) (*Stree, error) {
	return BuildInMemoryFromText(NewText(input), nil)
}

// BuildInMemoryFromText
//	In-memory construction over a prepared text source.
func BuildInMemoryFromText(text *Text, logger *zap.SugaredLogger) (*Stree, error) {
	if text == nil { return nil, errors.Wrap(ErrInvalidInput, "nil text") }
	if logger == nil { logger = zap.NewNop().Sugar() }

	bld := newMemBuilder(text)
	tree := bld.build()

	streeInst := &Stree{
		text: text,
		mem: tree,
		opened: true,
		nodeCount: bld.nodeCount,
		leafCount: bld.leafCount,
		maxDepth: tree.deepest.totalDepth(),
		logger: logger,
	}

	logger.Debugw("built in-memory tree", "textLength", text.Length(), "nodes", bld.nodeCount, "leaves", bld.leafCount)
	return streeInst, nil
}

// BuildPersistent
//	Construct the suffix tree directly into a byte addressable store.
//	An empty Filepath selects a heap buffer; otherwise the tree is materialized
//	into a memory mapped file that the loader can reopen without rebuilding.
func BuildPersistent(input string, opts StreeOpts) (*Stree, error) {
	logger := opts.Logger
	if logger == nil { logger = zap.NewNop().Sugar() }

	storage, storageErr := openStorage(opts, logger, true)
	if storageErr != nil { return nil, storageErr }

	return buildPersistentFromText(NewText(input), storage, opts.CompactOffsetLimit, logger)
}

// buildPersistentFromText
//	Persistent construction over a prepared text source and an opened store.
func buildPersistentFromText(text *Text, storage Storage, limit *uint64, logger *zap.SugaredLogger) (*Stree, error) {
	if text == nil { return nil, errors.Wrap(ErrInvalidInput, "nil text") }
	if storage == nil { storage = NewHeapStorage() }
	if logger == nil { logger = zap.NewNop().Sugar() }

	compactLimit := MaxCompactOffsetLimit
	if limit != nil {
		if *limit > MaxCompactOffsetLimit {
			logger.Infow("compact offset limit above maximum, clamping", "limit", *limit, "max", MaxCompactOffsetLimit)
		} else { compactLimit = *limit }
	}

	bld, bldErr := newPersistentBuilder(text, storage, compactLimit, logger)
	if bldErr != nil { return nil, disposeOnBuildFailure(storage, bldErr) }

	if buildErr := bld.build(); buildErr != nil { return nil, disposeOnBuildFailure(storage, buildErr) }

	tree, finalizeErr := bld.finalize()
	if finalizeErr != nil { return nil, disposeOnBuildFailure(storage, finalizeErr) }

	if fStorage, isFile := storage.(*FileStorage); isFile {
		if truncErr := fStorage.Truncate(); truncErr != nil { return nil, disposeOnBuildFailure(storage, truncErr) }
	}

	return &Stree{
		text: text,
		pst: tree,
		opened: true,
		nodeCount: bld.nodeCount,
		leafCount: bld.leafCount,
		maxDepth: bld.deepestDepth,
		logger: logger,
	}, nil
}

// Load
//	Reopen a previously materialized tree with no rebuild.
//	The header is auto-detected as Version4 or Version5 and the hybrid
//	bookkeeping is populated from it when present.
func Load(opts StreeOpts) (*Stree, error) {
	logger := opts.Logger
	if logger == nil { logger = zap.NewNop().Sugar() }

	storage, storageErr := openStorage(opts, logger, false)
	if storageErr != nil { return nil, storageErr }

	return LoadFromStorage(storage, logger)
}

// LoadFromStorage
//	Expose an already materialized tree from any Storage with no rebuild.
func LoadFromStorage(storage Storage, logger *zap.SugaredLogger) (*Stree, error) {
	if storage == nil { return nil, errors.Wrap(ErrInvalidInput, "nil storage") }
	if logger == nil { logger = zap.NewNop().Sugar() }

	tree, loadErr := loadPersistentTree(storage)
	if loadErr != nil { return nil, loadErr }

	nodes, leaves, countErr := tree.countNodes()
	if countErr != nil { return nil, countErr }

	maxDepth, depthErr := tree.totalDepth(tree.deepestOffset)
	if depthErr != nil { return nil, depthErr }

	logger.Debugw("loaded persistent tree", "version", tree.version, "nodes", nodes, "leaves", leaves)

	return &Stree{
		text: tree.text,
		pst: tree,
		opened: true,
		nodeCount: nodes,
		leafCount: leaves,
		maxDepth: maxDepth,
		logger: logger,
	}, nil
}

// openStorage
//	Resolve the options to a concrete store: a heap buffer when no path is given,
//	else a memory mapped file under the provided directory.
func openStorage(opts StreeOpts, logger *zap.SugaredLogger, create bool) (Storage, error) {
	if opts.Filepath == "" {
		if ! create { return nil, errors.Wrap(ErrInvalidInput, "load requires a file path or an explicit storage") }
		return NewHeapStorage(), nil
	}

	fileName := opts.FileName
	if fileName == "" { fileName = "stree.idx" }

	fStorage, openErr := OpenFileStorage(filepath.Join(opts.Filepath, fileName), logger)
	if openErr != nil { return nil, openErr }

	if create {
		if resetErr := fStorage.SetSize(0); resetErr != nil { return nil, resetErr }
	}

	return fStorage, nil
}

// disposeOnBuildFailure
//	Builders fail fast and do not leave partially valid trees observable.
func disposeOnBuildFailure(storage Storage, buildErr error) error {
	storage.Dispose()
	return buildErr
}

// Close
//	Flush and release the tree's storage. In-memory trees drop their nodes.
func (streeInst *Stree) Close() error {
	if ! streeInst.opened { return nil }
	streeInst.opened = false

	if streeInst.pst != nil {
		if flushErr := streeInst.pst.storage.Flush(); flushErr != nil { return flushErr }
		return streeInst.pst.storage.Dispose()
	}

	streeInst.mem = nil
	return nil
}

// Remove
//	Close the tree and remove the backing file when one exists.
func (streeInst *Stree) Remove() error {
	var path string
	if streeInst.pst != nil {
		if fStorage, isFile := streeInst.pst.storage.(*FileStorage); isFile { path = fStorage.Name() }
	}

	if closeErr := streeInst.Close(); closeErr != nil { return closeErr }

	if path != "" {
		if removeErr := os.Remove(path); removeErr != nil { return errors.Wrapf(ErrIo, "remove %s: %v", path, removeErr) }
	}

	return nil
}

// FileSize
//	The size of the backing store in bytes. Zero for in-memory trees.
func (streeInst *Stree) FileSize() (uint64, error) {
	if ! streeInst.opened { return 0, errors.Wrap(ErrDisposed, "fileSize") }
	if streeInst.pst == nil { return 0, nil }

	return streeInst.pst.storage.Size(), nil
}

// NodeCount
//	Total nodes including the root.
func (streeInst *Stree) NodeCount() int { return streeInst.nodeCount }

// LeafCount
//	Total leaves, N + 1 for a text of length N.
func (streeInst *Stree) LeafCount() int { return streeInst.leafCount }

// MaxDepth
//	Total depth of the deepest internal node, the length of the longest repeated substring.
func (streeInst *Stree) MaxDepth() int { return streeInst.maxDepth }

// Text
//	The indexed text decoded back to a Go string.
func (streeInst *Stree) Text() string { return streeInst.text.String() }

// Version
//	The persistent format version, Version4 pure compact or Version5 hybrid.
//	Zero for in-memory trees.
func (streeInst *Stree) Version() uint32 {
	if streeInst.pst == nil { return 0 }
	return streeInst.pst.version
}


//============================================= Stree Query Dispatch


// Contains
//	True iff the pattern occurs in the indexed text. The empty pattern is always present.
func (streeInst *Stree) Contains(pattern string) (bool, error) {
	if ! streeInst.opened { return false, errors.Wrap(ErrDisposed, "contains") }

	symbols := patternSymbols(pattern)
	if streeInst.mem != nil { return streeInst.mem.contains(symbols), nil }

	return streeInst.pst.contains(symbols)
}

// CountOccurrences
//	Number of occurrences of the pattern, O(pattern) through precomputed leaf counts.
//	The empty pattern occurs once at every position, so its count is N.
func (streeInst *Stree) CountOccurrences(pattern string) (int, error) {
	if ! streeInst.opened { return 0, errors.Wrap(ErrDisposed, "countOccurrences") }

	symbols := patternSymbols(pattern)
	if streeInst.mem != nil { return streeInst.mem.countOccurrences(symbols), nil }

	return streeInst.pst.countOccurrences(symbols)
}

// FindAllOccurrences
//	Start positions of every occurrence of the pattern, ascending.
func (streeInst *Stree) FindAllOccurrences(pattern string) ([]int, error) {
	if ! streeInst.opened { return nil, errors.Wrap(ErrDisposed, "findAllOccurrences") }

	symbols := patternSymbols(pattern)
	if streeInst.mem != nil { return streeInst.mem.findAllOccurrences(symbols), nil }

	return streeInst.pst.findAllOccurrences(symbols)
}

// LongestRepeatedSubstring
//	The longest substring occurring at least twice in the text.
func (streeInst *Stree) LongestRepeatedSubstring() (string, error) {
	if ! streeInst.opened { return "", errors.Wrap(ErrDisposed, "longestRepeatedSubstring") }

	if streeInst.mem != nil { return streeInst.mem.longestRepeatedSubstring(), nil }
	return streeInst.pst.longestRepeatedSubstring()
}

// LongestCommonSubstring
//	The longest substring shared by the indexed text and other.
//	Among equal length candidates the first maximum encountered scanning other
//	left to right wins.
func (streeInst *Stree) LongestCommonSubstring(other string) (string, error) {
	info, infoErr := streeInst.LongestCommonSubstringInfo(other)
	if infoErr != nil { return "", infoErr }

	return info.Substring, nil
}

// LongestCommonSubstringInfo
//	The longest common substring with one position in the text and its position in other.
//	Positions are -1 when the strings share nothing.
func (streeInst *Stree) LongestCommonSubstringInfo(other string) (*CommonSubstring, error) {
	all, lcsErr := streeInst.lcs(other, false)
	if lcsErr != nil { return nil, lcsErr }

	single := &CommonSubstring{ Substring: all.Substring, PosInText: -1, PosInOther: -1 }

	if len(all.PosInText) > 0 { single.PosInText = all.PosInText[0] }
	if len(all.PosInOther) > 0 { single.PosInOther = all.PosInOther[0] }

	return single, nil
}

// FindAllLongestCommonSubstrings
//	Every position of the longest common substring in the text and in other.
func (streeInst *Stree) FindAllLongestCommonSubstrings(other string) (*AllCommonSubstrings, error) {
	return streeInst.lcs(other, true)
}

func (streeInst *Stree) lcs(other string, collectAll bool) (*AllCommonSubstrings, error) {
	if ! streeInst.opened { return nil, errors.Wrap(ErrDisposed, "longestCommonSubstring") }

	symbols := patternSymbols(other)

	if streeInst.mem != nil {
		return lcsAssemble[*streeNode](&memNavigator{ tree: streeInst.mem }, symbols, collectAll)
	}

	return lcsAssemble[uint64](&persistNavigator{ pst: streeInst.pst }, symbols, collectAll)
}

// FindExactMatchAnchors
//	Right-maximal exact matches of length at least minLength between the text and
//	the query, one anchor per local maximum run, ordered by query position.
func (streeInst *Stree) FindExactMatchAnchors(query string, minLength int) ([]ExactMatchAnchor, error) {
	if ! streeInst.opened { return nil, errors.Wrap(ErrDisposed, "findExactMatchAnchors") }
	if minLength <= 0 { return nil, errors.Wrapf(ErrInvalidInput, "minLength %d", minLength) }

	symbols := patternSymbols(query)

	if streeInst.mem != nil {
		return findExactMatchAnchorsScan[*streeNode](&memNavigator{ tree: streeInst.mem }, symbols, minLength)
	}

	return findExactMatchAnchorsScan[uint64](&persistNavigator{ pst: streeInst.pst }, symbols, minLength)
}

// lcsAssemble
//	Turn the raw scan outcome into positions and the substring itself.
func lcsAssemble[N comparable](nav navigator[N], other []int32, collectAll bool) (*AllCommonSubstrings, error) {
	outcome, scanErr := longestCommonSubstringScan(nav, other, collectAll)
	if scanErr != nil { return nil, scanErr }

	result := &AllCommonSubstrings{ PosInText: []int{}, PosInOther: []int{} }
	if outcome.length == 0 { return result, nil }

	first := outcome.candidates[0]
	result.Substring = symbolsToString(other[first.endInOther - outcome.length:first.endInOther])

	if ! collectAll {
		result.PosInText = append(result.PosInText, nav.anyLeafPosition(first.node))
		result.PosInOther = append(result.PosInOther, first.endInOther - outcome.length)

		if navErr := nav.err(); navErr != nil { return nil, navErr }
		return result, nil
	}

	for _, candidate := range outcome.candidates {
		result.PosInText = append(result.PosInText, nav.leafPositions(candidate.node)...)
		result.PosInOther = append(result.PosInOther, candidate.endInOther - outcome.length)
	}

	result.PosInText = uniqueSortedInts(result.PosInText)
	result.PosInOther = uniqueSortedInts(result.PosInOther)

	if navErr := nav.err(); navErr != nil { return nil, navErr }
	return result, nil
}

// EnumerateSuffixes
//	Visit every suffix of the text lazily in the tree's sorted order, the empty
//	sentinel suffix first. Yield false stops the walk.
func (streeInst *Stree) EnumerateSuffixes(yield func(suffix string) bool) error {
	if ! streeInst.opened { return errors.Wrap(ErrDisposed, "enumerateSuffixes") }

	if streeInst.mem != nil {
		streeInst.mem.enumerateSuffixes(yield)
		return nil
	}

	return streeInst.pst.enumerateSuffixes(yield)
}

// GetAllSuffixes
//	Every suffix of the text materialized in the tree's sorted order.
func (streeInst *Stree) GetAllSuffixes() ([]string, error) {
	suffixes := make([]string, 0, streeInst.leafCount)

	enumErr := streeInst.EnumerateSuffixes(func(suffix string) bool {
		suffixes = append(suffixes, suffix)
		return true
	})

	if enumErr != nil { return nil, enumErr }
	return suffixes, nil
}

// Traverse
//	Pre-order walk of the tree, siblings ascending by first edge symbol.
func (streeInst *Stree) Traverse(visitor TreeVisitor) error {
	if ! streeInst.opened { return errors.Wrap(ErrDisposed, "traverse") }

	if streeInst.mem != nil { return streeInst.mem.traverse(visitor) }
	return streeInst.pst.traverse(visitor)
}
