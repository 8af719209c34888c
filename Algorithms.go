package stree

import "github.com/pkg/errors"


//============================================= Stree Shared Algorithms


// treeWalk streams a query against a tree through the navigator capability set.
//	It tracks the locus of the longest suffix of the consumed query that is a
//	substring of the indexed text, extending by one symbol at a time and
//	retreating along suffix links with a rescan when an extension fails.
type treeWalk[N comparable] struct {
	nav navigator[N]
	currentNode N
	currentEdge N
	edgeOffset int
	matchLen int
}

func newTreeWalk[N comparable](nav navigator[N]) *treeWalk[N] {
	return &treeWalk[N]{ nav: nav, currentNode: nav.root(), currentEdge: nav.null() }
}

// tryExtend
//	Attempt to extend the current match by one symbol. True on success.
func (walk *treeWalk[N]) tryExtend(c int32) bool {
	if walk.currentEdge != walk.nav.null() {
		if walk.nav.edgeSymbol(walk.currentEdge, walk.edgeOffset) != c { return false }

		walk.edgeOffset++
		walk.matchLen++

		if walk.edgeOffset == walk.nav.edgeLength(walk.currentEdge) {
			walk.currentNode = walk.currentEdge
			walk.currentEdge = walk.nav.null()
			walk.edgeOffset = 0
		}

		return true
	}

	child := walk.nav.child(walk.currentNode, c)
	if child == walk.nav.null() { return false }

	walk.matchLen++

	if walk.nav.edgeLength(child) == 1 {
		walk.currentNode = child
	} else {
		walk.currentEdge = child
		walk.edgeOffset = 1
	}

	return true
}

// retreat
//	Follow the suffix link from the current node, shorten the match by one, and
//	rescan the surviving suffix of the query below the link target, descending
//	whole edges when they fit and landing mid edge when they do not.
//	The surviving suffix ends exclusively at queryIdx.
func (walk *treeWalk[N]) retreat(query []int32, queryIdx int) error {
	walk.currentNode = walk.nav.suffixLink(walk.currentNode)
	walk.currentEdge = walk.nav.null()
	walk.edgeOffset = 0
	walk.matchLen--

	remaining := walk.matchLen - walk.nav.totalDepth(walk.currentNode)
	idx := queryIdx - remaining

	for remaining > 0 {
		child := walk.nav.child(walk.currentNode, query[idx])
		if child == walk.nav.null() {
			return errors.Wrapf(ErrCorrupt, "rescan lost the walk at query index %d", idx)
		}

		edgeLen := walk.nav.edgeLength(child)

		if edgeLen <= remaining {
			walk.currentNode = child
			idx += edgeLen
			remaining -= edgeLen
		} else {
			walk.currentEdge = child
			walk.edgeOffset = remaining
			remaining = 0
		}
	}

	return nil
}

// locus
//	The node whose subtree holds every occurrence of the current match.
func (walk *treeWalk[N]) locus() N {
	if walk.currentEdge != walk.nav.null() { return walk.currentEdge }
	return walk.currentNode
}

// lcsCandidate records one locus where a longest match ends.
type lcsCandidate[N comparable] struct {
	node N
	// endInOther: exclusive end index of the match in the other string
	endInOther int
}

// lcsOutcome is the raw result of the streaming longest common substring scan.
type lcsOutcome[N comparable] struct {
	length int
	candidates []lcsCandidate[N]
}

// longestCommonSubstringScan
//	Stream other against the tree in O(text + other) with suffix link rescan.
//	With collectAll false only the first maximum is kept, which fixes the
//	documented tie break; with collectAll true every tying locus is kept.
func longestCommonSubstringScan[N comparable](nav navigator[N], other []int32, collectAll bool) (*lcsOutcome[N], error) {
	walk := newTreeWalk(nav)
	outcome := &lcsOutcome[N]{}

	for idx, c := range other {
		for {
			if walk.tryExtend(c) { break }
			if walk.matchLen == 0 { break }

			if retreatErr := walk.retreat(other, idx); retreatErr != nil { return nil, retreatErr }
		}

		switch {
			case walk.matchLen > outcome.length:
				outcome.length = walk.matchLen
				outcome.candidates = outcome.candidates[:0]
				outcome.candidates = append(outcome.candidates, lcsCandidate[N]{ node: walk.locus(), endInOther: idx + 1 })
			case collectAll && walk.matchLen == outcome.length && walk.matchLen > 0:
				outcome.candidates = append(outcome.candidates, lcsCandidate[N]{ node: walk.locus(), endInOther: idx + 1 })
		}
	}

	if navErr := nav.err(); navErr != nil { return nil, navErr }
	return outcome, nil
}

// findExactMatchAnchorsScan
//	The same streaming walk, additionally tracking the PEAK: the longest match of
//	the current run with length at least minLength. When the match length drops
//	below minLength, or the query ends, the peak is emitted as an anchor and
//	reset, yielding one non-overlapping anchor per local maximum run ordered by
//	query position.
func findExactMatchAnchorsScan[N comparable](nav navigator[N], query []int32, minLength int) ([]ExactMatchAnchor, error) {
	walk := newTreeWalk(nav)
	anchors := []ExactMatchAnchor{}

	peakLen := 0
	peakEnd := 0
	var peakNode N

	emit := func() {
		if peakLen < minLength { return }

		anchors = append(anchors, ExactMatchAnchor{
			PosInText: walk.nav.anyLeafPosition(peakNode),
			PosInQuery: peakEnd - peakLen + 1,
			Length: peakLen,
		})

		peakLen = 0
	}

	for idx, c := range query {
		for {
			if walk.tryExtend(c) { break }
			if walk.matchLen == 0 { break }

			if retreatErr := walk.retreat(query, idx); retreatErr != nil { return nil, retreatErr }
			if walk.matchLen < minLength { emit() }
		}

		if walk.matchLen >= minLength && walk.matchLen > peakLen {
			peakLen = walk.matchLen
			peakEnd = idx
			peakNode = walk.locus()
		}
	}

	emit()

	if navErr := nav.err(); navErr != nil { return nil, navErr }
	return anchors, nil
}
