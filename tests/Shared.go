package streetests

import "testing"

import "github.com/sirgallo/stree"


// buildVariants
//	Build the same text as an in-memory tree, a heap persistent tree and a
//	persistent tree with a low compact offset limit, so suites can assert identical
//	behavior across layouts. The low limit promotes every text except the shortest
//	few ("", "a", "ab"), which stay pure compact.
func buildVariants(t *testing.T, input string) map[string]*stree.Stree {
	t.Helper()

	memTree, memErr := stree.BuildInMemory(input)
	if memErr != nil { t.Fatalf("build in-memory: %v", memErr) }

	heapTree, heapErr := stree.BuildPersistent(input, stree.StreeOpts{})
	if heapErr != nil { t.Fatalf("build heap persistent: %v", heapErr) }

	limit := uint64(240)
	hybridTree, hybridErr := stree.BuildPersistent(input, stree.StreeOpts{ CompactOffsetLimit: &limit })
	if hybridErr != nil { t.Fatalf("build hybrid persistent: %v", hybridErr) }

	return map[string]*stree.Stree{
		"in-memory": memTree,
		"persistent-compact": heapTree,
		"persistent-hybrid": hybridTree,
	}
}

// closeVariants
//	Close every variant, failing the test on the first error.
func closeVariants(t *testing.T, variants map[string]*stree.Stree) {
	t.Helper()

	for name, tree := range variants {
		if closeErr := tree.Close(); closeErr != nil { t.Fatalf("close %s: %v", name, closeErr) }
	}
}

// substringsOf
//	Every distinct substring of the input up to the given length cap.
func substringsOf(input string, maxLen int) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for start := 0; start < len(input); start++ {
		for end := start + 1; end <= len(input) && end - start <= maxLen; end++ {
			sub := input[start:end]
			if _, dup := seen[sub]; dup { continue }

			seen[sub] = struct{}{}
			out = append(out, sub)
		}
	}

	return out
}

// naiveOccurrences
//	Brute force occurrence positions for cross checking the tree.
func naiveOccurrences(input, pattern string) []int {
	positions := []int{}
	if pattern == "" {
		for idx := range input { positions = append(positions, idx) }
		return positions
	}

	for idx := 0; idx + len(pattern) <= len(input); idx++ {
		if input[idx:idx + len(pattern)] == pattern { positions = append(positions, idx) }
	}

	return positions
}

// equalIntSlices
//	Order sensitive int slice comparison.
func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) { return false }

	for idx := range a {
		if a[idx] != b[idx] { return false }
	}

	return true
}
