package streetests

import "fmt"
import "sort"
import "testing"

import "github.com/sirgallo/stree"


func TestStreeScenarios(t *testing.T) {
	scenarios := []struct {
		text string
		leafCount int
		lrs string
		contains []string
		absent []string
		findAll map[string][]int
		counts map[string]int
	}{
		{
			text: "banana",
			leafCount: 7,
			lrs: "ana",
			contains: []string{ "ana", "banana", "na", "b", "" },
			absent: []string{ "bananab", "nab", "x" },
			findAll: map[string][]int{ "ana": { 1, 3 }, "banana": { 0 } },
			counts: map[string]int{ "a": 3, "ana": 2, "banana": 1, "x": 0 },
		},
		{
			text: "mississippi",
			leafCount: 12,
			lrs: "issi",
			contains: []string{ "issi", "ssi", "mississippi", "pi" },
			absent: []string{ "sim", "pip" },
			findAll: map[string][]int{ "ssi": { 2, 5 }, "issi": { 1, 4 } },
			counts: map[string]int{ "i": 4, "s": 4, "ssi": 2 },
		},
		{
			text: "abracadabra",
			leafCount: 12,
			lrs: "abra",
			contains: []string{ "abra", "cad", "dabra" },
			absent: []string{ "abrac x", "bb" },
			findAll: map[string][]int{ "abra": { 0, 7 }, "a": { 0, 3, 5, 7, 10 } },
			counts: map[string]int{ "a": 5, "abra": 2 },
		},
		{
			text: "aaaa",
			leafCount: 5,
			lrs: "aaa",
			contains: []string{ "a", "aa", "aaa", "aaaa" },
			absent: []string{ "aaaaa", "b" },
			findAll: map[string][]int{ "aa": { 0, 1, 2 } },
			counts: map[string]int{ "aa": 3, "aaaa": 1 },
		},
		{
			text: "abcabxabcd",
			leafCount: 11,
			lrs: "abc",
			contains: []string{ "xab", "abcabx", "abcd" },
			absent: []string{ "abcabc", "dx" },
			findAll: map[string][]int{ "ab": { 0, 3, 6 } },
			counts: map[string]int{ "ab": 3, "abc": 2 },
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario

		t.Run(scenario.text, func(t *testing.T) {
			variants := buildVariants(t, scenario.text)
			defer closeVariants(t, variants)

			for name, tree := range variants {
				if tree.LeafCount() != scenario.leafCount {
					t.Errorf("%s: leaf count %d, want %d", name, tree.LeafCount(), scenario.leafCount)
				}

				lrs, lrsErr := tree.LongestRepeatedSubstring()
				if lrsErr != nil { t.Fatalf("%s: lrs: %v", name, lrsErr) }
				if lrs != scenario.lrs { t.Errorf("%s: lrs %q, want %q", name, lrs, scenario.lrs) }

				for _, pattern := range scenario.contains {
					found, containsErr := tree.Contains(pattern)
					if containsErr != nil { t.Fatalf("%s: contains %q: %v", name, pattern, containsErr) }
					if ! found { t.Errorf("%s: contains %q false", name, pattern) }
				}

				for _, pattern := range scenario.absent {
					found, containsErr := tree.Contains(pattern)
					if containsErr != nil { t.Fatalf("%s: contains %q: %v", name, pattern, containsErr) }
					if found { t.Errorf("%s: contains %q true", name, pattern) }
				}

				for pattern, want := range scenario.findAll {
					positions, findErr := tree.FindAllOccurrences(pattern)
					if findErr != nil { t.Fatalf("%s: findAll %q: %v", name, pattern, findErr) }
					if ! equalIntSlices(positions, want) { t.Errorf("%s: findAll %q = %v, want %v", name, pattern, positions, want) }
				}

				for pattern, want := range scenario.counts {
					count, countErr := tree.CountOccurrences(pattern)
					if countErr != nil { t.Fatalf("%s: count %q: %v", name, pattern, countErr) }
					if count != want { t.Errorf("%s: count %q = %d, want %d", name, pattern, count, want) }
				}
			}
		})
	}
}

func TestStreeUniversalProperties(t *testing.T) {
	texts := []string{ "", "a", "ab", "aaaa", "banana", "mississippi", "abcabxabcd", "abababab", "thequickbrownfox" }

	for _, text := range texts {
		text := text

		t.Run(fmt.Sprintf("length %d", len(text)), func(t *testing.T) {
			variants := buildVariants(t, text)
			defer closeVariants(t, variants)

			for name, tree := range variants {
				if tree.LeafCount() != len(text) + 1 {
					t.Errorf("%s: leaf count %d, want %d", name, tree.LeafCount(), len(text) + 1)
				}

				for start := 0; start <= len(text); start++ {
					found, containsErr := tree.Contains(text[start:])
					if containsErr != nil { t.Fatalf("%s: contains suffix: %v", name, containsErr) }
					if ! found { t.Errorf("%s: suffix %q missing", name, text[start:]) }
				}

				for _, sub := range substringsOf(text, 5) {
					found, containsErr := tree.Contains(sub)
					if containsErr != nil { t.Fatalf("%s: contains substring: %v", name, containsErr) }
					if ! found { t.Errorf("%s: substring %q missing", name, sub) }

					positions, findErr := tree.FindAllOccurrences(sub)
					if findErr != nil { t.Fatalf("%s: findAll: %v", name, findErr) }

					count, countErr := tree.CountOccurrences(sub)
					if countErr != nil { t.Fatalf("%s: count: %v", name, countErr) }

					if count != len(positions) { t.Errorf("%s: count %q = %d, findAll has %d", name, sub, count, len(positions)) }
					if ! equalIntSlices(positions, naiveOccurrences(text, sub)) {
						t.Errorf("%s: findAll %q = %v, want %v", name, sub, positions, naiveOccurrences(text, sub))
					}
				}

				lrs, lrsErr := tree.LongestRepeatedSubstring()
				if lrsErr != nil { t.Fatalf("%s: lrs: %v", name, lrsErr) }

				if lrs != "" {
					if len(naiveOccurrences(text, lrs)) < 2 { t.Errorf("%s: lrs %q occurs once", name, lrs) }
				}
				if tree.MaxDepth() != len(lrs) { t.Errorf("%s: maxDepth %d, lrs length %d", name, tree.MaxDepth(), len(lrs)) }
			}
		})
	}
}

func TestStreeEmptyPatternSemantics(t *testing.T) {
	variants := buildVariants(t, "banana")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		found, containsErr := tree.Contains("")
		if containsErr != nil { t.Fatalf("%s: contains empty: %v", name, containsErr) }
		if ! found { t.Errorf("%s: contains empty false", name) }

		count, countErr := tree.CountOccurrences("")
		if countErr != nil { t.Fatalf("%s: count empty: %v", name, countErr) }
		if count != 6 { t.Errorf("%s: count empty = %d, want 6", name, count) }

		positions, findErr := tree.FindAllOccurrences("")
		if findErr != nil { t.Fatalf("%s: findAll empty: %v", name, findErr) }
		if ! equalIntSlices(positions, []int{ 0, 1, 2, 3, 4, 5 }) { t.Errorf("%s: findAll empty = %v", name, positions) }
	}
}

func TestStreeSuffixEnumeration(t *testing.T) {
	variants := buildVariants(t, "banana")
	defer closeVariants(t, variants)

	want := []string{ "", "a", "ana", "anana", "banana", "na", "nana" }

	for name, tree := range variants {
		suffixes, suffixErr := tree.GetAllSuffixes()
		if suffixErr != nil { t.Fatalf("%s: getAllSuffixes: %v", name, suffixErr) }

		if len(suffixes) != len(want) { t.Fatalf("%s: %d suffixes, want %d", name, len(suffixes), len(want)) }

		for idx := range want {
			if suffixes[idx] != want[idx] { t.Errorf("%s: suffix %d = %q, want %q", name, idx, suffixes[idx], want[idx]) }
		}

		if ! sort.SliceIsSorted(suffixes, func(i, j int) bool { return suffixes[i] < suffixes[j] }) {
			t.Errorf("%s: suffixes not sorted", name)
		}

		stopped := 0
		enumErr := tree.EnumerateSuffixes(func(suffix string) bool {
			stopped++
			return stopped < 3
		})

		if enumErr != nil { t.Fatalf("%s: enumerate: %v", name, enumErr) }
		if stopped != 3 { t.Errorf("%s: lazy enumeration visited %d, want 3", name, stopped) }
	}
}

func TestStreeTraversalOrder(t *testing.T) {
	variants := buildVariants(t, "mississippi")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		visited := 0
		rootSeen := false

		traverseErr := tree.Traverse(func(info *stree.TreeNodeInfo) error {
			visited++

			if ! rootSeen {
				rootSeen = true
				if info.EdgeStart != 0 || info.EdgeEnd != 0 { t.Errorf("%s: first visit not root", name) }
			}

			for idx := 1; idx < len(info.ChildKeys); idx++ {
				if info.ChildKeys[idx - 1] >= info.ChildKeys[idx] { t.Errorf("%s: child keys not ascending", name) }
			}

			if info.IsLeaf && info.LeafCount != 1 { t.Errorf("%s: leaf with count %d", name, info.LeafCount) }
			return nil
		})

		if traverseErr != nil { t.Fatalf("%s: traverse: %v", name, traverseErr) }
		if visited != tree.NodeCount() { t.Errorf("%s: visited %d nodes, nodeCount %d", name, visited, tree.NodeCount()) }
	}
}
