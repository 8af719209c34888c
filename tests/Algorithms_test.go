package streetests

import "strings"
import "testing"

import "github.com/pkg/errors"

import "github.com/sirgallo/stree"


func TestLongestCommonSubstring(t *testing.T) {
	variants := buildVariants(t, "abracadabra")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		lcs, lcsErr := tree.LongestCommonSubstring("xxcadyy")
		if lcsErr != nil { t.Fatalf("%s: lcs: %v", name, lcsErr) }
		if lcs != "cad" { t.Errorf("%s: lcs %q, want %q", name, lcs, "cad") }

		info, infoErr := tree.LongestCommonSubstringInfo("xxcadyy")
		if infoErr != nil { t.Fatalf("%s: lcs info: %v", name, infoErr) }

		if info.Substring != "cad" { t.Errorf("%s: info substring %q", name, info.Substring) }
		if info.PosInText != 4 { t.Errorf("%s: posInText %d, want 4", name, info.PosInText) }
		if info.PosInOther != 2 { t.Errorf("%s: posInOther %d, want 2", name, info.PosInOther) }
	}
}

func TestLongestCommonSubstringProperties(t *testing.T) {
	pairs := []struct{ text, other string }{
		{ "banana", "bandana" },
		{ "mississippi", "missouri" },
		{ "abcabxabcd", "zabcz" },
		{ "aaaa", "baab" },
		{ "abcdefgh", "zzzz" },
	}

	for _, pair := range pairs {
		pair := pair

		t.Run(pair.text+"/"+pair.other, func(t *testing.T) {
			variants := buildVariants(t, pair.text)
			defer closeVariants(t, variants)

			for name, tree := range variants {
				lcs, lcsErr := tree.LongestCommonSubstring(pair.other)
				if lcsErr != nil { t.Fatalf("%s: lcs: %v", name, lcsErr) }

				if lcs != "" {
					if ! strings.Contains(pair.text, lcs) { t.Errorf("%s: lcs %q not in text", name, lcs) }
					if ! strings.Contains(pair.other, lcs) { t.Errorf("%s: lcs %q not in other", name, lcs) }
				}

				// no longer common substring of other exists
				for length := len(lcs) + 1; length <= len(pair.other); length++ {
					for start := 0; start + length <= len(pair.other); start++ {
						if strings.Contains(pair.text, pair.other[start:start + length]) {
							t.Errorf("%s: found longer common substring %q", name, pair.other[start:start + length])
						}
					}
				}
			}
		})
	}
}

func TestFindAllLongestCommonSubstrings(t *testing.T) {
	variants := buildVariants(t, "abcabcabc")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		all, allErr := tree.FindAllLongestCommonSubstrings("xxabcyy")
		if allErr != nil { t.Fatalf("%s: all lcs: %v", name, allErr) }

		if all.Substring != "abc" { t.Errorf("%s: substring %q, want %q", name, all.Substring, "abc") }
		if ! equalIntSlices(all.PosInText, []int{ 0, 3, 6 }) { t.Errorf("%s: posInText %v, want [0 3 6]", name, all.PosInText) }
		if ! equalIntSlices(all.PosInOther, []int{ 2 }) { t.Errorf("%s: posInOther %v, want [2]", name, all.PosInOther) }
	}
}

func TestLongestCommonSubstringEmpty(t *testing.T) {
	variants := buildVariants(t, "banana")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		info, infoErr := tree.LongestCommonSubstringInfo("xyz")
		if infoErr != nil { t.Fatalf("%s: lcs info: %v", name, infoErr) }

		if info.Substring != "" { t.Errorf("%s: substring %q, want empty", name, info.Substring) }
		if info.PosInText != -1 || info.PosInOther != -1 { t.Errorf("%s: positions %d/%d, want -1/-1", name, info.PosInText, info.PosInOther) }
	}
}

func TestFindExactMatchAnchors(t *testing.T) {
	variants := buildVariants(t, "abcabxabcd")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		anchors, anchorErr := tree.FindExactMatchAnchors("abcabx", 3)
		if anchorErr != nil { t.Fatalf("%s: anchors: %v", name, anchorErr) }

		if len(anchors) != 1 { t.Fatalf("%s: %d anchors, want 1", name, len(anchors)) }
		if anchors[0].Length != 6 { t.Errorf("%s: anchor length %d, want 6", name, anchors[0].Length) }
		if anchors[0].PosInQuery != 0 { t.Errorf("%s: anchor posInQuery %d, want 0", name, anchors[0].PosInQuery) }
		if anchors[0].PosInText != 0 { t.Errorf("%s: anchor posInText %d, want 0", name, anchors[0].PosInText) }
	}
}

func TestFindExactMatchAnchorRuns(t *testing.T) {
	text := "abcabxabcd"
	variants := buildVariants(t, text)
	defer closeVariants(t, variants)

	for name, tree := range variants {
		anchors, anchorErr := tree.FindExactMatchAnchors("abcyyabcd", 3)
		if anchorErr != nil { t.Fatalf("%s: anchors: %v", name, anchorErr) }

		if len(anchors) != 2 { t.Fatalf("%s: %d anchors, want 2: %v", name, len(anchors), anchors) }

		query := "abcyyabcd"
		lastPos := -1

		for _, anchor := range anchors {
			if anchor.Length < 3 { t.Errorf("%s: anchor below minLength: %v", name, anchor) }
			if anchor.PosInQuery <= lastPos { t.Errorf("%s: anchor positions not strictly increasing", name) }

			lastPos = anchor.PosInQuery

			matched := query[anchor.PosInQuery:anchor.PosInQuery + anchor.Length]
			if text[anchor.PosInText:anchor.PosInText + anchor.Length] != matched {
				t.Errorf("%s: anchor %v does not match text", name, anchor)
			}
		}

		if anchors[0].Length != 3 || anchors[0].PosInQuery != 0 { t.Errorf("%s: first anchor %v", name, anchors[0]) }
		if anchors[1].Length != 4 || anchors[1].PosInQuery != 5 || anchors[1].PosInText != 6 { t.Errorf("%s: second anchor %v", name, anchors[1]) }
	}
}

func TestFindExactMatchAnchorsValidation(t *testing.T) {
	variants := buildVariants(t, "banana")
	defer closeVariants(t, variants)

	for name, tree := range variants {
		_, anchorErr := tree.FindExactMatchAnchors("ana", 0)
		if ! errors.Is(anchorErr, stree.ErrInvalidInput) { t.Errorf("%s: minLength 0 accepted", name) }

		_, anchorErr = tree.FindExactMatchAnchors("ana", -2)
		if ! errors.Is(anchorErr, stree.ErrInvalidInput) { t.Errorf("%s: negative minLength accepted", name) }
	}
}
