package stree

import "strings"
import "unicode/utf16"

import "github.com/pkg/errors"


//============================================= Stree Text


// Sentinel is the distinguished end-of-text symbol.
//	It lies outside the 16 bit code unit domain so no legal text can contain it.
//	The builder conceptually appends it at position N, making every suffix explicit in the tree.
const Sentinel = int32(-1)

// Text is an immutable random access sequence of 16 bit code units of length N.
//	Indexing at position N yields the sentinel; indexing beyond N is an out of range error.
type Text struct {
	units []uint16
}

// NewText
//	Build a text source from a Go string, encoding it to UTF-16 code units.
func NewText(input string) *Text {
	return &Text{ units: utf16.Encode([]rune(input)) }
}

// NewTextFromSymbols
//	Build a text source from widened symbols.
//	Fails with ErrInvalidInput if any symbol is the sentinel or lies outside the 16 bit domain.
func NewTextFromSymbols(symbols []int32) (*Text, error) {
	units := make([]uint16, len(symbols))

	for idx, sym := range symbols {
		if sym < 0 || sym > 0xFFFF { return nil, errors.Wrapf(ErrInvalidInput, "symbol %d at index %d outside code unit domain", sym, idx) }
		units[idx] = uint16(sym)
	}

	return &Text{ units: units }, nil
}

// NewTextFromUnits
//	Build a text source over an existing code unit slice. The slice is not copied.
func NewTextFromUnits(units []uint16) *Text {
	return &Text{ units: units }
}

// Length
//	The number of code units N, excluding the conceptual sentinel.
func (text *Text) Length() int {
	return len(text.units)
}

// At
//	The symbol at position i. Position N yields the sentinel.
func (text *Text) At(i int) (int32, error) {
	switch {
		case i < 0 || i > len(text.units):
			return 0, errors.Wrapf(ErrOutOfRange, "text index %d with length %d", i, len(text.units))
		case i == len(text.units):
			return Sentinel, nil
		default:
			return int32(text.units[i]), nil
	}
}

// symbolAt
//	Internal unchecked variant of At for builder and query hot paths.
//	Callers guarantee 0 <= i <= N.
func (text *Text) symbolAt(i int) int32 {
	if i == len(text.units) { return Sentinel }
	return int32(text.units[i])
}

// Slice
//	A view of length code units starting at start. The view aliases the text.
func (text *Text) Slice(start, length int) ([]uint16, error) {
	if start < 0 || length < 0 || start + length > len(text.units) {
		return nil, errors.Wrapf(ErrOutOfRange, "text slice [%d, %d)", start, start + length)
	}

	return text.units[start:start + length], nil
}

// Substring
//	An owned Go string holding length code units starting at start.
func (text *Text) Substring(start, length int) (string, error) {
	view, sliceErr := text.Slice(start, length)
	if sliceErr != nil { return "", sliceErr }

	return string(utf16.Decode(view)), nil
}

// substringClamped
//	Substring variant used by query results, clamping the end to N so a range
//	that touches the sentinel position drops the sentinel rather than failing.
func (text *Text) substringClamped(start, end int) string {
	if start < 0 { start = 0 }
	if end > len(text.units) { end = len(text.units) }
	if start >= end { return "" }

	var sb strings.Builder
	for _, r := range utf16.Decode(text.units[start:end]) { sb.WriteRune(r) }

	return sb.String()
}

// Units
//	The raw code unit slice backing the text.
func (text *Text) Units() []uint16 {
	return text.units
}

// String
//	Decode the whole text back to a Go string.
func (text *Text) String() string {
	return string(utf16.Decode(text.units))
}
