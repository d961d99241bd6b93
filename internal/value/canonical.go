package value

import (
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Canonical ordering and normalization rules for the artifact encoding.
// Unordered map keys are emitted in RFC 8785 order (UTF-16 code units) and
// strings are NFC normalized, so the same logical value always encodes to
// the same bytes.

// canonicalKeys returns m's keys in RFC 8785 canonical order.
// CRITICAL: Go's sort.Strings compares UTF-8 bytes which produces a
// DIFFERENT order for strings outside the ASCII range.
func canonicalKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required by
// RFC 8785. Uses unicode/utf16.Encode for correct surrogate handling.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// normalize returns s in NFC form.
func normalize(s string) string {
	return norm.NFC.String(s)
}
