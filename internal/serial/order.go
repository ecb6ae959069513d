package serial

import (
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/covert/internal/value"
)

// entry is one [key, value] pair of an Object or Function node.
type entry struct {
	key string
	val value.Value
}

// sortEntries orders entries in reverse lexicographic key order.
// Keys compare by UTF-16 code units after NFC normalization, so canonically
// equivalent spellings sort together regardless of how they were typed.
func sortEntries(entries []entry) {
	slices.SortStableFunc(entries, func(a, b entry) int {
		return compareKeys(b.key, a.key)
	})
}

// compareKeys compares two keys by UTF-16 code units of their NFC forms.
func compareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(norm.NFC.String(a)))
	b16 := utf16.Encode([]rune(norm.NFC.String(b)))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
